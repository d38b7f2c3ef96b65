// Package assessment ties one screening session and the two spatial tests
// into a single in-progress attempt.
package assessment

import (
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"neuroscreen/internal/metrics"
	"neuroscreen/internal/models"
	"neuroscreen/internal/pattern"
	"neuroscreen/internal/screening"
	"neuroscreen/internal/trail"

	"github.com/google/uuid"
)

// Record is the data handed to the presentation layer.
type Record struct {
	AttemptID string                `json:"attemptId"`
	Screening *screening.Result     `json:"screening,omitempty"`
	Trail     metrics.TrailResult   `json:"trail"`
	Pattern   metrics.PatternResult `json:"pattern"`
}

// Attempt owns the state of one assessment. Every method takes the attempt
// lock, so events are applied one at a time in the order they arrive.
type Attempt struct {
	ID        uuid.UUID
	CreatedAt time.Time

	mu        sync.Mutex
	screening *screening.Session
	trail     *trail.Controller
	pattern   *pattern.Controller

	// lastUsed is guarded by the owning Registry's lock.
	lastUsed time.Time
}

// NewAttempt builds fresh controllers from the battery. onTrailComplete, if
// set, receives the trail completion signal.
func NewAttempt(b *models.Battery, now func() time.Time, r *rand.Rand, onTrailComplete func(uuid.UUID)) (*Attempt, error) {
	if now == nil {
		now = time.Now
	}
	a := &Attempt{ID: uuid.New(), CreatedAt: now()}
	a.lastUsed = a.CreatedAt

	a.screening = screening.NewSession(b.Rules(), now)

	opts := []trail.Option{trail.WithClock(now)}
	if onTrailComplete != nil {
		id := a.ID
		opts = append(opts, trail.OnComplete(func() { onTrailComplete(id) }))
	}
	tc, err := trail.NewController(b.TrailTargets(), opts...)
	if err != nil {
		return nil, fmt.Errorf("trail test: %w", err)
	}
	a.trail = tc

	original, err := b.PatternOriginal(r)
	if err != nil {
		return nil, fmt.Errorf("pattern test: %w", err)
	}
	pc, err := pattern.NewController(original)
	if err != nil {
		return nil, fmt.Errorf("pattern test: %w", err)
	}
	a.pattern = pc

	return a, nil
}

// SubmitScreening scores the five answers.
func (a *Attempt) SubmitScreening(answers map[screening.ItemID]string) (screening.Result, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.screening.Submit(answers)
}

// ScreeningItems returns the per-item breakdown.
func (a *Attempt) ScreeningItems() []screening.Item {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.screening.Items()
}

// TrailTargets returns the trail test layout.
func (a *Attempt) TrailTargets() []trail.Target {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.trail.Targets()
}

// RegisterPoint forwards a pointer click to the trail test.
func (a *Attempt) RegisterPoint(p trail.Point) trail.Outcome {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.trail.RegisterPoint(p)
}

// PatternOriginal returns the sequence to reproduce.
func (a *Attempt) PatternOriginal() []pattern.Token {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.pattern.Original()
}

// RegisterSelection forwards a tile selection to the pattern test.
func (a *Attempt) RegisterSelection(tok pattern.Token) pattern.Status {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.pattern.RegisterSelection(tok)
}

// ResetPattern clears the user's pattern replay.
func (a *Attempt) ResetPattern() pattern.Status {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.pattern.Reset()
	return a.pattern.Status()
}

// Record snapshots the attempt for presentation.
func (a *Attempt) Record() Record {
	a.mu.Lock()
	defer a.mu.Unlock()

	rec := Record{
		AttemptID: a.ID.String(),
		Trail:     metrics.CalculateTrailMetrics(a.trail),
		Pattern:   metrics.CalculatePatternMetrics(a.pattern),
	}
	if res, ok := a.screening.Result(); ok {
		rec.Screening = &res
	}
	return rec
}
