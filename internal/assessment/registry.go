package assessment

import (
	"errors"
	"math/rand/v2"
	"sync"
	"time"

	"neuroscreen/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	// ErrAttemptNotFound is returned for unknown or expired attempt ids.
	ErrAttemptNotFound = errors.New("assessment: attempt not found")
	// ErrRegistryFull is returned by Start when the attempt cap is reached.
	ErrRegistryFull = errors.New("assessment: too many active attempts")
)

// Registry keeps in-progress attempts in memory. Nothing is persisted: an
// attempt lives until it is discarded, replaced or idle for longer than
// the TTL.
type Registry struct {
	log     *zap.Logger
	battery *models.Battery
	ttl     time.Duration
	now     func() time.Time
	max     int

	mu       sync.Mutex
	attempts map[uuid.UUID]*Attempt
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithMaxAttempts caps the number of live attempts. Zero means no cap.
func WithMaxAttempts(n int) RegistryOption {
	return func(r *Registry) { r.max = n }
}

// NewRegistry creates an empty registry. now may be nil.
func NewRegistry(log *zap.Logger, battery *models.Battery, ttl time.Duration, now func() time.Time, opts ...RegistryOption) *Registry {
	if now == nil {
		now = time.Now
	}
	r := &Registry{
		log:      log,
		battery:  battery,
		ttl:      ttl,
		now:      now,
		attempts: make(map[uuid.UUID]*Attempt),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Start creates and stores a fresh attempt.
func (r *Registry) Start() (*Attempt, error) {
	rng := rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	a, err := NewAttempt(r.battery, r.now, rng, r.trailCompleted)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	if r.max > 0 && len(r.attempts) >= r.max {
		r.sweepLocked()
		if len(r.attempts) >= r.max {
			r.mu.Unlock()
			r.log.Warn("Attempt registry full", zap.Int("max_attempts", r.max))
			return nil, ErrRegistryFull
		}
	}
	r.attempts[a.ID] = a
	r.mu.Unlock()

	r.log.Debug("Attempt started", zap.String("attempt_id", a.ID.String()))
	return a, nil
}

// Get returns the attempt and marks it as recently used.
func (r *Registry) Get(id uuid.UUID) (*Attempt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.attempts[id]
	if !ok {
		return nil, ErrAttemptNotFound
	}
	if r.expired(a) {
		delete(r.attempts, id)
		return nil, ErrAttemptNotFound
	}
	a.lastUsed = r.now()
	return a, nil
}

// Discard drops an attempt. Unknown ids are ignored.
func (r *Registry) Discard(id uuid.UUID) {
	r.mu.Lock()
	delete(r.attempts, id)
	r.mu.Unlock()
}

// Sweep removes every expired attempt and returns how many were dropped.
func (r *Registry) Sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sweepLocked()
}

func (r *Registry) sweepLocked() int {
	removed := 0
	for id, a := range r.attempts {
		if r.expired(a) {
			delete(r.attempts, id)
			removed++
		}
	}
	return removed
}

// Len returns the number of live attempts.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.attempts)
}

func (r *Registry) expired(a *Attempt) bool {
	return r.ttl > 0 && r.now().Sub(a.lastUsed) > r.ttl
}

func (r *Registry) trailCompleted(id uuid.UUID) {
	r.log.Info("Trail test completed", zap.String("attempt_id", id.String()))
}
