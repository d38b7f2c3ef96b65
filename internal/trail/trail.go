// Package trail implements the ordered-point trail test: numbered targets
// must be clicked in ascending order.
package trail

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// MaxLoggedMisses bounds how many missed clicks are kept in the click log.
// Misses past the bound are still counted.
const MaxLoggedMisses = 64

var (
	ErrNoTargets     = errors.New("trail: at least one target is required")
	ErrInvalidRadius = errors.New("trail: target radius must be positive")
)

// Point is a pointer position in canvas coordinates.
type Point struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Distance returns the Euclidean distance between p and q.
func (p Point) Distance(q Point) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}

// Target is one numbered circle on the canvas.
type Target struct {
	Index    int     `json:"index"`
	Position Point   `json:"position"`
	Radius   float64 `json:"radius"`
}

// Contains reports whether p falls strictly inside the target.
func (t Target) Contains(p Point) bool {
	return p.Distance(t.Position) < t.Radius
}

// Click records one registered point, hit or miss.
type Click struct {
	Point
	At          time.Time `json:"at"`
	TargetIndex int       `json:"targetIndex"`
	Hit         bool      `json:"hit"`
}

// Outcome is the controller state after a registered point.
type Outcome struct {
	NextExpectedIndex int  `json:"nextExpectedIndex"`
	Accepted          bool `json:"accepted"`
	Done              bool `json:"done"`
	// Completed is true only for the point that finished the trail.
	Completed bool `json:"completed"`
}

// Controller tracks progress through a fixed target list. It is not safe
// for concurrent use; callers serialize events.
type Controller struct {
	targets    []Target
	next       int
	onComplete func()
	now        func() time.Time

	startedAt   time.Time
	completedAt time.Time
	clicks      []Click
	misses      int
}

// Option configures a Controller.
type Option func(*Controller)

// WithClock overrides the time source used to stamp clicks.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// OnComplete registers a callback fired exactly once, when the last target
// is hit.
func OnComplete(fn func()) Option {
	return func(c *Controller) { c.onComplete = fn }
}

// NewController validates targets and returns a controller waiting for the
// first one. Targets are re-indexed by their position in the slice.
func NewController(targets []Target, opts ...Option) (*Controller, error) {
	if len(targets) == 0 {
		return nil, ErrNoTargets
	}
	owned := make([]Target, len(targets))
	for i, t := range targets {
		if !(t.Radius > 0) {
			return nil, fmt.Errorf("%w: target %d has radius %v", ErrInvalidRadius, i, t.Radius)
		}
		t.Index = i
		owned[i] = t
	}

	c := &Controller{targets: owned, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	c.startedAt = c.now()
	return c, nil
}

// RegisterPoint handles one pointer click. A click inside the current target
// advances the trail; anything else leaves the state unchanged. Clicks after
// completion are ignored.
func (c *Controller) RegisterPoint(p Point) Outcome {
	if c.Done() {
		return c.outcome(false, false)
	}

	target := c.targets[c.next]
	click := Click{Point: p, At: c.now(), TargetIndex: target.Index, Hit: target.Contains(p)}
	if !click.Hit {
		if c.misses < MaxLoggedMisses {
			c.clicks = append(c.clicks, click)
		}
		c.misses++
		return c.outcome(false, false)
	}
	c.clicks = append(c.clicks, click)

	c.next++
	if !c.Done() {
		return c.outcome(true, false)
	}

	c.completedAt = click.At
	if c.onComplete != nil {
		c.onComplete()
	}
	return c.outcome(true, true)
}

func (c *Controller) outcome(accepted, completed bool) Outcome {
	return Outcome{
		NextExpectedIndex: c.next,
		Accepted:          accepted,
		Done:              c.Done(),
		Completed:         completed,
	}
}

// NextExpectedIndex returns the index of the target that must be hit next.
func (c *Controller) NextExpectedIndex() int { return c.next }

// Done reports whether every target has been hit.
func (c *Controller) Done() bool { return c.next == len(c.targets) }

// Targets returns a copy of the target layout.
func (c *Controller) Targets() []Target {
	out := make([]Target, len(c.targets))
	copy(out, c.targets)
	return out
}

// Hits returns how many clicks advanced the trail.
func (c *Controller) Hits() int { return c.next }

// Misses returns how many clicks landed outside the expected target,
// including those no longer kept in the click log.
func (c *Controller) Misses() int { return c.misses }

// Clicks returns a copy of the click log: every hit, plus the first
// MaxLoggedMisses misses.
func (c *Controller) Clicks() []Click {
	out := make([]Click, len(c.clicks))
	copy(out, c.clicks)
	return out
}

// StartedAt returns when the controller was created.
func (c *Controller) StartedAt() time.Time { return c.startedAt }

// CompletedAt returns when the last target was hit, or the zero time.
func (c *Controller) CompletedAt() time.Time { return c.completedAt }
