package screening

import (
	"errors"
	"time"
)

// ErrAlreadySubmitted is returned when a session that has been scored is
// submitted again with different answers.
var ErrAlreadySubmitted = errors.New("screening: answers already submitted")

// Item is one answered question.
type Item struct {
	ID               ItemID `json:"id"`
	RawAnswer        string `json:"rawAnswer"`
	NormalizedAnswer string `json:"normalizedAnswer"`
	Passed           bool   `json:"passed"`
}

// Session is one run of the five-item battery. It is scored once on
// submission and discarded on reset. A Session is not safe for concurrent
// use.
type Session struct {
	rules Rules
	now   func() time.Time

	items       [ItemCount]Item
	submitted   bool
	evaluatedOn time.Time
	result      Result
}

// NewSession creates an empty session. now supplies the evaluation date for
// the orientation item; nil means time.Now.
func NewSession(rules Rules, now func() time.Time) *Session {
	if now == nil {
		now = time.Now
	}
	s := &Session{rules: rules, now: now}
	s.Reset()
	return s
}

// Submit records the answers and scores them. Missing keys count as empty
// answers. Submitting the same answers again returns the same result;
// different answers yield ErrAlreadySubmitted until Reset is called.
func (s *Session) Submit(answers map[ItemID]string) (Result, error) {
	if s.submitted {
		for i, id := range ItemIDs {
			if answers[id] != s.items[i].RawAnswer {
				return Result{}, ErrAlreadySubmitted
			}
		}
		return s.Rescore(), nil
	}

	for i, id := range ItemIDs {
		s.items[i].RawAnswer = answers[id]
	}
	s.submitted = true
	s.evaluatedOn = s.now()
	return s.Rescore(), nil
}

// Rescore recomputes the derived fields from the stored raw answers. It is
// idempotent: the evaluation date is fixed at submission.
func (s *Session) Rescore() Result {
	for i := range s.items {
		it := &s.items[i]
		it.NormalizedAnswer, it.Passed = s.rules.Check(it.ID, it.RawAnswer, s.evaluatedOn)
	}
	s.result = Aggregate(s.items[:])
	return s.result
}

// Result returns the last scoring result and whether the session has been
// submitted.
func (s *Session) Result() (Result, bool) {
	return s.result, s.submitted
}

// Submitted reports whether the answers have been scored.
func (s *Session) Submitted() bool {
	return s.submitted
}

// Items returns a copy of the answered items.
func (s *Session) Items() []Item {
	out := make([]Item, ItemCount)
	copy(out, s.items[:])
	return out
}

// Reset clears all answers and the result.
func (s *Session) Reset() {
	for i, id := range ItemIDs {
		s.items[i] = Item{ID: id}
	}
	s.submitted = false
	s.evaluatedOn = time.Time{}
	s.result = Result{}
}
