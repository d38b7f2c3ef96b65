// Package pattern implements the pattern-replay test: a shown sequence of
// tokens must be reproduced in the same order.
package pattern

import (
	"errors"
	"math/rand/v2"
	"slices"
)

var (
	ErrEmptyPattern = errors.New("pattern: original sequence is empty")
	ErrEmptyPalette = errors.New("pattern: palette is empty")
)

// Token identifies one selectable tile, e.g. a colour name.
type Token string

// Status is the controller state after a selection.
type Status struct {
	Selected int  `json:"selected"`
	Length   int  `json:"length"`
	Complete bool `json:"complete"`
	// Matched is only meaningful when Complete is true.
	Matched bool `json:"matched"`
}

// Controller records the user's replay of a fixed original sequence. It is
// not safe for concurrent use.
type Controller struct {
	original []Token
	user     []Token
	complete bool
	matched  bool

	attempts int
	matches  int
}

// NewController copies original and returns a controller with an empty
// user sequence.
func NewController(original []Token) (*Controller, error) {
	if len(original) == 0 {
		return nil, ErrEmptyPattern
	}
	owned := make([]Token, len(original))
	copy(owned, original)
	return &Controller{original: owned, user: make([]Token, 0, len(owned))}, nil
}

// Random draws an original sequence of length n from palette.
func Random(palette []Token, n int, r *rand.Rand) ([]Token, error) {
	if len(palette) == 0 {
		return nil, ErrEmptyPalette
	}
	if n <= 0 {
		return nil, ErrEmptyPattern
	}
	seq := make([]Token, n)
	for i := range seq {
		seq[i] = palette[r.IntN(len(palette))]
	}
	return seq, nil
}

// RegisterSelection appends token to the user sequence. Once the user
// sequence reaches the original's length it is compared position by
// position; further selections are ignored until Reset.
func (c *Controller) RegisterSelection(token Token) Status {
	if c.complete {
		return c.Status()
	}

	c.user = append(c.user, token)
	if len(c.user) == len(c.original) {
		c.complete = true
		c.matched = slices.Equal(c.user, c.original)
		c.attempts++
		if c.matched {
			c.matches++
		}
	}
	return c.Status()
}

// Reset clears the user sequence and any previous result.
func (c *Controller) Reset() {
	c.user = c.user[:0]
	c.complete = false
	c.matched = false
}

// Status reports the current progress.
func (c *Controller) Status() Status {
	return Status{
		Selected: len(c.user),
		Length:   len(c.original),
		Complete: c.complete,
		Matched:  c.complete && c.matched,
	}
}

// Original returns a copy of the sequence to reproduce.
func (c *Controller) Original() []Token {
	out := make([]Token, len(c.original))
	copy(out, c.original)
	return out
}

// Attempts returns how many complete replays were made and how many of
// them matched, across resets.
func (c *Controller) Attempts() (attempts, matches int) {
	return c.attempts, c.matches
}
