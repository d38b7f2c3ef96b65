// internal/models/battery.go
package models

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"slices"

	"neuroscreen/internal/pattern"
	"neuroscreen/internal/screening"
	"neuroscreen/internal/trail"

	"gopkg.in/yaml.v3"
)

// Question is the prompt shown for one screening item
type Question struct {
	ID          screening.ItemID `yaml:"id" json:"id"`
	Title       string           `yaml:"title" json:"title"`
	Description string           `yaml:"description" json:"description"`
	Placeholder string           `yaml:"placeholder,omitempty" json:"placeholder,omitempty"`
}

// TrailLayout describes the trail test canvas. Explicit targets win over the
// generated circle layout.
type TrailLayout struct {
	Width   float64       `yaml:"width" json:"width"`
	Height  float64       `yaml:"height" json:"height"`
	Radius  float64       `yaml:"radius" json:"radius"`
	Count   int           `yaml:"count" json:"count"`
	Targets []trail.Point `yaml:"targets,omitempty" json:"targets,omitempty"`
}

// PatternSpec describes the pattern-replay test. A fixed sequence wins over
// a random one drawn from the palette.
type PatternSpec struct {
	Palette  []string `yaml:"palette" json:"palette"`
	Length   int      `yaml:"length" json:"length"`
	Sequence []string `yaml:"sequence,omitempty" json:"sequence,omitempty"`
}

// Battery holds the whole assessment definition
type Battery struct {
	Questions         []Question              `yaml:"questions"`
	RecallWords       []string                `yaml:"recall_words"`
	ReversalTarget    string                  `yaml:"reversal_target"`
	CategoryMinimum   int                     `yaml:"category_minimum"`
	DateToleranceDays *int                    `yaml:"date_tolerance_days"`
	Countdown         screening.CountdownRule `yaml:"countdown"`
	Trail             TrailLayout             `yaml:"trail"`
	Pattern           PatternSpec             `yaml:"pattern"`
}

// DefaultBattery returns the built-in battery.
func DefaultBattery() *Battery {
	b := &Battery{}
	b.applyDefaults()
	return b
}

// LoadBattery reads and parses a battery YAML file. Fields left out of the
// file keep their defaults.
func LoadBattery(path string) (*Battery, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read battery file: %w", err)
	}

	var battery Battery
	if err := yaml.Unmarshal(data, &battery); err != nil {
		return nil, fmt.Errorf("failed to unmarshal battery YAML: %w", err)
	}
	battery.applyDefaults()
	if err := battery.Validate(); err != nil {
		return nil, err
	}
	return &battery, nil
}

func (b *Battery) applyDefaults() {
	rules := screening.DefaultRules()
	if len(b.Questions) == 0 {
		b.Questions = defaultQuestions()
	}
	if len(b.RecallWords) == 0 {
		b.RecallWords = rules.RecallWords
	}
	if b.ReversalTarget == "" {
		b.ReversalTarget = rules.ReversalTarget
	}
	if b.CategoryMinimum == 0 {
		b.CategoryMinimum = rules.CategoryMinimum
	}
	if b.DateToleranceDays == nil {
		tolerance := rules.DateToleranceDays
		b.DateToleranceDays = &tolerance
	}
	if b.Countdown == (screening.CountdownRule{}) {
		b.Countdown = rules.Countdown
	}
	if b.Trail.Width == 0 {
		b.Trail.Width = 400
	}
	if b.Trail.Height == 0 {
		b.Trail.Height = 400
	}
	if b.Trail.Radius == 0 {
		b.Trail.Radius = 20
	}
	if b.Trail.Count == 0 && len(b.Trail.Targets) == 0 {
		b.Trail.Count = 8
	}
	if len(b.Pattern.Palette) == 0 {
		b.Pattern.Palette = []string{"red", "blue", "green", "yellow"}
	}
	if b.Pattern.Length == 0 && len(b.Pattern.Sequence) == 0 {
		b.Pattern.Length = 4
	}
}

// Validate checks the parts of the battery the controllers cannot recover
// from at runtime.
func (b *Battery) Validate() error {
	var errs []error
	for _, q := range b.Questions {
		if !q.ID.Valid() {
			errs = append(errs, fmt.Errorf("unknown question id %q", q.ID))
		}
	}
	if b.Countdown.MinNumbers < 1 || b.Countdown.CheckedPrefix < 1 {
		errs = append(errs, errors.New("countdown min_numbers and checked_prefix must be positive"))
	}
	if *b.DateToleranceDays < 0 {
		errs = append(errs, errors.New("date_tolerance_days must not be negative"))
	}
	if b.Trail.Radius <= 0 {
		errs = append(errs, errors.New("trail radius must be positive"))
	}
	if len(b.Trail.Targets) == 0 && b.Trail.Count < 1 {
		errs = append(errs, errors.New("trail count must be positive when no targets are listed"))
	}
	if len(b.Pattern.Sequence) == 0 && b.Pattern.Length < 1 {
		errs = append(errs, errors.New("pattern length must be positive"))
	}
	for i, tok := range b.Pattern.Sequence {
		if !slices.Contains(b.Pattern.Palette, tok) {
			errs = append(errs, fmt.Errorf("pattern sequence[%d] %q is not in the palette", i, tok))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid battery: %w", err)
	}
	return nil
}

// Rules returns the screening rules for this battery.
func (b *Battery) Rules() screening.Rules {
	return screening.Rules{
		RecallWords:       b.RecallWords,
		ReversalTarget:    b.ReversalTarget,
		CategoryMinimum:   b.CategoryMinimum,
		DateToleranceDays: *b.DateToleranceDays,
		Countdown:         b.Countdown,
	}
}

// TrailTargets returns the trail test layout.
func (b *Battery) TrailTargets() []trail.Target {
	if len(b.Trail.Targets) == 0 {
		return trail.CircleLayout(b.Trail.Count, b.Trail.Width, b.Trail.Height, b.Trail.Radius)
	}
	targets := make([]trail.Target, len(b.Trail.Targets))
	for i, p := range b.Trail.Targets {
		targets[i] = trail.Target{Index: i, Position: p, Radius: b.Trail.Radius}
	}
	return targets
}

// PatternOriginal returns the sequence for a new pattern test.
func (b *Battery) PatternOriginal(r *rand.Rand) ([]pattern.Token, error) {
	if len(b.Pattern.Sequence) > 0 {
		return tokens(b.Pattern.Sequence), nil
	}
	return pattern.Random(tokens(b.Pattern.Palette), b.Pattern.Length, r)
}

// Question returns the prompt for id.
func (b *Battery) Question(id screening.ItemID) (Question, bool) {
	for _, q := range b.Questions {
		if q.ID == id {
			return q, true
		}
	}
	return Question{}, false
}

func tokens(values []string) []pattern.Token {
	out := make([]pattern.Token, len(values))
	for i, v := range values {
		out[i] = pattern.Token(v)
	}
	return out
}

func defaultQuestions() []Question {
	return []Question{
		{ID: screening.OrientationDateItem, Title: "What is today's date?", Description: "Day, month and year.", Placeholder: "DD/MM/YYYY"},
		{ID: screening.WordRecallItem, Title: "Recall the three words shown earlier.", Placeholder: "word, word, word"},
		{ID: screening.CountdownItem, Title: "Count backwards from 20 to 1.", Placeholder: "20, 19, 18, ..."},
		{ID: screening.WordReversalItem, Title: "Spell the word WORLD backwards."},
		{ID: screening.CategoryRecallItem, Title: "Name three animals.", Placeholder: "animal, animal, animal"},
	}
}
