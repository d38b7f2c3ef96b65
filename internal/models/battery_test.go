package models

import (
	"math/rand/v2"
	"os"
	"path/filepath"
	"testing"

	"neuroscreen/internal/pattern"
	"neuroscreen/internal/screening"
	"neuroscreen/internal/trail"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeBattery(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "battery.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadShippedBattery(t *testing.T) {
	path := filepath.Join("..", "..", "config", "battery.yaml")
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Skip("battery file not found, skipping")
	}

	b, err := LoadBattery(path)
	require.NoError(t, err)
	assert.Len(t, b.Questions, screening.ItemCount)
	assert.Equal(t, screening.DefaultRules(), b.Rules())
	assert.Len(t, b.TrailTargets(), 8)
}

func TestLoadBatteryOverrides(t *testing.T) {
	path := writeBattery(t, `
recall_words: [river, nickel, lamp]
reversal_target: HOUSE
date_tolerance_days: 0
trail:
  radius: 15
  targets:
    - {x: 10, y: 10}
    - {x: 80, y: 40}
pattern:
  sequence: [red, red, blue]
`)

	b, err := LoadBattery(path)
	require.NoError(t, err)

	rules := b.Rules()
	assert.Equal(t, []string{"river", "nickel", "lamp"}, rules.RecallWords)
	assert.Equal(t, "HOUSE", rules.ReversalTarget)
	assert.Equal(t, 0, rules.DateToleranceDays)
	assert.Equal(t, 3, rules.CategoryMinimum)
	assert.Equal(t, 20, rules.Countdown.Start)

	assert.Equal(t, []trail.Target{
		{Index: 0, Position: trail.Point{X: 10, Y: 10}, Radius: 15},
		{Index: 1, Position: trail.Point{X: 80, Y: 40}, Radius: 15},
	}, b.TrailTargets())

	seq, err := b.PatternOriginal(rand.New(rand.NewPCG(1, 1)))
	require.NoError(t, err)
	assert.Equal(t, []pattern.Token{"red", "red", "blue"}, seq)

	_, ok := b.Question(screening.WordReversalItem)
	assert.True(t, ok)
}

func TestLoadBatteryErrors(t *testing.T) {
	_, err := LoadBattery(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = LoadBattery(writeBattery(t, "recall_words: [unterminated"))
	assert.Error(t, err)

	_, err = LoadBattery(writeBattery(t, `
questions:
  - id: q7
    title: bogus
date_tolerance_days: -2
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown question id "q7"`)
	assert.Contains(t, err.Error(), "date_tolerance_days")

	_, err = LoadBattery(writeBattery(t, `
trail:
  count: -3
pattern:
  palette: [red, blue]
  sequence: [red, purple]
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "trail count must be positive")
	assert.Contains(t, err.Error(), `pattern sequence[1] "purple" is not in the palette`)
	assert.NotContains(t, err.Error(), `"red"`)
}

func TestDefaultBatteryRandomPattern(t *testing.T) {
	b := DefaultBattery()
	require.NoError(t, b.Validate())

	seq, err := b.PatternOriginal(rand.New(rand.NewPCG(7, 9)))
	require.NoError(t, err)
	assert.Len(t, seq, 4)
}
