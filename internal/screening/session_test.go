package screening

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func allCorrect() map[ItemID]string {
	return map[ItemID]string{
		OrientationDateItem: "01/10/2025",
		WordRecallItem:      "Apple, Table, Penny",
		CountdownItem:       "20 19 18 17 16",
		WordReversalItem:    "dlrow",
		CategoryRecallItem:  "dog, cat, lion",
	}
}

func TestAggregateTiers(t *testing.T) {
	tests := []struct {
		passed  int
		percent int
		tier    RiskTier
	}{
		{5, 100, LowRisk},
		{4, 80, LowRisk},
		{3, 60, ModerateRisk},
		{2, 40, HighRisk},
		{1, 20, HighRisk},
		{0, 0, HighRisk},
	}
	for _, tt := range tests {
		items := make([]Item, ItemCount)
		for i := range items {
			items[i] = Item{ID: ItemIDs[i], Passed: i < tt.passed}
		}
		res := Aggregate(items)
		assert.Equal(t, tt.passed, res.Score)
		assert.Equal(t, tt.percent, res.Percent)
		assert.Equal(t, tt.tier, res.RiskTier)
		assert.Len(t, res.Items, ItemCount)

		again := Aggregate(items)
		assert.Equal(t, res, again, "aggregation must be idempotent")
	}
}

func TestTierForBoundaries(t *testing.T) {
	assert.Equal(t, LowRisk, TierFor(80))
	assert.Equal(t, ModerateRisk, TierFor(79))
	assert.Equal(t, ModerateRisk, TierFor(50))
	assert.Equal(t, HighRisk, TierFor(49))
	assert.Equal(t, 0, Percent(-3))
	assert.Equal(t, 100, Percent(9))
}

func TestSessionSubmitAllCorrect(t *testing.T) {
	s := NewSession(DefaultRules(), fixedClock(evalDay))

	res, err := s.Submit(allCorrect())
	require.NoError(t, err)
	assert.Equal(t, 5, res.Score)
	assert.Equal(t, 100, res.Percent)
	assert.Equal(t, LowRisk, res.RiskTier)

	for _, it := range s.Items() {
		assert.True(t, it.Passed, "item %s", it.ID)
	}
}

func TestSessionPartialAnswers(t *testing.T) {
	s := NewSession(DefaultRules(), fixedClock(evalDay))

	res, err := s.Submit(map[ItemID]string{
		WordRecallItem:     "apple table penny",
		WordReversalItem:   "dlrow",
		CategoryRecallItem: "dog cat lion",
		CountdownItem:      "19,18,17,16,15",
	})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Score)
	assert.Equal(t, 60, res.Percent)
	assert.Equal(t, ModerateRisk, res.RiskTier)
	assert.Equal(t, []ItemResult{
		{ID: OrientationDateItem, Passed: false},
		{ID: WordRecallItem, Passed: true},
		{ID: CountdownItem, Passed: false},
		{ID: WordReversalItem, Passed: true},
		{ID: CategoryRecallItem, Passed: true},
	}, res.Items)
}

func TestSessionResubmit(t *testing.T) {
	now := evalDay
	s := NewSession(DefaultRules(), func() time.Time { return now })

	first, err := s.Submit(allCorrect())
	require.NoError(t, err)

	// The evaluation date is pinned at first submission.
	now = now.AddDate(0, 0, 5)
	second, err := s.Submit(allCorrect())
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, first, s.Rescore())

	changed := allCorrect()
	changed[WordReversalItem] = "world"
	_, err = s.Submit(changed)
	assert.ErrorIs(t, err, ErrAlreadySubmitted)

	s.Reset()
	assert.False(t, s.Submitted())
	res, err := s.Submit(changed)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Score, "date is now five days stale and the reversal is wrong")
}

func TestSessionResultBeforeSubmit(t *testing.T) {
	s := NewSession(DefaultRules(), nil)
	_, ok := s.Result()
	assert.False(t, ok)
	for i, it := range s.Items() {
		assert.Equal(t, ItemIDs[i], it.ID)
		assert.Empty(t, it.RawAnswer)
	}
}
