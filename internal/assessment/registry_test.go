package assessment

import (
	"sync"
	"testing"
	"time"

	"neuroscreen/internal/models"
	"neuroscreen/internal/pattern"
	"neuroscreen/internal/screening"
	"neuroscreen/internal/trail"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testBattery() *models.Battery {
	b := models.DefaultBattery()
	b.Trail.Targets = []trail.Point{{X: 50, Y: 50}, {X: 150, Y: 50}, {X: 250, Y: 50}}
	b.Pattern.Sequence = []string{"red", "blue", "green"}
	return b
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func TestRegistryLifecycle(t *testing.T) {
	clk := &clock{now: time.Date(2025, 10, 1, 10, 0, 0, 0, time.UTC)}
	reg := NewRegistry(zap.NewNop(), testBattery(), 30*time.Minute, clk.Now)

	a, err := reg.Start()
	require.NoError(t, err)
	assert.Equal(t, 1, reg.Len())

	got, err := reg.Get(a.ID)
	require.NoError(t, err)
	assert.Same(t, a, got)

	_, err = reg.Get(uuid.New())
	assert.ErrorIs(t, err, ErrAttemptNotFound)

	reg.Discard(a.ID)
	_, err = reg.Get(a.ID)
	assert.ErrorIs(t, err, ErrAttemptNotFound)
}

func TestRegistryExpiry(t *testing.T) {
	clk := &clock{now: time.Date(2025, 10, 1, 10, 0, 0, 0, time.UTC)}
	reg := NewRegistry(zap.NewNop(), testBattery(), 30*time.Minute, clk.Now)

	idle, err := reg.Start()
	require.NoError(t, err)
	active, err := reg.Start()
	require.NoError(t, err)

	clk.Advance(20 * time.Minute)
	_, err = reg.Get(active.ID)
	require.NoError(t, err)

	clk.Advance(15 * time.Minute)
	assert.Equal(t, 1, reg.Sweep())
	assert.Equal(t, 1, reg.Len())

	_, err = reg.Get(idle.ID)
	assert.ErrorIs(t, err, ErrAttemptNotFound)

	clk.Advance(time.Hour)
	_, err = reg.Get(active.ID)
	assert.ErrorIs(t, err, ErrAttemptNotFound)
	assert.Equal(t, 0, reg.Len())
}

func TestRegistryMaxAttempts(t *testing.T) {
	clk := &clock{now: time.Date(2025, 10, 1, 10, 0, 0, 0, time.UTC)}
	reg := NewRegistry(zap.NewNop(), testBattery(), 30*time.Minute, clk.Now, WithMaxAttempts(2))

	_, err := reg.Start()
	require.NoError(t, err)
	second, err := reg.Start()
	require.NoError(t, err)

	_, err = reg.Start()
	assert.ErrorIs(t, err, ErrRegistryFull)
	assert.Equal(t, 2, reg.Len())

	reg.Discard(second.ID)
	_, err = reg.Start()
	require.NoError(t, err)

	// Expired attempts make room without waiting for the sweeper.
	clk.Advance(time.Hour)
	_, err = reg.Start()
	require.NoError(t, err)
	assert.Equal(t, 1, reg.Len())
}

func TestAttemptRecord(t *testing.T) {
	clk := &clock{now: time.Date(2025, 10, 1, 10, 0, 0, 0, time.UTC)}
	reg := NewRegistry(zap.NewNop(), testBattery(), 0, clk.Now)
	a, err := reg.Start()
	require.NoError(t, err)

	rec := a.Record()
	assert.Equal(t, a.ID.String(), rec.AttemptID)
	assert.Nil(t, rec.Screening)
	assert.False(t, rec.Trail.Completed)

	res, err := a.SubmitScreening(map[screening.ItemID]string{
		screening.OrientationDateItem: "1/10/2025",
		screening.WordRecallItem:      "apple table penny",
	})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Score)

	for _, target := range a.TrailTargets() {
		clk.Advance(time.Second)
		a.RegisterPoint(target.Position)
	}
	for _, tok := range a.PatternOriginal() {
		a.RegisterSelection(tok)
	}

	rec = a.Record()
	require.NotNil(t, rec.Screening)
	assert.Equal(t, screening.HighRisk, rec.Screening.RiskTier)
	assert.True(t, rec.Trail.Completed)
	assert.InDelta(t, 3000.0, rec.Trail.CompletionTime, 1e-9)
	assert.True(t, rec.Pattern.Matched)

	st := a.ResetPattern()
	assert.Equal(t, pattern.Status{Length: 3}, st)
}

func TestAttemptSerializesEvents(t *testing.T) {
	reg := NewRegistry(zap.NewNop(), testBattery(), 0, nil)
	a, err := reg.Start()
	require.NoError(t, err)
	first := a.TrailTargets()[0].Position

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			a.RegisterPoint(first)
		}()
	}
	wg.Wait()

	// Only the first hit on target 0 advances; the rest miss target 1.
	rec := a.Record()
	assert.Equal(t, 1, rec.Trail.Hits)
	assert.Equal(t, 49, rec.Trail.Errors)
}
