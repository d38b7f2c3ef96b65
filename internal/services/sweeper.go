package services

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Sweepable is anything holding state that expires.
type Sweepable interface {
	Sweep() int
}

// Sweeper periodically drops expired assessment attempts.
type Sweeper struct {
	log      *zap.Logger
	target   Sweepable
	interval time.Duration
}

func NewSweeper(log *zap.Logger, target Sweepable, interval time.Duration) *Sweeper {
	return &Sweeper{
		log:      log,
		target:   target,
		interval: interval,
	}
}

// Start runs the sweeper in a goroutine until ctx is cancelled. The
// returned channel is closed once the goroutine has exited.
func (s *Sweeper) Start(ctx context.Context) <-chan struct{} {
	done := make(chan struct{})
	if s.interval <= 0 {
		s.log.Warn("Attempt sweeper disabled", zap.Duration("interval", s.interval))
		close(done)
		return done
	}

	s.log.Info("Starting attempt sweeper...", zap.Duration("interval", s.interval))
	go func() {
		defer close(done)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				s.log.Debug("Attempt sweeper stopped")
				return
			case <-ticker.C:
				s.runSweep()
			}
		}
	}()
	return done
}

func (s *Sweeper) runSweep() {
	if removed := s.target.Sweep(); removed > 0 {
		s.log.Info("Expired attempts removed", zap.Int("count", removed))
	}
}
