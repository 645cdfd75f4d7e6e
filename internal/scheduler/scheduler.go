package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/hammerline/paddle/internal/domain/auctions"
	"github.com/hammerline/paddle/pkg/clock"
)

// Sweeper advances time-driven auction state. Implemented by the auction
// service; the scheduler only decides when to run it.
type Sweeper interface {
	Sweep(ctx context.Context, now time.Time) (auctions.SweepResult, error)
}

// LifecycleScheduler runs the periodic sweep that starts due auctions and
// completes overdue ones. A tick is idempotent: the sweep's conditional
// transitions make re-runs and races with manual start/end calls no-ops.
type LifecycleScheduler struct {
	sweeper  Sweeper
	interval time.Duration
	clock    clock.Clock
	logger   *slog.Logger
}

// NewLifecycleScheduler creates a new lifecycle scheduler
func NewLifecycleScheduler(sweeper Sweeper, interval time.Duration, clk clock.Clock, logger *slog.Logger) *LifecycleScheduler {
	return &LifecycleScheduler{
		sweeper:  sweeper,
		interval: interval,
		clock:    clk,
		logger:   logger,
	}
}

// Run starts the sweep loop
func (s *LifecycleScheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	// Initial sweep
	if _, err := s.Tick(ctx); err != nil {
		s.logger.Error("Error running lifecycle sweep", "error", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := s.Tick(ctx); err != nil {
				s.logger.Error("Error running lifecycle sweep", "error", err)
			}
		}
	}
}

// Tick performs one sweep at the current time and reports which auctions
// were transitioned.
func (s *LifecycleScheduler) Tick(ctx context.Context) (auctions.SweepResult, error) {
	result, err := s.sweeper.Sweep(ctx, s.clock.Now())
	if err != nil {
		return result, err
	}

	if len(result.Started) > 0 || len(result.Ended) > 0 {
		s.logger.Info("Lifecycle sweep complete",
			"started", len(result.Started), "ended", len(result.Ended))
	}
	return result, nil
}
