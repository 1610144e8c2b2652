package ingest

import (
	"context"
	"io"
	"log/slog"
	"time"
)

// DefaultInterval is the time between scheduled update cycles.
const DefaultInterval = 24 * time.Hour

// Updater runs a single update cycle.
type Updater interface {
	Update(ctx context.Context) (*Result, error)
}

var _ Updater = (*Controller)(nil)

// Scheduler runs update cycles periodically.
type Scheduler struct {
	Controller Updater
	Interval   time.Duration
	Logger     *slog.Logger
}

// Run performs one cycle immediately and another on every tick until ctx
// is done. Cycles never overlap: ticks that arrive while a cycle runs are
// dropped. Cycle errors are logged and do not stop the scheduler.
func (s *Scheduler) Run(ctx context.Context) error {
	interval := s.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}

	s.cycle(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.cycle(ctx)
		}
	}
}

func (s *Scheduler) cycle(ctx context.Context) {
	logger := s.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	if _, err := s.Controller.Update(ctx); err != nil {
		if ctx.Err() != nil {
			return
		}
		logger.Error("scheduled update failed", "err", err)
	}
}
