// Package health runs the liveness sweeper: a scheduled scan for jobs
// that stopped making progress. The sweeper only reports; recovery is
// an operator decision.
package health

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/vapodego/aibabyapp-project-sub001/job"
)

// Sweeper periodically lists non-terminal jobs whose last write is
// older than the stale threshold and logs each one.
type Sweeper struct {
	store      job.Store
	logger     *slog.Logger
	schedule   string
	staleAfter time.Duration
	scanBudget time.Duration

	c *cron.Cron
}

// SweeperOption configures a Sweeper.
type SweeperOption func(*Sweeper)

// WithSchedule sets the cron schedule, e.g. "@every 1m".
func WithSchedule(schedule string) SweeperOption {
	return func(s *Sweeper) { s.schedule = schedule }
}

// WithStaleAfter sets how long a job may go without a write before it
// counts as stalled.
func WithStaleAfter(d time.Duration) SweeperOption {
	return func(s *Sweeper) { s.staleAfter = d }
}

// NewSweeper creates a Sweeper.
func NewSweeper(store job.Store, logger *slog.Logger, opts ...SweeperOption) *Sweeper {
	s := &Sweeper{
		store:      store,
		logger:     logger,
		schedule:   "@every 1m",
		staleAfter: 15 * time.Minute,
		scanBudget: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start schedules the sweep. It returns immediately.
func (s *Sweeper) Start() error {
	s.c = cron.New()
	if _, err := s.c.AddFunc(s.schedule, s.sweep); err != nil {
		return fmt.Errorf("health: invalid sweep schedule %q: %w", s.schedule, err)
	}

	s.logger.Info("liveness sweeper starting",
		slog.String("schedule", s.schedule),
		slog.Duration("stale_after", s.staleAfter),
	)
	s.c.Start()
	return nil
}

// Stop halts the schedule and waits for a running sweep to finish or
// the context to expire.
func (s *Sweeper) Stop(ctx context.Context) error {
	if s.c == nil {
		return nil
	}
	stopCtx := s.c.Stop()
	select {
	case <-stopCtx.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Sweeper) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), s.scanBudget)
	defer cancel()

	stalled, err := s.store.ListStalled(ctx, s.staleAfter)
	if err != nil {
		s.logger.Error("stalled job scan failed", slog.String("error", err.Error()))
		return
	}

	for _, j := range stalled {
		s.logger.Warn("job stalled",
			slog.String("job_id", j.ID.String()),
			slog.String("status", string(j.Status)),
			slog.Int("stage", j.Stage),
			slog.Duration("age", time.Since(j.UpdatedAt)),
		)
	}
}
