package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/vapodego/aibabyapp-project-sub001/event"
	"github.com/vapodego/aibabyapp-project-sub001/id"
)

// Runner executes one pass for a dispatched job. *Executor satisfies it.
type Runner interface {
	Execute(ctx context.Context, jobID id.JobID) error
}

// Trigger consumes job creation events and runs each job through the
// Runner in its own goroutine, bounded by a concurrency limit and a
// per-job execution budget.
type Trigger struct {
	bus    *event.Bus
	runner Runner
	logger *slog.Logger

	budget time.Duration
	sem    chan struct{}

	stopCh  chan struct{}
	wg      sync.WaitGroup
	mu      sync.Mutex
	running bool
}

// TriggerOption configures a Trigger.
type TriggerOption func(*Trigger)

// WithConcurrency sets the number of jobs that may run at once.
func WithConcurrency(n int) TriggerOption {
	return func(t *Trigger) {
		if n > 0 {
			t.sem = make(chan struct{}, n)
		}
	}
}

// WithBudget sets the per-job execution budget. A job that exceeds it
// is abandoned mid-pass and left non-terminal.
func WithBudget(d time.Duration) TriggerOption {
	return func(t *Trigger) {
		if d > 0 {
			t.budget = d
		}
	}
}

// NewTrigger creates a Trigger subscribed to the given bus.
func NewTrigger(bus *event.Bus, runner Runner, logger *slog.Logger, opts ...TriggerOption) *Trigger {
	t := &Trigger{
		bus:    bus,
		runner: runner,
		logger: logger,
		budget: 9 * time.Minute,
		sem:    make(chan struct{}, 4),
		stopCh: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Start launches the consume loop. It returns immediately.
func (t *Trigger) Start(_ context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.running {
		return nil
	}
	t.running = true

	t.logger.Info("dispatch trigger starting",
		slog.Int("concurrency", cap(t.sem)),
		slog.Duration("budget", t.budget),
	)

	t.wg.Add(1)
	go t.loop()
	return nil
}

// Stop signals the consume loop to stop and waits for in-flight jobs
// to finish or the context to expire.
func (t *Trigger) Stop(ctx context.Context) error {
	t.mu.Lock()
	if !t.running {
		t.mu.Unlock()
		return nil
	}
	t.running = false
	t.mu.Unlock()

	t.logger.Info("dispatch trigger stopping")
	close(t.stopCh)

	done := make(chan struct{})
	go func() {
		t.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		t.logger.Info("dispatch trigger stopped gracefully")
		return nil
	case <-ctx.Done():
		t.logger.Warn("dispatch trigger shutdown timed out")
		return ctx.Err()
	}
}

func (t *Trigger) loop() {
	defer t.wg.Done()

	for {
		select {
		case <-t.stopCh:
			return
		case evt, ok := <-t.bus.Events():
			if !ok {
				return
			}
			t.dispatch(evt)
		}
	}
}

// dispatch runs one job in its own goroutine once a concurrency slot
// frees up. Failures are logged and never retried; a job that missed
// its pass surfaces through the liveness sweeper.
func (t *Trigger) dispatch(evt event.JobCreated) {
	select {
	case t.sem <- struct{}{}:
	case <-t.stopCh:
		t.logger.Warn("dropping dispatch during shutdown",
			slog.String("job_id", evt.JobID.String()),
		)
		return
	}

	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		defer func() { <-t.sem }()

		ctx, cancel := context.WithTimeout(context.Background(), t.budget)
		defer cancel()

		if err := t.runner.Execute(ctx, evt.JobID); err != nil {
			t.logger.Debug("job execution failed",
				slog.String("job_id", evt.JobID.String()),
				slog.String("error", err.Error()),
			)
		}
	}()
}
