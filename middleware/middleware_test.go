package middleware_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/vapodego/aibabyapp-project-sub001/job"
	"github.com/vapodego/aibabyapp-project-sub001/middleware"
)

func newTestJob() *job.Job {
	return job.New(job.PlanInput{
		Origin:    "Shibuya, Tokyo",
		Interests: []string{"parks"},
	})
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestChain_AppliesLeftToRight(t *testing.T) {
	var order []string

	tag := func(name string) middleware.Middleware {
		return func(ctx context.Context, _ *job.Job, next middleware.Handler) error {
			order = append(order, name+":before")
			err := next(ctx)
			order = append(order, name+":after")
			return err
		}
	}

	chain := middleware.Chain(tag("outer"), tag("inner"))
	err := chain(context.Background(), newTestJob(), func(_ context.Context) error {
		order = append(order, "handler")
		return nil
	})
	if err != nil {
		t.Fatalf("chain returned error: %v", err)
	}

	want := []string{"outer:before", "inner:before", "handler", "inner:after", "outer:after"}
	if strings.Join(order, ",") != strings.Join(want, ",") {
		t.Errorf("order = %v, want %v", order, want)
	}
}

func TestChain_Empty_CallsHandler(t *testing.T) {
	called := false
	chain := middleware.Chain()
	err := chain(context.Background(), newTestJob(), func(_ context.Context) error {
		called = true
		return nil
	})
	if err != nil || !called {
		t.Errorf("err = %v, called = %v; want nil and true", err, called)
	}
}

func TestChain_PropagatesError(t *testing.T) {
	handlerErr := errors.New("boom")
	chain := middleware.Chain(middleware.Logging(discardLogger()))
	err := chain(context.Background(), newTestJob(), func(_ context.Context) error {
		return handlerErr
	})
	if !errors.Is(err, handlerErr) {
		t.Errorf("err = %v, want %v", err, handlerErr)
	}
}

func TestRecover_ConvertsPanicToError(t *testing.T) {
	m := middleware.Recover(discardLogger())
	err := m(context.Background(), newTestJob(), func(_ context.Context) error {
		panic("exploded")
	})
	if err == nil {
		t.Fatal("expected error from recovered panic")
	}
	if !strings.Contains(err.Error(), "exploded") {
		t.Errorf("err = %v, want panic message included", err)
	}
}

func TestRecover_PassesThroughOnSuccess(t *testing.T) {
	m := middleware.Recover(discardLogger())
	if err := m(context.Background(), newTestJob(), func(_ context.Context) error {
		return nil
	}); err != nil {
		t.Errorf("err = %v, want nil", err)
	}
}

func TestTimeout_CancelsAfterBudget(t *testing.T) {
	m := middleware.Timeout(10*time.Millisecond, discardLogger())
	err := m(context.Background(), newTestJob(), func(ctx context.Context) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Second):
			return nil
		}
	})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("err = %v, want context.DeadlineExceeded", err)
	}
}

func TestTimeout_ZeroBudgetDisablesDeadline(t *testing.T) {
	m := middleware.Timeout(0, discardLogger())
	err := m(context.Background(), newTestJob(), func(ctx context.Context) error {
		if _, ok := ctx.Deadline(); ok {
			return errors.New("unexpected deadline")
		}
		return nil
	})
	if err != nil {
		t.Errorf("err = %v, want nil", err)
	}
}
