package genai

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/vapodego/aibabyapp-project-sub001/backoff"
)

// Policy bounds one logical external call.
type Policy struct {
	// MaxAttempts is the attempt budget, including the first call.
	MaxAttempts int
	// InitialDelay seeds the exponential backoff for rate-limited
	// attempts.
	InitialDelay time.Duration
	// MaxDelay caps the exponential backoff.
	MaxDelay time.Duration
	// Jitter is the ± fraction applied to each backoff delay.
	Jitter float64
	// AttemptTimeout bounds a single attempt's wall-clock time.
	AttemptTimeout time.Duration
	// TimeoutRetryDelay is the short fixed delay before retrying a
	// timed-out attempt.
	TimeoutRetryDelay time.Duration
}

// DefaultPolicy returns the production retry policy.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:       6,
		InitialDelay:      1200 * time.Millisecond,
		MaxDelay:          18 * time.Second,
		Jitter:            0.3,
		AttemptTimeout:    8 * time.Minute,
		TimeoutRetryDelay: 2 * time.Second,
	}
}

// Caller executes exactly one logical external call with resilience
// against transient failure, while fast-failing on non-recoverable
// conditions:
//
//   - rate limited: retried with exponential jittered backoff
//   - timed out: retried after a short fixed delay
//   - quota exhausted: surfaced immediately, no further attempts
//   - anything else: surfaced immediately
//
// On attempt exhaustion the last retryable error is propagated.
type Caller struct {
	client         Client
	policy         Policy
	rateBackoff    backoff.Strategy
	timeoutBackoff backoff.Strategy
	logger         *slog.Logger

	// sleep is swapped out in tests to avoid real waits.
	sleep func(ctx context.Context, d time.Duration) error
}

// CallerOption configures a Caller.
type CallerOption func(*Caller)

// WithRateBackoff overrides the backoff strategy for rate-limited
// attempts.
func WithRateBackoff(s backoff.Strategy) CallerOption {
	return func(c *Caller) { c.rateBackoff = s }
}

// NewCaller creates a Caller. Zero policy fields fall back to
// DefaultPolicy values.
func NewCaller(client Client, policy Policy, logger *slog.Logger, opts ...CallerOption) *Caller {
	def := DefaultPolicy()
	if policy.MaxAttempts <= 0 {
		policy.MaxAttempts = def.MaxAttempts
	}
	if policy.InitialDelay <= 0 {
		policy.InitialDelay = def.InitialDelay
	}
	if policy.MaxDelay <= 0 {
		policy.MaxDelay = def.MaxDelay
	}
	if policy.Jitter <= 0 {
		policy.Jitter = def.Jitter
	}
	if policy.AttemptTimeout <= 0 {
		policy.AttemptTimeout = def.AttemptTimeout
	}
	if policy.TimeoutRetryDelay <= 0 {
		policy.TimeoutRetryDelay = def.TimeoutRetryDelay
	}

	c := &Caller{
		client:         client,
		policy:         policy,
		rateBackoff:    backoff.NewExponentialWithJitter(policy.InitialDelay, policy.MaxDelay, policy.Jitter),
		timeoutBackoff: backoff.NewConstant(policy.TimeoutRetryDelay),
		logger:         logger,
		sleep:          sleepCtx,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Generate runs the attempt loop for one logical call. It returns the
// raw generated content and the number of attempts consumed. The
// returned error wraps the classified cause so KindOf still resolves
// it.
func (c *Caller) Generate(ctx context.Context, req Request) (string, int, error) {
	var lastErr error

	for attempt := 1; attempt <= c.policy.MaxAttempts; attempt++ {
		content, err := c.attempt(ctx, req)
		if err == nil {
			return content, attempt, nil
		}
		lastErr = err

		kind := KindOf(err)
		switch kind {
		case KindQuotaExhausted:
			c.logger.Warn("generation quota exhausted, aborting",
				slog.Int("attempt", attempt),
				slog.String("error", err.Error()),
			)
			return "", attempt, fmt.Errorf("genai: quota exhausted: %w", err)

		case KindRateLimited, KindTimeout:
			if attempt == c.policy.MaxAttempts {
				continue
			}
			var delay time.Duration
			if kind == KindRateLimited {
				delay = c.rateBackoff.Delay(attempt)
			} else {
				delay = c.timeoutBackoff.Delay(attempt)
			}
			c.logger.Info("generation attempt failed, retrying",
				slog.Int("attempt", attempt),
				slog.Int("max_attempts", c.policy.MaxAttempts),
				slog.String("kind", kind.String()),
				slog.Duration("delay", delay),
			)
			if sleepErr := c.sleep(ctx, delay); sleepErr != nil {
				return "", attempt, sleepErr
			}

		default:
			c.logger.Warn("generation failed with non-retryable error",
				slog.Int("attempt", attempt),
				slog.String("error", err.Error()),
			)
			return "", attempt, err
		}
	}

	return "", c.policy.MaxAttempts,
		fmt.Errorf("genai: %d attempts exhausted: %w", c.policy.MaxAttempts, lastErr)
}

// attempt races one call against the per-attempt timeout.
func (c *Caller) attempt(ctx context.Context, req Request) (string, error) {
	actx, cancel := context.WithTimeout(ctx, c.policy.AttemptTimeout)
	defer cancel()
	return c.client.Generate(actx, req)
}

// sleepCtx waits for d or until the context is cancelled.
func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
