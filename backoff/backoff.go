// Package backoff provides pluggable retry delay strategies for the
// external-call retry loop. All strategies are safe for concurrent use
// (they are stateless).
package backoff

import (
	"math"
	"math/rand/v2"
	"time"
)

// Strategy computes the delay before a retry attempt.
type Strategy interface {
	// Delay returns how long to wait before retry attempt n (1-indexed).
	// Attempt 1 is the first retry after the initial failure.
	Delay(attempt int) time.Duration
}

// ──────────────────────────────────────────────────
// Constant
// ──────────────────────────────────────────────────

// Constant always returns the same delay regardless of attempt number.
// Used for the short fixed delay between timed-out attempts.
type Constant struct {
	Interval time.Duration
}

// NewConstant creates a constant backoff strategy.
func NewConstant(interval time.Duration) *Constant {
	return &Constant{Interval: interval}
}

// Delay returns the fixed interval.
func (c *Constant) Delay(_ int) time.Duration {
	return c.Interval
}

// ──────────────────────────────────────────────────
// Exponential
// ──────────────────────────────────────────────────

// Exponential doubles the delay each attempt.
// Delay = min(Initial * 2^(attempt-1), Max).
type Exponential struct {
	Initial time.Duration
	Max     time.Duration
}

// NewExponential creates an exponential backoff strategy.
func NewExponential(initial, maxDelay time.Duration) *Exponential {
	return &Exponential{Initial: initial, Max: maxDelay}
}

// Delay returns Initial * 2^(attempt-1), capped at Max.
func (e *Exponential) Delay(attempt int) time.Duration {
	d := time.Duration(float64(e.Initial) * math.Pow(2, float64(attempt-1)))
	if e.Max > 0 && d > e.Max {
		return e.Max
	}
	return d
}

// ──────────────────────────────────────────────────
// ExponentialWithJitter (proportional jitter)
// ──────────────────────────────────────────────────

// ExponentialWithJitter randomizes an exponential base by ±Jitter.
// Delay = min(Initial * 2^(attempt-1), Max) * (1 ± Jitter).
// The spread prevents thundering herd when many retries happen
// simultaneously while keeping the delay near the exponential curve.
type ExponentialWithJitter struct {
	Initial time.Duration
	Max     time.Duration
	// Jitter is the fraction of the base delay to randomize over,
	// in [0, 1). 0.3 means the delay lands in [0.7*base, 1.3*base].
	Jitter float64
}

// NewExponentialWithJitter creates an exponential backoff with
// proportional jitter.
func NewExponentialWithJitter(initial, maxDelay time.Duration, jitter float64) *ExponentialWithJitter {
	return &ExponentialWithJitter{Initial: initial, Max: maxDelay, Jitter: jitter}
}

// Delay returns a random duration in [base*(1-Jitter), base*(1+Jitter)]
// where base = min(Initial * 2^(attempt-1), Max).
func (e *ExponentialWithJitter) Delay(attempt int) time.Duration {
	base := float64(e.Initial) * math.Pow(2, float64(attempt-1))
	if e.Max > 0 && base > float64(e.Max) {
		base = float64(e.Max)
	}
	spread := 1 + e.Jitter*(2*rand.Float64()-1) //nolint:gosec // jitter intentionally uses non-crypto rand
	return time.Duration(base * spread)
}

// ──────────────────────────────────────────────────
// Default
// ──────────────────────────────────────────────────

// DefaultStrategy returns the backoff used for rate-limited calls:
// exponential with ±30% jitter, 1.2s initial and 18s max.
func DefaultStrategy() Strategy {
	return NewExponentialWithJitter(1200*time.Millisecond, 18*time.Second, 0.3)
}
