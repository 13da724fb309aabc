package genai

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
)

// Kind classifies a failed external call. Classification happens once,
// here at the retry-controller boundary; callers upstream react to the
// Kind and never re-interpret raw errors.
type Kind int

const (
	// KindUnknown is any unclassified failure. Not retried.
	KindUnknown Kind = iota
	// KindRateLimited is a transient throttle response. Retried with
	// exponential backoff.
	KindRateLimited
	// KindQuotaExhausted means the account is out of quota. Never
	// retried; surfaced on first occurrence.
	KindQuotaExhausted
	// KindTimeout means the attempt exceeded its deadline. Retried
	// with a short fixed delay.
	KindTimeout
)

// String returns the kind name for logging.
func (k Kind) String() string {
	switch k {
	case KindRateLimited:
		return "rate_limited"
	case KindQuotaExhausted:
		return "quota_exhausted"
	case KindTimeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// Retryable reports whether the retry loop may attempt again.
func (k Kind) Retryable() bool {
	return k == KindRateLimited || k == KindTimeout
}

// CallError is the structured error a Client returns for a failed
// generation call.
type CallError struct {
	Kind       Kind
	StatusCode int
	Message    string
}

// Error implements the error interface.
func (e *CallError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("genai: call failed (status %d): %s", e.StatusCode, e.Message)
	}
	return "genai: call failed: " + e.Message
}

// KindOf classifies an error from an external call. A structured
// CallError kind wins; context deadline errors map to KindTimeout; as a
// last resort the message is pattern-matched, because the external API
// does not always return structured codes (compatibility shim).
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}

	var ce *CallError
	if errors.As(err, &ce) && ce.Kind != KindUnknown {
		return ce.Kind
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded) {
		return KindTimeout
	}

	return kindOfMessage(err.Error())
}

// kindOfMessage is the case-insensitive phrase fallback. Quota phrases
// are checked before rate-limit phrases so the non-retryable condition
// wins when both appear.
func kindOfMessage(msg string) Kind {
	m := strings.ToLower(msg)

	for _, p := range quotaPhrases {
		if strings.Contains(m, p) {
			return KindQuotaExhausted
		}
	}
	for _, p := range rateLimitPhrases {
		if strings.Contains(m, p) {
			return KindRateLimited
		}
	}
	for _, p := range timeoutPhrases {
		if strings.Contains(m, p) {
			return KindTimeout
		}
	}
	return KindUnknown
}

var (
	quotaPhrases = []string{
		"quota exceeded",
		"quota exhausted",
		"out of quota",
		"billing",
	}
	rateLimitPhrases = []string{
		"rate limit",
		"rate-limit",
		"too many requests",
		"resource exhausted",
		"429",
	}
	timeoutPhrases = []string{
		"deadline exceeded",
		"timed out",
		"timeout",
	}
)

// kindOfStatus maps an HTTP status code to a Kind for the concrete
// HTTP client. Zero and unrecognized codes fall through to the message
// patterns.
func kindOfStatus(code int) Kind {
	switch code {
	case 429:
		return KindRateLimited
	case 408, 504:
		return KindTimeout
	default:
		return KindUnknown
	}
}
