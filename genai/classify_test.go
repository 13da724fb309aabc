package genai

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestKindOf_StructuredErrorWins(t *testing.T) {
	// The structured kind takes precedence even when the message would
	// pattern-match differently.
	err := &CallError{Kind: KindQuotaExhausted, StatusCode: 429, Message: "too many requests"}
	if got := KindOf(err); got != KindQuotaExhausted {
		t.Errorf("KindOf = %v, want %v", got, KindQuotaExhausted)
	}
}

func TestKindOf_WrappedCallError(t *testing.T) {
	inner := &CallError{Kind: KindRateLimited, StatusCode: 429, Message: "slow down"}
	wrapped := fmt.Errorf("genai: 6 attempts exhausted: %w", inner)
	if got := KindOf(wrapped); got != KindRateLimited {
		t.Errorf("KindOf = %v, want %v", got, KindRateLimited)
	}
}

func TestKindOf_ContextDeadline(t *testing.T) {
	err := fmt.Errorf("genai: request: %w", context.DeadlineExceeded)
	if got := KindOf(err); got != KindTimeout {
		t.Errorf("KindOf = %v, want %v", got, KindTimeout)
	}
}

func TestKindOf_MessagePatterns(t *testing.T) {
	tests := []struct {
		msg  string
		want Kind
	}{
		{"Rate limit exceeded, retry later", KindRateLimited},
		{"HTTP 429 Too Many Requests", KindRateLimited},
		{"RESOURCE EXHAUSTED: try again", KindRateLimited},
		{"Quota exceeded for this project", KindQuotaExhausted},
		{"quota exhausted, enable billing", KindQuotaExhausted},
		{"upstream request timed out", KindTimeout},
		{"connection reset by peer", KindUnknown},
		{"invalid model name", KindUnknown},
	}
	for _, tt := range tests {
		if got := KindOf(errors.New(tt.msg)); got != tt.want {
			t.Errorf("KindOf(%q) = %v, want %v", tt.msg, got, tt.want)
		}
	}
}

func TestKindOf_QuotaWinsOverRateLimitPhrasing(t *testing.T) {
	// When both phrases appear, the non-retryable classification wins.
	err := errors.New("quota exceeded: rate limit applies")
	if got := KindOf(err); got != KindQuotaExhausted {
		t.Errorf("KindOf = %v, want %v", got, KindQuotaExhausted)
	}
}

func TestKindOf_Nil(t *testing.T) {
	if got := KindOf(nil); got != KindUnknown {
		t.Errorf("KindOf(nil) = %v, want %v", got, KindUnknown)
	}
}

func TestKind_Retryable(t *testing.T) {
	if !KindRateLimited.Retryable() || !KindTimeout.Retryable() {
		t.Error("rate-limited and timeout kinds must be retryable")
	}
	if KindQuotaExhausted.Retryable() || KindUnknown.Retryable() {
		t.Error("quota-exhausted and unknown kinds must not be retryable")
	}
}

func TestKindOfStatus(t *testing.T) {
	tests := []struct {
		code int
		want Kind
	}{
		{429, KindRateLimited},
		{408, KindTimeout},
		{504, KindTimeout},
		{500, KindUnknown},
		{400, KindUnknown},
	}
	for _, tt := range tests {
		if got := kindOfStatus(tt.code); got != tt.want {
			t.Errorf("kindOfStatus(%d) = %v, want %v", tt.code, got, tt.want)
		}
	}
}
