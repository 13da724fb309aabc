// Package genai wraps the external text-generation service: a minimal
// client interface, error classification at the boundary, and the
// bounded-retry controller that executes one logical call.
package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/time/rate"
)

// Request is the payload for one generation call.
type Request struct {
	Model     string `json:"model,omitempty"`
	Prompt    string `json:"prompt"`
	MaxTokens int    `json:"max_tokens,omitempty"`
}

// Client is the minimal surface of the external generation service.
// Implementations return a *CallError for classified failures.
type Client interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// maxErrorBody bounds how much of an error response body is kept for
// classification and logging.
const maxErrorBody = 2048

// HTTPClient calls a REST generation endpoint. Construct exactly one at
// process startup and inject it into the Caller and Worker; there is no
// lazy init guard.
type HTTPClient struct {
	endpoint string
	apiKey   string
	httpc    *http.Client
	limiter  *rate.Limiter
}

// ClientOption configures an HTTPClient.
type ClientOption func(*HTTPClient)

// WithHTTPClient sets the underlying *http.Client. The default client
// carries no timeout; per-attempt deadlines come from the Caller's
// context.
func WithHTTPClient(h *http.Client) ClientOption {
	return func(c *HTTPClient) { c.httpc = h }
}

// WithRateLimit paces outgoing requests locally so bursts from
// concurrent jobs don't trip the upstream throttle immediately.
func WithRateLimit(perSecond float64, burst int) ClientOption {
	return func(c *HTTPClient) { c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst) }
}

// NewHTTPClient creates a client for the given endpoint.
func NewHTTPClient(endpoint, apiKey string, opts ...ClientOption) *HTTPClient {
	c := &HTTPClient{
		endpoint: endpoint,
		apiKey:   apiKey,
		httpc:    &http.Client{},
		limiter:  rate.NewLimiter(rate.Limit(1), 2),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type generateResponse struct {
	Content string `json:"content"`
}

type errorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Status  string `json:"status"`
		Message string `json:"message"`
	} `json:"error"`
}

// Generate performs one generation call. Failures carry a *CallError
// with the Kind already resolved from the HTTP status where possible.
func (c *HTTPClient) Generate(ctx context.Context, req Request) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("genai: rate wait: %w", err)
	}

	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("genai: encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("genai: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpc.Do(httpReq)
	if err != nil {
		// Context deadline errors are classified by KindOf; everything
		// else surfaces as-is.
		return "", fmt.Errorf("genai: request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", c.callError(resp)
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("genai: decode response: %w", err)
	}
	return out.Content, nil
}

// callError builds a classified *CallError from a non-2xx response.
// The status code is authoritative; the body message is kept so the
// phrase fallback can still reclassify unstructured upstream errors.
func (c *HTTPClient) callError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	msg := string(raw)
	var er errorResponse
	if json.Unmarshal(raw, &er) == nil && er.Error.Message != "" {
		msg = er.Error.Message
	}

	kind := kindOfStatus(resp.StatusCode)
	if kind == KindUnknown {
		kind = kindOfMessage(msg)
	}

	return &CallError{Kind: kind, StatusCode: resp.StatusCode, Message: msg}
}
