// Package llm provides a provider-agnostic LLM completion client with
// retry support and a transient/fatal error taxonomy.
package llm

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"time"
)

// maxResponseSize limits the LLM response body to prevent memory exhaustion.
const maxResponseSize = 10 * 1024 * 1024 // 10MB

// Endpoint describes where completion requests go and how they
// authenticate. The API key is carried here explicitly; providers never
// read credentials from the environment.
type Endpoint struct {
	// Provider is the registered provider name ("openai", "anthropic", "ollama").
	Provider string

	// URL is the provider base URL. Empty uses the provider default.
	URL string

	// Model is the model identifier to request.
	Model string

	// APIKey authenticates requests where the provider requires it.
	APIKey string
}

// Message represents a chat message.
type Message struct {
	Role    string `json:"role"`    // "system", "user", or "assistant"
	Content string `json:"content"` // Message content
}

// Request defines an LLM completion request.
type Request struct {
	// Messages is the chat history to send to the LLM.
	Messages []Message

	// Temperature controls randomness. nil uses endpoint default, 0 is deterministic.
	Temperature *float64

	// MaxTokens limits response length. 0 uses endpoint default.
	MaxTokens int
}

// TokenUsage represents token consumption details for an LLM call.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response contains the LLM completion result.
type Response struct {
	// Content is the generated text.
	Content string

	// Model is the actual model that was used.
	Model string

	// Usage contains token consumption metrics (if available).
	Usage TokenUsage

	// FinishReason indicates why generation stopped.
	FinishReason string
}

// Client sends completion requests to a single configured endpoint.
type Client struct {
	endpoint    Endpoint
	httpClient  *http.Client
	retryConfig RetryConfig
	logger      *slog.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(client *Client) {
		client.httpClient = c
	}
}

// WithRetryConfig sets the retry configuration.
func WithRetryConfig(cfg RetryConfig) ClientOption {
	return func(client *Client) {
		client.retryConfig = cfg
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(client *Client) {
		client.logger = logger
	}
}

// WithTimeout sets the per-request timeout on the default HTTP client.
func WithTimeout(d time.Duration) ClientOption {
	return func(client *Client) {
		client.httpClient.Timeout = d
	}
}

// NewClient creates an LLM client for the given endpoint.
func NewClient(endpoint Endpoint, opts ...ClientOption) *Client {
	c := &Client{
		endpoint:    endpoint,
		retryConfig: DefaultRetryConfig(),
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Complete sends a completion request, retrying transient failures up to
// the configured attempt budget.
func (c *Client) Complete(ctx context.Context, req Request) (*Response, error) {
	if len(req.Messages) == 0 {
		return nil, fmt.Errorf("at least one message is required")
	}

	var lastErr error

	for attempt := 1; attempt <= c.retryConfig.MaxAttempts; attempt++ {
		resp, err := c.doRequest(ctx, req)
		if err == nil {
			return resp, nil
		}

		lastErr = err

		if IsFatal(err) {
			return nil, err
		}

		if attempt < c.retryConfig.MaxAttempts {
			backoff := c.calculateBackoff(attempt)
			c.logger.Debug("Request failed, retrying",
				"attempt", attempt,
				"max_attempts", c.retryConfig.MaxAttempts,
				"backoff", backoff,
				"error", err)

			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
				// Continue to retry
			}
		}
	}

	return nil, lastErr
}

// calculateBackoff computes exponential backoff duration with jitter.
// Jitter prevents thundering herd when multiple clients retry simultaneously.
func (c *Client) calculateBackoff(attempt int) time.Duration {
	multiplier := 1.0
	for i := 1; i < attempt; i++ {
		multiplier *= c.retryConfig.BackoffMultiplier
	}

	backoff := time.Duration(float64(c.retryConfig.BackoffBase) * multiplier)
	if backoff > c.retryConfig.MaxBackoff {
		backoff = c.retryConfig.MaxBackoff
	}

	// Add jitter: +/- 25% to prevent synchronized retries
	jitter := float64(backoff) * 0.25 * (rand.Float64()*2 - 1)
	return backoff + time.Duration(jitter)
}

// doRequest executes a single HTTP request to the LLM endpoint.
func (c *Client) doRequest(ctx context.Context, req Request) (*Response, error) {
	provider := GetProvider(c.endpoint.Provider)
	if provider == nil {
		return nil, NewFatalError(fmt.Errorf("unknown provider: %s", c.endpoint.Provider))
	}

	url := provider.BuildURL(c.endpoint.URL)

	body, err := provider.BuildRequestBody(c.endpoint.Model, req.Messages, req.Temperature, req.MaxTokens)
	if err != nil {
		return nil, NewFatalError(fmt.Errorf("build request body: %w", err))
	}

	c.logger.Debug("Sending LLM request",
		"provider", c.endpoint.Provider,
		"model", c.endpoint.Model,
		"url", url,
		"messages", len(req.Messages))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, NewFatalError(fmt.Errorf("create HTTP request: %w", err))
	}

	httpReq.Header.Set("Content-Type", "application/json")
	provider.SetHeaders(httpReq, c.endpoint.APIKey)

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		// Network errors are transient
		return nil, NewTransientError(fmt.Errorf("HTTP request failed: %w", err))
	}
	defer httpResp.Body.Close()

	// Read response body with size limit to prevent memory exhaustion
	respBody, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseSize))
	if err != nil {
		return nil, NewTransientError(fmt.Errorf("read response body: %w", err))
	}

	if httpResp.StatusCode != http.StatusOK {
		return nil, classifyHTTPError(httpResp.StatusCode, respBody)
	}

	return provider.ParseResponse(respBody, c.endpoint.Model)
}

// classifyHTTPError determines if an HTTP error is transient or fatal.
func classifyHTTPError(statusCode int, body []byte) error {
	bodyStr := string(body)
	if len(bodyStr) > 200 {
		bodyStr = bodyStr[:200] + "..."
	}

	err := fmt.Errorf("LLM API error (status %d): %s", statusCode, bodyStr)

	switch {
	case statusCode == http.StatusTooManyRequests:
		// Rate limiting is transient
		return NewTransientError(err)
	case statusCode == http.StatusServiceUnavailable,
		statusCode == http.StatusBadGateway,
		statusCode == http.StatusGatewayTimeout:
		// Server errors are transient
		return NewTransientError(err)
	case statusCode >= 500:
		// Other 5xx errors are transient
		return NewTransientError(err)
	case statusCode == http.StatusUnauthorized,
		statusCode == http.StatusForbidden:
		// Auth errors are fatal
		return NewFatalError(err)
	case statusCode == http.StatusBadRequest:
		// Bad requests are fatal
		return NewFatalError(err)
	default:
		// Unknown errors default to fatal
		return NewFatalError(err)
	}
}
