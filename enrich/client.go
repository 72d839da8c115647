package enrich

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/c360/codegraph/errors"
)

// Client produces one enrichment result per request, or a typed failure.
// Implementations make exactly one attempt; retry policy belongs to the
// scheduler.
type Client interface {
	Enrich(ctx context.Context, req EnrichmentRequest) (*EnrichmentResult, error)
}

const (
	// DefaultCallTimeout bounds one remote call.
	DefaultCallTimeout = 60 * time.Second

	// DefaultMaxTokens for the completion request.
	DefaultMaxTokens = 8192
)

// HTTPClient talks to a chat-completions endpoint (DeepSeek-compatible
// wire format). Temperature is pinned to zero so responses are as
// deterministic as the service allows.
type HTTPClient struct {
	baseURL   string
	apiKey    string
	model     string
	maxTokens int
	timeout   time.Duration

	httpClient *http.Client
	logger     *slog.Logger
}

// ClientOption configures an HTTPClient.
type ClientOption func(*HTTPClient)

// WithCallTimeout sets the per-call timeout.
func WithCallTimeout(d time.Duration) ClientOption {
	return func(c *HTTPClient) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithMaxTokens sets the completion token limit.
func WithMaxTokens(n int) ClientOption {
	return func(c *HTTPClient) {
		if n > 0 {
			c.maxTokens = n
		}
	}
}

// WithClientLogger sets the structured logger.
func WithClientLogger(logger *slog.Logger) ClientOption {
	return func(c *HTTPClient) { c.logger = logger }
}

// WithHTTPTransport overrides the underlying HTTP client.
func WithHTTPTransport(hc *http.Client) ClientOption {
	return func(c *HTTPClient) { c.httpClient = hc }
}

// NewHTTPClient creates a client for the given endpoint and model.
func NewHTTPClient(baseURL, apiKey, model string, opts ...ClientOption) (*HTTPClient, error) {
	if baseURL == "" {
		return nil, errors.WrapFatal(errors.ErrMissingConfig, "HTTPClient", "New", "baseURL is empty")
	}
	if model == "" {
		return nil, errors.WrapFatal(errors.ErrMissingConfig, "HTTPClient", "New", "model is empty")
	}

	c := &HTTPClient{
		baseURL:    baseURL,
		apiKey:     apiKey,
		model:      model,
		maxTokens:  DefaultMaxTokens,
		timeout:    DefaultCallTimeout,
		httpClient: &http.Client{},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// chatRequest is the chat-completions request envelope.
type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatResponse is the chat-completions response envelope.
type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Enrich makes a single attempt against the remote service. Failure
// classes: call timeout, transport error, rate limit, invalid response.
func (c *HTTPClient) Enrich(ctx context.Context, req EnrichmentRequest) (*EnrichmentResult, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	payload := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "user", Content: req.PromptText},
		},
		MaxTokens:   c.maxTokens,
		Temperature: 0,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.WrapInvalid(err, "HTTPClient", "Enrich", "marshal request")
	}

	httpReq, err := http.NewRequestWithContext(callCtx, http.MethodPost,
		c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, errors.WrapInvalid(err, "HTTPClient", "Enrich", "create request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if stderrors.Is(callCtx.Err(), context.DeadlineExceeded) {
			return nil, errors.WrapTransient(errors.ErrCallTimeout, "HTTPClient", "Enrich",
				fmt.Sprintf("call exceeded %s for community %s", c.timeout, req.CommunityID))
		}
		return nil, errors.WrapTransient(errors.ErrTransport, "HTTPClient", "Enrich", err.Error())
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, errors.WrapTransient(errors.ErrRateLimited, "HTTPClient", "Enrich",
			"service rate limited community "+req.CommunityID)
	case resp.StatusCode != http.StatusOK:
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, errors.WrapTransient(errors.ErrTransport, "HTTPClient", "Enrich",
			fmt.Sprintf("HTTP %d: %s", resp.StatusCode, string(data)))
	}

	var envelope chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, errors.WrapInvalid(errors.ErrInvalidResponse, "HTTPClient", "Enrich",
			"decode response envelope: "+err.Error())
	}
	if len(envelope.Choices) == 0 {
		return nil, errors.WrapInvalid(errors.ErrInvalidResponse, "HTTPClient", "Enrich",
			"response has no choices")
	}

	result, err := ParseResponse(req.CommunityID, envelope.Choices[0].Message.Content)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("enrichment call succeeded",
		"community_id", req.CommunityID,
		"duration", time.Since(start))
	return result, nil
}
