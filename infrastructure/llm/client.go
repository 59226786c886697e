package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	"github.com/gustycube/erreval/internal/ports"
)

// Default client configuration.
const (
	// DefaultBaseURL is the OpenRouter API root.
	DefaultBaseURL = "https://openrouter.ai/api/v1"
	// DefaultTimeout bounds a single completion request.
	DefaultTimeout = 120 * time.Second
	// DefaultStatsTimeout bounds a generation-stats lookup.
	DefaultStatsTimeout = 30 * time.Second
	// DefaultMaxRetries is the retry bound for transient failures.
	DefaultMaxRetries = 5
	// EnvAPIKey is the environment variable holding the API key.
	EnvAPIKey = "OPENROUTER_API_KEY"
)

// Config controls the client's endpoint, credentials, and retry behavior.
type Config struct {
	// APIKey authenticates against the endpoint. When empty, the value of
	// the OPENROUTER_API_KEY environment variable is used.
	APIKey string

	// BaseURL overrides the API root; defaults to DefaultBaseURL.
	BaseURL string

	// Timeout bounds each individual completion attempt.
	Timeout time.Duration

	// MaxRetries bounds retries of rate-limited or timed-out requests.
	MaxRetries int

	// RequestsPerSecond enables client-side token-bucket pacing when > 0.
	RequestsPerSecond float64

	// Burst is the token-bucket burst size when pacing is enabled.
	Burst int

	// Referer and Title are forwarded as the OpenRouter attribution headers.
	Referer string
	Title   string
}

var _ ports.ChatClient = (*Client)(nil)

// Client talks to an OpenRouter-compatible chat-completions endpoint.
// HTTP 429 and timeouts are retried with exponential backoff (2^attempt + 1
// seconds); any other endpoint failure propagates immediately. The client
// is safe for concurrent use.
type Client struct {
	api     *openai.Client
	httpc   *http.Client
	limiter *rate.Limiter
	config  Config
	// backoff computes the delay before the next retry; overridable in
	// tests to avoid real sleeps.
	backoff func(attempt int) time.Duration
}

// NewClient builds a Client, resolving the API key eagerly so missing
// credentials fail at construction rather than on the first request.
func NewClient(config Config) (*Client, error) {
	if config.APIKey == "" {
		config.APIKey = os.Getenv(EnvAPIKey)
	}
	if config.APIKey == "" {
		return nil, fmt.Errorf("%w: set %s or pass Config.APIKey", ErrEmptyAPIKey, EnvAPIKey)
	}
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeout
	}
	if config.MaxRetries <= 0 {
		config.MaxRetries = DefaultMaxRetries
	}

	transport := &attributionTransport{
		referer: config.Referer,
		title:   config.Title,
		next:    http.DefaultTransport,
	}

	clientConfig := openai.DefaultConfig(config.APIKey)
	clientConfig.BaseURL = config.BaseURL
	clientConfig.HTTPClient = &http.Client{Transport: transport}

	var limiter *rate.Limiter
	if config.RequestsPerSecond > 0 {
		burst := config.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(config.RequestsPerSecond), burst)
	}

	return &Client{
		api:     openai.NewClientWithConfig(clientConfig),
		httpc:   &http.Client{Timeout: DefaultStatsTimeout, Transport: transport},
		limiter: limiter,
		config:  config,
		backoff: backoffDelay,
	}, nil
}

// Complete sends a chat-completion request and returns the generated
// content with the endpoint's generation id. Exhausting the retry bound
// returns the last transient error wrapped in ErrRetriesExhausted.
func (c *Client) Complete(ctx context.Context, req ports.CompletionRequest) (string, string, error) {
	operation := "candidate"
	if req.ResponseFormat != nil {
		operation = "structured"
	}

	start := time.Now()
	defer func() {
		requestDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	}()

	var lastErr *ProviderError
	for attempt := 0; attempt < c.config.MaxRetries; attempt++ {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return "", "", fmt.Errorf("rate limit wait: %w", err)
			}
		}

		content, genID, err := c.doRequest(ctx, req)
		if err == nil {
			requestsTotal.WithLabelValues(operation, "success").Inc()
			return content, genID, nil
		}

		perr := classifyRequestError(err)
		if !perr.IsRetryable() {
			requestsTotal.WithLabelValues(operation, "error").Inc()
			return "", "", perr
		}

		lastErr = perr
		retriesTotal.WithLabelValues(operation, perr.typeString()).Inc()

		select {
		case <-ctx.Done():
			requestsTotal.WithLabelValues(operation, "canceled").Inc()
			return "", "", fmt.Errorf("context canceled during retry: %w", ctx.Err())
		case <-time.After(c.backoff(attempt)):
		}
	}

	requestsTotal.WithLabelValues(operation, "exhausted").Inc()
	return "", "", fmt.Errorf("%w after %d attempts: %w", ErrRetriesExhausted, c.config.MaxRetries, lastErr)
}

// doRequest performs a single completion attempt under the configured
// per-call timeout.
func (c *Client) doRequest(ctx context.Context, req ports.CompletionRequest) (string, string, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	messages := make([]openai.ChatCompletionMessage, 0, len(req.Messages))
	for _, m := range req.Messages {
		messages = append(messages, openai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
	}

	chatReq := openai.ChatCompletionRequest{
		Model:       req.Model,
		Messages:    messages,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}

	if rf := req.ResponseFormat; rf != nil {
		chatReq.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   rf.Name,
				Schema: json.RawMessage(rf.Schema),
				Strict: rf.Strict,
			},
		}
	}

	resp, err := c.api.CreateChatCompletion(callCtx, chatReq)
	if err != nil {
		return "", "", err
	}
	if len(resp.Choices) == 0 {
		return "", "", ErrNoResponseChoice
	}

	return resp.Choices[0].Message.Content, resp.ID, nil
}

// GenerationStats fetches cost/latency metadata for a generation id.
// Lookup failures are absorbed into zero stats: stats enrich reporting and
// must never abort an evaluation.
func (c *Client) GenerationStats(ctx context.Context, generationID string) ports.GenerationStats {
	if generationID == "" {
		return ports.GenerationStats{}
	}

	statsURL := fmt.Sprintf("%s/generation?id=%s", c.config.BaseURL, url.QueryEscape(generationID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, statsURL, nil)
	if err != nil {
		return ports.GenerationStats{}
	}
	req.Header.Set("Authorization", "Bearer "+c.config.APIKey)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return ports.GenerationStats{}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return ports.GenerationStats{}
	}

	var payload struct {
		Data ports.GenerationStats `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return ports.GenerationStats{}
	}
	return payload.Data
}

// backoffDelay computes the wait before the next retry: 2^attempt + 1
// seconds, i.e. 2s, 3s, 5s, 9s, 17s for attempts 0..4.
func backoffDelay(attempt int) time.Duration {
	return time.Duration(1<<attempt)*time.Second + time.Second
}

// classifyRequestError normalizes a completion failure into a ProviderError
// so the retry loop can decide on retryability.
func classifyRequestError(err error) *ProviderError {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return classifyContextError(err)
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		message := apiErr.Message
		if message == "" {
			message = "unknown error"
		}
		return classifyHTTPError(apiErr.HTTPStatusCode, message, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &ProviderError{Type: ErrorTypeTimeout, Message: "request timed out", WrappedError: err}
	}

	return &ProviderError{Type: ErrorTypeUnknown, Message: "request failed", WrappedError: err}
}

// attributionTransport adds the OpenRouter attribution headers to every
// outbound request.
type attributionTransport struct {
	referer string
	title   string
	next    http.RoundTripper
}

// RoundTrip implements http.RoundTripper.
func (t *attributionTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.referer != "" {
		req.Header.Set("HTTP-Referer", t.referer)
	}
	if t.title != "" {
		req.Header.Set("X-Title", t.title)
	}
	return t.next.RoundTrip(req)
}
