// Package gemini is a client for the Gemini generateContent API. It is the
// single path every completion request takes: one retry/backoff policy and
// one client-side pacing limiter, defined and tested here instead of at each
// call site.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

const (
	defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	defaultModel   = "gemini-2.0-flash"
	defaultTimeout = 60 * time.Second

	// Pacing between outbound requests, independent of server throttling.
	defaultRequestsPerMinute = 60

	// Backoff on 429/transport errors: base * 2^attempt plus up to a second
	// of jitter, 3 delayed retries after the initial attempt.
	maxRetries     = 3
	baseRetryDelay = 2 * time.Second
	maxJitter      = time.Second
)

// Client issues completion requests against the Gemini API
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	model      string
	limiter    *rate.Limiter

	// sleep is replaced in tests to observe backoff without waiting.
	sleep func(ctx context.Context, d time.Duration) error
}

// ClientOption configures the Client
type ClientOption func(*Client)

// WithBaseURL sets a custom base URL
func WithBaseURL(url string) ClientOption {
	return func(c *Client) {
		c.baseURL = url
	}
}

// WithModel sets the generation model
func WithModel(model string) ClientOption {
	return func(c *Client) {
		c.model = model
	}
}

// WithTimeout sets the HTTP client timeout
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithRequestsPerMinute sets the client-side pacing limit
func WithRequestsPerMinute(n int) ClientOption {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(float64(n)/60.0), 1)
	}
}

// NewClient creates a new completion client
func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		baseURL: defaultBaseURL,
		apiKey:  apiKey,
		model:   defaultModel,
		limiter: rate.NewLimiter(rate.Limit(defaultRequestsPerMinute/60.0), 1),
		sleep:   sleepCtx,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Options control generation for a single completion call.
type Options struct {
	Temperature     float64
	MaxOutputTokens int

	// EnableSearch asks the model to ground its answer with web search
	// results.
	EnableSearch bool
}

// Complete sends one prompt and returns the model's raw text output. The
// response is free-form: callers must treat it as untrusted, possibly
// non-JSON text. Rate-limit responses are retried with exponential backoff;
// any other HTTP failure is returned immediately as a *StatusError.
func (c *Client) Complete(ctx context.Context, prompt string, opts Options) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}

	reqBody := generateRequest{
		Contents: []content{
			{Parts: []part{{Text: prompt}}},
		},
		GenerationConfig: generationConfig{
			Temperature:     opts.Temperature,
			MaxOutputTokens: opts.MaxOutputTokens,
		},
	}
	if opts.EnableSearch {
		reqBody.Tools = []tool{{GoogleSearch: &struct{}{}}}
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)

	var lastErr error
	for attempt := 0; ; attempt++ {
		status, body, err := c.doRequest(ctx, url, jsonBody)

		switch {
		case err == nil && status == http.StatusOK:
			return parseText(body)
		case err == nil && status != http.StatusTooManyRequests:
			return "", &StatusError{StatusCode: status, Body: string(body)}
		case err != nil && ctx.Err() != nil:
			return "", ctx.Err()
		}

		// Rate limited or transport failure: back off and retry.
		if err != nil {
			lastErr = err
		} else {
			lastErr = fmt.Errorf("status %d", status)
		}
		if attempt == maxRetries {
			return "", fmt.Errorf("%w: giving up after %d retries: %v", ErrServiceUnavailable, maxRetries, lastErr)
		}
		if err := c.sleep(ctx, backoffDelay(attempt)); err != nil {
			return "", err
		}
	}
}

func (c *Client) doRequest(ctx context.Context, url string, body []byte) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return 0, nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read response: %w", err)
	}

	return resp.StatusCode, respBody, nil
}

func parseText(body []byte) (string, error) {
	var gr generateResponse
	if err := json.Unmarshal(body, &gr); err != nil {
		return "", fmt.Errorf("unmarshal response: %w", err)
	}

	text := gr.firstText()
	if text == "" {
		return "", fmt.Errorf("empty completion response")
	}
	return text, nil
}

// backoffDelay grows strictly per attempt: the doubling step (>=2s) always
// outweighs the jitter (<1s).
func backoffDelay(attempt int) time.Duration {
	return baseRetryDelay*(1<<attempt) + time.Duration(rand.Int63n(int64(maxJitter)))
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
