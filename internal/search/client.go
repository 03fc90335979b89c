// Package search queries the SerpAPI news index for candidate sources.
package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const (
	defaultBaseURL     = "https://serpapi.com/search.json"
	defaultTimeout     = 20 * time.Second
	defaultResultCount = 10
)

// Result is one raw news-search hit. Hits are not pre-filtered for
// credibility; scoring happens downstream.
type Result struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Snippet string `json:"snippet"`
	Date    string `json:"date"`
}

// Client queries the search service
type Client struct {
	httpClient  *http.Client
	baseURL     string
	apiKey      string
	resultCount int
}

// ClientOption configures the Client
type ClientOption func(*Client)

// WithBaseURL sets a custom base URL
func WithBaseURL(url string) ClientOption {
	return func(c *Client) {
		c.baseURL = url
	}
}

// WithTimeout sets the HTTP client timeout
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithResultCount sets how many hits to request
func WithResultCount(n int) ClientOption {
	return func(c *Client) {
		c.resultCount = n
	}
}

// NewClient creates a new search client
func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		baseURL:     defaultBaseURL,
		apiKey:      apiKey,
		resultCount: defaultResultCount,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

type searchResponse struct {
	NewsResults []Result `json:"news_results"`
}

// SearchNews runs a news-engine query for the literal content. A query with
// no matches returns an empty slice and no error.
func (c *Client) SearchNews(ctx context.Context, query string) ([]Result, error) {
	params := url.Values{}
	params.Set("engine", "google")
	params.Set("q", query)
	params.Set("api_key", c.apiKey)
	params.Set("num", strconv.Itoa(c.resultCount))
	params.Set("tbm", "nws")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search API error (status %d): %s", resp.StatusCode, string(body))
	}

	var sr searchResponse
	if err := json.Unmarshal(body, &sr); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}

	return sr.NewsResults, nil
}
