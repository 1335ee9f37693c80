// Package serper provides a client for the Serper search API (web and news
// modes). Credentials are injected by the caller; the client never reads
// the environment itself.
package serper

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"

	"github.com/stratevo/intel-cli/internal/resilience"
)

// maxResponseBytes limits the amount of JSON read from the API.
const maxResponseBytes = 2 * 1024 * 1024

// Client defines the search operations used by discovery and enrichment.
type Client interface {
	// Search performs a web search and returns ranked organic results.
	Search(ctx context.Context, query string, opts ...SearchOption) ([]Result, error)
	// News performs a news-mode search.
	News(ctx context.Context, query string, opts ...SearchOption) ([]Result, error)
}

// Result is a single ranked search hit.
type Result struct {
	Title    string `json:"title"`
	Snippet  string `json:"snippet"`
	Link     string `json:"link"`
	Date     string `json:"date,omitempty"`
	Position int    `json:"position,omitempty"`
}

type searchRequest struct {
	Q  string `json:"q"`
	GL string `json:"gl,omitempty"`
	HL string `json:"hl,omitempty"`
	N  int    `json:"num,omitempty"`
}

type searchResponse struct {
	Organic []Result `json:"organic"`
	News    []Result `json:"news"`
}

// SearchOption configures a single search request.
type SearchOption func(*searchOpts)

type searchOpts struct {
	gl  string
	hl  string
	num int
}

// WithLocale sets the country and language codes (e.g. "br", "pt-br").
func WithLocale(gl, hl string) SearchOption {
	return func(o *searchOpts) {
		o.gl = gl
		o.hl = hl
	}
}

// WithNum sets the number of results to request.
func WithNum(n int) SearchOption {
	return func(o *searchOpts) {
		o.num = n
	}
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

// NewClient creates a Serper client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: "https://google.serper.dev",
		http:    &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *httpClient) Search(ctx context.Context, query string, opts ...SearchOption) ([]Result, error) {
	resp, err := c.post(ctx, "/search", query, opts)
	if err != nil {
		return nil, err
	}
	return withPositions(resp.Organic), nil
}

func (c *httpClient) News(ctx context.Context, query string, opts ...SearchOption) ([]Result, error) {
	resp, err := c.post(ctx, "/news", query, opts)
	if err != nil {
		return nil, err
	}
	return withPositions(resp.News), nil
}

func (c *httpClient) post(ctx context.Context, path, query string, opts []SearchOption) (*searchResponse, error) {
	o := searchOpts{}
	for _, opt := range opts {
		opt(&o)
	}

	body, err := json.Marshal(searchRequest{Q: query, GL: o.gl, HL: o.hl, N: o.num})
	if err != nil {
		return nil, eris.Wrap(err, "serper: marshal request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, eris.Wrap(err, "serper: create request")
	}
	req.Header.Set("X-API-KEY", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "serper: search request")
	}
	defer resp.Body.Close() //nolint:errcheck

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, eris.Wrap(err, "serper: read response")
	}

	if resp.StatusCode != http.StatusOK {
		err := eris.Errorf("serper: status %d: %s", resp.StatusCode, truncate(string(raw), 200))
		if resilience.RetryableStatus(resp.StatusCode) {
			return nil, resilience.MarkTransient(err, resp.StatusCode)
		}
		return nil, err
	}

	var parsed searchResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, eris.Wrap(err, "serper: parse response")
	}
	return &parsed, nil
}

// withPositions fills in 1-based positions for results the API returned
// without one, preserving response order.
func withPositions(results []Result) []Result {
	for i := range results {
		if results[i].Position == 0 {
			results[i].Position = i + 1
		}
	}
	return results
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
