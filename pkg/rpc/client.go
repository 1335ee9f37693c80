// Package rpc invokes named backend procedures over authenticated HTTPS.
// The procedures (lead scoring, deal approval, duplicate detection, ...)
// are black boxes: given a JSON payload they return JSON or an error.
package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
)

const maxResponseBytes = 4 * 1024 * 1024

// Client invokes backend procedures by name.
type Client interface {
	Invoke(ctx context.Context, name string, payload any) (json.RawMessage, error)
}

// Error is a structured backend failure returned with a non-2xx status.
type Error struct {
	Name       string
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	return "rpc: " + e.Name + ": " + e.Message
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
	baseURL string
	apiKey  string
	http    *http.Client
}

// NewClient creates an RPC client for the given endpoint and key.
func NewClient(baseURL, apiKey string, opts ...Option) Client {
	c := &httpClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *httpClient) Invoke(ctx context.Context, name string, payload any) (json.RawMessage, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, eris.Wrapf(err, "rpc: marshal payload for %s", name)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/rpc/"+name, bytes.NewReader(body))
	if err != nil {
		return nil, eris.Wrapf(err, "rpc: create request for %s", name)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrapf(err, "rpc: invoke %s", name)
	}
	defer resp.Body.Close() //nolint:errcheck

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, eris.Wrapf(err, "rpc: read response for %s", name)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &Error{Name: name, StatusCode: resp.StatusCode, Message: string(raw)}
	}
	return raw, nil
}
