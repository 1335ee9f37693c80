// Package registry provides a client for the public company-registry
// lookup API (CNPJ to firmographic data).
package registry

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"

	"github.com/stratevo/intel-cli/internal/resilience"
)

const maxResponseBytes = 1 * 1024 * 1024

// Info is the parsed registry record for one company.
type Info struct {
	TaxID               string  `json:"cnpj"`
	LegalName           string  `json:"razao_social"`
	TradeName           string  `json:"nome_fantasia"`
	Status              string  `json:"descricao_situacao_cadastral"`
	State               string  `json:"uf"`
	Municipality        string  `json:"municipio"`
	SizeClass           string  `json:"porte"`
	ActivityCode        int64   `json:"cnae_fiscal"`
	ActivityDescription string  `json:"cnae_fiscal_descricao"`
	RegisteredCapital   float64 `json:"capital_social"`
}

// Client defines the registry lookup operation.
type Client interface {
	// Lookup fetches the registry record for a normalized 14-digit tax ID.
	Lookup(ctx context.Context, taxID string) (*Info, error)
}

// ErrNotFound is returned when the registry has no record for the tax ID.
var ErrNotFound = eris.New("registry: not found")

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
	http    *http.Client
}

// NewClient creates a registry client. The public API needs no credentials.
func NewClient(opts ...Option) Client {
	c := &httpClient{
		baseURL: "https://brasilapi.com.br/api/cnpj/v1",
		http:    &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *httpClient) Lookup(ctx context.Context, taxID string) (*Info, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/"+taxID, nil)
	if err != nil {
		return nil, eris.Wrap(err, "registry: create request")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "registry: lookup request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		err := eris.Errorf("registry: status %d", resp.StatusCode)
		if resilience.RetryableStatus(resp.StatusCode) {
			return nil, resilience.MarkTransient(err, resp.StatusCode)
		}
		return nil, err
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, eris.Wrap(err, "registry: read response")
	}

	var info Info
	if err := json.Unmarshal(raw, &info); err != nil {
		return nil, eris.Wrap(err, "registry: parse response")
	}
	return &info, nil
}
