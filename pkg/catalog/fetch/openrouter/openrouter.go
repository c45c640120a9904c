// Package openrouter lists models from the OpenRouter aggregator API.
package openrouter

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/NICxKMS/chatcore/pkg/catalog"
	"github.com/NICxKMS/chatcore/pkg/catalog/fetch"
)

const defaultBaseURL = "https://openrouter.ai/api/v1"

type fetcher struct {
	apiKey   string
	baseURL  string
	referer  string
	appTitle string
	client   *http.Client
}

// Option configures the fetcher.
type Option func(*fetcher)

// WithBaseURL overrides the API base URL.
func WithBaseURL(url string) Option {
	return func(f *fetcher) { f.baseURL = url }
}

// WithReferer sets the HTTP-Referer header OpenRouter uses for
// attribution.
func WithReferer(referer string) Option {
	return func(f *fetcher) { f.referer = referer }
}

// WithAppTitle sets the X-Title header.
func WithAppTitle(title string) Option {
	return func(f *fetcher) { f.appTitle = title }
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(f *fetcher) { f.client = client }
}

// New creates an OpenRouter model fetcher.
func New(apiKey string, opts ...Option) *fetcher {
	f := &fetcher{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *fetcher) Name() string {
	return "openrouter"
}

func (f *fetcher) ListModels(ctx context.Context) ([]catalog.Model, error) {
	if f.apiKey == "" {
		return nil, fmt.Errorf("openrouter: API key not configured")
	}

	header := http.Header{
		"Authorization": {"Bearer " + f.apiKey},
	}
	if f.referer != "" {
		header.Set("HTTP-Referer", f.referer)
	}
	if f.appTitle != "" {
		header.Set("X-Title", f.appTitle)
	}

	var resp modelsResponse
	if err := fetch.GetJSON(ctx, f.client, f.baseURL+"/models", header, &resp); err != nil {
		return nil, fmt.Errorf("openrouter: %w", err)
	}
	if resp.Error != nil {
		return nil, fmt.Errorf("openrouter: %s", resp.Error.Message)
	}

	models := make([]catalog.Model, 0, len(resp.Data))
	for _, m := range resp.Data {
		models = append(models, catalog.Model{
			ID:                  m.ID,
			Provider:            f.Name(),
			ContextWindow:       m.ContextLength,
			InputPricePerToken:  parsePrice(m.Pricing.Prompt),
			OutputPricePerToken: parsePrice(m.Pricing.Completion),
		})
	}
	return models, nil
}

// parsePrice converts OpenRouter's string-typed per-token prices.
func parsePrice(s string) float64 {
	if s == "" {
		return 0
	}
	price, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return price
}
