// Package anthropic lists models from the Anthropic API.
package anthropic

import (
	"context"
	"fmt"
	"net/http"

	"github.com/NICxKMS/chatcore/pkg/catalog"
	"github.com/NICxKMS/chatcore/pkg/catalog/fetch"
)

const (
	defaultBaseURL = "https://api.anthropic.com/v1"
	apiVersion     = "2023-06-01"
)

type fetcher struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// Option configures the fetcher.
type Option func(*fetcher)

// WithBaseURL overrides the API base URL.
func WithBaseURL(url string) Option {
	return func(f *fetcher) { f.baseURL = url }
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(f *fetcher) { f.client = client }
}

// New creates an Anthropic model fetcher.
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
	return "anthropic"
}

func (f *fetcher) ListModels(ctx context.Context) ([]catalog.Model, error) {
	if f.apiKey == "" {
		return nil, fmt.Errorf("anthropic: API key not configured")
	}

	header := http.Header{
		"X-Api-Key":         {f.apiKey},
		"Anthropic-Version": {apiVersion},
	}

	var resp modelsResponse
	if err := fetch.GetJSON(ctx, f.client, f.baseURL+"/models", header, &resp); err != nil {
		return nil, fmt.Errorf("anthropic: %w", err)
	}

	models := make([]catalog.Model, 0, len(resp.Data))
	for _, m := range resp.Data {
		models = append(models, catalog.Model{
			ID:       m.ID,
			Provider: f.Name(),
		})
	}
	return models, nil
}
