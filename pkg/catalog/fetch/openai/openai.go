// Package openai lists models from the OpenAI API.
package openai

import (
	"context"
	"fmt"
	"net/http"

	"github.com/NICxKMS/chatcore/pkg/catalog"
	"github.com/NICxKMS/chatcore/pkg/catalog/fetch"
)

const defaultBaseURL = "https://api.openai.com/v1"

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

// New creates an OpenAI model fetcher.
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
	return "openai"
}

func (f *fetcher) ListModels(ctx context.Context) ([]catalog.Model, error) {
	if f.apiKey == "" {
		return nil, fmt.Errorf("openai: API key not configured")
	}

	var resp modelsResponse
	header := http.Header{
		"Authorization": {"Bearer " + f.apiKey},
	}
	if err := fetch.GetJSON(ctx, f.client, f.baseURL+"/models", header, &resp); err != nil {
		return nil, fmt.Errorf("openai: %w", err)
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
