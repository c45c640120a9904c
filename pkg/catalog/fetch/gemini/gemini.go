// Package gemini lists models from the Google Generative Language API.
package gemini

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/NICxKMS/chatcore/pkg/catalog"
	"github.com/NICxKMS/chatcore/pkg/catalog/fetch"
)

const (
	defaultBaseURL    = "https://generativelanguage.googleapis.com"
	defaultAPIVersion = "v1beta"
)

type fetcher struct {
	apiKey     string
	baseURL    string
	apiVersion string
	client     *http.Client
}

// Option configures the fetcher.
type Option func(*fetcher)

// WithBaseURL overrides the API base URL.
func WithBaseURL(url string) Option {
	return func(f *fetcher) { f.baseURL = url }
}

// WithAPIVersion overrides the API version path segment.
func WithAPIVersion(version string) Option {
	return func(f *fetcher) { f.apiVersion = version }
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(f *fetcher) { f.client = client }
}

// New creates a Gemini model fetcher.
func New(apiKey string, opts ...Option) *fetcher {
	f := &fetcher{
		apiKey:     apiKey,
		baseURL:    defaultBaseURL,
		apiVersion: defaultAPIVersion,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *fetcher) Name() string {
	return "gemini"
}

func (f *fetcher) ListModels(ctx context.Context) ([]catalog.Model, error) {
	if f.apiKey == "" {
		return nil, fmt.Errorf("gemini: API key not configured")
	}

	url := fmt.Sprintf("%s/%s/models?key=%s", f.baseURL, f.apiVersion, f.apiKey)

	var resp modelsResponse
	if err := fetch.GetJSON(ctx, f.client, url, nil, &resp); err != nil {
		return nil, fmt.Errorf("gemini: %w", err)
	}

	models := make([]catalog.Model, 0, len(resp.Models))
	for _, m := range resp.Models {
		// API names are paths like "models/gemini-1.5-pro".
		id := m.Name
		if idx := strings.LastIndex(id, "/"); idx >= 0 {
			id = id[idx+1:]
		}

		models = append(models, catalog.Model{
			ID:              id,
			Provider:        f.Name(),
			Version:         m.Version,
			ContextWindow:   m.InputTokenLimit,
			MaxOutputTokens: m.OutputTokenLimit,
			IsExperimental:  strings.Contains(id, "exp"),
		})
	}
	return models, nil
}
