// Package inmemory provides a map-backed storage driver, used by tests
// and as the default when no database is configured.
package inmemory

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/NICxKMS/chatcore/pkg/catalog"
	"github.com/NICxKMS/chatcore/pkg/storage"
)

// Driver implements storage.Driver using an in-memory map.
type Driver struct {
	// mu is a read write sync mutex for locking the model map
	mu sync.RWMutex

	// models maps provider -> model ID -> model
	models map[string]map[string]catalog.Model
}

// NewDriver creates a new in-memory store.
func NewDriver() *Driver {
	return &Driver{
		models: make(map[string]map[string]catalog.Model),
	}
}

// PutModel upserts a model. Returns true if the model was newly inserted.
func (s *Driver) PutModel(_ context.Context, model catalog.Model) (bool, error) {
	if model.ID == "" {
		return false, errors.New("cannot store model without an ID")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	provider := s.models[model.Provider]
	if provider == nil {
		provider = make(map[string]catalog.Model)
		s.models[model.Provider] = provider
	}

	_, exists := provider[model.ID]
	provider[model.ID] = model
	return !exists, nil
}

// GetModel retrieves a model by provider and ID.
func (s *Driver) GetModel(_ context.Context, provider, id string) (catalog.Model, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	model, ok := s.models[provider][id]
	if !ok {
		return catalog.Model{}, storage.NotFoundError{Provider: provider, ID: id}
	}

	return model, nil
}

// ListModels returns all models for a provider, sorted by ID.
func (s *Driver) ListModels(_ context.Context, provider string) ([]catalog.Model, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	models := make([]catalog.Model, 0, len(s.models[provider]))
	for _, model := range s.models[provider] {
		models = append(models, model)
	}
	sort.Slice(models, func(i, j int) bool { return models[i].ID < models[j].ID })

	return models, nil
}

// ListProviders returns all providers with at least one model, sorted.
func (s *Driver) ListProviders(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	providers := make([]string, 0, len(s.models))
	for provider, models := range s.models {
		if len(models) > 0 {
			providers = append(providers, provider)
		}
	}
	sort.Strings(providers)

	return providers, nil
}

// DeleteModel removes a model by provider and ID.
func (s *Driver) DeleteModel(_ context.Context, provider, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.models[provider][id]; !ok {
		return storage.NotFoundError{Provider: provider, ID: id}
	}

	delete(s.models[provider], id)
	return nil
}

// Close is a no-op for the in-memory store.
func (s *Driver) Close() error {
	return nil
}
