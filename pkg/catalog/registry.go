package catalog

import (
	"sort"
	"sync"
)

// Registry is the in-memory provider → model ID → Model map. All access
// is guarded by a read-write mutex so the API server, the reload path,
// and the overrides watcher can share one instance.
type Registry struct {
	mu     sync.RWMutex
	models map[string]map[string]Model
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		models: make(map[string]map[string]Model),
	}
}

// Register inserts or replaces one model. The model's ID and Provider
// fields are authoritative; empty providers are rejected by storing under
// the "unknown" provider rather than erroring, matching the catalog's
// never-fail posture.
func (r *Registry) Register(m Model) {
	if m.Provider == "" {
		m.Provider = "unknown"
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.models[m.Provider] == nil {
		r.models[m.Provider] = make(map[string]Model)
	}
	r.models[m.Provider][m.ID] = m
}

// Get retrieves one model by provider and ID.
func (r *Registry) Get(provider, id string) (Model, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.models[provider][id]
	return m, ok
}

// Models returns the models for one provider, sorted by ID.
func (r *Registry) Models(provider string) []Model {
	r.mu.RLock()
	defer r.mu.RUnlock()

	models := make([]Model, 0, len(r.models[provider]))
	for _, m := range r.models[provider] {
		models = append(models, m)
	}

	sort.Slice(models, func(i, j int) bool {
		return models[i].ID < models[j].ID
	})

	return models
}

// All returns every registered model, sorted by provider then ID.
func (r *Registry) All() []Model {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var models []Model
	for _, byID := range r.models {
		for _, m := range byID {
			models = append(models, m)
		}
	}

	sort.Slice(models, func(i, j int) bool {
		if models[i].Provider != models[j].Provider {
			return models[i].Provider < models[j].Provider
		}
		return models[i].ID < models[j].ID
	})

	return models
}

// Providers returns the sorted list of providers with at least one model.
func (r *Registry) Providers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	providers := make([]string, 0, len(r.models))
	for provider, byID := range r.models {
		if len(byID) == 0 {
			continue
		}
		providers = append(providers, provider)
	}

	sort.Strings(providers)
	return providers
}

// Replace swaps out one provider's entire model set in a single critical
// section, used by reloads so readers never observe a half-replaced list.
func (r *Registry) Replace(provider string, models []Model) {
	byID := make(map[string]Model, len(models))
	for _, m := range models {
		m.Provider = provider
		byID[m.ID] = m
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.models[provider] = byID
}

// Count returns the total number of registered models.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for _, byID := range r.models {
		n += len(byID)
	}
	return n
}
