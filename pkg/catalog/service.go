package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Fetcher pulls the live model list from an upstream provider API.
// Implementations live under pkg/catalog/fetch.
type Fetcher interface {
	Name() string
	ListModels(ctx context.Context) ([]Model, error)
}

// Service wraps a Registry with classification, grouped views, and
// upstream refresh. Grouped views are cached and the cache is flushed
// whenever the registry changes.
type Service struct {
	log        *slog.Logger
	registry   *Registry
	classifier *Classifier
	cache      *gocache.Cache
	fetchers   []Fetcher
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithLogger sets the service logger.
func WithLogger(log *slog.Logger) ServiceOption {
	return func(s *Service) {
		s.log = log
	}
}

// WithFetchers sets the upstream fetchers used by Reload.
func WithFetchers(fetchers ...Fetcher) ServiceOption {
	return func(s *Service) {
		s.fetchers = fetchers
	}
}

// WithCacheTTL overrides the default five-minute view cache.
func WithCacheTTL(ttl time.Duration) ServiceOption {
	return func(s *Service) {
		s.cache = gocache.New(ttl, 2*ttl)
	}
}

// NewService creates a Service over the given registry.
func NewService(registry *Registry, opts ...ServiceOption) *Service {
	s := &Service{
		log:        slog.New(slog.DiscardHandler),
		registry:   registry,
		classifier: NewClassifier(),
		cache:      gocache.New(5*time.Minute, 10*time.Minute),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Registry exposes the underlying registry.
func (s *Service) Registry() *Registry {
	return s.registry
}

// Register classifies and stores a model, then invalidates the cached
// views.
func (s *Service) Register(m Model) {
	s.registry.Register(s.enrich(m))
	s.cache.Flush()
}

// enrich fills in any classification fields the caller left empty.
func (s *Service) enrich(m Model) Model {
	if m.Provider == "" {
		m.Provider = "unknown"
	}
	if m.Family == "" {
		m.Family = s.classifier.Family(m.ID, m.Provider)
	}
	if m.Type == "" {
		m.Type = s.classifier.Type(m.ID, m.Provider)
	}
	if len(m.Capabilities) == 0 {
		m.Capabilities = s.classifier.Capabilities(m.ID)
	}
	if m.ContextWindow == 0 {
		m.ContextWindow = ContextWindow(m.ID)
	}
	return m
}

// Reload refreshes the registry from every configured fetcher. A failing
// fetcher is logged and skipped; its previous models stay in place. The
// returned count is the number of providers refreshed.
func (s *Service) Reload(ctx context.Context) (int, error) {
	if len(s.fetchers) == 0 {
		return 0, fmt.Errorf("catalog: no fetchers configured")
	}

	var refreshed int
	for _, fetcher := range s.fetchers {
		models, err := fetcher.ListModels(ctx)
		if err != nil {
			s.log.Warn("model fetch failed", "provider", fetcher.Name(), "error", err)
			continue
		}

		byID := make(map[string]Model, len(models))
		for _, m := range models {
			m.Provider = fetcher.Name()
			byID[m.ID] = s.enrich(m)
		}
		enriched := make([]Model, 0, len(byID))
		for _, m := range byID {
			enriched = append(enriched, m)
		}
		s.registry.Replace(fetcher.Name(), enriched)
		refreshed++

		s.log.Info("provider models refreshed",
			"provider", fetcher.Name(),
			"count", len(byID))
	}

	s.cache.Flush()

	if refreshed == 0 {
		return 0, fmt.Errorf("catalog: all %d fetchers failed", len(s.fetchers))
	}
	return refreshed, nil
}

// Categorized groups the registry as provider -> family -> type ->
// version group. Image generators land in a synthetic
// "image_generation" category and Gemini models are grouped type-first.
func (s *Service) Categorized(includeExperimental bool) Categorized {
	cacheKey := fmt.Sprintf("categorized-models-%v", includeExperimental)
	if cached, found := s.cache.Get(cacheKey); found {
		return cached.(Categorized)
	}

	result := make(Categorized)

	if imageModels := s.imageGenerationGroups(includeExperimental); len(imageModels) > 0 {
		result["image_generation"] = map[string]map[string]VersionGroup{
			"Models": imageModels,
		}
	}

	for _, provider := range s.registry.Providers() {
		models := s.registry.Models(provider)
		if len(models) == 0 {
			continue
		}

		if provider == "gemini" {
			result["gemini"] = s.geminiGroups(models, includeExperimental)
			continue
		}

		var list []Model
		for _, m := range models {
			if !includeExperimental && m.IsExperimental {
				continue
			}
			if isImageModel(strings.ToLower(m.ID)) {
				continue
			}
			list = append(list, s.enrich(m))
		}
		if len(list) == 0 {
			continue
		}

		families := make(map[string]map[string][]Model)
		for _, m := range list {
			if families[m.Family] == nil {
				families[m.Family] = make(map[string][]Model)
			}
			families[m.Family][m.Type] = append(families[m.Family][m.Type], m)
		}

		result[provider] = make(map[string]map[string]VersionGroup)
		for family, types := range families {
			result[provider][family] = make(map[string]VersionGroup)
			for modelType, group := range types {
				result[provider][family][modelType] = pickLatest(group)
			}
		}
	}

	s.cache.Set(cacheKey, result, gocache.DefaultExpiration)
	return result
}

// pickLatest splits a set of sibling models into the latest version and
// the rest. Canonical names win, then explicit "latest" aliases, then
// version comparison with preview builds ranked newest.
func pickLatest(group []Model) VersionGroup {
	if len(group) == 0 {
		return VersionGroup{}
	}

	var latest string
	for _, m := range group {
		if IsDefaultName(m.ID) {
			latest = m.ID
			break
		}
	}
	if latest == "" {
		for _, m := range group {
			if strings.Contains(m.ID, "latest") {
				latest = m.ID
				break
			}
		}
	}
	if latest == "" {
		best := group[0]
		for _, m := range group[1:] {
			switch {
			case m.Version != "" && best.Version != "":
				if NewerVersion(m.Version, best.Version) {
					best = m
				}
			case strings.Contains(m.ID, "preview") && !strings.Contains(best.ID, "preview"):
				best = m
			case NewerVersion(m.ID, best.ID):
				best = m
			}
		}
		latest = best.ID
	}

	var others []string
	for _, m := range group {
		if m.ID != latest {
			others = append(others, m.ID)
		}
	}
	sort.Strings(others)

	return VersionGroup{Latest: latest, OtherVersions: others}
}

// geminiGroups organizes Gemini models type-first, then by release line.
func (s *Service) geminiGroups(models []Model, includeExperimental bool) map[string]map[string]VersionGroup {
	groups := make(map[string]map[string][]Model)

	for _, m := range models {
		if !includeExperimental && m.IsExperimental {
			continue
		}
		lower := strings.ToLower(m.ID)
		if isImageModel(lower) {
			continue
		}

		modelType := s.classifier.geminiType(lower)
		line := geminiLine(lower)

		if groups[modelType] == nil {
			groups[modelType] = make(map[string][]Model)
		}
		groups[modelType][line] = append(groups[modelType][line], m)
	}

	result := make(map[string]map[string]VersionGroup, len(groups))
	for modelType, lines := range groups {
		result[modelType] = make(map[string]VersionGroup, len(lines))
		for line, group := range lines {
			sort.Slice(group, func(i, j int) bool { return group[i].ID < group[j].ID })
			result[modelType][line] = pickLatest(group)
		}
	}
	return result
}

// geminiLine maps a Gemini model ID to its release line label.
func geminiLine(lower string) string {
	switch {
	case strings.Contains(lower, "gemini-1.0"):
		return "Gemini 1.0"
	case strings.Contains(lower, "gemini-1.5"):
		return "Gemini 1.5"
	case strings.Contains(lower, "gemini-2.0"):
		return "Gemini 2.0"
	case strings.Contains(lower, "gemini-2.5"):
		return "Gemini 2.5"
	default:
		return "Gemini"
	}
}

// imageGenerationGroups collects image generators across providers,
// keyed by a display name for the provider.
func (s *Service) imageGenerationGroups(includeExperimental bool) map[string]VersionGroup {
	result := make(map[string]VersionGroup)

	for _, provider := range s.registry.Providers() {
		var imageModels []Model
		for _, m := range s.registry.Models(provider) {
			if !includeExperimental && m.IsExperimental {
				continue
			}
			if isImageModel(strings.ToLower(m.ID)) {
				imageModels = append(imageModels, m)
			}
		}
		if len(imageModels) == 0 {
			continue
		}

		sort.Slice(imageModels, func(i, j int) bool { return imageModels[i].ID < imageModels[j].ID })
		result[imageProviderDisplayName(provider)] = pickLatest(imageModels)
	}

	return result
}

func imageProviderDisplayName(provider string) string {
	switch provider {
	case "openai":
		return "DALL-E by OpenAI"
	case "gemini":
		return "Imagen by Google"
	case "stability":
		return "Stable Diffusion"
	case "midjourney":
		return "Midjourney"
	default:
		return provider
	}
}

// Structured groups every registered model as vendor -> series ->
// variant, independent of which provider served it.
func (s *Service) Structured() Structured {
	const cacheKey = "structured-model-data"
	if cached, found := s.cache.Get(cacheKey); found {
		return cached.(Structured)
	}

	data := make(Structured)

	for _, m := range s.registry.All() {
		vendor := s.classifier.Vendor(m.ID)
		series, variant := s.classifier.SeriesVariant(m.ID)

		if data[vendor] == nil {
			data[vendor] = make(map[string]map[string]VersionGroup)
		}
		if data[vendor][series] == nil {
			data[vendor][series] = make(map[string]VersionGroup)
		}

		existing, ok := data[vendor][series][variant]
		if !ok {
			data[vendor][series][variant] = VersionGroup{Latest: m.ID}
			continue
		}
		data[vendor][series][variant] = mergeVersion(existing, m.ID)
	}

	s.cache.Set(cacheKey, data, gocache.DefaultExpiration)
	return data
}

// mergeVersion folds another model ID into an existing version group,
// promoting it to latest when it outranks the current holder.
func mergeVersion(group VersionGroup, id string) VersionGroup {
	if group.Latest == "" {
		group.Latest = id
		return group
	}

	promote := false
	switch {
	case IsDefaultName(id) && !IsDefaultName(group.Latest):
		promote = true
	case IsDefaultName(id) == IsDefaultName(group.Latest):
		if strings.Contains(id, "latest") && !strings.Contains(group.Latest, "latest") {
			promote = true
		} else if !strings.Contains(id, "latest") && !strings.Contains(group.Latest, "latest") {
			promote = NewerVersion(id, group.Latest)
		}
	}

	if promote {
		group.OtherVersions = append(group.OtherVersions, group.Latest)
		group.Latest = id
	} else {
		group.OtherVersions = append(group.OtherVersions, id)
	}
	return group
}
