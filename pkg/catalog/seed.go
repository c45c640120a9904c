package catalog

// SeedModels returns a minimal built-in catalog used when no provider
// fetch succeeds, so grouped views and the CLI stay usable offline.
func SeedModels() []Model {
	return []Model{
		{
			ID:            "gpt-4o",
			Provider:      "openai",
			Family:        FamilyGPT4,
			Type:          "GPT-4o",
			Version:       "1.0.0",
			Capabilities:  []string{CapVision, CapFunctionCalling},
			ContextWindow: 128000,
		},
		{
			ID:            "gpt-4o-mini",
			Provider:      "openai",
			Family:        FamilyGPT4,
			Type:          "GPT-4o Mini",
			Version:       "1.0.0",
			Capabilities:  []string{CapVision, CapFunctionCalling},
			ContextWindow: 128000,
		},
		{
			ID:            "gpt-4-turbo",
			Provider:      "openai",
			Family:        FamilyGPT4,
			Type:          TypeTurbo,
			Version:       "1.0.0",
			Capabilities:  []string{CapFunctionCalling},
			ContextWindow: 128000,
		},
		{
			ID:            "gpt-3.5-turbo",
			Provider:      "openai",
			Family:        FamilyGPT35,
			Type:          TypeTurbo,
			Version:       "1.0.0",
			Capabilities:  []string{CapFunctionCalling},
			ContextWindow: 16385,
		},
		{
			ID:            "claude-3-opus-20240229",
			Provider:      "anthropic",
			Family:        FamilyClaude3,
			Type:          TypeOpus,
			Version:       "20240229",
			Capabilities:  []string{CapVision, CapFunctionCalling},
			ContextWindow: 200000,
		},
		{
			ID:            "claude-3-sonnet-20240229",
			Provider:      "anthropic",
			Family:        FamilyClaude3,
			Type:          TypeSonnet,
			Version:       "20240229",
			Capabilities:  []string{CapVision, CapFunctionCalling},
			ContextWindow: 200000,
		},
		{
			ID:            "claude-3-haiku-20240307",
			Provider:      "anthropic",
			Family:        FamilyClaude3,
			Type:          TypeHaiku,
			Version:       "20240307",
			Capabilities:  []string{CapVision, CapFunctionCalling},
			ContextWindow: 200000,
		},
		{
			ID:            "gemini-1.5-pro",
			Provider:      "gemini",
			Family:        "Gemini 1.5",
			Type:          TypePro,
			Version:       "1.0.0",
			Capabilities:  []string{CapVision, CapFunctionCalling},
			ContextWindow: 1000000,
		},
		{
			ID:            "gemini-1.5-flash",
			Provider:      "gemini",
			Family:        "Gemini 1.5",
			Type:          TypeFlash,
			Version:       "1.0.0",
			Capabilities:  []string{CapVision, CapFunctionCalling},
			ContextWindow: 1000000,
		},
	}
}

// Seed registers the built-in fallback catalog.
func (s *Service) Seed() {
	for _, m := range SeedModels() {
		s.Register(m)
	}
}
