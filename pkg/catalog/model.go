// Package catalog maintains the registry of chat-completion models known
// to the system, classifies them into families, series, and variants, and
// serves categorized views of the collection for the UI's model pickers.
package catalog

// Model is the metadata record for a single chat-completion model.
type Model struct {
	ID                  string   `json:"id"`
	Provider            string   `json:"provider"`
	Family              string   `json:"family,omitempty"`
	Type                string   `json:"type,omitempty"`
	Version             string   `json:"version,omitempty"`
	Capabilities        []string `json:"capabilities,omitempty"`
	ContextWindow       int      `json:"context_window,omitempty"`
	MaxOutputTokens     int      `json:"max_output_tokens,omitempty"`
	IsExperimental      bool     `json:"is_experimental,omitempty"`
	InputPricePerToken  float64  `json:"input_price_per_token,omitempty"`
	OutputPricePerToken float64  `json:"output_price_per_token,omitempty"`
}

// VersionGroup collects the versions of one logical model: the canonical
// or newest ID plus every other version observed.
type VersionGroup struct {
	Latest        string   `json:"latest"`
	OtherVersions []string `json:"other_versions"`
}

// Categorized is the provider → family → type → VersionGroup hierarchy
// served by /models/categorized.
type Categorized map[string]map[string]map[string]VersionGroup

// Structured is the vendor → series → variant → VersionGroup hierarchy
// served by /models/structured.
type Structured map[string]map[string]map[string]VersionGroup
