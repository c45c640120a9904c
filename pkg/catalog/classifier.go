package catalog

import "strings"

// Classification labels shared across the pattern tables.
const (
	FamilyGPT4    = "GPT-4"
	FamilyGPT35   = "GPT-3.5"
	FamilyOSeries = "O Series"
	FamilyClaude3 = "Claude 3"
	FamilyClaude2 = "Claude 2"
	FamilyClaude1 = "Claude 1"
	FamilyLlama   = "LLaMA"
	FamilyMistral = "Mistral"
	FamilyPaLM    = "PaLM"
	FamilyImage   = "Image Generation"
	FamilyOther   = "Other"

	TypeStandard   = "Standard"
	TypeTurbo      = "Turbo"
	TypeOpus       = "Opus"
	TypeSonnet     = "Sonnet"
	TypeHaiku      = "Haiku"
	TypeInstant    = "Instant"
	TypePro        = "Pro"
	TypeFlash      = "Flash"
	TypeFlashLite  = "Flash Lite"
	TypeUltra      = "Ultra"
	TypeThinking   = "Thinking"
	TypeVision     = "Vision"
	TypeMultimodal = "Multimodal"

	CapChat            = "chat"
	CapVision          = "vision"
	CapFunctionCalling = "function-calling"
	CapEmbedding       = "embedding"
	CapAudio           = "audio"
)

// Classifier derives family, type, vendor, series, variant, and
// capability labels from raw model identifiers using substring pattern
// tables. Classification is heuristic and never fails: unmatched models
// land in the "Other" buckets.
type Classifier struct {
	capabilityPatterns map[string][]string
}

// NewClassifier creates a Classifier with the built-in pattern tables.
func NewClassifier() *Classifier {
	return &Classifier{
		capabilityPatterns: map[string][]string{
			CapVision:          {"vision", "image", "multimodal"},
			CapFunctionCalling: {"function", "tool"},
			CapEmbedding:       {"embedding", "embed", "vector"},
			CapAudio:           {"whisper", "tts", "speech", "audio"},
			CapChat:            {"chat", "conversation", "completion"},
		},
	}
}

// isImageModel reports whether a model ID names an image generator.
func isImageModel(lower string) bool {
	return strings.Contains(lower, "dall-e") ||
		strings.Contains(lower, "imagen") ||
		strings.Contains(lower, "midjourney") ||
		strings.Contains(lower, "stable-diffusion") ||
		(strings.Contains(lower, "image") && strings.Contains(lower, "generat"))
}

// NormalizeID strips sub-provider prefixes from aggregator model IDs,
// e.g. OpenRouter's "anthropic/claude-3-opus" becomes "claude-3-opus".
func NormalizeID(id, provider string) string {
	if strings.ToLower(provider) != "openrouter" {
		return id
	}

	before, after, ok := strings.Cut(id, "/")
	if !ok {
		return id
	}

	switch strings.ToLower(before) {
	case "anthropic", "openai", "google", "meta-llama", "mistralai":
		return after
	default:
		return id
	}
}

// Family buckets a model into its broad family based on its ID and
// originating provider.
func (c *Classifier) Family(id, provider string) string {
	lower := strings.ToLower(id)
	provider = strings.ToLower(provider)

	if isImageModel(lower) {
		return FamilyImage
	}

	lower = strings.ToLower(NormalizeID(lower, provider))

	switch {
	case provider == "openai" || strings.Contains(lower, "gpt") || strings.Contains(lower, "o1"):
		switch {
		case strings.Contains(lower, "o1"):
			return FamilyOSeries
		case strings.Contains(lower, "gpt-4"):
			return FamilyGPT4
		case strings.Contains(lower, "gpt-3.5"):
			return FamilyGPT35
		case strings.HasPrefix(lower, "davinci"),
			strings.HasPrefix(lower, "curie"),
			strings.HasPrefix(lower, "babbage"),
			strings.HasPrefix(lower, "ada"),
			strings.Contains(lower, "embedding"),
			strings.Contains(lower, "tts"),
			strings.Contains(lower, "whisper"):
			return FamilyOther
		}

	case provider == "anthropic" || strings.Contains(lower, "claude"):
		switch {
		case strings.Contains(lower, "claude-3"):
			return FamilyClaude3
		case strings.Contains(lower, "claude-2"):
			return FamilyClaude2
		case strings.Contains(lower, "claude-1"), strings.Contains(lower, "claude-instant"):
			return FamilyClaude1
		}

	case provider == "gemini" || strings.Contains(lower, "gemini"):
		return c.geminiType(lower)

	case strings.Contains(lower, "llama") || strings.Contains(lower, "hermes"):
		return FamilyLlama

	case strings.Contains(lower, "mistral") || strings.Contains(lower, "mixtral"):
		return FamilyMistral

	case strings.Contains(lower, "palm"):
		return FamilyPaLM
	}

	return FamilyOther
}

// Type resolves a model's tier within its family (Opus, Turbo, Flash…).
func (c *Classifier) Type(id, provider string) string {
	lower := strings.ToLower(NormalizeID(strings.ToLower(id), provider))
	provider = strings.ToLower(provider)

	if strings.Contains(lower, "vision") ||
		strings.Contains(lower, "visual") ||
		strings.Contains(lower, "dall-e") {
		return TypeMultimodal
	}

	switch {
	case provider == "openai":
		switch {
		case strings.Contains(lower, "turbo"):
			return TypeTurbo
		case strings.Contains(lower, "o1-mini"):
			return "O1 Mini"
		case strings.Contains(lower, "o1"):
			return "O1"
		case strings.Contains(lower, "gpt-4o-mini"):
			return "GPT-4o Mini"
		case strings.Contains(lower, "gpt-4o"):
			return "GPT-4o"
		case strings.Contains(lower, "gpt-4.5"):
			return "GPT-4.5"
		}

	case provider == "anthropic" || strings.Contains(lower, "claude"):
		switch {
		case strings.Contains(lower, "opus"):
			return TypeOpus
		case strings.Contains(lower, "sonnet"):
			return TypeSonnet
		case strings.Contains(lower, "haiku"):
			return TypeHaiku
		case strings.Contains(lower, "instant"):
			return TypeInstant
		}

	case provider == "gemini" || strings.Contains(lower, "gemini"):
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

	case provider == "openrouter":
		return "LLM"
	}

	return TypeStandard
}

// geminiType buckets Gemini models by tier; versions are handled by Type.
func (c *Classifier) geminiType(lower string) string {
	switch {
	case strings.Contains(lower, "flash-lite"), strings.Contains(lower, "flash lite"):
		return TypeFlashLite
	case strings.Contains(lower, "flash"):
		return TypeFlash
	case strings.Contains(lower, "pro"):
		return TypePro
	case strings.Contains(lower, "ultra"):
		return TypeUltra
	case strings.Contains(lower, "thinking"):
		return TypeThinking
	case strings.Contains(lower, "vision"):
		return TypeVision
	case strings.Contains(lower, "embedding"),
		strings.Contains(lower, "embed"),
		strings.Contains(lower, "bison"),
		strings.Contains(lower, "gemma"),
		strings.Contains(lower, "aqa"):
		return FamilyOther
	default:
		return FamilyOther
	}
}

// Vendor maps a raw model ID to the company behind it, for the
// structured view's top level.
func (c *Classifier) Vendor(id string) string {
	lower := strings.ToLower(id)
	switch {
	case strings.Contains(lower, "claude"):
		return "Anthropic"
	case strings.Contains(lower, "gemini"):
		return "Gemini"
	case strings.Contains(lower, "gpt"), strings.Contains(lower, "o1"):
		return "OpenAI"
	default:
		return "Unknown Models"
	}
}

// SeriesVariant resolves the structured view's middle levels for a model.
func (c *Classifier) SeriesVariant(id string) (series, variant string) {
	lower := strings.ToLower(id)

	if strings.Contains(lower, "claude") {
		switch {
		case strings.Contains(lower, "sonnet"):
			series = TypeSonnet
		case strings.Contains(lower, "haiku"):
			series = TypeHaiku
		case strings.Contains(lower, "opus"):
			series = TypeOpus
		}
		if series != "" {
			if strings.Contains(lower, "3") {
				variant = FamilyClaude3
			} else if series == TypeOpus {
				variant = FamilyClaude2
			} else {
				variant = FamilyClaude1
			}
			return series, variant
		}
	}

	if strings.Contains(lower, "gemini") {
		series = c.geminiType(lower)
		switch {
		case strings.Contains(lower, "gemini-1.0"):
			variant = "Gemini 1.0"
		case strings.Contains(lower, "gemini-1.5"):
			variant = "Gemini 1.5"
		case strings.Contains(lower, "gemini-2.0"):
			variant = "Gemini 2.0"
		case strings.Contains(lower, "gemini-2.5"):
			variant = "Gemini 2.5"
		default:
			variant = "Gemini"
		}
		return series, variant
	}

	if strings.Contains(lower, "openai") || strings.Contains(lower, "gpt") || strings.Contains(lower, "o1") {
		switch {
		case strings.Contains(lower, "o1-mini"):
			return FamilyOSeries, "O1 Mini"
		case strings.Contains(lower, "o1"):
			return FamilyOSeries, "O1"
		case strings.Contains(lower, "gpt-3.5"):
			return FamilyGPT35, TypeTurbo
		case strings.Contains(lower, "gpt-4o-mini"):
			return FamilyGPT4, "GPT-4o Mini"
		case strings.Contains(lower, "gpt-4o"):
			return FamilyGPT4, "GPT-4o"
		case strings.Contains(lower, "gpt-4.5"):
			return FamilyGPT4, "GPT-4.5"
		case strings.Contains(lower, "dall-e"):
			return "DALL-E", "DALL-E"
		case strings.HasPrefix(lower, "davinci"),
			strings.HasPrefix(lower, "curie"),
			strings.HasPrefix(lower, "babbage"),
			strings.HasPrefix(lower, "ada"),
			strings.Contains(lower, "embedding"),
			strings.Contains(lower, "tts"),
			strings.Contains(lower, "whisper"):
			return FamilyOther, "Legacy"
		}
	}

	return FamilyOther, FamilyOther
}

// Capabilities lists the capability labels whose patterns match the
// model ID. Chat models that match nothing still get the chat capability.
func (c *Classifier) Capabilities(id string) []string {
	lower := strings.ToLower(id)

	var caps []string
	for _, capability := range []string{CapChat, CapVision, CapFunctionCalling, CapEmbedding, CapAudio} {
		for _, pattern := range c.capabilityPatterns[capability] {
			if strings.Contains(lower, pattern) {
				caps = append(caps, capability)
				break
			}
		}
	}

	if len(caps) == 0 {
		caps = []string{CapChat}
	}

	return caps
}
