package catalog

import "strings"

// contextWindowEntry pairs an ID substring with the context window it
// implies. Entries are ordered most specific first so the first match
// wins.
type contextWindowEntry struct {
	pattern string
	tokens  int
}

var contextWindows = []contextWindowEntry{
	// OpenAI
	{"gpt-4-turbo", 128000},
	{"gpt-4o", 128000},
	{"gpt-4-vision", 128000},
	{"gpt-4-32k", 32768},
	{"gpt-4", 8192},
	{"gpt-3.5-turbo-16k", 16385},
	{"gpt-3.5", 4096},
	{"o1", 200000},

	// Anthropic
	{"claude-3.5-sonnet", 200000},
	{"claude-3.7-opus", 200000},
	{"claude-3-opus", 200000},
	{"claude-3-sonnet", 200000},
	{"claude-3-haiku", 200000},
	{"claude-2", 100000},
	{"claude-instant", 100000},

	// Gemini
	{"gemini-2.0-pro", 2000000},
	{"gemini-2.0-flash-lite", 1000000},
	{"gemini-2.0-flash", 1000000},
	{"gemini-1.5-flash-8b", 1000000},
	{"gemini-1.5-pro", 1000000},
	{"gemini-1.5-flash", 1000000},
	{"gemini-1.0-pro", 32768},
	{"gemini", 32768},
}

// ContextWindow resolves a model's context window from its ID. It
// returns 0 when no table entry or family heuristic applies.
func ContextWindow(id string) int {
	lower := strings.ToLower(id)

	for _, entry := range contextWindows {
		if strings.Contains(lower, entry.pattern) {
			return entry.tokens
		}
	}

	// Family-level fallbacks for IDs the table misses.
	switch {
	case strings.Contains(lower, "claude"):
		return 100000
	case strings.Contains(lower, "llama"), strings.Contains(lower, "mistral"),
		strings.Contains(lower, "mixtral"):
		return 32768
	}

	return 0
}
