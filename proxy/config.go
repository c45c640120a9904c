package proxy

// Config is the proxy server configuration.
type Config struct {
	// ListenAddr is the address to listen on (e.g., ":8080")
	ListenAddr string

	// UpstreamURL is the upstream chat-completion backend URL
	// (e.g., "https://api.openai.com")
	UpstreamURL string

	// Provider names the upstream provider ("openai", "anthropic",
	// "openrouter"). It is stamped on published telemetry events and
	// selects the usage extraction shape for streamed responses.
	Provider string

	// Project is an optional project tag stamped on published events.
	Project string
}
