// Package api provides an HTTP API server for querying and managing the
// model catalog.
package api

// Config is the API server configuration.
type Config struct {
	// ListenAddr is the address to listen on (e.g., ":8081")
	ListenAddr string

	// IncludeExperimental exposes experimental models in the categorized
	// view by default. Clients can override per request with the
	// ?experimental query parameter.
	IncludeExperimental bool
}
