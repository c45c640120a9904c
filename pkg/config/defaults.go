package config

const (
	defaultStorageDriver = "sqlite"

	defaultProvider    = "openai"
	defaultUpstream    = "https://api.openai.com"
	defaultProxyListen = ":8080"
	defaultAPIListen   = ":8081"

	defaultClientProxyTarget = "http://localhost:8080"
	defaultClientAPITarget   = "http://localhost:8081"

	defaultEventStreamProvider = "nop"
	defaultEventStreamTopic    = "chatcore.streams"
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		Storage: StorageConfig{
			Driver: defaultStorageDriver,
		},
		Proxy: ProxyConfig{
			Provider: defaultProvider,
			Upstream: defaultUpstream,
			Listen:   defaultProxyListen,
		},
		API: APIConfig{
			Listen: defaultAPIListen,
		},
		Client: ClientConfig{
			ProxyTarget: defaultClientProxyTarget,
			APITarget:   defaultClientAPITarget,
		},
		EventStream: EventStreamConfig{
			Provider: defaultEventStreamProvider,
			Topic:    defaultEventStreamTopic,
		},
	}
}
