package config

import (
	"fmt"
	"strconv"
)

// Config represents the persistent chatcore configuration stored as
// config.toml in the .chatcore/ directory. The TOML layout uses sections
// for logical grouping.
type Config struct {
	Version     int               `toml:"version"`
	Storage     StorageConfig     `toml:"storage"`
	Proxy       ProxyConfig       `toml:"proxy"`
	API         APIConfig         `toml:"api"`
	Client      ClientConfig      `toml:"client"`
	Catalog     CatalogConfig     `toml:"catalog"`
	Providers   ProvidersConfig   `toml:"providers"`
	EventStream EventStreamConfig `toml:"eventstream"`
}

// StorageConfig holds shared storage settings used by both proxy and API.
type StorageConfig struct {
	Driver      string `toml:"driver,omitempty"`
	SQLitePath  string `toml:"sqlite_path,omitempty"`
	PostgresDSN string `toml:"postgres_dsn,omitempty"`
}

// ProxyConfig holds proxy-specific settings.
type ProxyConfig struct {
	Provider string `toml:"provider,omitempty"`
	Upstream string `toml:"upstream,omitempty"`
	Listen   string `toml:"listen,omitempty"`
}

// APIConfig holds API server settings.
type APIConfig struct {
	Listen string `toml:"listen,omitempty"`
}

// ClientConfig holds settings for CLI commands that connect to the
// running proxy and API servers (e.g. chatcore chat, chatcore models).
// Values are full URLs (scheme + host + port).
type ClientConfig struct {
	ProxyTarget string `toml:"proxy_target,omitempty"`
	APITarget   string `toml:"api_target,omitempty"`
}

// CatalogConfig holds model catalog settings.
type CatalogConfig struct {
	OverridesPath       string `toml:"overrides_path,omitempty"`
	IncludeExperimental bool   `toml:"include_experimental,omitempty"`
}

// ProvidersConfig holds the API keys used to refresh the model catalog
// from upstream providers. Any key left empty disables that provider.
type ProvidersConfig struct {
	OpenAIKey     string `toml:"openai_key,omitempty"`
	AnthropicKey  string `toml:"anthropic_key,omitempty"`
	GeminiKey     string `toml:"gemini_key,omitempty"`
	OpenRouterKey string `toml:"openrouter_key,omitempty"`
}

// EventStreamConfig holds stream telemetry publishing settings.
type EventStreamConfig struct {
	Provider string `toml:"provider,omitempty"`
	Brokers  string `toml:"brokers,omitempty"`
	Topic    string `toml:"topic,omitempty"`
}

// configKeyInfo maps a user-facing dotted key name to a getter and setter on *Config.
type configKeyInfo struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

// configKeys is the authoritative map of all supported config keys.
// Keys use dotted notation matching the TOML section structure.
var configKeys = map[string]configKeyInfo{
	"storage.driver": {
		get: func(c *Config) string { return c.Storage.Driver },
		set: func(c *Config, v string) error { c.Storage.Driver = v; return nil },
	},
	"storage.sqlite_path": {
		get: func(c *Config) string { return c.Storage.SQLitePath },
		set: func(c *Config, v string) error { c.Storage.SQLitePath = v; return nil },
	},
	"storage.postgres_dsn": {
		get: func(c *Config) string { return c.Storage.PostgresDSN },
		set: func(c *Config, v string) error { c.Storage.PostgresDSN = v; return nil },
	},
	"proxy.provider": {
		get: func(c *Config) string { return c.Proxy.Provider },
		set: func(c *Config, v string) error { c.Proxy.Provider = v; return nil },
	},
	"proxy.upstream": {
		get: func(c *Config) string { return c.Proxy.Upstream },
		set: func(c *Config, v string) error { c.Proxy.Upstream = v; return nil },
	},
	"proxy.listen": {
		get: func(c *Config) string { return c.Proxy.Listen },
		set: func(c *Config, v string) error { c.Proxy.Listen = v; return nil },
	},
	"api.listen": {
		get: func(c *Config) string { return c.API.Listen },
		set: func(c *Config, v string) error { c.API.Listen = v; return nil },
	},
	"client.proxy_target": {
		get: func(c *Config) string { return c.Client.ProxyTarget },
		set: func(c *Config, v string) error { c.Client.ProxyTarget = v; return nil },
	},
	"client.api_target": {
		get: func(c *Config) string { return c.Client.APITarget },
		set: func(c *Config, v string) error { c.Client.APITarget = v; return nil },
	},
	"catalog.overrides_path": {
		get: func(c *Config) string { return c.Catalog.OverridesPath },
		set: func(c *Config, v string) error { c.Catalog.OverridesPath = v; return nil },
	},
	"catalog.include_experimental": {
		get: func(c *Config) string { return strconv.FormatBool(c.Catalog.IncludeExperimental) },
		set: func(c *Config, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid value for catalog.include_experimental: %w", err)
			}
			c.Catalog.IncludeExperimental = b
			return nil
		},
	},
	"providers.openai_key": {
		get: func(c *Config) string { return c.Providers.OpenAIKey },
		set: func(c *Config, v string) error { c.Providers.OpenAIKey = v; return nil },
	},
	"providers.anthropic_key": {
		get: func(c *Config) string { return c.Providers.AnthropicKey },
		set: func(c *Config, v string) error { c.Providers.AnthropicKey = v; return nil },
	},
	"providers.gemini_key": {
		get: func(c *Config) string { return c.Providers.GeminiKey },
		set: func(c *Config, v string) error { c.Providers.GeminiKey = v; return nil },
	},
	"providers.openrouter_key": {
		get: func(c *Config) string { return c.Providers.OpenRouterKey },
		set: func(c *Config, v string) error { c.Providers.OpenRouterKey = v; return nil },
	},
	"eventstream.provider": {
		get: func(c *Config) string { return c.EventStream.Provider },
		set: func(c *Config, v string) error { c.EventStream.Provider = v; return nil },
	},
	"eventstream.brokers": {
		get: func(c *Config) string { return c.EventStream.Brokers },
		set: func(c *Config, v string) error { c.EventStream.Brokers = v; return nil },
	},
	"eventstream.topic": {
		get: func(c *Config) string { return c.EventStream.Topic },
		set: func(c *Config, v string) error { c.EventStream.Topic = v; return nil },
	},
}
