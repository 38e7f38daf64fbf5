package config

import "time"

type Duration struct {
	Duration time.Duration
}

type HTTPConfig struct {
	Addr              string   `json:"addr"`
	ReadHeaderTimeout Duration `json:"read_header_timeout"`
	IdleTimeout       Duration `json:"idle_timeout"`
	ShutdownTimeout   Duration `json:"shutdown_timeout"`
	MaxRequestBytes   int64    `json:"max_request_bytes"`

	// AllowedOrigins feeds the CORS middleware. "*" allows any origin.
	AllowedOrigins []string `json:"allowed_origins,omitempty"`
}

// ProviderConfig selects and configures the generation backend.
type ProviderConfig struct {
	// Type is one of "gemini", "oai_http" or "mock".
	Type  string `json:"type"`
	Model string `json:"model"`

	// APIKey is the provider credential. An empty key does not fail startup;
	// the gateway answers with configuration errors instead.
	APIKey string `json:"api_key,omitempty"`

	// BaseURL and ChatCompletionsPath apply to "oai_http" only.
	BaseURL             string `json:"base_url,omitempty"`
	ChatCompletionsPath string `json:"chat_completions_path,omitempty"`

	Timeout       Duration `json:"timeout,omitempty"`
	StreamTimeout Duration `json:"stream_timeout,omitempty"`

	// Sampling is fixed per deployment; clients cannot override it.
	Temperature     *float32 `json:"temperature,omitempty"`
	MaxOutputTokens int32    `json:"max_output_tokens,omitempty"`
}

type PersonasConfig struct {
	// Path overrides the embedded persona table.
	Path string `json:"path,omitempty"`
}

type SearchConfig struct {
	APIKey            string   `json:"api_key,omitempty"`
	BaseURL           string   `json:"base_url,omitempty"`
	Timeout           Duration `json:"timeout,omitempty"`
	DefaultNumResults int      `json:"default_num_results,omitempty"`

	// RedisAddr enables the result cache when set.
	RedisAddr     string   `json:"redis_addr,omitempty"`
	RedisPassword string   `json:"redis_password,omitempty"`
	RedisDB       int      `json:"redis_db,omitempty"`
	CacheTTL      Duration `json:"cache_ttl,omitempty"`
}

type Config struct {
	Env      string         `json:"env"`
	HTTP     HTTPConfig     `json:"http"`
	Provider ProviderConfig `json:"provider"`
	Personas PersonasConfig `json:"personas"`
	Search   SearchConfig   `json:"search"`
}
