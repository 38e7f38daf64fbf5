package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const (
	ProviderGemini  = "gemini"
	ProviderOAIHTTP = "oai_http"
	ProviderMock    = "mock"

	DefaultModel = "gemini-2.0-flash"
)

func (d *Duration) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "" || s == "null" {
		d.Duration = 0
		return nil
	}
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		u, err := strconv.Unquote(s)
		if err != nil {
			return err
		}
		if strings.TrimSpace(u) == "" {
			d.Duration = 0
			return nil
		}
		dd, err := time.ParseDuration(u)
		if err != nil {
			return err
		}
		d.Duration = dd
		return nil
	}

	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("duration must be a JSON string like \"5s\" or an int nanoseconds: %w", err)
	}
	d.Duration = time.Duration(n)
	return nil
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Duration.String())
}

func defaultConfig() *Config {
	return &Config{
		Env: "development",
		HTTP: HTTPConfig{
			Addr:              ":8000",
			ReadHeaderTimeout: Duration{Duration: 5 * time.Second},
			IdleTimeout:       Duration{Duration: 2 * time.Minute},
			ShutdownTimeout:   Duration{Duration: 15 * time.Second},
			MaxRequestBytes:   1 << 20,
			AllowedOrigins:    []string{"*"},
		},
		Provider: ProviderConfig{
			Type:  ProviderGemini,
			Model: DefaultModel,
		},
		Search: SearchConfig{
			BaseURL:           "https://serpapi.com/search.json",
			Timeout:           Duration{Duration: 15 * time.Second},
			DefaultNumResults: 5,
			CacheTTL:          Duration{Duration: 10 * time.Minute},
		},
	}
}

// Load builds the configuration from defaults, an optional JSON file and
// environment overrides, in that order.
func Load() (*Config, error) {
	cfg := defaultConfig()

	cfgPath := strings.TrimSpace(os.Getenv("LEWA_CONFIG_PATH"))
	if cfgPath == "" {
		if wd, err := os.Getwd(); err == nil {
			p := filepath.Join(wd, "config", "config.json")
			if _, err := os.Stat(p); err == nil {
				cfgPath = p
			}
		}
	}

	if cfgPath != "" {
		b, err := os.ReadFile(cfgPath)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := json.Unmarshal(b, cfg); err != nil {
			return nil, fmt.Errorf("decode config %s: %w", cfgPath, err)
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	if err := normalize(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	if v := strings.TrimSpace(os.Getenv("LOG_MODE")); v != "" {
		cfg.Env = v
	}
	if v := strings.TrimSpace(os.Getenv("PORT")); v != "" {
		cfg.HTTP.Addr = ":" + v
	}
	if v := strings.TrimSpace(os.Getenv("LEWA_HTTP_ADDR")); v != "" {
		cfg.HTTP.Addr = v
	}
	if v := strings.TrimSpace(os.Getenv("LEWA_CORS_ORIGINS")); v != "" {
		cfg.HTTP.AllowedOrigins = splitList(v)
	}

	if v := strings.TrimSpace(os.Getenv("LEWA_PROVIDER")); v != "" {
		cfg.Provider.Type = v
	}
	if v := strings.TrimSpace(os.Getenv("LEWA_MODEL")); v != "" {
		cfg.Provider.Model = v
	}
	if v := strings.TrimSpace(os.Getenv("LEWA_PROVIDER_BASE_URL")); v != "" {
		cfg.Provider.BaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv("LEWA_PROVIDER_API_KEY")); v != "" {
		cfg.Provider.APIKey = v
	} else if v := strings.TrimSpace(os.Getenv("GEMINI_API_KEY")); v != "" && strings.EqualFold(strings.TrimSpace(cfg.Provider.Type), ProviderGemini) {
		cfg.Provider.APIKey = v
	}

	if v := strings.TrimSpace(os.Getenv("LEWA_PERSONAS_PATH")); v != "" {
		cfg.Personas.Path = v
	}

	if v := strings.TrimSpace(os.Getenv("SERPAPI_API_KEY")); v != "" {
		cfg.Search.APIKey = v
	}
	if v := strings.TrimSpace(os.Getenv("REDIS_ADDR")); v != "" {
		cfg.Search.RedisAddr = v
	}
	if v := strings.TrimSpace(os.Getenv("REDIS_PASSWORD")); v != "" {
		cfg.Search.RedisPassword = v
	}
	if v := strings.TrimSpace(os.Getenv("LEWA_SEARCH_CACHE_TTL")); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("LEWA_SEARCH_CACHE_TTL: %w", err)
		}
		cfg.Search.CacheTTL = Duration{Duration: d}
	}
	return nil
}

func normalize(cfg *Config) error {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "development"
	}
	if strings.TrimSpace(cfg.HTTP.Addr) == "" {
		cfg.HTTP.Addr = ":8000"
	}
	if cfg.HTTP.MaxRequestBytes <= 0 {
		cfg.HTTP.MaxRequestBytes = 1 << 20
	}

	p := &cfg.Provider
	p.Type = strings.ToLower(strings.TrimSpace(p.Type))
	p.Model = strings.TrimSpace(p.Model)
	p.APIKey = strings.TrimSpace(p.APIKey)
	p.BaseURL = strings.TrimRight(strings.TrimSpace(p.BaseURL), "/")
	p.ChatCompletionsPath = strings.TrimSpace(p.ChatCompletionsPath)

	switch p.Type {
	case "", ProviderGemini:
		p.Type = ProviderGemini
		if p.Model == "" {
			p.Model = DefaultModel
		}
	case "openai_http", ProviderOAIHTTP:
		// Normalize type (avoid implying OpenAI-as-provider).
		p.Type = ProviderOAIHTTP
		if p.BaseURL == "" {
			return fmt.Errorf("provider oai_http missing base_url")
		}
		if p.Model == "" {
			return fmt.Errorf("provider oai_http missing model")
		}
		if p.ChatCompletionsPath == "" {
			p.ChatCompletionsPath = "/v1/chat/completions"
		}
	case ProviderMock:
	default:
		return fmt.Errorf("unsupported provider type %q", p.Type)
	}

	if p.Timeout.Duration <= 0 {
		p.Timeout = Duration{Duration: 60 * time.Second}
	}
	if p.StreamTimeout.Duration < 0 {
		return fmt.Errorf("invalid provider.stream_timeout")
	}
	if p.Temperature != nil && (*p.Temperature < 0 || *p.Temperature > 2) {
		return fmt.Errorf("invalid provider.temperature %v", *p.Temperature)
	}
	if p.MaxOutputTokens < 0 {
		return fmt.Errorf("invalid provider.max_output_tokens %d", p.MaxOutputTokens)
	}

	s := &cfg.Search
	s.APIKey = strings.TrimSpace(s.APIKey)
	s.RedisAddr = strings.TrimSpace(s.RedisAddr)
	if s.DefaultNumResults <= 0 {
		s.DefaultNumResults = 5
	}
	if s.Timeout.Duration <= 0 {
		s.Timeout = Duration{Duration: 15 * time.Second}
	}
	if s.CacheTTL.Duration < 0 {
		return fmt.Errorf("invalid search.cache_ttl")
	}
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
