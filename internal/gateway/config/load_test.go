package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"LEWA_CONFIG_PATH", "LOG_MODE", "PORT", "LEWA_HTTP_ADDR", "LEWA_CORS_ORIGINS",
		"LEWA_PROVIDER", "LEWA_MODEL", "LEWA_PROVIDER_BASE_URL", "LEWA_PROVIDER_API_KEY", "GEMINI_API_KEY",
		"LEWA_PERSONAS_PATH", "SERPAPI_API_KEY", "REDIS_ADDR", "REDIS_PASSWORD", "LEWA_SEARCH_CACHE_TTL",
	} {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Provider.Type != ProviderGemini || cfg.Provider.Model != DefaultModel {
		t.Fatalf("provider=%+v", cfg.Provider)
	}
	if cfg.Provider.APIKey != "" {
		t.Fatalf("expected empty api key")
	}
	if cfg.HTTP.Addr != ":8000" {
		t.Fatalf("addr=%q", cfg.HTTP.Addr)
	}
	if cfg.Search.DefaultNumResults != 5 {
		t.Fatalf("num results=%d", cfg.Search.DefaultNumResults)
	}
}

func TestLoadGeminiKeyFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("GEMINI_API_KEY", "  k-123 ")
	t.Setenv("PORT", "9090")
	t.Setenv("LEWA_CORS_ORIGINS", "http://localhost:3000, https://lewa.cm")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Provider.APIKey != "k-123" {
		t.Fatalf("api key=%q", cfg.Provider.APIKey)
	}
	if cfg.HTTP.Addr != ":9090" {
		t.Fatalf("addr=%q", cfg.HTTP.Addr)
	}
	if len(cfg.HTTP.AllowedOrigins) != 2 || cfg.HTTP.AllowedOrigins[1] != "https://lewa.cm" {
		t.Fatalf("origins=%v", cfg.HTTP.AllowedOrigins)
	}
}

func TestLoadFileThenEnv(t *testing.T) {
	clearEnv(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	body := `{
		"env": "production",
		"provider": {
			"type": "openai_http",
			"model": "llama-3",
			"base_url": "http://vllm:8000/",
			"stream_timeout": "30s",
			"temperature": 0.2
		},
		"search": {"cache_ttl": "1m"}
	}`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("LEWA_CONFIG_PATH", path)
	t.Setenv("LEWA_SEARCH_CACHE_TTL", "90s")
	t.Setenv("GEMINI_API_KEY", "ignored-for-oai")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	p := cfg.Provider
	if p.Type != ProviderOAIHTTP {
		t.Fatalf("type=%q", p.Type)
	}
	if p.BaseURL != "http://vllm:8000" {
		t.Fatalf("base_url=%q", p.BaseURL)
	}
	if p.ChatCompletionsPath != "/v1/chat/completions" {
		t.Fatalf("path=%q", p.ChatCompletionsPath)
	}
	if p.StreamTimeout.Duration != 30*time.Second {
		t.Fatalf("stream_timeout=%v", p.StreamTimeout.Duration)
	}
	if p.Temperature == nil || *p.Temperature != 0.2 {
		t.Fatalf("temperature=%v", p.Temperature)
	}
	if p.APIKey != "" {
		t.Fatalf("gemini key leaked into oai_http provider")
	}
	if cfg.Search.CacheTTL.Duration != 90*time.Second {
		t.Fatalf("cache_ttl=%v", cfg.Search.CacheTTL.Duration)
	}
	if cfg.HTTP.Addr != ":8000" {
		t.Fatalf("defaults should survive a partial file, addr=%q", cfg.HTTP.Addr)
	}
}

func TestLoadRejectsInvalidProvider(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "unknown type", env: map[string]string{"LEWA_PROVIDER": "bard"}},
		{name: "oai without base url", env: map[string]string{"LEWA_PROVIDER": "oai_http", "LEWA_MODEL": "x"}},
		{name: "bad ttl", env: map[string]string{"LEWA_SEARCH_CACHE_TTL": "soon"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			if _, err := Load(); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}
