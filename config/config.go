// Package config handles configuration loading with file and environment
// layering: defaults, then an optional YAML file, then CREWOPS_-prefixed
// environment variables.
package config

import (
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	Log           LogConfig           `koanf:"log"`
	Observability ObservabilityConfig `koanf:"observability"`
	Cache         CacheConfig         `koanf:"cache"`
	LLM           LLMConfig           `koanf:"llm"`
	GSC           GSCConfig           `koanf:"gsc"`
	Weather       WeatherConfig       `koanf:"weather"`
}

type LogConfig struct {
	Level string `koanf:"level"`
}

type ObservabilityConfig struct {
	Backend       string `koanf:"backend"` // system, prometheus, grafana, datadog
	MetricsPort   int    `koanf:"metrics_port"`
	AgentEndpoint string `koanf:"agent_endpoint"` // OTLP gRPC, grafana/datadog
}

type CacheConfig struct {
	Enabled    bool `koanf:"enabled"`
	TTLSeconds int  `koanf:"ttl_seconds"`
}

type LLMConfig struct {
	OpenRouterAPIKey string   `koanf:"openrouter_api_key"`
	OpenAIAPIKey     string   `koanf:"openai_api_key"`
	BaseURL          string   `koanf:"base_url"`
	Model            string   `koanf:"model"`
	SearchModels     []string `koanf:"search_models"`
}

type GSCConfig struct {
	CredentialsPath string `koanf:"credentials_path"`
}

type WeatherConfig struct {
	BaseURL string `koanf:"base_url"`
}

// TTL returns the configured default cache TTL as a duration.
func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLSeconds) * time.Second
}

// APIKey returns the LLM key to use, preferring OpenRouter for multi-model
// access.
func (c LLMConfig) APIKey() string {
	if c.OpenRouterAPIKey != "" {
		return c.OpenRouterAPIKey
	}
	return c.OpenAIAPIKey
}

// Load reads configuration. path may be empty to skip the file layer.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	// Defaults
	k.Set("log.level", "info")
	k.Set("observability.backend", "system")
	k.Set("observability.metrics_port", 8000)
	k.Set("observability.agent_endpoint", "")
	k.Set("cache.enabled", true)
	k.Set("cache.ttl_seconds", 300)
	k.Set("llm.base_url", "https://openrouter.ai/api/v1")
	k.Set("llm.model", "google/gemini-2.5-flash-lite")
	k.Set("llm.search_models", []string{
		"openai/gpt-4o-mini",
		"google/gemini-2.5-flash-lite",
		"x-ai/grok-beta",
		"deepseek/deepseek-chat",
	})
	k.Set("gsc.credentials_path", "credentials.json")
	k.Set("weather.base_url", "https://wttr.in")

	// 1. Load from file
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, err
		}
	}

	// 2. Load from ENV (CREWOPS_CACHE_TTL_SECONDS -> cache.ttl_seconds)
	if err := k.Load(env.Provider("CREWOPS_", ".", func(s string) string {
		s = strings.ToLower(strings.TrimPrefix(s, "CREWOPS_"))
		if i := strings.Index(s, "_"); i >= 0 {
			return s[:i] + "." + s[i+1:]
		}
		return s
	}), nil); err != nil {
		return nil, err
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
