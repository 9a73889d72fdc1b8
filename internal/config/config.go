// Package config loads and validates resolvd configuration.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config is the top-level resolvd configuration.
type Config struct {
	DataDir   string                    `json:"data_dir"`
	Providers map[string]ProviderConfig `json:"providers"`
	Engine    EngineConfig              `json:"engine"`
	Knowledge KnowledgeConfig           `json:"knowledge"`
	Digest    DigestConfig              `json:"digest"`
	Notify    NotifyConfig              `json:"notify"`
	API       APIConfig                 `json:"api"`
}

// ProviderConfig holds LLM provider settings.
type ProviderConfig struct {
	Type    string `json:"type,omitempty"` // "openai" (default) or "anthropic"
	APIKey  string `json:"api_key"`
	BaseURL string `json:"base_url,omitempty"`
	Model   string `json:"model"`
}

// EngineConfig holds workflow settings.
type EngineConfig struct {
	MaxAttempts int `json:"max_attempts,omitempty"` // default 2
	MaxSnippets int `json:"max_snippets,omitempty"` // default 3
	MaxRetries  int `json:"max_retries,omitempty"`  // provider call retries, default 3
}

// KnowledgeConfig points at extra knowledge catalogue files.
type KnowledgeConfig struct {
	Files []string `json:"files,omitempty"`
}

// DigestConfig holds the escalation digest schedule.
type DigestConfig struct {
	Schedule string `json:"schedule,omitempty"` // cron expression or @every duration
}

// NotifyConfig holds settings for escalation notification channels.
type NotifyConfig struct {
	Slack *SlackConfig `json:"slack,omitempty"`
}

// SlackConfig holds Slack bot settings.
type SlackConfig struct {
	Token   string `json:"token"`
	Channel string `json:"channel"`
}

// APIConfig holds REST API server settings.
type APIConfig struct {
	Host string `json:"host"`
	Port int    `json:"port"`
	Key  string `json:"api_key"`
}

// Load reads configuration from a JSON file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadFromEnv builds a minimal config from environment variables with
// RESOLVD_ prefix.
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		DataDir:   getenv("RESOLVD_DATA_DIR", "/data"),
		Providers: make(map[string]ProviderConfig),
		Engine: EngineConfig{
			MaxAttempts: getenvInt("RESOLVD_MAX_ATTEMPTS", 0),
			MaxSnippets: getenvInt("RESOLVD_MAX_SNIPPETS", 0),
		},
		Digest: DigestConfig{
			Schedule: os.Getenv("RESOLVD_DIGEST_SCHEDULE"),
		},
		API: APIConfig{
			Host: getenv("RESOLVD_API_HOST", "0.0.0.0"),
			Port: getenvInt("RESOLVD_API_PORT", 8080),
			Key:  os.Getenv("RESOLVD_API_KEY"),
		},
	}

	if apiKey := os.Getenv("RESOLVD_ANTHROPIC_API_KEY"); apiKey != "" {
		cfg.Providers["default"] = ProviderConfig{
			Type:   "anthropic",
			APIKey: apiKey,
			Model:  getenv("RESOLVD_MODEL", "claude-sonnet-4-20250514"),
		}
	} else if apiKey := os.Getenv("RESOLVD_OPENAI_API_KEY"); apiKey != "" {
		cfg.Providers["default"] = ProviderConfig{
			Type:    "openai",
			APIKey:  apiKey,
			BaseURL: os.Getenv("RESOLVD_OPENAI_BASE_URL"),
			Model:   getenv("RESOLVD_MODEL", "gpt-4o"),
		}
	}

	if files := os.Getenv("RESOLVD_KNOWLEDGE_FILES"); files != "" {
		cfg.Knowledge.Files = splitList(files)
	}

	if token := os.Getenv("RESOLVD_SLACK_TOKEN"); token != "" {
		cfg.Notify.Slack = &SlackConfig{
			Token:   token,
			Channel: os.Getenv("RESOLVD_SLACK_CHANNEL"),
		}
	}

	return cfg, nil
}

// Validate checks for required fields.
func (c *Config) Validate() error {
	var errs []string

	if c.DataDir == "" {
		errs = append(errs, "data_dir is required")
	}

	if len(c.Providers) == 0 {
		errs = append(errs, "at least one provider is required")
	}
	for name, p := range c.Providers {
		switch p.Type {
		case "", "openai", "anthropic":
		default:
			errs = append(errs, fmt.Sprintf("providers.%s.type must be openai or anthropic", name))
		}
		if p.APIKey == "" {
			errs = append(errs, fmt.Sprintf("providers.%s.api_key is required", name))
		}
		if p.Model == "" {
			errs = append(errs, fmt.Sprintf("providers.%s.model is required", name))
		}
	}

	if c.Engine.MaxAttempts < 0 {
		errs = append(errs, "engine.max_attempts must not be negative")
	}
	if c.Engine.MaxSnippets < 0 {
		errs = append(errs, "engine.max_snippets must not be negative")
	}

	if c.Notify.Slack != nil {
		if c.Notify.Slack.Token == "" {
			errs = append(errs, "notify.slack.token is required")
		}
		if c.Notify.Slack.Channel == "" {
			errs = append(errs, "notify.slack.channel is required")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}
