package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const validJSON = `{
  "data_dir": "/tmp/resolvd-test",
  "providers": {
    "default": {
      "type": "anthropic",
      "api_key": "sk-test-key",
      "model": "claude-sonnet-4-20250514"
    }
  },
  "engine": {
    "max_attempts": 3,
    "max_snippets": 5
  },
  "knowledge": {
    "files": ["extra.yaml"]
  },
  "digest": {
    "schedule": "@every 1h"
  },
  "notify": {
    "slack": {
      "token": "xoxb-test",
      "channel": "#escalations"
    }
  },
  "api": {
    "host": "0.0.0.0",
    "port": 8080,
    "api_key": "dashboard-key"
  }
}`

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	os.WriteFile(path, []byte(validJSON), 0o644)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.DataDir != "/tmp/resolvd-test" {
		t.Errorf("data_dir = %q", cfg.DataDir)
	}
	if cfg.Providers["default"].APIKey != "sk-test-key" {
		t.Errorf("provider api_key = %q", cfg.Providers["default"].APIKey)
	}
	if cfg.Engine.MaxAttempts != 3 {
		t.Errorf("engine.max_attempts = %d", cfg.Engine.MaxAttempts)
	}
	if cfg.Engine.MaxSnippets != 5 {
		t.Errorf("engine.max_snippets = %d", cfg.Engine.MaxSnippets)
	}
	if len(cfg.Knowledge.Files) != 1 || cfg.Knowledge.Files[0] != "extra.yaml" {
		t.Errorf("knowledge.files = %v", cfg.Knowledge.Files)
	}
	if cfg.Digest.Schedule != "@every 1h" {
		t.Errorf("digest.schedule = %q", cfg.Digest.Schedule)
	}
	if cfg.Notify.Slack == nil {
		t.Fatal("slack config is nil")
	}
	if cfg.Notify.Slack.Channel != "#escalations" {
		t.Errorf("slack.channel = %q", cfg.Notify.Slack.Channel)
	}
	if cfg.API.Port != 8080 {
		t.Errorf("api.port = %d", cfg.API.Port)
	}
}

func TestLoad_FileNotFound(t *testing.T) {
	_, err := Load("/nonexistent/config.json")
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoad_InvalidJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.json")
	os.WriteFile(path, []byte("not json"), 0o644)

	_, err := Load(path)
	if err == nil {
		t.Fatal("expected error for invalid JSON")
	}
}

func TestValidate_MissingDataDir(t *testing.T) {
	cfg := &Config{
		Providers: map[string]ProviderConfig{"default": {APIKey: "k", Model: "m"}},
	}
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "data_dir") {
		t.Errorf("expected data_dir error, got %v", err)
	}
}

func TestValidate_MissingProvider(t *testing.T) {
	cfg := &Config{
		DataDir:   "/data",
		Providers: map[string]ProviderConfig{},
	}
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "at least one provider") {
		t.Errorf("expected provider error, got %v", err)
	}
}

func TestValidate_MissingProviderAPIKey(t *testing.T) {
	cfg := &Config{
		DataDir:   "/data",
		Providers: map[string]ProviderConfig{"default": {Model: "m"}},
	}
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "api_key") {
		t.Errorf("expected api_key error, got %v", err)
	}
}

func TestValidate_UnknownProviderType(t *testing.T) {
	cfg := &Config{
		DataDir:   "/data",
		Providers: map[string]ProviderConfig{"default": {Type: "gemini", APIKey: "k", Model: "m"}},
	}
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "type must be") {
		t.Errorf("expected type error, got %v", err)
	}
}

func TestValidate_SlackNoChannel(t *testing.T) {
	cfg := &Config{
		DataDir: "/data",
		Providers: map[string]ProviderConfig{
			"default": {APIKey: "k", Model: "m"},
		},
		Notify: NotifyConfig{Slack: &SlackConfig{Token: "xoxb"}},
	}
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "slack.channel") {
		t.Errorf("expected slack channel error, got %v", err)
	}
}

func TestValidate_Valid(t *testing.T) {
	cfg := &Config{
		DataDir: "/data",
		Providers: map[string]ProviderConfig{
			"default": {APIKey: "k", Model: "m"},
		},
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected valid, got %v", err)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("RESOLVD_DATA_DIR", "/env/data")
	t.Setenv("RESOLVD_OPENAI_API_KEY", "sk-env")
	t.Setenv("RESOLVD_MODEL", "gpt-4o-mini")
	t.Setenv("RESOLVD_API_PORT", "9090")
	t.Setenv("RESOLVD_KNOWLEDGE_FILES", "a.yaml, b.yaml")
	t.Setenv("RESOLVD_SLACK_TOKEN", "xoxb-env")
	t.Setenv("RESOLVD_SLACK_CHANNEL", "#ops")

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv: %v", err)
	}

	if cfg.DataDir != "/env/data" {
		t.Errorf("data_dir = %q", cfg.DataDir)
	}
	if cfg.Providers["default"].Type != "openai" {
		t.Errorf("provider type = %q", cfg.Providers["default"].Type)
	}
	if cfg.Providers["default"].APIKey != "sk-env" {
		t.Errorf("provider api_key = %q", cfg.Providers["default"].APIKey)
	}
	if cfg.Providers["default"].Model != "gpt-4o-mini" {
		t.Errorf("model = %q", cfg.Providers["default"].Model)
	}
	if cfg.API.Port != 9090 {
		t.Errorf("api.port = %d", cfg.API.Port)
	}
	if len(cfg.Knowledge.Files) != 2 || cfg.Knowledge.Files[1] != "b.yaml" {
		t.Errorf("knowledge.files = %v", cfg.Knowledge.Files)
	}
	if cfg.Notify.Slack == nil {
		t.Fatal("slack is nil")
	}
	if cfg.Notify.Slack.Channel != "#ops" {
		t.Errorf("slack.channel = %q", cfg.Notify.Slack.Channel)
	}
}

func TestLoadFromEnv_AnthropicPreferred(t *testing.T) {
	t.Setenv("RESOLVD_ANTHROPIC_API_KEY", "sk-ant")
	t.Setenv("RESOLVD_OPENAI_API_KEY", "sk-oai")

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv: %v", err)
	}
	if cfg.Providers["default"].Type != "anthropic" {
		t.Errorf("provider type = %q, want anthropic", cfg.Providers["default"].Type)
	}
}
