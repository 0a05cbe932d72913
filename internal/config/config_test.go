package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{
		"GEMINI_API_KEY", "API_KEY", "GOOGLE_API_KEY", "GOOGLE_CLOUD_PROJECT", "OPENAI_API_KEY",
		"PHOTOEDIT_PROVIDER", "PHOTOEDIT_MODEL", "PHOTOEDIT_GEMINI_API_KEY", "PHOTOEDIT_SERVER_PORT",
	} {
		t.Setenv(name, "")
		os.Unsetenv(name)
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Provider != ProviderGemini {
		t.Errorf("Expected gemini, got %s", cfg.Provider)
	}
	if cfg.RequestTimeout != 120*time.Second {
		t.Errorf("Expected 120s, got %s", cfg.RequestTimeout)
	}
	if cfg.Server.Port != "8888" {
		t.Errorf("Expected port 8888, got %s", cfg.Server.Port)
	}
	if cfg.Server.MaxUploadBytes != 10*1024*1024 {
		t.Errorf("Expected 10MB upload limit, got %d", cfg.Server.MaxUploadBytes)
	}
	if cfg.Gemini.Backend != "gemini" {
		t.Errorf("Expected gemini backend, got %s", cfg.Gemini.Backend)
	}
}

func TestLoadFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "photoedit.yaml")
	content := `provider: openai
model: gpt-image-1
request_timeout: 30s
openai:
  api_key: file-key
server:
  port: "9000"
  save_sink: bucket
bucket:
  endpoint: localhost:9001
  name: edits
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Provider != ProviderOpenAI || cfg.Model != "gpt-image-1" {
		t.Errorf("Unexpected provider/model: %s/%s", cfg.Provider, cfg.Model)
	}
	if cfg.RequestTimeout != 30*time.Second {
		t.Errorf("Expected 30s, got %s", cfg.RequestTimeout)
	}
	if cfg.OpenAI.APIKey != "file-key" {
		t.Errorf("Expected file-key, got %s", cfg.OpenAI.APIKey)
	}
	if cfg.Server.Port != "9000" || cfg.Server.SaveSink != "bucket" {
		t.Errorf("Unexpected server config: %+v", cfg.Server)
	}
	if cfg.Bucket.Name != "edits" || !cfg.Bucket.Secure {
		t.Errorf("Unexpected bucket config: %+v", cfg.Bucket)
	}
}

func TestLoadEnvironment(t *testing.T) {
	clearEnv(t)
	t.Chdir(t.TempDir())
	t.Setenv("PHOTOEDIT_SERVER_PORT", "7000")
	t.Setenv("GOOGLE_API_KEY", "google-key")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != "7000" {
		t.Errorf("Expected port from env, got %s", cfg.Server.Port)
	}
	if cfg.Gemini.APIKey != "google-key" {
		t.Errorf("Expected fallback API key, got %s", cfg.Gemini.APIKey)
	}
}

func TestLoadEnvironmentPrecedence(t *testing.T) {
	clearEnv(t)
	t.Chdir(t.TempDir())
	t.Setenv("GOOGLE_API_KEY", "google-key")
	t.Setenv("GEMINI_API_KEY", "gemini-key")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Gemini.APIKey != "gemini-key" {
		t.Errorf("Expected GEMINI_API_KEY to win, got %s", cfg.Gemini.APIKey)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Expected error for missing explicit config file")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "unknown provider", mutate: func(c *Config) { c.Provider = "ollama" }, wantErr: true},
		{name: "unknown backend", mutate: func(c *Config) { c.Gemini.Backend = "aws" }, wantErr: true},
		{name: "unknown sink", mutate: func(c *Config) { c.Server.SaveSink = "ftp" }, wantErr: true},
		{name: "negative timeout", mutate: func(c *Config) { c.RequestTimeout = -time.Second }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{Provider: ProviderGemini, Gemini: Gemini{Backend: "gemini"}, Server: Server{SaveSink: "file"}}
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Expected error=%v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestLoadLeavesValidationToCaller(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "photoedit.yaml")
	if err := os.WriteFile(path, []byte("provider: ollama\n"), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := cfg.Validate(); err == nil {
		t.Error("Expected Validate to reject provider ollama")
	}

	cfg.Provider = ProviderOpenAI
	if err := cfg.Validate(); err != nil {
		t.Errorf("Expected overridden provider to validate, got %v", err)
	}
}
