package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
	if cfg.Pipeline.AmbiguityThreshold != 0.35 {
		t.Errorf("default ambiguity threshold = %v, want 0.35", cfg.Pipeline.AmbiguityThreshold)
	}
	if cfg.Pipeline.PassThreshold != 8.0 {
		t.Errorf("default pass threshold = %v, want 8.0", cfg.Pipeline.PassThreshold)
	}
	if cfg.Pipeline.MaxRefinementAttempts != 3 {
		t.Errorf("default max refinement attempts = %v, want 3", cfg.Pipeline.MaxRefinementAttempts)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown provider", func(c *Config) { c.Provider = "bedrock" }},
		{"missing model", func(c *Config) { c.Provider = ProviderOpenAI; c.Model = "" }},
		{"missing data dir", func(c *Config) { c.DataDir = "" }},
		{"port zero", func(c *Config) { c.Server.Port = 0 }},
		{"ambiguity threshold 1.0", func(c *Config) { c.Pipeline.AmbiguityThreshold = 1.0 }},
		{"pass threshold 0", func(c *Config) { c.Pipeline.PassThreshold = 0 }},
		{"attempts above cap", func(c *Config) { c.Pipeline.MaxRefinementAttempts = 4 }},
		{"questions above cap", func(c *Config) { c.Pipeline.MaxQuestions = 3 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yml"))
	if err != nil {
		t.Fatalf("Load with missing file: %v", err)
	}
	if cfg.Server.Port != 8710 {
		t.Errorf("Port = %d, want default 8710", cfg.Server.Port)
	}
}

func TestLoadYAMLAndEnvOverlay(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".turnguard.yml")
	yaml := "provider: ollama\nmodel: llama3\nserver:\n  port: 9100\n"
	if err := os.WriteFile(path, []byte(yaml), 0644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	t.Setenv("TURNGUARD_LOG_LEVEL", "debug")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Provider != ProviderOllama {
		t.Errorf("Provider = %q, want ollama", cfg.Provider)
	}
	if cfg.Server.Port != 9100 {
		t.Errorf("Port = %d, want 9100", cfg.Server.Port)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want env override debug", cfg.LogLevel)
	}
	// Untouched values keep defaults.
	if cfg.Pipeline.AmbiguityThreshold != 0.35 {
		t.Errorf("AmbiguityThreshold = %v, want default", cfg.Pipeline.AmbiguityThreshold)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.yml")

	cfg := DefaultConfig()
	cfg.Provider = ProviderOpenAI
	cfg.Model = "gpt-4o"
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Provider != ProviderOpenAI || loaded.Model != "gpt-4o" {
		t.Errorf("round trip lost values: %+v", loaded)
	}
}
