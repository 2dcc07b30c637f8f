package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"
)

// Load reads configuration from the given YAML file, then overlays
// environment variable overrides (TURNGUARD_*).
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	// Start from defaults.
	cfg := DefaultConfig()

	// Load YAML file if it exists.
	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("accessing config %s: %w", path, err)
	}

	// Overlay environment variables: TURNGUARD_PROVIDER -> provider,
	// TURNGUARD_SERVER.PORT -> server.port, etc.
	if err := k.Load(env.Provider("TURNGUARD_", ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, "TURNGUARD_"))
	}), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	return cfg, nil
}

// Save writes the configuration to the given YAML file path.
func (c *Config) Save(path string) error {
	data, err := yamlv3.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// validProviders is the set of recognized provider values.
var validProviders = map[ProviderType]bool{
	ProviderOpenAI: true,
	ProviderOllama: true,
	ProviderLocal:  true,
}

// Validate checks that the configuration contains valid values.
func (c *Config) Validate() error {
	if c.Provider == "" {
		return fmt.Errorf("provider is required")
	}
	if !validProviders[c.Provider] {
		return fmt.Errorf("invalid provider %q: must be one of openai, ollama, local", c.Provider)
	}

	if c.Provider != ProviderLocal && c.Model == "" {
		return fmt.Errorf("model is required for provider %q", c.Provider)
	}

	if c.EmbeddingProvider != "" && !validProviders[c.EmbeddingProvider] {
		return fmt.Errorf("invalid embedding_provider %q", c.EmbeddingProvider)
	}

	if c.DataDir == "" {
		return fmt.Errorf("data_dir is required")
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}

	p := c.Pipeline
	if p.AmbiguityThreshold <= 0 || p.AmbiguityThreshold >= 1 {
		return fmt.Errorf("pipeline.ambiguity_threshold %.2f must be in (0,1)", p.AmbiguityThreshold)
	}
	if p.PassThreshold <= 0 || p.PassThreshold > 10 {
		return fmt.Errorf("pipeline.pass_threshold %.2f must be in (0,10]", p.PassThreshold)
	}
	if p.MaxRefinementAttempts < 1 || p.MaxRefinementAttempts > 3 {
		return fmt.Errorf("pipeline.max_refinement_attempts %d must be in [1,3]", p.MaxRefinementAttempts)
	}
	if p.LowConfidence <= 0 || p.LowConfidence >= 1 {
		return fmt.Errorf("pipeline.low_confidence %.2f must be in (0,1)", p.LowConfidence)
	}
	if p.MaxQuestions < 0 || p.MaxQuestions > 2 {
		return fmt.Errorf("pipeline.max_questions %d must be in [0,2]", p.MaxQuestions)
	}
	if p.ToolTimeoutSeconds <= 0 {
		return fmt.Errorf("pipeline.tool_timeout_seconds must be positive")
	}

	return nil
}

// APIKeyEnvVar returns the conventional environment variable name for
// the API key of the given provider.
func APIKeyEnvVar(provider ProviderType) string {
	if provider == ProviderOpenAI {
		return "OPENAI_API_KEY"
	}
	return ""
}
