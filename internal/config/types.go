package config

import "time"

// ProviderType identifies an LLM provider for the planner/executor
// collaborator.
type ProviderType string

const (
	ProviderOpenAI ProviderType = "openai"
	ProviderOllama ProviderType = "ollama"
	ProviderLocal  ProviderType = "local"
)

// Config is the top-level turnguard configuration, corresponding to
// .turnguard.yml.
type Config struct {
	Provider          ProviderType   `yaml:"provider" koanf:"provider"`
	Model             string         `yaml:"model" koanf:"model"`
	EmbeddingProvider ProviderType   `yaml:"embedding_provider" koanf:"embedding_provider"`
	EmbeddingModel    string         `yaml:"embedding_model" koanf:"embedding_model"`
	DataDir           string         `yaml:"data_dir" koanf:"data_dir"`
	LogLevel          string         `yaml:"log_level" koanf:"log_level"`
	Server            ServerConfig   `yaml:"server" koanf:"server"`
	Pipeline          PipelineConfig `yaml:"pipeline" koanf:"pipeline"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port     int  `yaml:"port" koanf:"port"`
	AllowAll bool `yaml:"allow_all_origins" koanf:"allow_all_origins"`
}

// PipelineConfig holds the oversight pipeline thresholds. Defaults
// match the documented gate contract; Validate rejects values that
// would break the gate invariants.
type PipelineConfig struct {
	AmbiguityThreshold    float64 `yaml:"ambiguity_threshold" koanf:"ambiguity_threshold"`
	PassThreshold         float64 `yaml:"pass_threshold" koanf:"pass_threshold"`
	MaxRefinementAttempts int     `yaml:"max_refinement_attempts" koanf:"max_refinement_attempts"`
	LowConfidence         float64 `yaml:"low_confidence" koanf:"low_confidence"`
	MaxQuestions          int     `yaml:"max_questions" koanf:"max_questions"`
	ToolTimeoutSeconds    int     `yaml:"tool_timeout_seconds" koanf:"tool_timeout_seconds"`
	SessionTTLHours       int     `yaml:"session_ttl_hours" koanf:"session_ttl_hours"`
}

// ToolTimeout returns the tool deadline as a duration.
func (c *Config) ToolTimeout() time.Duration {
	return time.Duration(c.Pipeline.ToolTimeoutSeconds) * time.Second
}
