package config

// DefaultConfig returns a Config with sensible defaults. Pipeline
// thresholds match the documented gate contract: clarification above
// 0.35 ambiguity, PQS pass at 8.0, at most 3 autonomous refinement
// attempts, assumptions attached below 0.70 confidence.
func DefaultConfig() *Config {
	return &Config{
		Provider:          ProviderLocal,
		Model:             "gpt-4o-mini",
		EmbeddingProvider: ProviderLocal,
		EmbeddingModel:    "text-embedding-3-small",
		DataDir:           ".turnguard",
		LogLevel:          "info",
		Server: ServerConfig{
			Port:     8710,
			AllowAll: false,
		},
		Pipeline: PipelineConfig{
			AmbiguityThreshold:    0.35,
			PassThreshold:         8.0,
			MaxRefinementAttempts: 3,
			LowConfidence:         0.70,
			MaxQuestions:          2,
			ToolTimeoutSeconds:    15,
			SessionTTLHours:       6,
		},
	}
}
