package embeddings

import (
	"fmt"
	"os"

	"github.com/ziadkadry99/turnguard/internal/config"
)

// New builds the embedder named by config. The local embedder needs no
// credentials and is the fallback for offline runs.
func New(cfg *config.Config) (Embedder, error) {
	switch cfg.EmbeddingProvider {
	case config.ProviderOpenAI:
		apiKey := os.Getenv("OPENAI_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY environment variable is not set")
		}
		return NewOpenAIEmbedder(apiKey, OpenAIModel(cfg.EmbeddingModel)), nil

	case config.ProviderOllama:
		host := os.Getenv("OLLAMA_HOST")
		return NewOllamaEmbedder(cfg.EmbeddingModel, 768, host), nil

	case config.ProviderLocal:
		return NewLocalEmbedder(0), nil

	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", cfg.EmbeddingProvider)
	}
}
