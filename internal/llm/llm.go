// Package llm abstracts the chat-completion providers used to draft
// responses. Providers are interchangeable behind Provider; drafting
// logic never imports a vendor SDK directly.
package llm

import (
	"context"
	"fmt"
	"os"

	"github.com/ziadkadry99/turnguard/internal/config"
)

// Role represents the role of a message sender in a conversation.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message represents a single message in a conversation.
type Message struct {
	Role    Role
	Content string
}

// CompletionRequest contains the parameters for a completion request.
type CompletionRequest struct {
	Model       string
	Messages    []Message
	MaxTokens   int
	Temperature float64
	JSONMode    bool
}

// CompletionResponse contains the result of a completion request.
type CompletionResponse struct {
	Content      string
	InputTokens  int
	OutputTokens int
	Model        string
	FinishReason string
}

// Provider defines the interface for chat-completion providers.
type Provider interface {
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
	Name() string
}

// New creates the provider named in config. The "local" provider has no
// remote backend; callers that see ErrNoRemoteProvider use the
// deterministic drafting path instead.
func New(cfg *config.Config) (Provider, error) {
	switch cfg.Provider {
	case config.ProviderOpenAI:
		apiKey := os.Getenv("OPENAI_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY environment variable is not set")
		}
		return NewOpenAIProvider(apiKey, cfg.Model), nil

	case config.ProviderOllama:
		host := os.Getenv("OLLAMA_HOST")
		if host == "" {
			host = "http://localhost:11434"
		}
		return NewOllamaProvider(host, cfg.Model), nil

	case config.ProviderLocal:
		return nil, ErrNoRemoteProvider

	default:
		return nil, fmt.Errorf("unsupported provider type: %s", cfg.Provider)
	}
}

// ErrNoRemoteProvider signals that the configured provider is the
// offline one and drafting must stay deterministic.
var ErrNoRemoteProvider = fmt.Errorf("no remote provider configured")
