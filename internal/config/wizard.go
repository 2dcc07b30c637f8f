package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/manifoldco/promptui"
)

// RunWizard runs an interactive configuration wizard and returns the
// resulting Config. It also saves the config to .turnguard.yml.
func RunWizard() (*Config, error) {
	fmt.Println("Welcome to turnguard! Let's configure the oversight pipeline.")
	fmt.Println()

	cfg := DefaultConfig()

	// 1. Provider selection.
	providerPrompt := promptui.Select{
		Label: "Select LLM provider for the planner/executor",
		Items: []string{
			"local  - deterministic built-in planner, no API key",
			"openai - OpenAI Chat Completions (needs OPENAI_API_KEY)",
			"ollama - local Ollama daemon",
		},
	}
	providerIdx, _, err := providerPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("provider selection: %w", err)
	}
	providers := []ProviderType{ProviderLocal, ProviderOpenAI, ProviderOllama}
	cfg.Provider = providers[providerIdx]

	if cfg.Provider != ProviderLocal {
		modelPrompt := promptui.Prompt{
			Label:   "Model",
			Default: cfg.Model,
		}
		model, err := modelPrompt.Run()
		if err != nil {
			return nil, fmt.Errorf("model prompt: %w", err)
		}
		cfg.Model = model
	}

	// 2. Server port.
	portPrompt := promptui.Prompt{
		Label:   "HTTP server port",
		Default: strconv.Itoa(cfg.Server.Port),
		Validate: func(s string) error {
			n, err := strconv.Atoi(s)
			if err != nil || n <= 0 || n > 65535 {
				return fmt.Errorf("enter a port between 1 and 65535")
			}
			return nil
		},
	}
	portStr, err := portPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("port prompt: %w", err)
	}
	cfg.Server.Port, _ = strconv.Atoi(portStr)

	// 3. Risk posture: tighter ambiguity threshold asks questions earlier.
	posturePrompt := promptui.Select{
		Label: "Clarification posture",
		Items: []string{
			"standard - clarify above 0.35 ambiguity",
			"strict   - clarify above 0.25 ambiguity",
		},
	}
	postureIdx, _, err := posturePrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("posture selection: %w", err)
	}
	if postureIdx == 1 {
		cfg.Pipeline.AmbiguityThreshold = 0.25
	}

	if cfg.Provider == ProviderOpenAI && os.Getenv("OPENAI_API_KEY") == "" {
		fmt.Println()
		fmt.Println("Note: OPENAI_API_KEY is not set. Set it before running `turnguard serve`.")
	}

	if err := cfg.Save(".turnguard.yml"); err != nil {
		return nil, err
	}
	fmt.Println()
	fmt.Println("Configuration written to .turnguard.yml")
	return cfg, nil
}
