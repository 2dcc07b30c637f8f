// Package planner drafts candidate responses. A draft is a proposal:
// it goes through the quality gate, the safety guard, and arbitration
// before anything reaches the caller.
package planner

import (
	"context"

	"github.com/ziadkadry99/turnguard/internal/llm"
	"github.com/ziadkadry99/turnguard/internal/retrieval"
	"github.com/ziadkadry99/turnguard/internal/schema"
)

// Input is everything a composer may use for one drafting attempt.
type Input struct {
	Request    *schema.UserRequest
	Assessment *schema.OversightAssessment
	Mode       schema.Mode
	Evidence   []retrieval.Result
	// Feedback carries the failure reasons from the previous attempt's
	// quality evaluation. Empty on the first attempt.
	Feedback []string
	Attempt  int
}

// Composer turns an Input into a draft response.
type Composer interface {
	Draft(ctx context.Context, in Input) (*schema.AssistantResponse, error)
	Name() string
}

// New picks the composer for the configured provider. A nil provider
// selects the deterministic offline composer.
func New(provider llm.Provider, model string) Composer {
	if provider == nil {
		return NewLocalComposer()
	}
	return NewLLMComposer(provider, model)
}
