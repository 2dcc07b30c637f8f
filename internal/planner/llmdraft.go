package planner

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ziadkadry99/turnguard/internal/llm"
	"github.com/ziadkadry99/turnguard/internal/schema"
)

// LLMComposer drafts with a chat-completion provider. The model is
// asked for strict JSON; anything else is a tool failure, not
// something to pass downstream.
type LLMComposer struct {
	provider llm.Provider
	model    string
}

// NewLLMComposer wraps a provider as a composer.
func NewLLMComposer(provider llm.Provider, model string) *LLMComposer {
	return &LLMComposer{provider: provider, model: model}
}

func (c *LLMComposer) Name() string { return c.provider.Name() }

const systemPrompt = `You draft responses for a governed assistant. Reply with a single JSON object and nothing else:
{
  "answer": "markdown answer",
  "reasoning_summary": "one or two sentences",
  "checks": [{"name": "", "status": "pass|fail|skip", "evidence": "", "severity": "low|medium|high", "criterion": ""}],
  "next_step_options": [""],
  "assumptions": [""],
  "plan": [""],
  "questions": [""],
  "confidence": 0.0,
  "caveats": [""]
}
Create one check per success criterion, with criterion set to the criterion verbatim. Set confidence honestly in [0,1]. List assumptions whenever the request left decisions open.`

func (c *LLMComposer) Draft(ctx context.Context, in Input) (*schema.AssistantResponse, error) {
	resp, err := c.provider.Complete(ctx, llm.CompletionRequest{
		Model: c.model,
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: systemPrompt},
			{Role: llm.RoleUser, Content: buildUserPrompt(in)},
		},
		Temperature: 0.2,
		JSONMode:    true,
	})
	if err != nil {
		return nil, fmt.Errorf("drafting with %s: %v: %w", c.provider.Name(), err, schema.ErrToolFailure)
	}

	draft, err := ParseDraft(resp.Content)
	if err != nil {
		return nil, err
	}
	return draft, nil
}

func buildUserPrompt(in Input) string {
	var b strings.Builder
	req := in.Request

	fmt.Fprintf(&b, "mode: %s\ntask: %s\ncontext: %s\n", in.Mode, req.Task, req.Context)
	if len(req.Constraints) > 0 {
		fmt.Fprintf(&b, "constraints:\n")
		for _, con := range req.Constraints {
			fmt.Fprintf(&b, "- %s\n", con)
		}
	}
	if len(req.SuccessCriteria) > 0 {
		fmt.Fprintf(&b, "success criteria:\n")
		for _, sc := range req.SuccessCriteria {
			fmt.Fprintf(&b, "- %s\n", sc)
		}
	}
	if len(in.Assessment.RiskFlags) > 0 {
		fmt.Fprintf(&b, "risk flags (each mitigation must appear in caveats):\n")
		for _, f := range in.Assessment.RiskFlags {
			fmt.Fprintf(&b, "- [%s/%s] %s -> %s\n", f.Type, f.Severity, f.Detail, f.Mitigation)
		}
	}
	if in.Mode == schema.ModeClarify && len(in.Assessment.RecommendedQuestions) > 0 {
		fmt.Fprintf(&b, "ask exactly these questions:\n")
		for _, q := range in.Assessment.RecommendedQuestions {
			fmt.Fprintf(&b, "- %s\n", q)
		}
	}
	if len(in.Evidence) > 0 {
		fmt.Fprintf(&b, "evidence (cite sources; carry the caveats for unverified tiers):\n")
		for _, ev := range in.Evidence {
			fmt.Fprintf(&b, "- [tier %d, %s] %s\n", ev.Evidence.Tier, ev.Evidence.Source, ev.Evidence.Content)
		}
	}
	if len(in.Feedback) > 0 {
		fmt.Fprintf(&b, "previous attempt failed quality review, fix these:\n")
		for _, f := range in.Feedback {
			fmt.Fprintf(&b, "- %s\n", f)
		}
	}
	return b.String()
}

// ParseDraft decodes a model reply into a response. Code fences around
// the JSON are tolerated; anything else fails as a schema violation.
func ParseDraft(content string) (*schema.AssistantResponse, error) {
	cleaned := strings.TrimSpace(content)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	var draft schema.AssistantResponse
	if err := json.Unmarshal([]byte(cleaned), &draft); err != nil {
		return nil, schema.Violation("draft", fmt.Sprintf("model reply is not valid JSON: %v", err))
	}
	if draft.Checks == nil {
		draft.Checks = []schema.Check{}
	}
	if draft.NextStepOptions == nil {
		draft.NextStepOptions = []string{}
	}
	if draft.Assumptions == nil {
		draft.Assumptions = []string{}
	}
	return &draft, nil
}
