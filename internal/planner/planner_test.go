package planner

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/ziadkadry99/turnguard/internal/llm"
	"github.com/ziadkadry99/turnguard/internal/quality"
	"github.com/ziadkadry99/turnguard/internal/retrieval"
	"github.com/ziadkadry99/turnguard/internal/schema"
)

func execInput() Input {
	return Input{
		Request: &schema.UserRequest{
			Context:         "Go service with chi routes",
			Task:            "implement a rate limiter middleware",
			Constraints:     []string{"no new dependencies"},
			SuccessCriteria: []string{"requests above the limit get 429"},
			Format:          schema.DefaultFormat,
			RiskTolerance:   schema.RiskMedium,
		},
		Assessment: &schema.OversightAssessment{
			AmbiguityScore:       0.10,
			Notes:                []string{},
			RiskFlags:            []schema.RiskFlag{},
			MissingDecisions:     []string{},
			RecommendedQuestions: []string{},
		},
		Mode:    schema.ModeExecute,
		Attempt: 1,
	}
}

func TestLocalDraftPassesQualityGate(t *testing.T) {
	draft, err := NewLocalComposer().Draft(context.Background(), execInput())
	if err != nil {
		t.Fatalf("Draft: %v", err)
	}
	in := execInput()
	if err := schema.ValidateResponse(draft, schema.ComplexityComplex, in.Assessment.RiskFlags); err != nil {
		t.Fatalf("draft fails response validation: %v", err)
	}
	r := quality.New(0).Evaluate(quality.Input{
		Draft:      draft,
		Request:    in.Request,
		Mode:       in.Mode,
		Complexity: schema.ComplexityComplex,
		RiskFlags:  in.Assessment.RiskFlags,
	})
	if r.RevisionRequired {
		t.Errorf("local draft should pass its own gate, reasons: %v", r.FailureReasons)
	}
}

func TestLocalDraftClarifyMode(t *testing.T) {
	in := execInput()
	in.Mode = schema.ModeClarify
	in.Assessment.AmbiguityScore = 0.69
	in.Assessment.RecommendedQuestions = []string{"What outcome should this produce?"}
	in.Assessment.MissingDecisions = []string{"concrete objective"}

	draft, err := NewLocalComposer().Draft(context.Background(), in)
	if err != nil {
		t.Fatalf("Draft: %v", err)
	}
	if len(draft.Questions) != 1 {
		t.Errorf("Questions = %v, want the recommended question", draft.Questions)
	}
	if draft.Confidence >= schema.LowConfidenceThreshold {
		t.Errorf("Confidence = %v, high ambiguity should depress it", draft.Confidence)
	}
	if len(draft.Assumptions) == 0 {
		t.Error("low confidence draft must state assumptions")
	}
}

func TestLocalDraftCarriesRiskMitigations(t *testing.T) {
	in := execInput()
	in.Assessment.RiskFlags = []schema.RiskFlag{{
		Type: schema.RiskTypeReliability, Severity: schema.SeverityHigh,
		Detail: "production deploy", Mitigation: "require a rollback step",
	}}
	draft, err := NewLocalComposer().Draft(context.Background(), in)
	if err != nil {
		t.Fatalf("Draft: %v", err)
	}
	found := false
	for _, c := range draft.Caveats {
		if strings.Contains(c, "rollback") {
			found = true
		}
	}
	if !found {
		t.Errorf("Caveats = %v, want the mitigation carried", draft.Caveats)
	}
	if len(draft.Assumptions) == 0 {
		t.Error("high-severity flag requires assumptions")
	}
}

func TestLocalDraftCarriesEvidenceCaveats(t *testing.T) {
	in := execInput()
	in.Evidence = []retrieval.Result{{
		Evidence: retrieval.Evidence{
			ID: "ev1", Content: "a blog post suggests a token bucket",
			Source: "blog.example.com", Tier: retrieval.TierUnverified,
		},
		Similarity: 0.8,
		Caveat:     "unverified source (blog.example.com); verify before relying on it",
	}}
	draft, err := NewLocalComposer().Draft(context.Background(), in)
	if err != nil {
		t.Fatalf("Draft: %v", err)
	}
	found := false
	for _, c := range draft.Caveats {
		if strings.Contains(c, "unverified source") {
			found = true
		}
	}
	if !found {
		t.Errorf("Caveats = %v, want the evidence caveat carried", draft.Caveats)
	}
	if !strings.Contains(draft.Answer, "blog.example.com") {
		t.Error("grounded draft should cite its evidence source")
	}
	if draft.Confidence >= schema.LowConfidenceThreshold {
		t.Errorf("Confidence = %v, unverified-only grounding must land below %v",
			draft.Confidence, schema.LowConfidenceThreshold)
	}
}

func TestLocalDraftConfidenceTracksEvidenceTier(t *testing.T) {
	withTier := func(tier retrieval.SourceTier) *schema.AssistantResponse {
		in := execInput()
		in.Evidence = []retrieval.Result{{
			Evidence: retrieval.Evidence{ID: "ev1", Content: "token bucket notes", Source: "src", Tier: tier},
		}}
		draft, err := NewLocalComposer().Draft(context.Background(), in)
		if err != nil {
			t.Fatalf("Draft: %v", err)
		}
		return draft
	}

	verified := withTier(retrieval.TierVerified)
	unverified := withTier(retrieval.TierUnverified)
	if unverified.Confidence >= verified.Confidence {
		t.Errorf("confidence %v (tier 3) should be below %v (tier 1)",
			unverified.Confidence, verified.Confidence)
	}
	if len(unverified.Assumptions) == 0 {
		t.Error("low-confidence draft must state assumptions")
	}
}

func TestLocalDraftAddressesFeedback(t *testing.T) {
	in := execInput()
	in.Feedback = []string{"completeness: no next-step options offered"}
	in.Attempt = 2
	draft, err := NewLocalComposer().Draft(context.Background(), in)
	if err != nil {
		t.Fatalf("Draft: %v", err)
	}
	if !strings.Contains(draft.Answer, "no next-step options offered") {
		t.Error("revision should name what it fixed")
	}
}

func TestParseDraftWithFences(t *testing.T) {
	content := "```json\n{\"answer\":\"ok\",\"reasoning_summary\":\"r\",\"confidence\":0.8}\n```"
	draft, err := ParseDraft(content)
	if err != nil {
		t.Fatalf("ParseDraft: %v", err)
	}
	if draft.Answer != "ok" || draft.Confidence != 0.8 {
		t.Errorf("draft = %+v", draft)
	}
	if draft.Checks == nil || draft.NextStepOptions == nil {
		t.Error("nil slices should be normalized")
	}
}

func TestParseDraftRejectsGarbage(t *testing.T) {
	_, err := ParseDraft("Sure! Here is my answer: it depends.")
	if !errors.Is(err, schema.ErrSchemaViolation) {
		t.Fatalf("err = %v, want schema violation", err)
	}
}

type failingProvider struct{}

func (failingProvider) Complete(context.Context, llm.CompletionRequest) (*llm.CompletionResponse, error) {
	return nil, errors.New("connection refused")
}
func (failingProvider) Name() string { return "failing" }

func TestLLMComposerWrapsToolFailure(t *testing.T) {
	c := NewLLMComposer(failingProvider{}, "m")
	_, err := c.Draft(context.Background(), execInput())
	if !errors.Is(err, schema.ErrToolFailure) {
		t.Fatalf("err = %v, want tool failure", err)
	}
}

func TestNewPicksComposer(t *testing.T) {
	if New(nil, "").Name() != "local" {
		t.Error("nil provider should select the local composer")
	}
	if New(failingProvider{}, "m").Name() != "failing" {
		t.Error("provider-backed composer should report the provider name")
	}
}
