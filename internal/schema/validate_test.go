package schema

import (
	"errors"
	"testing"
)

func validRequest() *UserRequest {
	return &UserRequest{
		Context:         "internal tooling cleanup",
		Task:            "refactor the session store",
		Constraints:     []string{},
		SuccessCriteria: []string{},
		Format:          DefaultFormat,
		RiskTolerance:   RiskMedium,
	}
}

func TestValidateUserRequest(t *testing.T) {
	if err := ValidateUserRequest(validRequest()); err != nil {
		t.Fatalf("valid request rejected: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*UserRequest)
	}{
		{"missing context", func(r *UserRequest) { r.Context = "" }},
		{"missing task", func(r *UserRequest) { r.Task = "" }},
		{"nil constraints", func(r *UserRequest) { r.Constraints = nil }},
		{"nil success criteria", func(r *UserRequest) { r.SuccessCriteria = nil }},
		{"null format post-normalization", func(r *UserRequest) { r.Format = "" }},
		{"bad risk tolerance", func(r *UserRequest) { r.RiskTolerance = "extreme" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mutate(req)
			err := ValidateUserRequest(req)
			if err == nil {
				t.Fatal("expected schema violation, got nil")
			}
			if !errors.Is(err, ErrSchemaViolation) {
				t.Errorf("error should wrap ErrSchemaViolation, got %v", err)
			}
		})
	}
}

func TestValidateAssessmentBounds(t *testing.T) {
	a := &OversightAssessment{AmbiguityScore: 0.5}
	if err := ValidateAssessment(a); err != nil {
		t.Fatalf("valid assessment rejected: %v", err)
	}

	a.AmbiguityScore = 1.01
	if err := ValidateAssessment(a); err == nil {
		t.Error("score above 1.0 should fail")
	}
	a.AmbiguityScore = -0.01
	if err := ValidateAssessment(a); err == nil {
		t.Error("negative score should fail")
	}
}

func TestValidateAssessmentQuestionCap(t *testing.T) {
	a := &OversightAssessment{
		AmbiguityScore:       0.6,
		RecommendedQuestions: []string{"q1", "q2", "q3"},
	}
	if err := ValidateAssessment(a); err == nil {
		t.Error("three questions should exceed the cap")
	}
	a.RecommendedQuestions = a.RecommendedQuestions[:2]
	if err := ValidateAssessment(a); err != nil {
		t.Errorf("two questions should pass: %v", err)
	}
}

func TestRiskFlagRequiresMitigation(t *testing.T) {
	a := &OversightAssessment{
		AmbiguityScore: 0.2,
		RiskFlags: []RiskFlag{
			{Type: RiskTypeSecurity, Severity: SeverityHigh, Detail: "auth keywords"},
		},
	}
	if err := ValidateAssessment(a); err == nil {
		t.Fatal("flag without mitigation must be a contract violation")
	}
	a.RiskFlags[0].Mitigation = "require explicit credential handling review"
	if err := ValidateAssessment(a); err != nil {
		t.Errorf("mitigated flag should pass: %v", err)
	}
}

func TestValidateFallbackState(t *testing.T) {
	s := &FallbackState{Level: LevelClarifyNarrow, RefinementAttempt: 2}
	if err := ValidateFallbackState(s); err != nil {
		t.Fatalf("valid state rejected: %v", err)
	}
	s.Level = 5
	if err := ValidateFallbackState(s); err == nil {
		t.Error("level 5 should fail")
	}
	s.Level = LevelNormal
	s.RefinementAttempt = 4
	if err := ValidateFallbackState(s); err == nil {
		t.Error("attempt above cap should fail")
	}
}

func TestValidateResponseConditionals(t *testing.T) {
	base := func() *AssistantResponse {
		return &AssistantResponse{
			Answer:           "done",
			ReasoningSummary: "straightforward",
			Confidence:       0.9,
		}
	}

	if err := ValidateResponse(base(), ComplexitySimple, nil); err != nil {
		t.Fatalf("simple response rejected: %v", err)
	}

	// Complex requests need checks.
	if err := ValidateResponse(base(), ComplexityComplex, nil); err == nil {
		t.Error("complex response without checks should fail")
	}

	// Low confidence needs assumptions.
	r := base()
	r.Confidence = 0.5
	if err := ValidateResponse(r, ComplexitySimple, nil); err == nil {
		t.Error("low-confidence response without assumptions should fail")
	}
	r.Assumptions = []string{"constraints remain valid until corrected"}
	if err := ValidateResponse(r, ComplexitySimple, nil); err != nil {
		t.Errorf("low-confidence response with assumptions should pass: %v", err)
	}

	// High-severity flag needs assumptions regardless of confidence.
	r = base()
	flags := []RiskFlag{{Type: RiskTypeSecurity, Severity: SeverityHigh, Mitigation: "review"}}
	if err := ValidateResponse(r, ComplexitySimple, flags); err == nil {
		t.Error("high-severity flag without assumptions should fail")
	}
}
