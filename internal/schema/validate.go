package schema

import "fmt"

// ValidateUserRequest checks the post-normalization invariants of a
// request. The normalizer is responsible for defaulting; by the time a
// request crosses a module boundary every rule here must hold.
func ValidateUserRequest(req *UserRequest) error {
	if req == nil {
		return Violation("request", "nil request")
	}
	if req.Context == "" {
		return Violation("context", "required after normalization")
	}
	if req.Task == "" {
		return Violation("task", "required after normalization")
	}
	if req.Constraints == nil {
		return Violation("constraints", "must be an array, possibly empty")
	}
	if req.SuccessCriteria == nil {
		return Violation("success_criteria", "must be an array, possibly empty")
	}
	if req.Format == "" {
		return Violation("format", "must be non-null after normalization")
	}
	switch req.RiskTolerance {
	case RiskLow, RiskMedium, RiskHigh:
	default:
		return Violation("risk_tolerance", fmt.Sprintf("unknown value %q", req.RiskTolerance))
	}
	return nil
}

// ValidateAssessment checks the analyzer output contract: bounded
// score, capped question list, mitigation on every risk flag.
func ValidateAssessment(a *OversightAssessment) error {
	if a == nil {
		return Violation("assessment", "nil assessment")
	}
	if a.AmbiguityScore < 0.0 || a.AmbiguityScore > 1.0 {
		return Violation("ambiguity_score", fmt.Sprintf("%.2f outside [0,1]", a.AmbiguityScore))
	}
	if len(a.RecommendedQuestions) > MaxRecommendedQuestions {
		return Violation("recommended_questions", fmt.Sprintf("%d questions exceeds cap of %d", len(a.RecommendedQuestions), MaxRecommendedQuestions))
	}
	for i, flag := range a.RiskFlags {
		if flag.Mitigation == "" {
			return Violation("risk_flags", fmt.Sprintf("flag %d (%s) missing mitigation", i, flag.Type))
		}
		switch flag.Type {
		case RiskTypeSecurity, RiskTypePrivacy, RiskTypePolicy, RiskTypeReliability, RiskTypeAmbiguity:
		default:
			return Violation("risk_flags", fmt.Sprintf("flag %d has unknown type %q", i, flag.Type))
		}
		switch flag.Severity {
		case SeverityLow, SeverityMedium, SeverityHigh:
		default:
			return Violation("risk_flags", fmt.Sprintf("flag %d has unknown severity %q", i, flag.Severity))
		}
	}
	return nil
}

// ValidatePQS checks component bounds and the computed-overall rule.
func ValidatePQS(p *PQSResult) error {
	if p == nil {
		return Violation("pqs", "nil result")
	}
	for _, c := range []struct {
		name  string
		value float64
	}{
		{"correctness", p.Correctness},
		{"completeness", p.Completeness},
		{"format_compliance", p.FormatCompliance},
		{"efficiency", p.Efficiency},
	} {
		if c.value < 0 || c.value > 10 {
			return Violation(c.name, fmt.Sprintf("%.2f outside [0,10]", c.value))
		}
	}
	return nil
}

// ValidateFallbackState checks the state machine bounds.
func ValidateFallbackState(s *FallbackState) error {
	if s == nil {
		return Violation("fallback_state", "nil state")
	}
	if s.Level < LevelNormal || s.Level > LevelControlledStop {
		return Violation("level", fmt.Sprintf("%d outside [0,4]", s.Level))
	}
	if s.RefinementAttempt < 0 || s.RefinementAttempt > MaxRefinementAttempts {
		return Violation("refinement_attempt", fmt.Sprintf("%d outside [0,%d]", s.RefinementAttempt, MaxRefinementAttempts))
	}
	if s.ConsecutiveFailedChecks < 0 {
		return Violation("consecutive_failed_checks", "negative counter")
	}
	return nil
}

// ValidateResponse checks the final-payload invariants before emission.
// Complexity and confidence determine the conditional requirements.
func ValidateResponse(r *AssistantResponse, complexity Complexity, flags []RiskFlag) error {
	if r == nil {
		return Violation("response", "nil response")
	}
	if r.Answer == "" {
		return Violation("answer", "required")
	}
	if r.ReasoningSummary == "" {
		return Violation("reasoning_summary", "required")
	}
	if complexity == ComplexityComplex && len(r.Checks) == 0 {
		return Violation("checks", "must be non-empty for complex requests")
	}
	if needsAssumptions(r.Confidence, flags) && len(r.Assumptions) == 0 {
		return Violation("assumptions", "required at low confidence or with high-severity risk flags")
	}
	return nil
}

func needsAssumptions(confidence float64, flags []RiskFlag) bool {
	if confidence < LowConfidenceThreshold {
		return true
	}
	for _, f := range flags {
		if f.Severity == SeverityHigh {
			return true
		}
	}
	return false
}
