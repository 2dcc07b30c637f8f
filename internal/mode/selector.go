// Package mode selects the interaction stance for a turn. The
// selection is advisory: arbitration may force clarify or a controlled
// stop regardless of what is proposed here.
package mode

import (
	"strings"

	"github.com/ziadkadry99/turnguard/internal/intake"
	"github.com/ziadkadry99/turnguard/internal/schema"
)

var planTokens = map[string]bool{
	"plan": true, "roadmap": true, "milestone": true, "milestones": true,
	"strategy": true, "architecture": true, "design": true, "phases": true,
}

var evaluateTokens = map[string]bool{
	"review": true, "evaluate": true, "assess": true, "compare": true,
	"critique": true, "tradeoff": true, "tradeoffs": true, "audit": true,
}

// Selection carries the proposed mode and the rule that produced it.
type Selection struct {
	Mode   schema.Mode
	Reason string
}

// Select proposes a mode from the assessment and the request wording.
// Ambiguity above the threshold always wins: no other stance is useful
// until the objective is clear.
func Select(req *schema.UserRequest, assessment *schema.OversightAssessment, ambiguityThreshold float64) Selection {
	if assessment.AmbiguityScore > ambiguityThreshold {
		return Selection{Mode: schema.ModeClarify, Reason: "ambiguity_above_threshold"}
	}

	tokens := intake.Tokenize(req.Task)
	if hasToken(tokens, evaluateTokens) {
		return Selection{Mode: schema.ModeEvaluate, Reason: "evaluation_wording"}
	}
	if hasToken(tokens, planTokens) || hasPlanShape(req) {
		return Selection{Mode: schema.ModePlan, Reason: "planning_wording_or_shape"}
	}
	return Selection{Mode: schema.ModeExecute, Reason: "default_execute"}
}

func hasToken(tokens []string, set map[string]bool) bool {
	for _, t := range tokens {
		if set[t] {
			return true
		}
	}
	return false
}

// hasPlanShape catches requests that describe multi-step work without
// using planning vocabulary.
func hasPlanShape(req *schema.UserRequest) bool {
	lowered := strings.ToLower(req.Task)
	if strings.Count(lowered, " then ") >= 1 && len(req.SuccessCriteria) > 0 {
		return true
	}
	return len(req.Constraints) >= 3
}
