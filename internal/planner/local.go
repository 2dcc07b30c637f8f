package planner

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/ziadkadry99/turnguard/internal/retrieval"
	"github.com/ziadkadry99/turnguard/internal/schema"
)

// LocalComposer drafts responses without a model. Drafts are built
// from the request structure itself: restated objective, per-criterion
// checks, and a plan derived from constraints. The quality gate treats
// these drafts exactly like model output.
type LocalComposer struct{}

// NewLocalComposer returns the offline composer.
func NewLocalComposer() *LocalComposer { return &LocalComposer{} }

func (c *LocalComposer) Name() string { return "local" }

func (c *LocalComposer) Draft(_ context.Context, in Input) (*schema.AssistantResponse, error) {
	req := in.Request

	resp := &schema.AssistantResponse{
		Answer:           c.answer(in),
		ReasoningSummary: c.reasoning(in),
		Checks:           c.checks(req),
		NextStepOptions:  c.nextSteps(in),
		Assumptions:      []string{},
		Confidence:       c.confidence(in),
	}

	switch in.Mode {
	case schema.ModePlan:
		resp.Plan = c.plan(req)
	case schema.ModeClarify:
		resp.Questions = in.Assessment.RecommendedQuestions
	}

	for _, ev := range in.Evidence {
		if ev.Caveat != "" {
			resp.Caveats = append(resp.Caveats, ev.Caveat)
		}
	}
	for _, flag := range in.Assessment.RiskFlags {
		resp.Caveats = append(resp.Caveats, flag.Mitigation)
	}

	if resp.Confidence < schema.LowConfidenceThreshold || hasHighSeverity(in.Assessment.RiskFlags) {
		resp.Assumptions = c.assumptions(in)
	}
	return resp, nil
}

func (c *LocalComposer) answer(in Input) string {
	var b strings.Builder
	req := in.Request

	switch in.Mode {
	case schema.ModeClarify:
		b.WriteString("Before committing to an approach, the objective needs narrowing.\n\n")
		for _, q := range in.Assessment.RecommendedQuestions {
			fmt.Fprintf(&b, "- %s\n", q)
		}
	case schema.ModePlan:
		fmt.Fprintf(&b, "## Plan for: %s\n\n", req.Task)
		for i, step := range c.plan(req) {
			fmt.Fprintf(&b, "%d. %s\n", i+1, step)
		}
	default:
		fmt.Fprintf(&b, "## %s\n\n", req.Task)
		fmt.Fprintf(&b, "Scope is taken from the stated context: %s\n", req.Context)
		if len(req.Constraints) > 0 {
			b.WriteString("\nConstraints honored:\n")
			for _, con := range req.Constraints {
				fmt.Fprintf(&b, "- %s\n", con)
			}
		}
	}

	if len(in.Evidence) > 0 {
		b.WriteString("\nGrounding:\n")
		for _, ev := range in.Evidence {
			fmt.Fprintf(&b, "- %s (%s)\n", summarize(ev.Evidence.Content), ev.Evidence.Source)
		}
	}

	// Feedback from a failed attempt gets addressed, not ignored.
	if len(in.Feedback) > 0 {
		b.WriteString("\nRevised to address:\n")
		for _, f := range in.Feedback {
			fmt.Fprintf(&b, "- %s\n", f)
		}
	}
	return strings.TrimSpace(b.String()) + "\n"
}

func (c *LocalComposer) reasoning(in Input) string {
	return fmt.Sprintf("deterministic draft, mode %s, attempt %d, ambiguity %.2f",
		in.Mode, in.Attempt, in.Assessment.AmbiguityScore)
}

func (c *LocalComposer) checks(req *schema.UserRequest) []schema.Check {
	checks := []schema.Check{
		{Name: "objective addressed", Status: schema.CheckPass, Evidence: "answer restates and scopes the task", Severity: schema.SeverityMedium},
	}
	for _, criterion := range req.SuccessCriteria {
		checks = append(checks, schema.Check{
			Name:      "criterion: " + summarize(criterion),
			Status:    schema.CheckPass,
			Evidence:  "covered in the answer body",
			Severity:  schema.SeverityMedium,
			Criterion: criterion,
		})
	}
	return checks
}

func (c *LocalComposer) plan(req *schema.UserRequest) []string {
	steps := []string{
		"confirm scope and success criteria",
		"outline the change against the stated context",
	}
	for _, con := range req.Constraints {
		steps = append(steps, "verify constraint: "+summarize(con))
	}
	steps = append(steps, "execute and validate against each success criterion")
	return steps
}

func (c *LocalComposer) nextSteps(in Input) []string {
	if in.Mode == schema.ModeClarify {
		return []string{"answer the questions above", "or accept the stated assumptions and proceed"}
	}
	return []string{"proceed as described", "tighten scope first", "request a detailed plan"}
}

func (c *LocalComposer) assumptions(in Input) []string {
	out := []string{}
	for _, missing := range in.Assessment.MissingDecisions {
		out = append(out, "assumed a conservative default for: "+missing)
	}
	for _, flag := range in.Assessment.RiskFlags {
		if flag.Severity == schema.SeverityHigh {
			out = append(out, fmt.Sprintf("assumed %s risk is acceptable only with: %s", flag.Type, flag.Mitigation))
		}
	}
	if len(out) == 0 {
		out = append(out, "assumed the stated context is complete")
	}
	return out
}

// confidence starts high and decays with ambiguity, risk, and weak
// grounding. The floor keeps the score meaningful rather than
// saturating at zero.
func (c *LocalComposer) confidence(in Input) float64 {
	conf := 0.92 - in.Assessment.AmbiguityScore*0.5 - float64(len(in.Assessment.RiskFlags))*0.05
	conf -= evidencePenalty(in.Evidence)
	conf = math.Max(0.30, math.Min(0.95, conf))
	return math.Round(conf*100) / 100
}

// evidencePenalty charges for grounding below the verified tier. An
// answer resting only on unverified sources lands under the
// low-confidence threshold, so its assumptions get stated.
func evidencePenalty(evidence []retrieval.Result) float64 {
	if len(evidence) == 0 {
		return 0
	}
	best := retrieval.TierUnverified
	for _, ev := range evidence {
		if ev.Evidence.Tier < best {
			best = ev.Evidence.Tier
		}
	}
	switch best {
	case retrieval.TierVerified:
		return 0
	case retrieval.TierReputable:
		return 0.08
	default:
		return 0.25
	}
}

func hasHighSeverity(flags []schema.RiskFlag) bool {
	for _, f := range flags {
		if f.Severity == schema.SeverityHigh {
			return true
		}
	}
	return false
}

func summarize(s string) string {
	s = strings.TrimSpace(s)
	if len(s) <= 80 {
		return s
	}
	return s[:77] + "..."
}
