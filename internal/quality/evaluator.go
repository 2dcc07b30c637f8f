// Package quality computes the proposal quality score for a drafted
// response. Scoring is deterministic and side-effect free; the overall
// score and the revision flag are always recomputed here, never taken
// from upstream.
package quality

import (
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/ziadkadry99/turnguard/internal/schema"
)

// Evaluator scores drafts against a configurable pass threshold.
type Evaluator struct {
	passThreshold float64
}

// New returns an evaluator. A zero threshold selects the default.
func New(passThreshold float64) *Evaluator {
	if passThreshold <= 0 {
		passThreshold = schema.PassThreshold
	}
	return &Evaluator{passThreshold: passThreshold}
}

var (
	refusalPattern     = regexp.MustCompile(`(?i)\b(i can(?:no|')t help|i cannot help|i am unable to|i'm unable to|as an ai)\b`)
	placeholderPattern = regexp.MustCompile(`(?i)\b(TODO|TBD|FIXME|XXX|lorem ipsum|\[insert[^\]]*\])`)
	sentenceEndPattern = regexp.MustCompile(`[.!?:)\x60"']\s*$`)
)

// Input carries one draft together with the turn facts it is judged
// against.
type Input struct {
	Draft      *schema.AssistantResponse
	Request    *schema.UserRequest
	Mode       schema.Mode
	Complexity schema.Complexity
	RiskFlags  []schema.RiskFlag
}

// Evaluate scores one draft. The returned result always carries a
// recomputed Overall and RevisionRequired. A complex request with an
// unmapped success criterion, or a high-severity risk flag with no
// mitigation, requires revision regardless of the numeric score.
func (e *Evaluator) Evaluate(in Input) *schema.PQSResult {
	r := &schema.PQSResult{FailureReasons: []string{}}
	unmapped := unmappedCriteria(in.Request, in.Draft)

	r.Correctness = e.scoreCorrectness(in.Draft, r)
	r.Completeness = e.scoreCompleteness(in.Draft, in.Mode, unmapped, r)
	r.FormatCompliance = e.scoreFormat(in.Draft, in.Mode, r)
	r.Efficiency = e.scoreEfficiency(in.Draft, r)

	r.Overall = round2((r.Correctness + r.Completeness + r.FormatCompliance + r.Efficiency) / 4)
	r.RevisionRequired = r.Overall < e.passThreshold

	if in.Complexity == schema.ComplexityComplex && unmapped > 0 && !r.RevisionRequired {
		r.RevisionRequired = true
		r.FailureReasons = append(r.FailureReasons, "completeness: unmapped success criteria on a complex request")
	}
	for _, f := range in.RiskFlags {
		if f.Severity == schema.SeverityHigh && f.Mitigation == "" {
			r.RevisionRequired = true
			r.FailureReasons = append(r.FailureReasons, fmt.Sprintf("safety: %s flag carries no mitigation", f.Type))
			break
		}
	}
	return r
}

// PassThreshold reports the configured gate.
func (e *Evaluator) PassThreshold() float64 { return e.passThreshold }

func (e *Evaluator) scoreCorrectness(resp *schema.AssistantResponse, r *schema.PQSResult) float64 {
	if strings.TrimSpace(resp.Answer) == "" {
		r.FailureReasons = append(r.FailureReasons, "correctness: empty answer")
		return 0
	}

	score := 10.0
	if refusalPattern.MatchString(resp.Answer) {
		score -= 4
		r.FailureReasons = append(r.FailureReasons, "correctness: refusal phrasing in answer body")
	}
	if looksTruncated(resp.Answer) {
		score -= 2
		r.FailureReasons = append(r.FailureReasons, "correctness: answer appears truncated")
	}
	if placeholderPattern.MatchString(resp.Answer) {
		score -= 2
		r.FailureReasons = append(r.FailureReasons, "correctness: unresolved placeholder text")
	}
	for _, c := range resp.Checks {
		if c.Status == schema.CheckFail && c.Severity == schema.SeverityHigh {
			score -= 3
			r.FailureReasons = append(r.FailureReasons, fmt.Sprintf("correctness: high-severity check %q failed", c.Name))
			break
		}
	}
	return clamp10(score)
}

func (e *Evaluator) scoreCompleteness(resp *schema.AssistantResponse, mode schema.Mode, unmapped int, r *schema.PQSResult) float64 {
	score := 10.0

	if unmapped > 0 {
		score -= math.Min(6, float64(unmapped)*3)
		r.FailureReasons = append(r.FailureReasons, fmt.Sprintf("completeness: %d success criteria without a check", unmapped))
	}

	if len(resp.NextStepOptions) == 0 {
		score -= 2
		r.FailureReasons = append(r.FailureReasons, "completeness: no next-step options offered")
	}
	if mode == schema.ModePlan && len(resp.Plan) == 0 {
		score -= 3
		r.FailureReasons = append(r.FailureReasons, "completeness: plan mode without a plan")
	}
	if mode == schema.ModeClarify && len(resp.Questions) == 0 {
		score -= 3
		r.FailureReasons = append(r.FailureReasons, "completeness: clarify mode without questions")
	}
	return clamp10(score)
}

func (e *Evaluator) scoreFormat(resp *schema.AssistantResponse, mode schema.Mode, r *schema.PQSResult) float64 {
	score := 10.0

	if hasUnclosedFence(resp.Answer) {
		score -= 3
		r.FailureReasons = append(r.FailureReasons, "format: unclosed code fence")
	}

	shape := parseShape(resp.Answer)
	longAnswer := wordCount(resp.Answer) > 250
	if longAnswer && shape.Headings == 0 && shape.Lists == 0 {
		score -= 2
		r.FailureReasons = append(r.FailureReasons, "format: long answer with no structure")
	}
	if mode == schema.ModePlan && shape.Lists == 0 && len(resp.Plan) == 0 {
		score -= 2
		r.FailureReasons = append(r.FailureReasons, "format: plan answer without step structure")
	}
	return clamp10(score)
}

func (e *Evaluator) scoreEfficiency(resp *schema.AssistantResponse, r *schema.PQSResult) float64 {
	score := 10.0
	words := wordCount(resp.Answer)

	switch {
	case words > 1600:
		score -= 4
		r.FailureReasons = append(r.FailureReasons, "efficiency: answer far over length budget")
	case words > 800:
		score -= 2
		r.FailureReasons = append(r.FailureReasons, "efficiency: answer over length budget")
	}
	if hasRepeatedRun(resp.Answer) {
		score -= 2
		r.FailureReasons = append(r.FailureReasons, "efficiency: repeated content run")
	}
	return clamp10(score)
}

// unmappedCriteria counts success criteria with no non-failing check.
func unmappedCriteria(req *schema.UserRequest, resp *schema.AssistantResponse) int {
	missing := 0
	for _, criterion := range req.SuccessCriteria {
		if !criterionCovered(criterion, resp.Checks) {
			missing++
		}
	}
	return missing
}

func criterionCovered(criterion string, checks []schema.Check) bool {
	for _, c := range checks {
		if c.Criterion == criterion && c.Status != schema.CheckFail {
			return true
		}
	}
	return false
}

func looksTruncated(answer string) bool {
	trimmed := strings.TrimSpace(answer)
	if len(trimmed) < 40 {
		return false
	}
	return !sentenceEndPattern.MatchString(trimmed)
}

func wordCount(s string) int {
	return len(strings.Fields(s))
}

// hasRepeatedRun detects a six-word shingle that appears twice, which
// in practice means a degenerate generation loop.
func hasRepeatedRun(s string) bool {
	words := strings.Fields(strings.ToLower(s))
	const n = 6
	if len(words) < n*2 {
		return false
	}
	seen := make(map[string]bool, len(words))
	for i := 0; i+n <= len(words); i++ {
		key := strings.Join(words[i:i+n], " ")
		if seen[key] {
			return true
		}
		seen[key] = true
	}
	return false
}

func clamp10(v float64) float64 {
	return math.Max(0, math.Min(10, v))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
