// Package oversight scores ambiguity and flags risk for a normalized
// request. The analyzer is deterministic: the same request always
// produces the same assessment.
package oversight

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/ziadkadry99/turnguard/internal/intake"
	"github.com/ziadkadry99/turnguard/internal/schema"
)

// Scoring weights. Tuned against the request corpus; the threshold that
// decides clarification lives in config, not here.
const (
	shortTaskTokens   = 12
	shortTaskWeight   = 0.25
	vagueTermWeight   = 0.12
	vagueTermCap      = 0.45
	missingVerbWeight = 0.20
	conflictWeight    = 0.15
	contextCredit     = 0.08
)

var vagueTerms = map[string]bool{
	"thing": true, "things": true, "stuff": true, "better": true,
	"improve": true, "optimize": true, "quick": true, "soon": true,
	"somehow": true, "maybe": true, "nice": true, "cool": true,
}

type riskLexicon struct {
	flagType   schema.RiskFlagType
	tokens     map[string]bool
	mitigation string
}

// Severity is positional, not per-lexicon: a hit in the task itself is
// high, a hit only in the surrounding context is medium.
var riskLexicons = []riskLexicon{
	{
		flagType: schema.RiskTypeSecurity,
		tokens: map[string]bool{
			"auth": true, "security": true, "token": true, "password": true,
			"secret": true, "credential": true, "credentials": true,
			"permission": true, "vulnerability": true, "exploit": true,
			"injection": true,
		},
		mitigation: "treat credentials as untouchable; propose least-privilege changes and call out anything needing a security review",
	},
	{
		flagType: schema.RiskTypePrivacy,
		tokens: map[string]bool{
			"privacy": true, "pii": true, "personal": true, "email": true,
			"phone": true, "ssn": true, "gdpr": true, "consent": true,
		},
		mitigation: "redact personal data from outputs and restrict processing to the minimum the task requires",
	},
	{
		flagType: schema.RiskTypePolicy,
		tokens: map[string]bool{
			"compliance": true, "legal": true, "regulation": true,
			"regulatory": true, "license": true, "copyright": true,
			"contract": true, "medical": true, "finance": true,
			"payment": true,
		},
		mitigation: "flag conclusions as non-authoritative and recommend review by the owning compliance or legal function",
	},
	{
		flagType: schema.RiskTypeReliability,
		tokens: map[string]bool{
			"production": true, "prod": true, "deploy": true,
			"migration": true, "outage": true, "incident": true,
			"rollback": true, "delete": true, "drop": true,
			"irreversible": true,
		},
		mitigation: "require a reversible plan with an explicit rollback step before any state-changing action",
	},
}

// decisionProbe detects a decision the request leaves open, paired with
// the clarifying question that would close it. Ordered by how much of
// the solution space the answer eliminates.
type decisionProbe struct {
	missing  string
	question string
	applies  func(req *schema.UserRequest, tokens []string) bool
}

var decisionProbes = []decisionProbe{
	{
		missing:  "concrete objective",
		question: "What specific outcome should this produce, and for whom?",
		applies: func(req *schema.UserRequest, tokens []string) bool {
			return !intake.HasObjectiveVerb(tokens)
		},
	},
	{
		missing:  "success criteria",
		question: "What measurable result would make you consider this done?",
		applies: func(req *schema.UserRequest, tokens []string) bool {
			return len(req.SuccessCriteria) == 0
		},
	},
	{
		missing:  "scope boundary",
		question: "Which parts of the system are in scope, and which must not change?",
		applies: func(req *schema.UserRequest, tokens []string) bool {
			return len(req.Constraints) == 0 && intake.HasRiskDomainSignal(tokens)
		},
	},
	{
		missing:  "target environment",
		question: "Should this run against production or a staging environment first?",
		applies: func(req *schema.UserRequest, tokens []string) bool {
			for _, t := range tokens {
				if t == "deploy" || t == "production" || t == "prod" {
					return true
				}
			}
			return false
		},
	},
}

// Analyze produces the oversight assessment for a normalized request.
func Analyze(req *schema.UserRequest) (*schema.OversightAssessment, error) {
	tokens := intake.Tokenize(req.Task)
	contextTokens := intake.Tokenize(req.Context)

	a := &schema.OversightAssessment{
		AmbiguityScore:       ambiguityScore(req, tokens),
		Notes:                []string{},
		RiskFlags:            detectRisks(tokens, contextTokens),
		MissingDecisions:     []string{},
		RecommendedQuestions: []string{},
	}

	maxQuestions := req.MaxQuestions
	if maxQuestions <= 0 || maxQuestions > schema.MaxRecommendedQuestions {
		maxQuestions = schema.MaxRecommendedQuestions
	}
	applying := []decisionProbe{}
	for _, probe := range decisionProbes {
		if probe.applies(req, tokens) {
			applying = append(applying, probe)
			a.MissingDecisions = append(a.MissingDecisions, probe.missing)
		}
	}

	// The deployment-target probe jumps to second place: answering it
	// wrong is the costliest branch.
	for i, probe := range applying {
		if probe.missing == "target environment" && i > 1 {
			copy(applying[2:i+1], applying[1:i])
			applying[1] = probe
			break
		}
	}

	for _, probe := range applying {
		if len(a.RecommendedQuestions) >= maxQuestions {
			break
		}
		a.RecommendedQuestions = append(a.RecommendedQuestions, probe.question)
	}

	a.Notes = buildNotes(req, tokens, a)

	if err := schema.ValidateAssessment(a); err != nil {
		return nil, err
	}
	return a, nil
}

// ambiguityScore is additive over independent signals, clamped to [0,1]
// and rounded to two decimals so stored scores compare exactly.
func ambiguityScore(req *schema.UserRequest, tokens []string) float64 {
	score := 0.0

	if len(tokens) < shortTaskTokens {
		score += shortTaskWeight
	}

	vague := 0.0
	for _, t := range tokens {
		if vagueTerms[t] {
			vague += vagueTermWeight
		}
	}
	score += math.Min(vague, vagueTermCap)

	if !intake.HasObjectiveVerb(tokens) {
		score += missingVerbWeight
	}

	score += conflictWeight * float64(conflictingConstraints(req.Constraints))

	if hasContext(req) {
		score -= contextCredit
	}

	score = math.Max(0.0, math.Min(1.0, score))
	return math.Round(score*100) / 100
}

var negativeMarkers = map[string]bool{
	"cannot": true, "never": true, "not": true, "avoid": true,
	"without": true, "forbid": true, "forbidden": true,
}

var positiveMarkers = map[string]bool{
	"must": true, "always": true, "require": true, "requires": true,
	"required": true, "ensure": true, "should": true,
}

var constraintStopwords = map[string]bool{
	"the": true, "a": true, "an": true, "to": true, "of": true,
	"for": true, "be": true, "is": true, "are": true, "do": true,
	"any": true, "all": true, "this": true, "that": true, "it": true,
}

// conflictingConstraints counts constraint pairs that pull in opposite
// directions on a shared subject, e.g. "must cache responses" against
// "never cache responses".
func conflictingConstraints(constraints []string) int {
	type parsed struct {
		negative bool
		polar    bool
		subject  map[string]bool
	}

	items := make([]parsed, 0, len(constraints))
	for _, c := range constraints {
		p := parsed{subject: map[string]bool{}}
		for _, t := range intake.Tokenize(c) {
			switch {
			case negativeMarkers[t]:
				p.negative = true
				p.polar = true
			case positiveMarkers[t]:
				p.polar = true
			case !constraintStopwords[t]:
				p.subject[t] = true
			}
		}
		items = append(items, p)
	}

	conflicts := 0
	for i := 0; i < len(items); i++ {
		for j := i + 1; j < len(items); j++ {
			if !items[i].polar || !items[j].polar || items[i].negative == items[j].negative {
				continue
			}
			for t := range items[i].subject {
				if items[j].subject[t] {
					conflicts++
					break
				}
			}
		}
	}
	return conflicts
}

func hasContext(req *schema.UserRequest) bool {
	return req.Context != "" && req.Context != intake.NoContext
}

func detectRisks(taskTokens, contextTokens []string) []schema.RiskFlag {
	flags := []schema.RiskFlag{}
	for _, lex := range riskLexicons {
		taskHits := matchLexicon(lex.tokens, taskTokens)
		contextHits := matchLexicon(lex.tokens, contextTokens)
		if len(taskHits) == 0 && len(contextHits) == 0 {
			continue
		}

		// A hit in the task means the work itself touches the risky
		// surface; context-only hits just describe its surroundings.
		severity := schema.SeverityHigh
		if len(taskHits) == 0 {
			severity = schema.SeverityMedium
		}

		hits := taskHits
		for _, h := range contextHits {
			if !containsString(hits, h) {
				hits = append(hits, h)
			}
		}
		sort.Strings(hits)

		flags = append(flags, schema.RiskFlag{
			Type:       lex.flagType,
			Severity:   severity,
			Detail:     fmt.Sprintf("%s signals: %s", lex.flagType, strings.Join(hits, ", ")),
			Mitigation: lex.mitigation,
		})
	}
	return flags
}

func matchLexicon(lex map[string]bool, tokens []string) []string {
	hits := []string{}
	seen := map[string]bool{}
	for _, t := range tokens {
		if lex[t] && !seen[t] {
			seen[t] = true
			hits = append(hits, t)
		}
	}
	return hits
}

func containsString(items []string, s string) bool {
	for _, item := range items {
		if item == s {
			return true
		}
	}
	return false
}

func buildNotes(req *schema.UserRequest, tokens []string, a *schema.OversightAssessment) []string {
	notes := []string{}
	if len(tokens) < shortTaskTokens {
		notes = append(notes, "task statement is short; objective may be underspecified")
	}
	for _, t := range tokens {
		if vagueTerms[t] {
			notes = append(notes, "task uses vague wording")
			break
		}
	}
	if !hasContext(req) {
		notes = append(notes, "no context supplied")
	}
	if conflictingConstraints(req.Constraints) > 0 {
		notes = append(notes, "constraints pull in opposite directions")
	}
	if len(a.RiskFlags) > 0 {
		notes = append(notes, fmt.Sprintf("%d risk domain(s) detected", len(a.RiskFlags)))
	}
	return notes
}
