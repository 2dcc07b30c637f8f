// Package intake turns a raw turn into a canonical UserRequest. The
// classifier labels the turn simple or complex and detects pure
// conversation; the normalizer fills defaults and enforces presence of
// required fields.
package intake

import (
	"regexp"
	"strings"

	"github.com/ziadkadry99/turnguard/internal/schema"
)

var tokenPattern = regexp.MustCompile(`[a-zA-Z0-9']+`)

// Tokenize lowercases and splits text into word tokens.
func Tokenize(text string) []string {
	return tokenPattern.FindAllString(strings.ToLower(text), -1)
}

var objectiveVerbs = map[string]bool{
	"build": true, "create": true, "design": true, "implement": true,
	"deploy": true, "ship": true, "plan": true, "write": true,
	"fix": true, "refactor": true, "test": true, "document": true,
}

var taskMarkers = map[string]bool{
	"deadline": true, "constraints": true, "acceptance": true,
	"milestone": true, "roadmap": true,
}

var taskPhrases = []string{
	"acceptance criteria", "success criteria", "implementation brief",
	"mvp", "api", "feature", "bug",
}

var conversationTokens = map[string]bool{
	"hi": true, "hello": true, "hey": true, "yo": true, "sup": true,
	"thanks": true, "thank": true, "morning": true, "evening": true,
}

var conversationPhrases = []string{
	"what's up", "how are you", "can we chat", "let's chat",
	"just chatting", "how's it going",
}

var riskDomainTokens = map[string]bool{
	"auth": true, "payment": true, "security": true, "privacy": true,
	"policy": true, "legal": true, "medical": true, "finance": true,
	"production": true, "prod": true,
}

var multiDecisionTokens = map[string]bool{
	"architecture": true, "system": true, "roadmap": true,
	"migration": true, "strategy": true, "integrate": true,
	"integration": true,
}

// FreshnessTokens mark claims that depend on recent external facts and
// therefore require retrieval before assertion.
var FreshnessTokens = map[string]bool{
	"latest": true, "current": true, "today": true, "now": true,
	"news": true, "release": true, "version": true, "pricing": true,
	"search": true, "browse": true, "retrieve": true,
}

// Classification is the intake verdict for one raw turn.
type Classification struct {
	Complexity   schema.Complexity
	Conversation bool
	Reasons      []string
}

func hasAny(tokens []string, set map[string]bool) bool {
	for _, t := range tokens {
		if set[t] {
			return true
		}
	}
	return false
}

func hasPhrase(text string, phrases []string) bool {
	lowered := strings.ToLower(text)
	for _, p := range phrases {
		if strings.Contains(lowered, p) {
			return true
		}
	}
	return false
}

// IsConversation reports whether the turn is chitchat rather than a
// task. Conversational turns bypass the governed pipeline.
func IsConversation(task, context string) bool {
	tokens := Tokenize(task)
	if hasAny(tokens, objectiveVerbs) || hasAny(tokens, taskMarkers) || hasPhrase(task, taskPhrases) {
		return false
	}
	if hasAny(tokens, conversationTokens) || hasPhrase(task, conversationPhrases) {
		return true
	}
	if strings.TrimSpace(task) == "" {
		ctxTokens := Tokenize(context)
		return hasAny(ctxTokens, conversationTokens) || hasPhrase(context, conversationPhrases)
	}
	return false
}

// IsFreshnessCritical reports whether the task asserts facts that can
// change over time and must be grounded via retrieval.
func IsFreshnessCritical(task string) bool {
	if hasAny(Tokenize(task), FreshnessTokens) {
		return true
	}
	lowered := strings.ToLower(task)
	for _, phrase := range []string{"look up", "search for", "latest ", "current "} {
		if strings.Contains(lowered, phrase) {
			return true
		}
	}
	return false
}

// Classify labels the turn simple or complex. Complex turns get the
// full governed gate sequence; simple turns take a single pass.
func Classify(req *schema.UserRequest) Classification {
	combined := req.Task + "\n" + req.Context
	tokens := Tokenize(combined)

	c := Classification{Complexity: schema.ComplexitySimple}

	if IsConversation(req.Task, req.Context) {
		c.Conversation = true
		c.Reasons = append(c.Reasons, "conversation_intent")
		return c
	}

	if hasAny(tokens, riskDomainTokens) {
		c.Reasons = append(c.Reasons, "risk_domain_signal")
	}
	if IsFreshnessCritical(combined) {
		c.Reasons = append(c.Reasons, "freshness_or_retrieval_required")
	}
	if isMultiDecisionScope(tokens, combined) {
		c.Reasons = append(c.Reasons, "multi_decision_scope")
	}
	if len(req.Constraints) >= 2 || len(req.SuccessCriteria) >= 2 {
		c.Reasons = append(c.Reasons, "multi_constraint_request")
	}

	if len(c.Reasons) > 0 {
		c.Complexity = schema.ComplexityComplex
	} else {
		c.Reasons = append(c.Reasons, "default_simple")
	}
	return c
}

func isMultiDecisionScope(tokens []string, text string) bool {
	if len(tokens) >= 28 {
		return true
	}
	distinct := 0
	seen := map[string]bool{}
	for _, t := range tokens {
		if multiDecisionTokens[t] && !seen[t] {
			seen[t] = true
			distinct++
		}
	}
	if distinct >= 2 {
		return true
	}
	lowered := strings.ToLower(text)
	if strings.Count(lowered, " and ") >= 3 && len(tokens) >= 24 {
		return true
	}
	return strings.Count(lowered, " then ") >= 2
}

// HasObjectiveVerb reports whether the task names an explicit action.
func HasObjectiveVerb(tokens []string) bool {
	return hasAny(tokens, objectiveVerbs)
}

// HasRiskDomainSignal reports whether the text touches a risk domain.
func HasRiskDomainSignal(tokens []string) bool {
	return hasAny(tokens, riskDomainTokens)
}
