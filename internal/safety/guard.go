// Package safety screens inbound requests for prompt injection and
// inspects outbound drafts for content that must not leave the system.
// The guard's block verdict is a veto: arbitration cannot override it.
package safety

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ziadkadry99/turnguard/internal/schema"
)

// Verdict is the guard's decision for a draft.
type Verdict string

const (
	VerdictAllow  Verdict = "allow"
	VerdictRevise Verdict = "revise"
	VerdictBlock  Verdict = "block"
)

var injectionPatterns = []struct {
	name    string
	pattern *regexp.Regexp
}{
	{"ignore_instructions", regexp.MustCompile(`(?i)\bignore\s+(all\s+)?(previous|prior|above|earlier)\s+(instructions|prompts|rules)\b`)},
	{"disregard_instructions", regexp.MustCompile(`(?i)\bdisregard\s+(all\s+|your\s+)?(instructions|guidelines|rules|system\s+prompt)\b`)},
	{"reveal_system_prompt", regexp.MustCompile(`(?i)\b(reveal|print|show|repeat)\b.{0,40}\bsystem\s+prompt\b`)},
	{"role_override", regexp.MustCompile(`(?i)\byou\s+are\s+now\s+(a|an|in)\b`)},
	{"developer_mode", regexp.MustCompile(`(?i)\b(developer|dan|jailbreak)\s+mode\b`)},
	{"override_safety", regexp.MustCompile(`(?i)\b(bypass|disable|override)\b.{0,30}\b(safety|guardrails|filters|restrictions)\b`)},
}

var unsafeOutputPatterns = []struct {
	name    string
	pattern *regexp.Regexp
}{
	{"destructive_shell", regexp.MustCompile(`(?i)\brm\s+-rf\s+/(?:\s|$|[^a-z])`)},
	{"destructive_sql", regexp.MustCompile(`(?i)\b(drop\s+(table|database)|truncate\s+table)\b`)},
	{"disk_overwrite", regexp.MustCompile(`(?i)\bdd\s+if=.*\bof=/dev/`)},
	{"fork_bomb", regexp.MustCompile(`:\(\)\s*\{\s*:\|:&\s*\}\s*;:`)},
}

// InputScreen is the result of screening a request before any module
// processes it.
type InputScreen struct {
	Injection bool
	Patterns  []string
}

// OutputInspection is the guard's verdict on a drafted response.
type OutputInspection struct {
	Verdict   Verdict
	Reasons   []string
	Redacted  []string
	Sanitized string
}

// ScreenInput checks the request text for injection attempts. A hit
// forces a controlled stop; the request is never partially honored.
func ScreenInput(req *schema.UserRequest) InputScreen {
	combined := req.Task + "\n" + req.Context + "\n" +
		strings.Join(req.Constraints, "\n") + "\n" + strings.Join(req.SuccessCriteria, "\n")
	return screenText(combined)
}

// ScreenEvidence checks retrieved content for injection attempts.
// Quarantined evidence is dropped, never summarized into the answer.
func ScreenEvidence(content string) InputScreen {
	return screenText(content)
}

func screenText(text string) InputScreen {
	s := InputScreen{Patterns: []string{}}
	for _, p := range injectionPatterns {
		if p.pattern.MatchString(text) {
			s.Injection = true
			s.Patterns = append(s.Patterns, p.name)
		}
	}
	return s
}

// InspectOutput inspects a drafted response before emission. Redaction
// always applies; destructive content without an explicit guard rails
// note downgrades to revise, and a draft that embeds injection bait
// verbatim is blocked.
func InspectOutput(resp *schema.AssistantResponse, tolerance schema.RiskTolerance) OutputInspection {
	out := OutputInspection{Verdict: VerdictAllow, Reasons: []string{}}

	sanitized, applied := Redact(resp.Answer)
	out.Sanitized = sanitized
	out.Redacted = applied
	if len(applied) > 0 {
		out.Reasons = append(out.Reasons, fmt.Sprintf("redacted: %s", strings.Join(applied, ", ")))
	}

	if screen := screenText(resp.Answer); screen.Injection {
		out.Verdict = VerdictBlock
		out.Reasons = append(out.Reasons, "answer reproduces injection content: "+strings.Join(screen.Patterns, ", "))
		return out
	}

	for _, p := range unsafeOutputPatterns {
		if !p.pattern.MatchString(resp.Answer) {
			continue
		}
		if tolerance == schema.RiskHigh && hasReversibilityNote(resp) {
			out.Verdict = VerdictRevise
			out.Reasons = append(out.Reasons, fmt.Sprintf("destructive content (%s) requires an explicit confirmation step", p.name))
			continue
		}
		out.Verdict = VerdictBlock
		out.Reasons = append(out.Reasons, fmt.Sprintf("destructive content: %s", p.name))
		return out
	}

	return out
}

func hasReversibilityNote(resp *schema.AssistantResponse) bool {
	for _, c := range resp.Caveats {
		lowered := strings.ToLower(c)
		if strings.Contains(lowered, "rollback") || strings.Contains(lowered, "backup") || strings.Contains(lowered, "irreversible") {
			return true
		}
	}
	return false
}
