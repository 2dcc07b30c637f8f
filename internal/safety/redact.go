package safety

import "regexp"

// Redaction patterns run over every outbound answer. Replacement keeps
// the category visible so the reader knows something was removed.
var redactionPatterns = []struct {
	name    string
	pattern *regexp.Regexp
	replace string
}{
	{"email", regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`), "[redacted-email]"},
	{"phone", regexp.MustCompile(`(?:\+\d{1,3}[\s.\-]?)?\(?\d{3}\)?[\s.\-]\d{3}[\s.\-]\d{4}\b`), "[redacted-phone]"},
	{"ssn", regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`), "[redacted-ssn]"},
	{"aws_key", regexp.MustCompile(`\bAKIA[0-9A-Z]{16}\b`), "[redacted-credential]"},
	{"api_key", regexp.MustCompile(`\bsk-[A-Za-z0-9\-_]{20,}\b`), "[redacted-credential]"},
	{"private_key", regexp.MustCompile(`-----BEGIN [A-Z ]*PRIVATE KEY-----[\s\S]*?-----END [A-Z ]*PRIVATE KEY-----`), "[redacted-private-key]"},
	{"bearer", regexp.MustCompile(`(?i)\bbearer\s+[A-Za-z0-9\-._~+/]{16,}=*`), "[redacted-credential]"},
}

// Redact removes personal data and credentials from text. It returns
// the cleaned text and the names of the categories that matched.
func Redact(text string) (string, []string) {
	applied := []string{}
	out := text
	for _, p := range redactionPatterns {
		if !p.pattern.MatchString(out) {
			continue
		}
		out = p.pattern.ReplaceAllString(out, p.replace)
		applied = append(applied, p.name)
	}
	return out, applied
}
