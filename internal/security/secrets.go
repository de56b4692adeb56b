// Package security masks credentials in snippet text before it leaves the process.
package security

import (
	"regexp"
	"strings"
)

// Finding is one credential located in a snippet.
type Finding struct {
	Kind   string `json:"kind"`
	Line   int    `json:"line"`
	Column int    `json:"column"`
	Length int    `json:"length"`
}

type rule struct {
	kind    string
	pattern *regexp.Regexp
	mask    func(match string) string
}

var quotedValue = regexp.MustCompile(`["'][^"']+["']`)
var userinfo = regexp.MustCompile(`(://[^:/@\s]+:)[^@\s]+(@)`)

func maskQuoted(match string) string {
	return quotedValue.ReplaceAllString(match, `"[REDACTED]"`)
}

func fixed(s string) func(string) string {
	return func(string) string { return s }
}

// Redactor finds and masks credentials in text.
type Redactor struct {
	rules        []rule
	placeholders []string
}

// NewRedactor creates a redactor with the built-in rules.
func NewRedactor() *Redactor {
	return &Redactor{
		rules: []rule{
			{
				kind:    "api_key",
				pattern: regexp.MustCompile(`(?i)(api[_-]?key|apikey|api_secret)\s*[=:]\s*["']([a-zA-Z0-9_\-]{20,})["']`),
				mask:    maskQuoted,
			},
			{
				kind:    "aws_access_key",
				pattern: regexp.MustCompile(`AKIA[0-9A-Z]{16}`),
				mask:    fixed("[REDACTED_AWS_KEY]"),
			},
			{
				kind:    "password",
				pattern: regexp.MustCompile(`(?i)(password|passwd|pwd|secret)\s*[=:]\s*["']([^\s"']{8,})["']`),
				mask:    maskQuoted,
			},
			{
				kind:    "connection_string",
				pattern: regexp.MustCompile(`(?i)(mongodb|postgres|mysql|redis|amqp)://[^\s"']+`),
				mask: func(match string) string {
					return userinfo.ReplaceAllString(match, "${1}[REDACTED]${2}")
				},
			},
			{
				kind:    "private_key",
				pattern: regexp.MustCompile(`-----BEGIN (RSA |EC |DSA |OPENSSH )?PRIVATE KEY-----`),
				mask:    fixed("[REDACTED_PRIVATE_KEY]"),
			},
			{
				kind:    "jwt",
				pattern: regexp.MustCompile(`eyJ[a-zA-Z0-9_-]*\.eyJ[a-zA-Z0-9_-]*\.[a-zA-Z0-9_-]*`),
				mask:    fixed("[REDACTED_JWT]"),
			},
		},
		placeholders: []string{
			"your-", "example", "placeholder", "xxx", "changeme",
			"todo", "fixme", "<", ">", "${", "{{",
		},
	}
}

// Find reports every credential in text. Lines that look like templates or
// documentation placeholders are skipped.
func (r *Redactor) Find(text string) []Finding {
	var findings []Finding

	for i, line := range strings.Split(text, "\n") {
		if r.isPlaceholder(line) {
			continue
		}
		for _, rl := range r.rules {
			for _, loc := range rl.pattern.FindAllStringIndex(line, -1) {
				findings = append(findings, Finding{
					Kind:   rl.kind,
					Line:   i + 1,
					Column: loc[0],
					Length: loc[1] - loc[0],
				})
			}
		}
	}

	return findings
}

// Redact returns text with every credential masked and the number of
// findings. Placeholder lines pass through untouched.
func (r *Redactor) Redact(text string) (string, int) {
	findings := r.Find(text)
	if len(findings) == 0 {
		return text, 0
	}

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if r.isPlaceholder(line) {
			continue
		}
		for _, rl := range r.rules {
			line = rl.pattern.ReplaceAllStringFunc(line, rl.mask)
		}
		lines[i] = line
	}

	return strings.Join(lines, "\n"), len(findings)
}

// Contains reports whether text holds at least one credential.
func (r *Redactor) Contains(text string) bool {
	return len(r.Find(text)) > 0
}

func (r *Redactor) isPlaceholder(line string) bool {
	lower := strings.ToLower(line)
	for _, p := range r.placeholders {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}
