package security

import (
	"regexp"
	"strings"
	"sync"
)

// RedactPlaceholder is the replacement string for redacted secrets.
const RedactPlaceholder = "***REDACTED***"

// Redactor replaces secret values in strings with RedactPlaceholder. It
// matches known credential formats and literal values registered at runtime,
// such as the gateway's own bearer token. Safe for concurrent use.
type Redactor struct {
	mu       sync.RWMutex
	patterns []*regexp.Regexp
	literals []string
}

// NewRedactor creates a Redactor with DefaultPatterns and the given literal
// secrets. Empty literals are ignored.
func NewRedactor(literals ...string) *Redactor {
	r := &Redactor{patterns: DefaultPatterns()}
	for _, lit := range literals {
		r.AddLiteral(lit)
	}
	return r
}

// AddLiteral adds a literal secret value that should be redacted on sight.
// Empty strings are ignored.
func (r *Redactor) AddLiteral(secret string) {
	if secret == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.literals = append(r.literals, secret)
}

// Redact replaces all known secret patterns and literal values in s.
func (r *Redactor) Redact(s string) string {
	if s == "" {
		return s
	}

	r.mu.RLock()
	patterns := r.patterns
	literals := r.literals
	r.mu.RUnlock()

	// Literals first: a registered token may itself match a pattern.
	for _, lit := range literals {
		if strings.Contains(s, lit) {
			s = strings.ReplaceAll(s, lit, RedactPlaceholder)
		}
	}
	for _, p := range patterns {
		s = p.ReplaceAllString(s, RedactPlaceholder)
	}
	return s
}

// DefaultPatterns returns compiled patterns for credentials that show up in
// request headers and pasted chat content.
func DefaultPatterns() []*regexp.Regexp {
	return []*regexp.Regexp{
		// Authorization header values.
		regexp.MustCompile(`(?i)\b(bearer|basic) [A-Za-z0-9._~+/\-]{8,}=*`),
		// OpenAI and Anthropic style keys.
		regexp.MustCompile(`sk-(ant-)?[a-zA-Z0-9\-]{20,}`),
		// GitHub: ghp_, gho_, ghs_, github_pat_
		regexp.MustCompile(`(ghp_|gho_|ghs_|github_pat_)[a-zA-Z0-9_]{20,}`),
		// AWS Access Key ID
		regexp.MustCompile(`AKIA[A-Z0-9]{16}`),
		// Slack bot and user tokens
		regexp.MustCompile(`xox[bp]-[0-9]+-[a-zA-Z0-9]+`),
	}
}
