// Package redact scrubs credentials, tokens and personal data from strings
// before they are logged or rendered in error bodies.
package redact

import (
	"net/url"
	"regexp"
	"strings"
)

// Placeholders substituted for redacted fragments.
const (
	CredentialPlaceholder = "[REDACTED_CREDENTIAL]"
	KeyPlaceholder        = "[REDACTED_KEY]"
	JWTPlaceholder        = "[REDACTED_JWT]"
	EmailPlaceholder      = "[REDACTED_EMAIL]"
	SQLPlaceholder        = "[REDACTED_SQL]"
	StackPlaceholder      = "[STACK_TRACE_REDACTED]"
)

type rule struct {
	pattern     *regexp.Regexp
	placeholder string
}

// rules run in order; JWTs go before generic key=value secrets so a token
// parameter is reported as a JWT.
var rules = []rule{
	{regexp.MustCompile(`(?i)\b(postgres(?:ql)?|mysql|mongodb|redis)://[^@\s]+@`), CredentialPlaceholder},
	{regexp.MustCompile(`eyJ[A-Za-z0-9_-]+\.eyJ[A-Za-z0-9_-]+\.[A-Za-z0-9_-]+`), JWTPlaceholder},
	{regexp.MustCompile(`(?i)\b(password|passwd|pwd|password_digest)(\s*[=:]\s*['"]?)[^'"&\s,}]{3,}`), CredentialPlaceholder},
	{regexp.MustCompile(`(?i)\b(api[_-]?key|secret|token|jwt_secret)(\s*[=:]\s*['"]?)[A-Za-z0-9_\-.~+/]{8,}`), KeyPlaceholder},
	{regexp.MustCompile(`\$2[aby]\$\d{2}\$[./A-Za-z0-9]{53}`), CredentialPlaceholder},
	{regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`), EmailPlaceholder},
	{regexp.MustCompile(`(?i)\b(SELECT|INSERT|UPDATE|DELETE)\b[\s\S]*?\b(FROM|INTO|SET)\b\s+\w+`), SQLPlaceholder},
	{regexp.MustCompile(`(?:goroutine \d+ \[|panic:)[\s\S]*`), StackPlaceholder},
}

// String returns input with every sensitive fragment replaced.
func String(input string) string {
	if input == "" {
		return input
	}
	out := input
	for _, r := range rules {
		out = r.pattern.ReplaceAllString(out, r.placeholder)
	}
	return out
}

// Error redacts err.Error(); nil yields "".
func Error(err error) string {
	if err == nil {
		return ""
	}
	return String(err.Error())
}

// Email keeps the first character of the local part and the domain, e.g.
// "a***@example.com". Strings without an @ are fully masked.
func Email(addr string) string {
	at := strings.LastIndex(addr, "@")
	if at <= 0 {
		if addr == "" {
			return ""
		}
		return "***"
	}
	return addr[:1] + "***" + addr[at:]
}

// Token keeps a short prefix of a token for correlation.
func Token(tok string) string {
	const keep = 6
	if len(tok) <= keep*2 {
		return "***"
	}
	return tok[:keep] + "..."
}

// URL removes the password from a connection URL, keeping the user.
func URL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.User == nil {
		return String(raw)
	}
	if _, set := u.User.Password(); set {
		u.User = url.UserPassword(u.User.Username(), "xxxxx")
	}
	return u.String()
}
