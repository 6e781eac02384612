// Package redact strips access tokens from strings before they reach logs,
// error messages or API responses.
package redact

import (
	"regexp"
	"strings"
)

var (
	// access_token query parameters, raw or inside a longer URL.
	accessTokenParamRe = regexp.MustCompile(`(?i)(access_token=)[^&\s"']+`)

	// "Bearer <token>" headers.
	bearerTokenRe = regexp.MustCompile(`(?i)\bBearer\s+[^\s"']+`)

	// Graph API user and page tokens start with EAA.
	graphTokenRe = regexp.MustCompile(`\bEAA[A-Za-z0-9]{20,}\b`)
)

// Placeholder replaces every redacted secret.
const Placeholder = "<redacted>"

// Secrets removes token-bearing substrings from s.
func Secrets(s string) string {
	if s == "" {
		return ""
	}
	out := accessTokenParamRe.ReplaceAllString(s, "${1}"+Placeholder)
	out = bearerTokenRe.ReplaceAllString(out, "Bearer "+Placeholder)
	out = graphTokenRe.ReplaceAllString(out, Placeholder)
	return strings.TrimSpace(out)
}

// Token replaces every occurrence of a known token in s, in addition to the
// pattern-based redaction of Secrets. Empty tokens are ignored.
func Token(s, token string) string {
	if token != "" {
		s = strings.ReplaceAll(s, token, Placeholder)
	}
	return Secrets(s)
}
