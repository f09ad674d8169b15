package auth

import (
	"regexp"
	"strings"
)

var parenthetical = regexp.MustCompile(`\(.*\)`)

// CleanError turns a provider-shaped error message into display text:
// the "auth: " prefix and any parenthesized code are removed. The
// transform is purely cosmetic; the underlying error is opaque.
func CleanError(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	msg = strings.TrimPrefix(msg, "auth: ")
	msg = parenthetical.ReplaceAllString(msg, "")
	return strings.TrimSpace(msg)
}
