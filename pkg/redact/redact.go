// Package redact scrubs credential-looking tokens from error text before it
// is surfaced to callers. Upstream analytics errors occasionally echo the
// basic-auth pair back in the response body.
package redact

import "regexp"

// Placeholder replaces every redacted token. It contains characters outside
// the matched class, so it can never itself contain a secret.
const Placeholder = "[redacted]"

// Any contiguous alphanumeric run of 20+ characters is treated as a
// potential secret. API token IDs and secrets are well above this length;
// ordinary English words are well below it.
var secretPattern = regexp.MustCompile(`[A-Za-z0-9]{20,}`)

// String replaces credential-looking runs in s with Placeholder.
func String(s string) string {
	return secretPattern.ReplaceAllString(s, Placeholder)
}

// Error redacts an error's message. Returns "" for a nil error.
func Error(err error) string {
	if err == nil {
		return ""
	}
	return String(err.Error())
}
