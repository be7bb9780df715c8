// Package security sanitizes text at the boundaries where it crosses
// trust lines: inbound chat/webhook bodies before they enter a supervisor
// session, and arbitrary external strings before they reach a log line.
// Grounded on the teacher's internal/utils/security.go; the MCP-stdio
// command/argument validators from that file are dropped (no component
// here drives an external MCP stdio transport).
package security

import (
	"html"
	"regexp"
	"strings"
	"unicode/utf8"
)

var xssPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)<script[^>]*>.*?</script>`),
	regexp.MustCompile(`(?i)<iframe[^>]*>.*?</iframe>`),
	regexp.MustCompile(`(?i)<object[^>]*>.*?</object>`),
	regexp.MustCompile(`(?i)<embed[^>]*>.*?</embed>`),
	regexp.MustCompile(`(?i)<embed[^>]*>`),
	regexp.MustCompile(`(?i)<form[^>]*>.*?</form>`),
	regexp.MustCompile(`(?i)<input[^>]*>`),
	regexp.MustCompile(`(?i)javascript:`),
	regexp.MustCompile(`(?i)vbscript:`),
	regexp.MustCompile(`(?i)on\w+\s*=`),
}

// SanitizeHTML escapes input if it looks like it carries an XSS payload,
// otherwise returns it unchanged. Input longer than 10000 bytes is
// truncated first.
func SanitizeHTML(input string) string {
	if input == "" {
		return ""
	}
	if len(input) > 10000 {
		input = input[:10000]
	}
	for _, pattern := range xssPatterns {
		if pattern.MatchString(input) {
			return html.EscapeString(input)
		}
	}
	return input
}

// ValidateInput rejects control characters and invalid UTF-8, and refuses
// anything matching a known XSS pattern. The second return value is false
// when input should be rejected outright rather than displayed.
func ValidateInput(input string) (string, bool) {
	if input == "" {
		return "", true
	}
	for _, r := range input {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return "", false
		}
	}
	if !utf8.ValidString(input) {
		return "", false
	}
	for _, pattern := range xssPatterns {
		if pattern.MatchString(input) {
			return "", false
		}
	}
	return strings.TrimSpace(input), true
}

// SanitizeForLog strips newlines, tabs, and other control characters from
// input so an attacker-controlled string cannot forge additional log
// lines or fields.
func SanitizeForLog(input string) string {
	if input == "" {
		return ""
	}
	replaced := strings.NewReplacer("\n", " ", "\r", " ", "\t", " ").Replace(input)
	var b strings.Builder
	for _, r := range replaced {
		if r >= 32 || r == ' ' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
