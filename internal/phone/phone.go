// Package phone normalizes phone-number-shaped identities to canonical
// E.164 (spec.md §4.9).
package phone

import "strings"

// Normalize strips spaces, dashes, and leading zeros/plus variants, then
// re-emits a canonical "+<digits>" string. Returns the empty string if no
// digits remain.
func Normalize(identity string) string {
	var digits strings.Builder
	for _, r := range identity {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	raw := strings.TrimLeft(digits.String(), "0")
	if raw == "" {
		return ""
	}
	return "+" + raw
}
