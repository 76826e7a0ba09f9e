// Package phone canonicalizes raw phone strings into comparison keys.
// The normalized form is used only for lead deduplication; the as-entered
// value stays on the lead for display.
package phone

import "strings"

// Normalize strips whitespace, hyphens, parentheses and a leading plus,
// then replaces a local trunk prefix 0 with the country calling code 972.
// Idempotent; non-digit garbage passes through uninterpreted since
// validating "is this a phone number" belongs to the intake boundary.
func Normalize(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		switch r {
		case ' ', '\t', '\n', '\r', '-', '(', ')', '+':
			continue
		default:
			b.WriteRune(r)
		}
	}
	cleaned := b.String()
	if strings.HasPrefix(cleaned, "0") {
		return "972" + cleaned[1:]
	}
	return cleaned
}
