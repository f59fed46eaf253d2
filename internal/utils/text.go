package utils

import "strings"

// Placeholder substitutes for values that end up empty after sanitizing, so
// the messaging provider does not reject the payload.
const Placeholder = "-"

// Curly and Hebrew quote marks (geresh, gershayim) show up in names typed on
// mobile keyboards; the provider's template validation only accepts ASCII.
var quoteReplacer = strings.NewReplacer(
	"“", `"`,
	"”", `"`,
	"„", `"`,
	"«", `"`,
	"»", `"`,
	"״", `"`,
	"‘", "'",
	"’", "'",
	"׳", "'",
	"`", "'",
)

// SanitizeText flattens a value for submission as a template variable:
// newlines and tabs become spaces, lookalike quote characters become plain
// ASCII quotes, and runs of whitespace collapse to a single space.
func SanitizeText(s string) string {
	s = quoteReplacer.Replace(s)
	s = strings.Join(strings.Fields(s), " ")
	if s == "" {
		return Placeholder
	}
	return s
}
