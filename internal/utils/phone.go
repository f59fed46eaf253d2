package utils

import "strings"

// countryPrefix is the international prefix applied during normalization.
const countryPrefix = "972"

// NormalizePhone converts a stored phone number to the international form the
// messaging provider expects: digits only, the national trunk "0" swapped for
// the country prefix, and a single leading plus sign. Numbers that already
// carry the country prefix pass through; anything else gets the prefix
// prepended. The second return value is false when no digits survive,
// meaning the owner cannot be messaged.
func NormalizePhone(raw string) (string, bool) {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if digits == "" {
		return "", false
	}

	switch {
	case strings.HasPrefix(digits, "0"):
		digits = countryPrefix + digits[1:]
	case strings.HasPrefix(digits, countryPrefix):
		// already international
	default:
		digits = countryPrefix + digits
	}
	return "+" + digits, true
}
