// Package convention derives canonical wire names from schema keys.
// The client and server dispatchers both normalize keys through this
// package, so paths agree on the wire without explicit configuration.
package convention

import (
	"strings"
	"unicode"
)

// Kebab converts a schema key in arbitrary casing (camelCase, PascalCase,
// snake_case, space separated) to its canonical kebab-case path segment.
// The function is pure and idempotent: Kebab(Kebab(x)) == Kebab(x).
// It is applied to schema keys only, never to verb names.
func Kebab(key string) string {
	if key == "" {
		return ""
	}

	runes := []rune(key)
	var b strings.Builder
	b.Grow(len(key) + 4)

	for i, r := range runes {
		switch {
		case r == '_' || r == ' ' || r == '-':
			b.WriteRune('-')

		case unicode.IsUpper(r):
			if i > 0 && boundaryBefore(runes, i) {
				b.WriteRune('-')
			}
			b.WriteRune(unicode.ToLower(r))

		default:
			b.WriteRune(r)
		}
	}

	return collapse(b.String())
}

// boundaryBefore reports whether a word boundary precedes the uppercase
// rune at index i. A boundary exists after a lowercase rune or digit
// ("userId" -> "user-id"), and at the last capital of an acronym run
// followed by a lowercase rune ("HTTPServer" -> "http-server").
func boundaryBefore(runes []rune, i int) bool {
	prev := runes[i-1]
	if unicode.IsLower(prev) || unicode.IsDigit(prev) {
		return true
	}
	if unicode.IsUpper(prev) && i+1 < len(runes) && unicode.IsLower(runes[i+1]) {
		return true
	}
	return false
}

// collapse squeezes repeated dashes and trims leading/trailing ones.
func collapse(s string) string {
	for strings.Contains(s, "--") {
		s = strings.ReplaceAll(s, "--", "-")
	}
	return strings.Trim(s, "-")
}
