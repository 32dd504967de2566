package utils

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// DigitsOnly removes every non-digit character.
func DigitsOnly(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// StripAccents removes combining marks ("APRESENTAÇÃO" -> "APRESENTACAO").
func StripAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// HeaderKey canonicalizes a column header for matching: BOM, accents and
// case are dropped and whitespace runs collapse to a single space.
func HeaderKey(s string) string {
	s = strings.TrimPrefix(s, "\ufeff")
	s = StripAccents(s)
	return strings.ToUpper(strings.Join(strings.Fields(s), " "))
}
