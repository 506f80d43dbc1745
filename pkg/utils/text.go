package utils

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	nonLetterRe = regexp.MustCompile(`[^a-z]`)
	nonDigitRe  = regexp.MustCompile(`\D`)
)

// StripAccents decomposes s (NFD) and drops combining marks.
func StripAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// NormalizeName lower-cases s, strips diacritics and keeps only a-z.
// "Mairie de Saint-Étienne" -> "mairiedesaintetienne".
func NormalizeName(s string) string {
	return nonLetterRe.ReplaceAllString(StripAccents(strings.ToLower(s)), "")
}

// DigitsOnly drops every non-digit rune.
func DigitsOnly(s string) string {
	return nonDigitRe.ReplaceAllString(s, "")
}
