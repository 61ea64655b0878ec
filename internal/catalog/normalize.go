package catalog

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var punctuation = regexp.MustCompile(`[^\p{L}\p{N}\s]+`)

// Normalize lower-cases text, strips diacritics, replaces punctuation with
// spaces and collapses whitespace. It is used for both catalog keywords and
// incoming utterances so matching stays symmetric.
func Normalize(text string) string {
	lower := strings.ToLower(text)

	// transform chains keep internal state, so one is built per call
	stripAccents := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(stripAccents, lower)
	if err != nil {
		folded = lower
	}

	folded = punctuation.ReplaceAllString(folded, " ")
	return strings.Join(strings.Fields(folded), " ")
}

// Tokens returns the whitespace-separated tokens of the normalized text
func Tokens(text string) []string {
	return strings.Fields(Normalize(text))
}
