package attendance

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// foldName lowercases a display name and strips diacritics so that
// "Jiří Novák" matches a search for "jiri novak".
func foldName(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	folded = strings.ToLower(folded)
	folded = strings.ReplaceAll(folded, "-", " ")
	return strings.Join(strings.Fields(folded), " ")
}

// nameMatches reports whether query occurs in name after folding both.
func nameMatches(name, query string) bool {
	q := foldName(query)
	if q == "" {
		return true
	}
	return strings.Contains(foldName(name), q)
}
