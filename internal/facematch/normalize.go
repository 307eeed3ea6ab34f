package facematch

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// NormalizePersonName folds a name for directory search: diacritics removed,
// lower case, separators ('-', '.', '_') turned into single spaces.
func NormalizePersonName(name string) string {
	folded, _, err := transform.String(stripMarks, name)
	if err != nil {
		folded = name
	}
	folded = strings.Map(func(r rune) rune {
		switch r {
		case '-', '.', '_':
			return ' '
		}
		return unicode.ToLower(r)
	}, folded)
	return strings.Join(strings.Fields(folded), " ")
}

// NameMatches reports whether the folded query occurs in the folded name.
// An empty query matches every name.
func NameMatches(name, query string) bool {
	return strings.Contains(NormalizePersonName(name), NormalizePersonName(query))
}
