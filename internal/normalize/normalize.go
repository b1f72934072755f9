// Package normalize standardizes free-text item names so every matching
// stage compares the same canonical form.
package normalize

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var multiSpaceRe = regexp.MustCompile(`\s{2,}`)

// foldDiacritics decomposes accented characters and drops the combining
// marks, so "jalapeño" and "jalapeno" normalize identically.
var foldDiacritics = transform.Chain(
	norm.NFD,
	runes.Remove(runes.In(unicode.Mn)),
	norm.NFC,
)

// Name standardizes an item name for matching by:
//  1. Trimming whitespace
//  2. Lowercasing
//  3. Folding diacritics to ASCII
//  4. Collapsing multiple spaces into single spaces
//
// It deliberately keeps punctuation: vendor names like "all-purpose flour"
// must match catalog names token for token.
func Name(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}

	s = strings.ToLower(s)

	if folded, _, err := transform.String(foldDiacritics, s); err == nil {
		s = folded
	}

	s = multiSpaceRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// Tokens splits a normalized name into word tokens. Hyphens and slashes
// act as separators so "all-purpose" yields both words.
func Tokens(s string) []string {
	return strings.FieldsFunc(Name(s), func(r rune) bool {
		return r == ' ' || r == '-' || r == '/' || r == ','
	})
}
