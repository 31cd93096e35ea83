package importer

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// NormalizeHeader canonicalizes raw header text for matching: diacritics
// stripped, trimmed, lowercased, internal whitespace runs collapsed to a
// single space. Headers differing only in accents, case, or incidental
// whitespace normalize to the same key.
func NormalizeHeader(header string) string {
	stripper := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(stripper, header)
	if err != nil {
		stripped = header
	}
	return strings.Join(strings.Fields(strings.ToLower(stripped)), " ")
}
