// Package sanitize produces filesystem-safe path components from
// identified media titles.
package sanitize

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// whitelist is the full set of characters allowed in a path component.
const whitelist = `[]'!-_.() `

// asciiFold decomposes unicode characters and strips the combining marks,
// mapping accented characters to their closest ASCII equivalent.
var asciiFold = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Clean sanitizes part of a filepath so it can't upset the target filesystem.
//
// In order it transliterates non-ASCII characters to their nearest ASCII
// equivalent, replaces each character in replace with an underscore, drops
// every character not in the whitelist, and trims surrounding whitespace.
// It never fails; characters that can't be folded are dropped.
func Clean(part string, replace ...string) string {
	folded, _, err := transform.String(asciiFold, part)
	if err != nil {
		folded = part
	}

	for _, r := range replace {
		folded = strings.ReplaceAll(folded, r, "_")
	}

	var b strings.Builder
	b.Grow(len(folded))
	for _, c := range folded {
		if allowed(c) {
			b.WriteRune(c)
		}
	}

	return strings.TrimSpace(b.String())
}

func allowed(c rune) bool {
	if c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' {
		return true
	}
	return strings.ContainsRune(whitelist, c)
}
