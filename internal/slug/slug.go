// Package slug derives URL-safe identifiers from content names.
package slug

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	nonAlnum = regexp.MustCompile(`[^a-z0-9\s-]`)
	spaces   = regexp.MustCompile(`\s+`)
	hyphens  = regexp.MustCompile(`-{2,}`)
)

// stripDiacritics decomposes to NFD and drops combining marks, so that
// "Éla" slugs to "ela".
var stripDiacritics = transform.Chain(
	norm.NFD,
	runes.Remove(runes.In(unicode.Mn)),
	norm.NFC,
)

// Make converts a display name into a slug: lowercase, diacritics stripped,
// non-alphanumerics removed, whitespace hyphenated, repeated hyphens
// collapsed. An unusable name yields the empty string.
func Make(name string) string {
	s, _, err := transform.String(stripDiacritics, name)
	if err != nil {
		s = name
	}
	s = strings.ToLower(s)
	s = nonAlnum.ReplaceAllString(s, "")
	s = spaces.ReplaceAllString(strings.TrimSpace(s), "-")
	s = hyphens.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}
