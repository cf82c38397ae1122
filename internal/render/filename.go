package render

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	maxSlugRunes    = 80
	filenameSuffix  = "_article.md"
	defaultFilename = "article.md"
)

// DeriveFilename turns a topic into a download name such as
// "quantum_computing_in_2025_article.md".
func DeriveFilename(topic string) string {
	slug := Slug(topic)
	if slug == "" {
		return defaultFilename
	}
	return slug + filenameSuffix
}

// Slug lower-cases s, drops accents and collapses every run of other
// characters into a single underscore.
func Slug(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	plain, _, err := transform.String(t, s)
	if err != nil {
		plain = s
	}

	var b strings.Builder
	pending := false
	n := 0
	for _, r := range strings.ToLower(plain) {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			if pending && b.Len() > 0 {
				if n+1 >= maxSlugRunes {
					break
				}
				b.WriteByte('_')
				n++
			}
			pending = false
			b.WriteRune(r)
			n++
			if n >= maxSlugRunes {
				break
			}
			continue
		}
		pending = true
	}
	return b.String()
}
