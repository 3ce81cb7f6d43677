package slug

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// foldDiacritics decomposes accented letters and strips the combining
// marks, so "Café" folds to "Cafe" before slugging.
var foldDiacritics = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Make derives a URL-safe slug from a display name: diacritics folded
// to their base letters, lower-case, runs of non-alphanumerics collapsed
// to single hyphens, leading/trailing hyphens trimmed. Applied only when
// no explicit slug is supplied.
func Make(name string) string {
	if folded, _, err := transform.String(foldDiacritics, name); err == nil {
		name = folded
	}

	var b strings.Builder
	b.Grow(len(name))

	lastHyphen := true // suppress a leading hyphen
	for _, r := range strings.ToLower(name) {
		if unicode.IsLetter(r) && r < unicode.MaxASCII || unicode.IsDigit(r) {
			b.WriteRune(r)
			lastHyphen = false
			continue
		}
		if !lastHyphen {
			b.WriteByte('-')
			lastHyphen = true
		}
	}

	return strings.TrimRight(b.String(), "-")
}
