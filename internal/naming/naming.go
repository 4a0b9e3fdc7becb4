// Package naming derives output file names and the public URLs they are
// served under.
package naming

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Sanitize collapses each whitespace run to a single hyphen and drops every
// rune outside [A-Za-z0-9_-]. The result is stable under repeated calls.
func Sanitize(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	inSpace := false
	for _, r := range raw {
		if isSpace(r) {
			if !inSpace {
				b.WriteByte('-')
				inSpace = true
			}
			continue
		}
		inSpace = false
		if allowed(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Transliterate folds accented Latin letters to their ASCII base so that
// "Café" survives sanitizing as "Cafe" instead of "Caf".
func Transliterate(raw string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, raw)
	if err != nil {
		return raw
	}
	return out
}

// Namer turns source base names into output stems.
type Namer struct {
	Transliterate bool
}

// Name sanitizes stem, transliterating first when enabled.
func (n Namer) Name(stem string) string {
	if n.Transliterate {
		stem = Transliterate(stem)
	}
	return Sanitize(stem)
}

// isSpace extends unicode.IsSpace with U+FEFF (zero width no-break space).
func isSpace(r rune) bool {
	return unicode.IsSpace(r) || r == '\ufeff'
}

func allowed(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	case r == '_' || r == '-':
		return true
	}
	return false
}
