package textutil

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// NormalizeSpace replaces every run of whitespace (including newlines) with a
// single space and trims both ends.
func NormalizeSpace(value string) string {
	if value == "" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(value))
	pendingSpace := false
	for _, r := range value {
		if unicode.IsSpace(r) {
			pendingSpace = b.Len() > 0
			continue
		}
		if pendingSpace {
			b.WriteByte(' ')
			pendingSpace = false
		}
		b.WriteRune(r)
	}
	return b.String()
}

// NormalizeEntity returns the canonical comparison form of an entity surface
// string: NFC composed, whitespace collapsed. Case is preserved.
func NormalizeEntity(value string) string {
	return NormalizeSpace(norm.NFC.String(value))
}
