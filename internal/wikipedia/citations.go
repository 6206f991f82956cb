package wikipedia

import (
	"regexp"

	"timelines/internal/textutil"
)

var citationPattern = regexp.MustCompile(`\[\d+\]`)

// StripCitations removes bracketed numeric footnote markers such as "[12]"
// and collapses the whitespace left behind.
func StripCitations(text string) string {
	return textutil.NormalizeSpace(citationPattern.ReplaceAllString(text, ""))
}
