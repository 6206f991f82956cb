package textutil

import "strings"

const maxFileTokenLen = 40

// FileToken makes value usable inside a temp file name. Video ids are case
// sensitive, so case is kept; any rune outside [A-Za-z0-9_-] becomes '-'.
// Empty results fall back to "video".
func FileToken(value string) string {
	mapped := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
			return r
		default:
			return '-'
		}
	}, strings.TrimSpace(value))
	mapped = strings.Trim(mapped, "-")
	if len(mapped) > maxFileTokenLen {
		mapped = mapped[:maxFileTokenLen]
	}
	if mapped == "" {
		return "video"
	}
	return mapped
}
