package util

import "strings"

// SanitizeText removes NUL and other non-printing control characters that
// PDF and Office extractors leak into text. Newlines, carriage returns and
// tabs survive.
func SanitizeText(s string) string {
	if s == "" {
		return s
	}
	s = strings.ReplaceAll(s, "\x00", "")

	r := make([]rune, 0, len(s))
	for _, ch := range s {
		if ch == '\n' || ch == '\r' || ch == '\t' {
			r = append(r, ch)
			continue
		}
		if ch < 0x20 || ch == 0x7f || (ch >= 0x80 && ch < 0xa0) || ch == '\ufffd' || ch == '\ufeff' {
			continue
		}
		r = append(r, ch)
	}
	return strings.TrimSpace(string(r))
}

// CountWords counts whitespace-separated tokens.
func CountWords(s string) int {
	return len(strings.Fields(s))
}
