// Package textclean normalizes raw extracted text before it is analyzed or
// sent to a model.
package textclean

import (
	"strings"
	"unicode"

	"unveildocs/internal/util"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// extraPunct are the non-word characters kept verbatim.
const extraPunct = `.,!?;:()[]{}"'-/@%&#+*=§`

// Allowed reports whether r survives cleaning.
func Allowed(r rune) bool {
	if isWordRune(r) || unicode.IsSpace(r) {
		return true
	}
	if strings.ContainsRune(extraPunct, r) {
		return true
	}
	return unicode.In(r, unicode.Sc, unicode.Pd, unicode.Pi, unicode.Pf)
}

// Clean sanitizes control characters, replaces characters outside the
// allow-list with spaces, collapses whitespace and title-cases ALL-CAPS
// words. Whitespace runs that contain a blank line become a single
// paragraph break; every other run becomes one space. Clean is idempotent.
func Clean(s string) string {
	s = util.SanitizeText(s)
	if s == "" {
		return ""
	}
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = strings.Map(func(r rune) rune {
		if Allowed(r) {
			return r
		}
		return ' '
	}, s)
	s = collapseSpace(s)
	return repairCaps(s)
}

func collapseSpace(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inRun := false
	newlines := 0
	for _, r := range s {
		if unicode.IsSpace(r) {
			inRun = true
			if r == '\n' {
				newlines++
			}
			continue
		}
		if inRun && b.Len() > 0 {
			if newlines >= 2 {
				b.WriteString("\n\n")
			} else {
				b.WriteByte(' ')
			}
		}
		inRun = false
		newlines = 0
		b.WriteRune(r)
	}
	return b.String()
}

// repairCaps title-cases maximal word runs made only of ASCII capitals,
// the usual shape of OCR and header artifacts.
func repairCaps(s string) string {
	caser := cases.Title(language.Und)
	var b strings.Builder
	b.Grow(len(s))
	start := -1
	flush := func(end int) {
		word := s[start:end]
		if isShouting(word) {
			b.WriteString(caser.String(word))
		} else {
			b.WriteString(word)
		}
		start = -1
	}
	for i, r := range s {
		if isWordRune(r) {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			flush(i)
		}
		b.WriteRune(r)
	}
	if start >= 0 {
		flush(len(s))
	}
	return b.String()
}

func isShouting(word string) bool {
	if len(word) < 2 {
		return false
	}
	for i := 0; i < len(word); i++ {
		if word[i] < 'A' || word[i] > 'Z' {
			return false
		}
	}
	return true
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsNumber(r)
}
