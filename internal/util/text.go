// Package util holds small text helpers shared by services and handlers.
package util

import (
	"regexp"
	"strings"
	"unicode"
)

// MaxNoteLength bounds free-text notes and reasons written to audit trails.
const MaxNoteLength = 500

var unsafeFilenameChars = regexp.MustCompile(`[<>:"/\\|?*\s]+`)

// CleanText strips control and invisible characters from user-supplied free
// text, collapses runs of whitespace and truncates to maxRunes (0 means no
// limit). Audit details and CSV cells only ever see the cleaned value.
func CleanText(s string, maxRunes int) string {
	var b strings.Builder
	b.Grow(len(s))

	space := false
	for _, r := range s {
		switch {
		case unicode.IsSpace(r):
			space = b.Len() > 0
			continue
		case unicode.IsControl(r) || isInvisibleUnicode(r):
			continue
		}
		if space {
			b.WriteByte(' ')
			space = false
		}
		b.WriteRune(r)
	}

	cleaned := b.String()
	if maxRunes > 0 {
		runes := []rune(cleaned)
		if len(runes) > maxRunes {
			cleaned = strings.TrimSpace(string(runes[:maxRunes]))
		}
	}
	return cleaned
}

// SafeFilename turns a label into something usable inside a quoted
// Content-Disposition filename.
func SafeFilename(name string) string {
	cleaned := CleanText(name, 100)
	cleaned = unsafeFilenameChars.ReplaceAllString(cleaned, "-")
	cleaned = strings.Trim(cleaned, "-.")
	if cleaned == "" {
		return "export"
	}
	return cleaned
}

func isInvisibleUnicode(r rune) bool {
	switch r {
	case '\u200B', '\u200C', '\u200D', '\u200E', '\u200F', '\u2060', '\uFEFF':
		return true
	}

	return unicode.Is(unicode.Cf, r)
}
