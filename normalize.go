package mindgames

import (
	"regexp"
	"strings"
)

var (
	trailingBeforeNewline = regexp.MustCompile(`[ \t]+(\r?\n)`)
	trailingAtEnd         = regexp.MustCompile(`[ \t]+$`)
)

// TrimLines removes spaces and tabs at the end of every line. Line breaks
// and blank lines are kept, so "abc   \n" becomes "abc\n".
func TrimLines(text string) string {
	cleaned := trailingBeforeNewline.ReplaceAllString(text, "$1")
	return trailingAtEnd.ReplaceAllString(cleaned, "")
}

// Normalize applies TrimLines and trims the whole text. Consecutive blank
// lines are kept as they are.
func Normalize(text string) string {
	return strings.TrimSpace(TrimLines(text))
}
