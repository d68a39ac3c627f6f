package generator

import (
	"regexp"
	"strings"
)

var tagPattern = regexp.MustCompile(`<.*?>`)

var markupReplacer = strings.NewReplacer("**", "", "### ", "", "## ", "")

// Sanitize removes emphasis/heading markup and inline tags from generated text.
// It is applied until the text stops changing, so Sanitize(Sanitize(s)) == Sanitize(s).
func Sanitize(text string) string {
	for {
		next := strings.TrimSpace(tagPattern.ReplaceAllString(markupReplacer.Replace(text), ""))
		if next == text {
			return next
		}
		text = next
	}
}

// Clip cuts s to at most max runes, ending with "..." when cut.
func Clip(s string, max int) string {
	rs := []rune(s)
	if len(rs) <= max {
		return s
	}
	if max <= 3 {
		return string(rs[:max])
	}
	return strings.TrimRightFunc(string(rs[:max-3]), isSpace) + "..."
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\n' || r == '\t' || r == '\r'
}
