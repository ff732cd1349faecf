// internal/app/system/htmlsanitize/htmlsanitize.go
package htmlsanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// strict drops every tag. Script and style bodies are dropped with their tags.
var strict = bluemonday.StrictPolicy()

// PlainText reduces user-supplied text (names, titles, descriptions) to
// plain text: markup is stripped and entities are decoded so the stored
// value is what the user would see.
func PlainText(s string) string {
	if s == "" {
		return ""
	}
	if IsPlainText(s) {
		return strings.TrimSpace(s)
	}
	return strings.TrimSpace(html.UnescapeString(strict.Sanitize(s)))
}

// IsPlainText reports whether s contains no tag-like sequence.
func IsPlainText(s string) bool {
	lt := strings.Index(s, "<")
	if lt < 0 {
		return true
	}
	return !strings.Contains(s[lt:], ">")
}
