package textutil

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/gosimple/slug"
)

// HumanizeField turns an API field name into a display label by replacing
// underscores with spaces and upper-casing the first letter of each word.
// "start_date" becomes "Start Date"; "foo-bar" becomes "Foo-bar".
func HumanizeField(field string) string {
	var b strings.Builder
	b.Grow(len(field))
	wordStart := true
	for _, r := range strings.ReplaceAll(field, "_", " ") {
		if wordStart {
			r = unicode.ToUpper(r)
		}
		b.WriteRune(r)
		wordStart = isWordBreak(r)
	}
	return b.String()
}

func isWordBreak(r rune) bool {
	switch r {
	case ' ', '\t', '\r', '\n', '\f', '\v':
		return true
	}
	return false
}

// FieldClass returns a CSS class for a field, e.g. "procore-field-start-date"
func FieldClass(field string) string {
	s := slug.Make(strings.ReplaceAll(field, "_", "-"))
	if s == "" {
		return "procore-field"
	}
	return "procore-field-" + s
}

// Truncate shortens s to at most max runes, adding an ellipsis when cut
func Truncate(s string, max int) string {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}
