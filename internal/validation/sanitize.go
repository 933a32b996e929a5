package validation

import (
	"regexp"
	"strings"
)

var whitespaceRe = regexp.MustCompile(`\s+`)

// Sanitize normalizes free text before storage: strips the characters the
// validators forbid, collapses whitespace runs to a single space, and trims
// the ends. Sanitize is idempotent.
func Sanitize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch r {
		case '<', '>', '{', '}', '[', ']', '\\':
			continue
		}
		b.WriteRune(r)
	}
	out := whitespaceRe.ReplaceAllString(b.String(), " ")
	return strings.TrimSpace(out)
}
