package validation

import (
	"regexp"
	"strings"
)

var whitespaceRun = regexp.MustCompile(`\s+`)

// CategorySlug derives a category slug: lower-cased, trimmed, whitespace runs replaced by "-".
func CategorySlug(name string) string {
	return whitespaceRun.ReplaceAllString(strings.ToLower(strings.TrimSpace(name)), "-")
}

// NormalizeSlug trims and lower-cases a client-supplied post slug.
func NormalizeSlug(slug string) string {
	return strings.ToLower(strings.TrimSpace(slug))
}
