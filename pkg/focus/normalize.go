package focus

import (
	"regexp"
	"strings"
)

// Normalization keeps word characters, whitespace, hyphen and slash;
// everything else becomes a space before whitespace is collapsed.
var (
	nonWordRE    = regexp.MustCompile(`[^\p{L}\p{N}_\s\-/]`)
	whitespaceRE = regexp.MustCompile(`\s+`)
)

// Normalize lowercases text, strips unwanted punctuation and collapses
// whitespace. Empty input yields the empty string.
func Normalize(text string) string {
	if text == "" {
		return ""
	}
	t := strings.ToLower(text)
	t = nonWordRE.ReplaceAllString(t, " ")
	t = whitespaceRE.ReplaceAllString(t, " ")
	return strings.TrimSpace(t)
}
