// Package textclean normalizes raw text pulled out of article markup.
package textclean

import (
	"regexp"
	"strings"
)

var (
	nonWord    = regexp.MustCompile(`\W`)
	whitespace = regexp.MustCompile(`\s+`)
)

// Clean replaces every character outside [A-Za-z0-9_] with a space,
// collapses runs of whitespace and trims the result.
func Clean(text string) string {
	text = nonWord.ReplaceAllString(text, " ")
	text = whitespace.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}
