package api

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

const (
	maxMessageLength = 2000
	maxQueryLength   = 200
)

var inputPolicy = bluemonday.StrictPolicy()

// sanitizeText strips markup from untrusted input and caps its
// length in runes.
func sanitizeText(input string, maxLen int) string {
	input = inputPolicy.Sanitize(input)
	input = html.UnescapeString(input)
	input = strings.TrimSpace(input)

	runes := []rune(input)
	if len(runes) > maxLen {
		input = string(runes[:maxLen])
	}
	return input
}
