// src/security/validation/sanitizers.go
package validation

import (
	"html"
	"strings"
	"unicode"

	"github.com/microcosm-cc/bluemonday"
)

var (
	strictHTMLPolicy *bluemonday.Policy
)

func init() {
	// Removes all HTML tags
	strictHTMLPolicy = bluemonday.StrictPolicy()
}

// SanitizeText removes all HTML tags and attributes from an input string,
// preventing XSS before saving it.
func SanitizeText(s string) string {
	return strictHTMLPolicy.Sanitize(s)
}

// StripUnprintable removes non-printable characters, allowing common whitespace
// like space, tab, newline, and carriage return.
func StripUnprintable(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsPrint(r) || r == '\t' || r == '\n' || r == '\r' {
			return r
		}
		return -1
	}, s)
}

// StripTags removes HTML tags like SanitizeText but returns plain text: the
// entities the policy escapes are decoded again, so "l'entrée & SL < 10"
// comes back unchanged. Output must still be escaped when rendered as HTML.
func StripTags(s string) string {
	return html.UnescapeString(SanitizeText(s))
}

// CleanFreeText is the pipeline applied to user annotations: tags stripped,
// unprintable runes dropped, surrounding whitespace trimmed.
func CleanFreeText(s string) string {
	return strings.TrimSpace(StripUnprintable(StripTags(s)))
}
