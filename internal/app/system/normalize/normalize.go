// Package normalize cleans user-supplied submission fields before they are
// stored, embedded in prompts, or sent in emails.
package normalize

import (
	"html"
	"net/mail"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// strict removes every HTML element and attribute.
var strict = bluemonday.StrictPolicy()

// Email trims and lower-cases an email address.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Name trims a person's name and strips markup. Case is preserved.
func Name(s string) string {
	return Text(s)
}

// Text strips markup from free text (names, dietary restrictions) and
// collapses surrounding whitespace. Entities produced by the sanitizer are
// decoded again so "Fish & chips" survives unchanged.
func Text(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(strict.Sanitize(s)))
}

// QueryParam trims a query-string value.
func QueryParam(s string) string {
	return strings.TrimSpace(s)
}

// EmailValid reports whether s is a bare address (no display name).
func EmailValid(s string) bool {
	if s == "" || strings.ContainsAny(s, " <>") {
		return false
	}
	addr, err := mail.ParseAddress(s)
	if err != nil {
		return false
	}
	return addr.Address == s && strings.Contains(s[strings.LastIndex(s, "@")+1:], ".")
}
