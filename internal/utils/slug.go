package utils

import (
	"strings"
	"unicode"
)

// Slugify lowercases s, trims it and collapses each whitespace run into a
// single hyphen.
func Slugify(s string) string {
	fields := strings.FieldsFunc(strings.ToLower(strings.TrimSpace(s)), unicode.IsSpace)
	return strings.Join(fields, "-")
}
