package normalize

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// namePlaceholders are values list imports commonly use for an unknown name.
var namePlaceholders = map[string]bool{
	"unknown": true,
	"n/a":     true,
	"na":      true,
	"null":    true,
	"none":    true,
	"-":       true,
	"--":      true,
	".":       true,
}

// IsPlaceholderName reports whether the name is empty or a known junk value.
func IsPlaceholderName(name string) bool {
	trimmed := strings.ToLower(strings.TrimSpace(name))
	return trimmed == "" || namePlaceholders[trimmed]
}

// TitleCase rewrites s to title case per word.
func TitleCase(s string) string {
	return cases.Title(language.English).String(strings.TrimSpace(s))
}
