// Package normalize provides pure canonicalization and validation for lead
// contact fields. Canonical values are dedup keys only; suggested fixes are
// the values written back to storage.
package normalize

import (
	"regexp"
	"strings"
)

// phoneShapeRe is the permissive shape a valid phone must match: digits with
// optional leading +, separators, and parens.
var phoneShapeRe = regexp.MustCompile(`^\+?[0-9\s\-()]+$`)

// PhoneResult is the outcome of normalizing one phone value.
type PhoneResult struct {
	// Clean is the dedup key: the raw value with all whitespace stripped.
	// It is not the suggested fix.
	Clean string
	Valid bool
	// SuggestedFix is a re-validating replacement value. Empty when the
	// input is already valid.
	SuggestedFix string
}

// Phone canonicalizes and validates a raw phone value. It is total: any
// input yields a result, never an error.
func Phone(raw string) PhoneResult {
	trimmed := strings.TrimSpace(raw)
	clean := stripWhitespace(trimmed)
	digits := Digits(trimmed)

	if trimmed != "" && phoneShapeRe.MatchString(trimmed) && len(digits) >= 10 {
		return PhoneResult{Clean: clean, Valid: true}
	}

	var fix string
	switch {
	case len(digits) == 10:
		// Bare US number.
		fix = "+1" + digits
	case len(digits) == 11 && digits[0] == '1':
		fix = "+" + digits
	default:
		fix = "+1" + digits
	}

	// A fix that would not itself validate is no fix at all; values with
	// too few digits have no deterministic repair.
	if len(Digits(fix)) < 10 {
		fix = ""
	}

	return PhoneResult{Clean: clean, Valid: false, SuggestedFix: fix}
}

// Digits returns only the decimal digits of s.
func Digits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func stripWhitespace(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case ' ', '\t', '\n', '\r':
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
