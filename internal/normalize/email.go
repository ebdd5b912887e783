package normalize

import (
	"regexp"
	"strings"
)

// emailShapeRe matches the standard local@domain.tld shape.
var emailShapeRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// EmailResult is the outcome of normalizing one email value.
type EmailResult struct {
	// Clean is the dedup key and the canonical storage form: lower-cased
	// and trimmed.
	Clean string
	// Valid means the raw value is already in canonical valid form.
	Valid bool
	// Fixable means the value is not valid as stored but its canonical
	// form re-validates, so Clean is a safe suggested fix.
	Fixable bool
}

// Email canonicalizes and validates a raw email value. Total: unparseable
// input yields Valid=false, never an error.
func Email(raw string) EmailResult {
	clean := strings.ToLower(strings.TrimSpace(raw))
	shapeOK := clean != "" && emailShapeRe.MatchString(clean)
	valid := shapeOK && raw == clean
	return EmailResult{
		Clean:   clean,
		Valid:   valid,
		Fixable: shapeOK && !valid,
	}
}

// EmailDomain returns the domain part of a validated email, or "".
func EmailDomain(email string) string {
	at := strings.LastIndex(email, "@")
	if at < 0 || at == len(email)-1 {
		return ""
	}
	return email[at+1:]
}
