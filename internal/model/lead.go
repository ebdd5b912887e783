// Package model defines the core data types shared across the list quality
// engine: leads, analysis results, avatar specs, and verification sessions.
package model

// Lead is one contact record in an imported or discovered list. The lead
// store owns the record; the engine reads it and requests mutations by ID.
// Empty Email/Phone means the field is absent.
type Lead struct {
	ID             string            `json:"id"`
	ListID         string            `json:"list_id"`
	Name           string            `json:"name"`
	Email          string            `json:"email,omitempty"`
	Phone          string            `json:"phone,omitempty"`
	Company        string            `json:"company,omitempty"`
	Title          string            `json:"title,omitempty"`
	SourceURL      string            `json:"source_url,omitempty"`
	SourcePlatform string            `json:"source_platform,omitempty"`
	CustomFields   map[string]string `json:"custom_fields,omitempty"`
}

// HasEmail reports whether the lead carries a non-empty email.
func (l Lead) HasEmail() bool { return l.Email != "" }

// HasPhone reports whether the lead carries a non-empty phone.
func (l Lead) HasPhone() bool { return l.Phone != "" }

// Custom returns a custom field value, or "" when absent.
func (l Lead) Custom(key string) string {
	if l.CustomFields == nil {
		return ""
	}
	return l.CustomFields[key]
}
