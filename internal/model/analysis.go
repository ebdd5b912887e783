package model

// FieldKind identifies which lead field an issue or duplicate group refers to.
type FieldKind string

const (
	FieldPhone FieldKind = "phone"
	FieldEmail FieldKind = "email"
)

// IssueKind classifies a detected field problem.
type IssueKind string

const (
	IssueInvalidFormat IssueKind = "invalid_format"
)

// IssueRecord describes one malformed field value together with a fix that
// re-validates cleanly. Issue records are recomputed on every analysis run
// and never persisted.
type IssueRecord struct {
	LeadID       string    `json:"lead_id"`
	Field        FieldKind `json:"field"`
	CurrentValue string    `json:"current_value"`
	Kind         IssueKind `json:"kind"`
	SuggestedFix string    `json:"suggested_fix"`
}

// DuplicateGroup is a set of leads sharing one canonical phone or email
// value. Members are ordered by discovery order; the first member is the one
// the cleaner retains, all others are deletion candidates.
type DuplicateGroup struct {
	Field          FieldKind `json:"field"`
	CanonicalValue string    `json:"canonical_value"`
	MemberIDs      []string  `json:"member_ids"`
}

// sampleCap bounds the display-only sample slices on CleaningAnalysis.
const sampleCap = 10

// CleaningAnalysis is the full snapshot produced by one analyzer pass over a
// list. PhoneIssues, EmailIssues, and DuplicateGroups are the complete sets
// the cleaner operates on; the Sample* accessors are capped projections for
// display and must never drive mutation.
type CleaningAnalysis struct {
	ListID string `json:"list_id"`

	TotalLeads       int `json:"total_leads"`
	DuplicatePhones  int `json:"duplicate_phones"`
	DuplicateEmails  int `json:"duplicate_emails"`
	InvalidPhones    int `json:"invalid_phones"`
	InvalidEmails    int `json:"invalid_emails"`
	MissingPhones    int `json:"missing_phones"`
	MissingEmails    int `json:"missing_emails"`
	MissingNames     int `json:"missing_names"`
	MissingCompanies int `json:"missing_companies"`

	PhoneIssues     []IssueRecord    `json:"phone_issues"`
	EmailIssues     []IssueRecord    `json:"email_issues"`
	DuplicateGroups []DuplicateGroup `json:"duplicate_groups"`

	// QualityScore is the 0-100 heuristic over six issue axes per lead.
	QualityScore int `json:"quality_score"`
}

// SamplePhoneIssues returns at most 10 phone issues for display.
func (a *CleaningAnalysis) SamplePhoneIssues() []IssueRecord {
	return capIssues(a.PhoneIssues)
}

// SampleEmailIssues returns at most 10 email issues for display.
func (a *CleaningAnalysis) SampleEmailIssues() []IssueRecord {
	return capIssues(a.EmailIssues)
}

// SampleDuplicateGroups returns at most 10 duplicate groups for display.
func (a *CleaningAnalysis) SampleDuplicateGroups() []DuplicateGroup {
	if len(a.DuplicateGroups) <= sampleCap {
		return a.DuplicateGroups
	}
	return a.DuplicateGroups[:sampleCap]
}

func capIssues(issues []IssueRecord) []IssueRecord {
	if len(issues) <= sampleCap {
		return issues
	}
	return issues[:sampleCap]
}
