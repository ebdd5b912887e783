package model

// EmployeeRange bounds company headcount. Max 0 means unbounded.
type EmployeeRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// ContactRules constrain which leads are considered reachable.
type ContactRules struct {
	RequireEmail         bool `json:"require_email"`
	RequirePersonalPhone bool `json:"require_personal_phone"`
	RequireCompanyDomain bool `json:"require_company_domain"`
}

// Weighting distributes scoring weight across the five dimensions. The
// weights sum to 1.0 by convention; this is not enforced.
type Weighting struct {
	Firmographic   float64 `json:"firmographic"`
	Role           float64 `json:"role"`
	Intent         float64 `json:"intent"`
	Tech           float64 `json:"tech"`
	Contactability float64 `json:"contactability"`
}

// Thresholds split classifier scores into accept/review/reject bands.
// AcceptMin must be >= ReviewMin.
type Thresholds struct {
	AcceptMin float64 `json:"accept_min"`
	ReviewMin float64 `json:"review_min"`
}

// AvatarSpec is a structured description of the ideal customer, used as the
// scoring input for the external classifier. A spec is immutable once
// submitted to a verification session.
type AvatarSpec struct {
	Name                   string        `json:"name"`
	Geography              []string      `json:"geography"`
	Industries             []string      `json:"industries"`
	EmployeeRange          EmployeeRange `json:"employee_range"`
	RevenueMinUSD          int64         `json:"revenue_min_usd"`
	RolesPrimary           []string      `json:"roles_primary"`
	RolesSecondary         []string      `json:"roles_secondary"`
	ExcludeTitleSubstrings []string      `json:"exclude_title_substrings"`
	IntentSignals          []string      `json:"intent_signals"`
	TechSignals            []string      `json:"tech_signals"`
	ContactRules           ContactRules  `json:"contact_rules"`
	Weighting              Weighting     `json:"weighting"`
	Thresholds             Thresholds    `json:"thresholds"`
}

// DefaultWeighting is applied to extracted avatars that carry no explicit
// weighting preferences.
func DefaultWeighting() Weighting {
	return Weighting{
		Firmographic:   0.35,
		Role:           0.25,
		Intent:         0.15,
		Tech:           0.10,
		Contactability: 0.15,
	}
}

// DefaultThresholds returns the standard accept/review score bands.
func DefaultThresholds() Thresholds {
	return Thresholds{AcceptMin: 0.70, ReviewMin: 0.45}
}
