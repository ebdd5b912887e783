// Package avatar builds structured ideal-customer specifications, either by
// validating a form-supplied spec or by extracting one from free text with
// deterministic keyword rules.
package avatar

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/mazirhxxx/listlab/internal/model"
	"github.com/mazirhxxx/listlab/internal/normalize"
)

// PlaceholderName is used when no usable name can be derived from the text.
const PlaceholderName = "Custom Avatar"

const maxNameLen = 50

var (
	employeeRangeRe = regexp.MustCompile(`(\d+)\s*[-–]\s*(\d+)\s*employees?`)
	// "revenue" may sit on either side of the amount: "$10m in revenue" or
	// "revenue $10m+".
	revenueAfterRe  = regexp.MustCompile(`\$(\d+)([mk]?)\+?\s*(?:in\s+)?revenue`)
	revenueBeforeRe = regexp.MustCompile(`revenue\s*(?:of\s+)?\$(\d+)([mk]?)\+?`)
)

// Qualitative headcount buckets, applied only when no explicit range exists.
var sizeBuckets = []struct {
	keywords []string
	min, max int
}{
	{[]string{"startup", "small"}, 1, 50},
	{[]string{"medium", "mid-size", "midsize"}, 51, 200},
	{[]string{"large", "enterprise"}, 201, 0},
}

// ExtractFromText derives an AvatarSpec from a free-form description using
// fixed keyword and pattern rules. Every rule runs independently; unmatched
// categories stay empty and the call never fails. Callers decide usability,
// typically via Validate before submitting the spec for verification.
func ExtractFromText(text string) model.AvatarSpec {
	lower := strings.ToLower(text)
	tables := loadRules()

	spec := model.AvatarSpec{
		Name:       deriveName(text),
		Weighting:  model.DefaultWeighting(),
		Thresholds: model.DefaultThresholds(),
		ContactRules: model.ContactRules{
			RequireEmail: true,
		},
	}

	for _, place := range tables.Gazetteer {
		if containsWord(lower, place) {
			appendUnique(&spec.Geography, normalize.TitleCase(place))
		}
	}

	for _, label := range tables.industryOrder {
		for _, kw := range tables.Industries[label] {
			if strings.Contains(lower, kw) {
				appendUnique(&spec.Industries, label)
				break
			}
		}
	}

	spec.EmployeeRange = extractEmployeeRange(lower)
	spec.RevenueMinUSD = extractRevenueMin(lower)

	for _, role := range tables.RolesPrimary {
		if strings.Contains(lower, role) {
			appendUnique(&spec.RolesPrimary, normalize.TitleCase(role))
		}
	}
	for _, role := range tables.RolesSecondary {
		if strings.Contains(lower, role) {
			appendUnique(&spec.RolesSecondary, normalize.TitleCase(role))
		}
	}

	for kw, label := range tables.IntentSignals {
		if strings.Contains(lower, kw) {
			appendUnique(&spec.IntentSignals, label)
		}
	}
	for kw, label := range tables.TechSignals {
		if strings.Contains(lower, kw) {
			appendUnique(&spec.TechSignals, label)
		}
	}

	return spec
}

// deriveName takes the text up to the first period, truncated to 50 chars.
func deriveName(text string) string {
	name := strings.TrimSpace(text)
	if idx := strings.Index(name, "."); idx >= 0 {
		name = strings.TrimSpace(name[:idx])
	}
	if name == "" {
		return PlaceholderName
	}
	if runes := []rune(name); len(runes) > maxNameLen {
		name = string(runes[:maxNameLen]) + "…"
	}
	return name
}

func extractEmployeeRange(lower string) model.EmployeeRange {
	// An explicit numeric range always wins over qualitative terms.
	if m := employeeRangeRe.FindStringSubmatch(lower); m != nil {
		min, err1 := strconv.Atoi(m[1])
		max, err2 := strconv.Atoi(m[2])
		if err1 == nil && err2 == nil {
			return model.EmployeeRange{Min: min, Max: max}
		}
	}
	for _, bucket := range sizeBuckets {
		for _, kw := range bucket.keywords {
			if strings.Contains(lower, kw) {
				return model.EmployeeRange{Min: bucket.min, Max: bucket.max}
			}
		}
	}
	return model.EmployeeRange{}
}

func extractRevenueMin(lower string) int64 {
	m := revenueAfterRe.FindStringSubmatch(lower)
	if m == nil {
		m = revenueBeforeRe.FindStringSubmatch(lower)
	}
	if m == nil {
		return 0
	}
	n, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return 0
	}
	switch m[2] {
	case "m":
		return n * 1_000_000
	case "k":
		return n * 1_000
	default:
		return n
	}
}

// containsWord matches place names on word boundaries so short gazetteer
// entries ("us", "uk") don't fire inside other words.
func containsWord(text, word string) bool {
	idx := 0
	for {
		i := strings.Index(text[idx:], word)
		if i < 0 {
			return false
		}
		start := idx + i
		end := start + len(word)
		beforeOK := start == 0 || !isAlnum(text[start-1])
		afterOK := end == len(text) || !isAlnum(text[end])
		if beforeOK && afterOK {
			return true
		}
		idx = start + 1
	}
}

func isAlnum(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= '0' && b <= '9')
}

func appendUnique(dst *[]string, v string) {
	for _, existing := range *dst {
		if existing == v {
			return
		}
	}
	*dst = append(*dst, v)
}
