package avatar

import (
	"strings"

	"github.com/mazirhxxx/listlab/internal/model"
	"github.com/mazirhxxx/listlab/internal/resilience"
)

// Validate checks that a spec is usable as verification input. Violations
// return a ValidationError naming the offending field. The same rules apply
// to form-supplied specs and extracted ones before submission.
func Validate(spec model.AvatarSpec) error {
	if strings.TrimSpace(spec.Name) == "" {
		return resilience.NewValidationError("name", "avatar name is required")
	}
	if len(spec.Geography) == 0 && len(spec.Industries) == 0 {
		return resilience.NewValidationError("geography", "at least one geography or industry is required")
	}
	if len(spec.RolesPrimary) == 0 {
		return resilience.NewValidationError("roles_primary", "at least one primary role is required")
	}
	if spec.Thresholds.AcceptMin < spec.Thresholds.ReviewMin {
		return resilience.NewValidationError("thresholds", "accept_min must be >= review_min")
	}
	return nil
}
