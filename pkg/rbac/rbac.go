// Package rbac holds the lead lifecycle authorization policy as pure
// decision tables, independent of orchestration and storage so the policy
// is testable in isolation.
package rbac

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/mrk-construction/crm-engine/pkg/apperrors"
	"github.com/mrk-construction/crm-engine/pkg/models"
)

// qualifierForbiddenTargets are statuses a qualifier may never transition
// a lead into. Closing outcomes belong to closers and admins.
var qualifierForbiddenTargets = map[string]struct{}{
	models.StatusWon:  {},
	models.StatusLost: {},
}

// CheckTransition validates that a user with the given role may move a
// lead to toStatus. The lifecycle does not restrict which statuses can
// follow which; only role authorization limits entry into targets.
func CheckTransition(role, toStatus string) error {
	if !models.IsValidStatus(toStatus) {
		return fmt.Errorf("%w: unknown status %q", apperrors.ErrValidation, toStatus)
	}

	switch role {
	case models.RoleAdmin, models.RoleCloser:
		return nil
	case models.RoleQualifier:
		if _, forbidden := qualifierForbiddenTargets[toStatus]; forbidden {
			return fmt.Errorf("%w: qualifiers may not set won or lost", apperrors.ErrForbidden)
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown role %q", apperrors.ErrForbidden, role)
	}
}

// CanViewLead reports whether the user may see the given lead.
// Admins see everything. Qualifiers see new leads, unassigned leads and
// their own. Closers see only leads assigned to them.
func CanViewLead(user *models.User, status string, qualifierID, closerID *uuid.UUID) bool {
	switch user.Role {
	case models.RoleAdmin:
		return true
	case models.RoleQualifier:
		if status == models.StatusNewLead {
			return true
		}
		if qualifierID == nil {
			return true
		}
		return *qualifierID == user.ID
	case models.RoleCloser:
		return closerID != nil && *closerID == user.ID
	default:
		return false
	}
}

// RequireAdmin returns ErrForbidden unless the user is an admin.
func RequireAdmin(user *models.User) error {
	if user.Role != models.RoleAdmin {
		return fmt.Errorf("%w: admin only", apperrors.ErrForbidden)
	}
	return nil
}

// RequireRole returns ErrForbidden unless the user holds one of roles.
func RequireRole(user *models.User, roles ...string) error {
	for _, r := range roles {
		if user.Role == r {
			return nil
		}
	}
	return fmt.Errorf("%w: role %s not permitted", apperrors.ErrForbidden, user.Role)
}
