package auth

import (
	"github.com/google/uuid"

	"stockdesk/internal/apperror"
)

type Role string

const (
	RoleAdmin     Role = "admin"
	RoleStaff     Role = "staff"
	RoleWarehouse Role = "warehouse"
)

// ParseRole maps a token role claim to a Role. "user" is the legacy name for staff.
func ParseRole(s string) (Role, bool) {
	switch s {
	case string(RoleAdmin):
		return RoleAdmin, true
	case string(RoleStaff), "user":
		return RoleStaff, true
	case string(RoleWarehouse):
		return RoleWarehouse, true
	}
	return "", false
}

// Principal is the authenticated caller of an operation.
type Principal struct {
	ID   uuid.UUID
	Name string
	Role Role
}

func (p *Principal) Is(roles ...Role) bool {
	if p == nil {
		return false
	}
	for _, r := range roles {
		if p.Role == r {
			return true
		}
	}
	return false
}

// Require fails with Unauthorized when there is no principal and with Forbidden
// when the principal holds none of roles. An empty roles list admits any principal.
func Require(p *Principal, roles ...Role) error {
	if p == nil {
		return apperror.Unauthorized("Authentication required")
	}
	if len(roles) == 0 || p.Is(roles...) {
		return nil
	}
	return apperror.Forbidden("Access denied: insufficient permissions")
}
