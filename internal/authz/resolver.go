package authz

import (
	"slices"

	"github.com/geocoder89/labhub/internal/domain/permission"
)

// HasPermission is pure: it only looks at what the principal carries.
func HasPermission(p Principal, key permission.Key) bool {
	if !p.IsActive {
		return false
	}

	if p.IsSuperuser {
		return true
	}

	if slices.Contains(p.Permissions, key) {
		return true
	}

	if !p.HasRole() || !p.RoleActive {
		return false
	}

	return slices.Contains(p.RolePermissions, key)
}

// Checker adapts HasPermission for callers that want an injectable dependency.
type Checker interface {
	HasPermission(p Principal, key permission.Key) bool
}

type CheckerFunc func(p Principal, key permission.Key) bool

func (f CheckerFunc) HasPermission(p Principal, key permission.Key) bool {
	return f(p, key)
}

// Default is the resolver used by the HTTP guard.
var Default Checker = CheckerFunc(HasPermission)
