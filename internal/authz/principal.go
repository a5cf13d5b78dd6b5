// Package authz decides whether an authenticated principal may perform a
// guarded action.
//
// A principal is allowed when it is an active superuser, when it holds the
// permission directly, or when its assigned role declares it. Roles do not
// inherit from each other.
package authz

import "github.com/geocoder89/labhub/internal/domain/permission"

// Principal is the authenticated identity attached to a request.
type Principal struct {
	UserID          string           `json:"userId"`
	Email           string           `json:"email"`
	Name            string           `json:"name"`
	IsActive        bool             `json:"isActive"`
	IsStaff         bool             `json:"isStaff"`
	IsSuperuser     bool             `json:"isSuperuser"`
	Role            string           `json:"role,omitempty"`
	RoleActive      bool             `json:"roleActive,omitempty"`
	Permissions     []permission.Key `json:"permissions,omitempty"`
	RolePermissions []permission.Key `json:"rolePermissions,omitempty"`
}

func (p Principal) HasRole() bool {
	return p.Role != ""
}
