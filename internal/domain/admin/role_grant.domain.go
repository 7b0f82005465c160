// internal/domain/admin/role_grant.domain.go
package admin

import (
	"time"

	"github.com/google/uuid"
)

// Role is a platform-wide privilege. It is unrelated to the per-tenant
// administrator flag on a membership.
type Role string

const (
	RoleModerator  Role = "moderator"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "super_admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleModerator, RoleAdmin, RoleSuperAdmin:
		return true
	}
	return false
}

// RoleGrant records that PersonID holds Role. A person may hold several.
type RoleGrant struct {
	PersonID  uuid.UUID
	Role      Role
	GrantedBy *uuid.UUID // nil for grants seeded by operators
	GrantedAt time.Time
}

// Has reports whether roles contains any of want.
func Has(roles []Role, want ...Role) bool {
	for _, r := range roles {
		for _, w := range want {
			if r == w {
				return true
			}
		}
	}
	return false
}

// IsPlatformAdmin is true for admin and super_admin holders.
func IsPlatformAdmin(roles []Role) bool {
	return Has(roles, RoleAdmin, RoleSuperAdmin)
}

// RolesOf flattens grants into role names.
func RolesOf(grants []RoleGrant) []Role {
	out := make([]Role, 0, len(grants))
	for _, g := range grants {
		out = append(out, g.Role)
	}
	return out
}
