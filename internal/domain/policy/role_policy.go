// internal/domain/policy/role_policy.go
package policy

import (
	"github.com/google/uuid"

	"github.com/Alexandr1st/libratio-abfcdf53-sub000/internal/domain/admin"
	domainErr "github.com/Alexandr1st/libratio-abfcdf53-sub000/internal/domain/errors"
	"github.com/Alexandr1st/libratio-abfcdf53-sub000/internal/domain/tenant"
)

// Principal is what the identity provider tells us about the caller: an id and
// whether the session is authenticated. Roles never come from there.
type Principal struct {
	ID            uuid.UUID
	Authenticated bool
}

// Actor is a principal enriched with the facts loaded from our own store.
type Actor struct {
	ID            uuid.UUID
	Authenticated bool
	Roles         []admin.Role
}

type Action string

const (
	// platform-admin actions
	ActionCreatePerson  Action = "person.create"
	ActionDeletePerson  Action = "person.delete"
	ActionEditPerson    Action = "person.edit"
	ActionGrantRole     Action = "role.grant"
	ActionRevokeRole    Action = "role.revoke"
	ActionEditAnyTenant Action = "tenant.edit_any"

	// tenant management: profile, library, roster
	ActionManageTenant Action = "tenant.manage"

	ActionJoinTenant Action = "tenant.join"

	// self-service
	ActionMutateOwnReading    Action = "reading.mutate_own"
	ActionMutateOwnMembership Action = "membership.mutate_own"
	ActionMutateOwnProfile    Action = "profile.mutate_own"
	ActionProvisionTenant     Action = "tenant.provision"
)

// Target carries the facts about the resource being acted on. Only the fields
// the action's rule reads need to be filled.
type Target struct {
	PersonID      uuid.UUID
	Tenant        *tenant.Tenant
	HasMembership bool
	Role          admin.Role
}

// Decision is a normal return value. A deny is expected control flow and is
// never retried.
type Decision struct {
	Allowed bool
	Reason  error
}

// Err returns nil for allow and the deny reason otherwise.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	return d.Reason
}

var allow = Decision{Allowed: true}

func deny(reason error) Decision { return Decision{Reason: reason} }

func (a Action) requiresPlatformAdmin() bool {
	switch a {
	case ActionCreatePerson, ActionDeletePerson, ActionEditPerson,
		ActionGrantRole, ActionRevokeRole, ActionEditAnyTenant:
		return true
	}
	return false
}

func (a Action) isSelfService() bool {
	switch a {
	case ActionMutateOwnReading, ActionMutateOwnMembership, ActionMutateOwnProfile, ActionProvisionTenant:
		return true
	}
	return false
}

// CanPerform is the single source of truth for permissions. It is pure: every
// fact it needs is on actor or target. Rules are checked in order and the
// first one that matches the action decides.
func CanPerform(actor Actor, action Action, target Target) Decision {
	if !actor.Authenticated || actor.ID == uuid.Nil {
		return deny(domainErr.ErrForbidden)
	}

	switch {
	case action.requiresPlatformAdmin():
		if !admin.IsPlatformAdmin(actor.Roles) {
			return deny(domainErr.ErrForbidden)
		}
		// Only super_admin may hand out or take away super_admin.
		if (action == ActionGrantRole || action == ActionRevokeRole) &&
			target.Role == admin.RoleSuperAdmin &&
			!admin.Has(actor.Roles, admin.RoleSuperAdmin) {
			return deny(domainErr.ErrForbidden)
		}
		return allow

	case action == ActionManageTenant:
		if target.Tenant == nil {
			return deny(domainErr.ErrForbidden)
		}
		// The owner field overrides anything the roster says; platform admins
		// override the owner.
		if target.Tenant.IsOwnedBy(actor.ID) || admin.IsPlatformAdmin(actor.Roles) {
			return allow
		}
		return deny(domainErr.ErrForbidden)

	case action == ActionJoinTenant:
		if target.HasMembership {
			return deny(domainErr.ErrAlreadyMember)
		}
		return allow

	case action.isSelfService():
		if target.PersonID == actor.ID {
			return allow
		}
		return deny(domainErr.ErrForbidden)
	}

	return deny(domainErr.ErrForbidden)
}

// EffectiveTenantRole is what the UI shows next to a member.
type EffectiveTenantRole string

const (
	TenantRoleOwner  EffectiveTenantRole = "owner"
	TenantRoleAdmin  EffectiveTenantRole = "admin"
	TenantRoleMember EffectiveTenantRole = "member"
)

// EvaluateEffectiveRole calculates a member's authority inside one tenant.
// The owner recorded on the tenant always wins over the membership flag.
func EvaluateEffectiveRole(t *tenant.Tenant, personID uuid.UUID, isAdmin bool) EffectiveTenantRole {
	if t != nil && t.IsOwnedBy(personID) {
		return TenantRoleOwner
	}
	if isAdmin {
		return TenantRoleAdmin
	}
	return TenantRoleMember
}
