package policy

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/Alexandr1st/libratio-abfcdf53-sub000/internal/domain/admin"
	domainErr "github.com/Alexandr1st/libratio-abfcdf53-sub000/internal/domain/errors"
	"github.com/Alexandr1st/libratio-abfcdf53-sub000/internal/domain/tenant"
)

func TestCanPerform(t *testing.T) {
	ownerID := uuid.New()
	club := tenant.NewTenant(tenant.Draft{Name: "Inklings", Kind: tenant.KindClub}, ownerID, time.Now())

	reader := Actor{ID: uuid.New(), Authenticated: true}
	owner := Actor{ID: ownerID, Authenticated: true}
	moderator := Actor{ID: uuid.New(), Authenticated: true, Roles: []admin.Role{admin.RoleModerator}}
	platformAdmin := Actor{ID: uuid.New(), Authenticated: true, Roles: []admin.Role{admin.RoleAdmin}}
	superAdmin := Actor{ID: uuid.New(), Authenticated: true, Roles: []admin.Role{admin.RoleSuperAdmin}}
	anonymous := Actor{ID: uuid.New()}

	tests := []struct {
		name   string
		actor  Actor
		action Action
		target Target
		want   error
	}{
		{"anonymous denied even for self-service", anonymous, ActionMutateOwnReading, Target{PersonID: anonymous.ID}, domainErr.ErrForbidden},
		{"own reading", reader, ActionMutateOwnReading, Target{PersonID: reader.ID}, nil},
		{"someone else's reading", reader, ActionMutateOwnReading, Target{PersonID: uuid.New()}, domainErr.ErrForbidden},
		{"provision for self", reader, ActionProvisionTenant, Target{PersonID: reader.ID}, nil},
		{"join when not a member", reader, ActionJoinTenant, Target{Tenant: club}, nil},
		{"join when already a member", reader, ActionJoinTenant, Target{Tenant: club, HasMembership: true}, domainErr.ErrAlreadyMember},
		{"owner manages tenant", owner, ActionManageTenant, Target{Tenant: club}, nil},
		{"reader cannot manage tenant", reader, ActionManageTenant, Target{Tenant: club}, domainErr.ErrForbidden},
		{"moderator cannot manage tenant", moderator, ActionManageTenant, Target{Tenant: club}, domainErr.ErrForbidden},
		{"platform admin manages any tenant", platformAdmin, ActionManageTenant, Target{Tenant: club}, nil},
		{"manage without tenant", platformAdmin, ActionManageTenant, Target{}, domainErr.ErrForbidden},
		{"reader cannot edit person", reader, ActionEditPerson, Target{PersonID: uuid.New()}, domainErr.ErrForbidden},
		{"admin edits person", platformAdmin, ActionEditPerson, Target{PersonID: uuid.New()}, nil},
		{"admin grants moderator", platformAdmin, ActionGrantRole, Target{Role: admin.RoleModerator}, nil},
		{"admin cannot grant super_admin", platformAdmin, ActionGrantRole, Target{Role: admin.RoleSuperAdmin}, domainErr.ErrForbidden},
		{"admin cannot revoke super_admin", platformAdmin, ActionRevokeRole, Target{Role: admin.RoleSuperAdmin}, domainErr.ErrForbidden},
		{"super_admin grants super_admin", superAdmin, ActionGrantRole, Target{Role: admin.RoleSuperAdmin}, nil},
		{"unknown action", superAdmin, Action("tenant.explode"), Target{}, domainErr.ErrForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := CanPerform(tt.actor, tt.action, tt.target)
			if tt.want == nil {
				assert.True(t, d.Allowed)
				assert.NoError(t, d.Err())
				return
			}
			assert.False(t, d.Allowed)
			assert.ErrorIs(t, d.Err(), tt.want)
		})
	}
}

func TestEvaluateEffectiveRole(t *testing.T) {
	ownerID := uuid.New()
	club := tenant.NewTenant(tenant.Draft{Name: "Inklings"}, ownerID, time.Now())

	// the owner field wins even when the roster flag says otherwise
	assert.Equal(t, TenantRoleOwner, EvaluateEffectiveRole(club, ownerID, false))
	assert.Equal(t, TenantRoleAdmin, EvaluateEffectiveRole(club, uuid.New(), true))
	assert.Equal(t, TenantRoleMember, EvaluateEffectiveRole(club, uuid.New(), false))
	assert.Equal(t, TenantRoleMember, EvaluateEffectiveRole(nil, ownerID, false))
}
