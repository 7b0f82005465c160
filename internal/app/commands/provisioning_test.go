package commands

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alexandr1st/libratio-abfcdf53-sub000/internal/domain/audit"
	domainErr "github.com/Alexandr1st/libratio-abfcdf53-sub000/internal/domain/errors"
	"github.com/Alexandr1st/libratio-abfcdf53-sub000/internal/domain/tenant"
)

func TestProvisionTenant_HappyPath(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	owner := h.register(t, "Ada")

	res, err := h.provisionCmd().Handle(ctx, owner, tenant.Draft{Name: " Inklings ", Kind: tenant.KindClub})
	require.NoError(t, err)
	assert.True(t, res.Created)
	assert.Equal(t, []Step{StepCreateTenant, StepCreateMembership, StepLinkPerson}, res.Completed)
	assert.Equal(t, "Inklings", res.Tenant.Name)
	assert.True(t, res.Tenant.IsOwnedBy(owner.ID))

	m, err := h.store.GetMember(ctx, owner.ID, res.Tenant.TenantID)
	require.NoError(t, err)
	assert.True(t, m.IsAdmin)

	p, err := h.store.GetPersonByID(ctx, owner.ID)
	require.NoError(t, err)
	assert.True(t, p.PointsAt(res.Tenant.TenantID))
	assert.Equal(t, "Inklings", *p.ClubName)
	assert.Equal(t, 1, h.eventCount(audit.ActionTenantProvisioned))
}

func TestProvisionTenant_Rejections(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	owner := h.register(t, "Ada")

	_, err := h.provisionCmd().Handle(ctx, owner, tenant.Draft{Name: "   "})
	assert.ErrorIs(t, err, domainErr.ErrValidation)

	stranger := owner
	stranger.ID = uuid.New()
	_, err = h.provisionCmd().Handle(ctx, stranger, tenant.Draft{Name: "Inklings"})
	assert.ErrorIs(t, err, domainErr.ErrPersonNotFound)

	h.store.FailNext("CreateTenant", transient("create_tenant"), 1)
	_, err = h.provisionCmd().Handle(ctx, owner, tenant.Draft{Name: "Inklings"})
	assert.ErrorIs(t, err, domainErr.ErrTransientStore)
	assert.NotErrorIs(t, err, domainErr.ErrPartialFailure)
	assert.Equal(t, 0, h.store.TenantCount())
}

func TestProvisionTenant_MembershipStepFailsThenCompletes(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	owner := h.register(t, "Ada")
	h.store.FailNext("UpsertMembership", transient("upsert_membership"), 3)

	res, err := h.provisionCmd().Handle(ctx, owner, tenant.Draft{Name: "Inklings"})
	var pf *domainErr.PartialFailureError
	require.ErrorAs(t, err, &pf)
	assert.Equal(t, "provision_tenant", pf.Operation)
	assert.Equal(t, "create_membership", pf.Failed)
	assert.Equal(t, []string{"create_tenant"}, pf.Completed)
	require.NotNil(t, res)
	require.NotNil(t, res.Tenant)
	assert.Equal(t, 1, h.eventCount(audit.ActionTenantProvisioningIncomplete))

	p, err := h.store.GetPersonByID(ctx, owner.ID)
	require.NoError(t, err)
	assert.Nil(t, p.ClubID)

	done, err := h.completeCmd().Handle(ctx, owner, res.Tenant.TenantID)
	require.NoError(t, err)
	assert.False(t, done.Created)
	assert.Equal(t, res.Tenant.TenantID, done.Tenant.TenantID)
	assert.Equal(t, 1, h.store.TenantCount())

	m, err := h.store.GetMember(ctx, owner.ID, res.Tenant.TenantID)
	require.NoError(t, err)
	assert.True(t, m.IsAdmin)
	p, err = h.store.GetPersonByID(ctx, owner.ID)
	require.NoError(t, err)
	assert.True(t, p.PointsAt(res.Tenant.TenantID))
}

func TestProvisionTenant_LinkStepFails(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	owner := h.register(t, "Ada")
	h.store.FailNext("UpdateAffiliation", transient("update_affiliation"), 3)

	res, err := h.provisionCmd().Handle(ctx, owner, tenant.Draft{Name: "Inklings"})
	var pf *domainErr.PartialFailureError
	require.ErrorAs(t, err, &pf)
	assert.Equal(t, "link_person", pf.Failed)
	assert.Equal(t, []string{"create_tenant", "create_membership"}, pf.Completed)

	// the system entry point used by the repair worker
	_, err = h.completeCmd().Resume(ctx, res.Tenant.TenantID)
	require.NoError(t, err)

	p, err := h.store.GetPersonByID(ctx, owner.ID)
	require.NoError(t, err)
	assert.True(t, p.PointsAt(res.Tenant.TenantID))

	rows, err := h.store.GetMembersByTenantID(ctx, res.Tenant.TenantID)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestCompleteProvisioning_OnlyOwnerOrAdmin(t *testing.T) {
	h := newHarness(t)
	owner := h.register(t, "Ada")
	club := h.provision(t, owner, "Inklings")
	stranger := h.register(t, "Bea")

	_, err := h.completeCmd().Handle(context.Background(), stranger, club.TenantID)
	assert.ErrorIs(t, err, domainErr.ErrForbidden)
}

func TestEnsureProvisioned(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	ensure := NewEnsureProvisionedCmd(h.store, h.actors, h.provisionCmd(), h.completeCmd())
	owner := h.register(t, "Ada")
	draft := &tenant.Draft{Name: "Inklings"}

	first, err := ensure.Handle(ctx, owner, draft)
	require.NoError(t, err)
	assert.True(t, first.Created)

	second, err := ensure.Handle(ctx, owner, draft)
	require.NoError(t, err)
	assert.False(t, second.Created)
	assert.Equal(t, first.Tenant.TenantID, second.Tenant.TenantID)
	assert.Equal(t, 1, h.store.TenantCount())

	nobody := h.register(t, "Bea")
	none, err := ensure.Handle(ctx, nobody, nil)
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestUpdateTenantProfile(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	owner := h.register(t, "Ada")
	club := h.provision(t, owner, "Inklings")
	reader := h.register(t, "Bea")
	update := NewUpdateTenantProfileCmd(h.store, h.actors, h.rec)

	name := "The Inklings"
	got, err := update.Handle(ctx, owner, club.TenantID, tenant.ProfilePatch{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "The Inklings", got.Name)

	_, err = update.Handle(ctx, reader, club.TenantID, tenant.ProfilePatch{Name: &name})
	assert.ErrorIs(t, err, domainErr.ErrForbidden)

	_, err = update.Handle(ctx, owner, uuid.New(), tenant.ProfilePatch{Name: &name})
	assert.ErrorIs(t, err, domainErr.ErrNotFound)
}
