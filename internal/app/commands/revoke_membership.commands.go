// internal/app/commands/revoke_membership.commands.go
package commands

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/Alexandr1st/libratio-abfcdf53-sub000/internal/domain/audit"
	domainErr "github.com/Alexandr1st/libratio-abfcdf53-sub000/internal/domain/errors"
	"github.com/Alexandr1st/libratio-abfcdf53-sub000/internal/domain/membership"
	"github.com/Alexandr1st/libratio-abfcdf53-sub000/internal/domain/policy"
	"github.com/Alexandr1st/libratio-abfcdf53-sub000/internal/domain/tenant"
	"github.com/Alexandr1st/libratio-abfcdf53-sub000/internal/ports/repository"
)

// RemoveMemberCmd lets a tenant's owner (or a platform admin) drop someone
// from the roster. Pointer handling is identical to leave.
type RemoveMemberCmd struct {
	personRepo     repository.PersonStore
	tenantRepo     repository.TenantStore
	membershipRepo repository.MemberShipStore
	actors         *ActorLoader
	recorder       *Recorder
	retry          RetryPolicy
}

func NewRemoveMemberCmd(
	p repository.PersonStore,
	t repository.TenantStore,
	m repository.MemberShipStore,
	a *ActorLoader,
	r *Recorder,
	retry RetryPolicy,
) *RemoveMemberCmd {
	return &RemoveMemberCmd{p, t, m, a, r, retry}
}

type MemberParams struct {
	TenantID uuid.UUID
	PersonID uuid.UUID
}

func (h *RemoveMemberCmd) Handle(ctx context.Context, principal policy.Principal, params MemberParams) (err error) {
	ctx, span := tracer.Start(ctx, "Commands.RemoveMember")
	defer func() { endSpan(span, err) }()

	if params.TenantID == uuid.Nil || params.PersonID == uuid.Nil {
		return domainErr.ErrInvalidInput
	}
	actor, targetTenant, err := loadTenantFacts(ctx, h.actors, h.tenantRepo, principal, params.TenantID)
	if err != nil {
		return err
	}
	decision := policy.CanPerform(actor, policy.ActionManageTenant, policy.Target{Tenant: targetTenant})
	if err := decision.Err(); err != nil {
		return err
	}
	if targetTenant.IsOwnedBy(params.PersonID) {
		return domainErr.Validationf("the tenant owner cannot be removed from the roster")
	}
	if _, err := h.personRepo.GetPersonByID(ctx, params.PersonID); err != nil {
		return err
	}

	return removeFromTenant(ctx, h.personRepo, h.membershipRepo, h.recorder, h.retry, removal{
		op:       "remove_member",
		action:   audit.ActionMembershipRemoved,
		actorID:  actor.ID,
		personID: params.PersonID,
		tenantID: params.TenantID,
	})
}

// UpdateMemberCmd changes a member's administrator flag or position label.
type UpdateMemberCmd struct {
	tenantRepo     repository.TenantStore
	membershipRepo repository.MemberShipStore
	actors         *ActorLoader
	recorder       *Recorder
}

func NewUpdateMemberCmd(t repository.TenantStore, m repository.MemberShipStore, a *ActorLoader, r *Recorder) *UpdateMemberCmd {
	return &UpdateMemberCmd{t, m, a, r}
}

type UpdateMemberParams struct {
	TenantID uuid.UUID
	PersonID uuid.UUID
	IsAdmin  *bool
	Position *string // empty string clears the label
}

func (h *UpdateMemberCmd) Handle(ctx context.Context, principal policy.Principal, params UpdateMemberParams) (m *membership.MemberShip, err error) {
	ctx, span := tracer.Start(ctx, "Commands.UpdateMember")
	defer func() { endSpan(span, err) }()

	if params.TenantID == uuid.Nil || params.PersonID == uuid.Nil {
		return nil, domainErr.ErrInvalidInput
	}
	actor, targetTenant, err := loadTenantFacts(ctx, h.actors, h.tenantRepo, principal, params.TenantID)
	if err != nil {
		return nil, err
	}
	if err := policy.CanPerform(actor, policy.ActionManageTenant, policy.Target{Tenant: targetTenant}).Err(); err != nil {
		return nil, err
	}

	m, err = h.membershipRepo.GetMember(ctx, params.PersonID, params.TenantID)
	if err != nil {
		return nil, err
	}
	if params.IsAdmin != nil {
		if !*params.IsAdmin && targetTenant.IsOwnedBy(params.PersonID) {
			return nil, domainErr.Validationf("the tenant owner must stay an administrator")
		}
		m.IsAdmin = *params.IsAdmin
	}
	if params.Position != nil {
		if *params.Position == "" {
			m.Position = nil
		} else {
			pos := *params.Position
			m.Position = &pos
		}
	}
	m.UpdatedAt = time.Now().UTC()
	if err := h.membershipRepo.UpdateMember(ctx, m); err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "member updated", "person_id", params.PersonID, "tenant_id", params.TenantID)
	tenantID, personID := params.TenantID, params.PersonID
	h.recorder.Record(ctx, audit.New(audit.ActionMembershipUpdated, actor.ID, &tenantID, &personID, map[string]any{
		"is_admin": m.IsAdmin,
	}))
	return m, nil
}

// loadTenantFacts fetches the actor and the tenant concurrently.
func loadTenantFacts(
	ctx context.Context,
	actors *ActorLoader,
	tenants repository.TenantStore,
	principal policy.Principal,
	tenantID uuid.UUID,
) (policy.Actor, *tenant.Tenant, error) {
	var (
		actor policy.Actor
		t     *tenant.Tenant
	)
	group, gctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		a, err := actors.Load(gctx, principal)
		actor = a
		return err
	})
	group.Go(func() error {
		tt, err := tenants.GetTenantByID(gctx, tenantID)
		t = tt
		return err
	})
	if err := group.Wait(); err != nil {
		return policy.Actor{}, nil, err
	}
	return actor, t, nil
}
