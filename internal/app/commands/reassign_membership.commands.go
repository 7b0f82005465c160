// internal/app/commands/reassign_membership.commands.go
package commands

import (
	"context"
	"errors"
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

/*
Administrative reassignment moves a person to another tenant while a
platform admin edits their profile. Order matters:

	delete-old -> upsert-new -> update-pointer

A crash after the upsert leaves the pointer stale but the roster right.
The roster is the authority, so the stale pointer is a cache miss that the
repair pass fixes, never a wrong answer to "who belongs where".
*/
type ReassignMembershipCmd struct {
	personRepo     repository.PersonStore
	tenantRepo     repository.TenantStore
	membershipRepo repository.MemberShipStore
	actors         *ActorLoader
	recorder       *Recorder
	retry          RetryPolicy
}

func NewReassignMembershipCmd(
	p repository.PersonStore,
	t repository.TenantStore,
	m repository.MemberShipStore,
	a *ActorLoader,
	r *Recorder,
	retry RetryPolicy,
) *ReassignMembershipCmd {
	return &ReassignMembershipCmd{p, t, m, a, r, retry}
}

type ReassignParams struct {
	PersonID    uuid.UUID
	NewTenantID uuid.UUID
}

func (h *ReassignMembershipCmd) Handle(ctx context.Context, principal policy.Principal, params ReassignParams) (m *membership.MemberShip, err error) {
	ctx, span := tracer.Start(ctx, "Commands.ReassignMembership")
	defer func() { endSpan(span, err) }()

	if params.PersonID == uuid.Nil || params.NewTenantID == uuid.Nil {
		return nil, domainErr.ErrInvalidInput
	}

	var (
		actor     policy.Actor
		newTenant *tenant.Tenant
		roster    []*membership.MemberShip
	)
	group, gctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		a, err := h.actors.Load(gctx, principal)
		actor = a
		return err
	})
	group.Go(func() error {
		_, err := h.personRepo.GetPersonByID(gctx, params.PersonID)
		return err
	})
	group.Go(func() error {
		t, err := h.tenantRepo.GetTenantByID(gctx, params.NewTenantID)
		newTenant = t
		return err
	})
	group.Go(func() error {
		rows, err := h.membershipRepo.ListMembersByUserID(gctx, params.PersonID)
		roster = rows
		return err
	})
	if err := group.Wait(); err != nil {
		return nil, err
	}

	if err := policy.CanPerform(actor, policy.ActionEditPerson, policy.Target{PersonID: params.PersonID}).Err(); err != nil {
		return nil, err
	}
	// Dropping the owner's own administrator row would leave that tenant
	// with an owner who is not a member.
	for _, row := range roster {
		if row.TenantID == params.NewTenantID {
			continue
		}
		old, err := h.tenantRepo.GetTenantByID(ctx, row.TenantID)
		if err != nil && !errors.Is(err, domainErr.ErrNotFound) {
			return nil, err
		}
		if old != nil && old.IsOwnedBy(params.PersonID) {
			return nil, domainErr.Validationf("person owns tenant %s and cannot be moved out of it", old.TenantID)
		}
	}

	var (
		completed []string
		wrote     bool
		existing  *membership.MemberShip
	)
	// Until something is written a failure is an ordinary error.
	partial := func(failed string, cause error) error {
		if !wrote {
			return cause
		}
		return &domainErr.PartialFailureError{
			Operation: "reassign_membership",
			Completed: completed,
			Failed:    failed,
			Cause:     cause,
		}
	}

	// Step 1: drop memberships of any other tenant.
	deletedAny := false
	for _, row := range roster {
		if row.TenantID == params.NewTenantID {
			existing = row
			continue
		}
		removed, err := h.membershipRepo.DeleteMembership(ctx, params.PersonID, row.TenantID)
		if err != nil {
			return nil, partial(stepDeleteOldMemberships, err)
		}
		deletedAny = deletedAny || removed
		wrote = wrote || removed
	}
	completed = append(completed, stepDeleteOldMemberships)

	// Step 2: create or update the new membership. The admin flag follows
	// ownership of the new tenant; an existing position label is kept.
	now := time.Now().UTC()
	m = membership.New(params.PersonID, params.NewTenantID, newTenant.IsOwnedBy(params.PersonID), nil, now)
	if existing != nil {
		m.Position = existing.Position
		m.JoinedAt = existing.JoinedAt
	}
	err = h.retry.Do(ctx, func() error { return h.membershipRepo.UpsertMembership(ctx, m) })
	if err != nil {
		return nil, partial(stepUpsertMembership, err)
	}
	wrote = true
	completed = append(completed, stepUpsertMembership)

	// Step 3: refresh the cached pointer.
	if err := attachPointer(ctx, h.personRepo, h.retry, params.PersonID, newTenant.TenantID, newTenant.Name); err != nil {
		slog.WarnContext(ctx, "pointer update gave up after reassignment",
			"person_id", params.PersonID, "tenant_id", params.NewTenantID, "error", err)
		tenantID, personID := params.NewTenantID, params.PersonID
		h.recorder.Record(ctx, audit.New(audit.ActionPointerStale, actor.ID, &tenantID, &personID, map[string]any{
			"op": "reassign_membership",
		}))
		return m, partial(stepUpdatePointer, err)
	}

	slog.InfoContext(ctx, "membership reassigned", "person_id", params.PersonID, "tenant_id", params.NewTenantID)
	tenantID, personID := params.NewTenantID, params.PersonID
	h.recorder.Record(ctx, audit.New(audit.ActionMembershipReassigned, actor.ID, &tenantID, &personID, map[string]any{
		"old_memberships_removed": deletedAny,
		"is_admin":                m.IsAdmin,
	}))
	return m, nil
}
