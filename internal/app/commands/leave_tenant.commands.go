// internal/app/commands/leave_tenant.commands.go
package commands

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/Alexandr1st/libratio-abfcdf53-sub000/internal/domain/audit"
	domainErr "github.com/Alexandr1st/libratio-abfcdf53-sub000/internal/domain/errors"
	"github.com/Alexandr1st/libratio-abfcdf53-sub000/internal/domain/policy"
	"github.com/Alexandr1st/libratio-abfcdf53-sub000/internal/domain/tenant"
	"github.com/Alexandr1st/libratio-abfcdf53-sub000/internal/ports/repository"
)

/*
Leaving is two writes on two records: the roster row and the person's
pointer. The store only guarantees per-record atomicity, so the order is
fixed and the second write is retried:

	1. delete membership (absent row is fine)
	2. clear pointer if it still references the tenant

If (2) keeps failing the caller gets a partial_failure and simply calls
leave again. Because (1) tolerates a missing row and (2) re-reads the
pointer, the rerun finishes the job without side effects.
*/
type LeaveTenantCmd struct {
	personRepo     repository.PersonStore
	tenantRepo     repository.TenantStore
	membershipRepo repository.MemberShipStore
	actors         *ActorLoader
	recorder       *Recorder
	retry          RetryPolicy
}

func NewLeaveTenantCmd(
	p repository.PersonStore,
	t repository.TenantStore,
	m repository.MemberShipStore,
	a *ActorLoader,
	r *Recorder,
	retry RetryPolicy,
) *LeaveTenantCmd {
	return &LeaveTenantCmd{p, t, m, a, r, retry}
}

type LeaveTenantParams struct {
	PersonID uuid.UUID
	TenantID uuid.UUID
}

func (h *LeaveTenantCmd) Handle(ctx context.Context, principal policy.Principal, params LeaveTenantParams) (err error) {
	ctx, span := tracer.Start(ctx, "Commands.LeaveTenant")
	defer func() { endSpan(span, err) }()

	if params.PersonID == uuid.Nil || params.TenantID == uuid.Nil {
		return domainErr.ErrInvalidInput
	}

	var (
		actor        policy.Actor
		targetTenant *tenant.Tenant
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
		// A tenant that no longer exists must not trap its members.
		t, err := h.tenantRepo.GetTenantByID(gctx, params.TenantID)
		if err != nil && !errors.Is(err, domainErr.ErrNotFound) {
			return err
		}
		targetTenant = t
		return nil
	})
	if err := group.Wait(); err != nil {
		return err
	}

	decision := policy.CanPerform(actor, policy.ActionMutateOwnMembership, policy.Target{PersonID: params.PersonID})
	if err := decision.Err(); err != nil {
		return err
	}
	// An owner without an administrator membership would break the tenant's
	// ownership invariant.
	if targetTenant != nil && targetTenant.IsOwnedBy(params.PersonID) {
		return domainErr.Validationf("the tenant owner cannot leave their own tenant")
	}

	return removeFromTenant(ctx, h.personRepo, h.membershipRepo, h.recorder, h.retry, removal{
		op:       "leave",
		action:   audit.ActionMembershipLeft,
		actorID:  actor.ID,
		personID: params.PersonID,
		tenantID: params.TenantID,
	})
}

type removal struct {
	op       string
	action   string
	actorID  uuid.UUID
	personID uuid.UUID
	tenantID uuid.UUID
}

// removeFromTenant is shared by leave and administrative removal.
func removeFromTenant(
	ctx context.Context,
	persons repository.PersonStore,
	memberships repository.MemberShipStore,
	rec *Recorder,
	retry RetryPolicy,
	r removal,
) error {
	removed, err := memberships.DeleteMembership(ctx, r.personID, r.tenantID)
	if err != nil {
		// Nothing is written yet; the plain error is the whole story.
		return err
	}

	cleared, err := detachPointer(ctx, persons, retry, r.personID, r.tenantID)
	if err != nil {
		slog.WarnContext(ctx, "pointer clear gave up", "op", r.op,
			"person_id", r.personID, "tenant_id", r.tenantID, "error", err)
		tenantID, personID := r.tenantID, r.personID
		rec.Record(ctx, audit.New(audit.ActionPointerStale, r.actorID, &tenantID, &personID, map[string]any{
			"op": r.op,
		}))
		return &domainErr.PartialFailureError{
			Operation: r.op,
			Completed: []string{stepDeleteMembership},
			Failed:    stepClearPointer,
			Cause:     err,
		}
	}

	if !removed && !cleared {
		// Already gone: the repeat of a finished call.
		return nil
	}
	slog.InfoContext(ctx, "member removed", "op", r.op, "person_id", r.personID, "tenant_id", r.tenantID,
		"roster_row_removed", removed, "pointer_cleared", cleared)
	tenantID, personID := r.tenantID, r.personID
	rec.Record(ctx, audit.New(r.action, r.actorID, &tenantID, &personID, map[string]any{
		"roster_row_removed": removed,
		"pointer_cleared":    cleared,
	}))
	return nil
}
