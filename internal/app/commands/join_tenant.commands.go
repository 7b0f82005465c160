// internal/app/commands/join_tenant.commands.go
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

type JoinTenantCmd struct {
	personRepo     repository.PersonStore
	tenantRepo     repository.TenantStore
	membershipRepo repository.MemberShipStore
	actors         *ActorLoader
	recorder       *Recorder
}

func NewJoinTenantCmd(
	p repository.PersonStore,
	t repository.TenantStore,
	m repository.MemberShipStore,
	a *ActorLoader,
	r *Recorder,
) *JoinTenantCmd {
	return &JoinTenantCmd{p, t, m, a, r}
}

type JoinTenantParams struct {
	TenantID uuid.UUID
	Position *string // optional label such as "moderator"
}

// Handle adds the caller to the tenant's roster. The person's club pointer is
// NOT touched: only provisioning and administrative reassignment set it.
func (h *JoinTenantCmd) Handle(ctx context.Context, principal policy.Principal, params JoinTenantParams) (m *membership.MemberShip, err error) {
	ctx, span := tracer.Start(ctx, "Commands.JoinTenant")
	defer func() { endSpan(span, err) }()

	if params.TenantID == uuid.Nil {
		return nil, domainErr.ErrInvalidInput
	}

	var (
		actor         policy.Actor
		targetTenant  *tenant.Tenant
		hasMembership bool
	)
	// Fan-out: the facts the resolver needs are independent reads.
	group, gctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		a, err := h.actors.Load(gctx, principal)
		actor = a
		return err
	})
	group.Go(func() error {
		_, err := h.personRepo.GetPersonByID(gctx, principal.ID)
		return err
	})
	group.Go(func() error {
		t, err := h.tenantRepo.GetTenantByID(gctx, params.TenantID)
		targetTenant = t
		return err
	})
	group.Go(func() error {
		_, err := h.membershipRepo.GetMember(gctx, principal.ID, params.TenantID)
		switch {
		case err == nil:
			hasMembership = true
		case errors.Is(err, domainErr.ErrNotFound):
		default:
			return err
		}
		return nil
	})
	if err := group.Wait(); err != nil {
		return nil, err
	}

	decision := policy.CanPerform(actor, policy.ActionJoinTenant, policy.Target{
		PersonID:      actor.ID,
		Tenant:        targetTenant,
		HasMembership: hasMembership,
	})
	if err := decision.Err(); err != nil {
		return nil, err
	}

	// The owner rejoining their own tenant gets the administrator flag back,
	// everyone else starts as a plain member.
	m = membership.New(actor.ID, params.TenantID, targetTenant.IsOwnedBy(actor.ID), params.Position, time.Now().UTC())

	// The existence read above is only a fast path; the conditional insert is
	// what decides a race between two joins.
	if err := h.membershipRepo.CreateMembership(ctx, m); err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "member joined", "person_id", actor.ID, "tenant_id", params.TenantID)
	tenantID := params.TenantID
	h.recorder.Record(ctx, audit.New(audit.ActionMembershipJoined, actor.ID, &tenantID, &m.UserID, map[string]any{
		"is_admin": m.IsAdmin,
	}))
	return m, nil
}
