// internal/app/commands/create_tenant.commands.go
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
	"github.com/Alexandr1st/libratio-abfcdf53-sub000/internal/domain/person"
	"github.com/Alexandr1st/libratio-abfcdf53-sub000/internal/domain/policy"
	"github.com/Alexandr1st/libratio-abfcdf53-sub000/internal/domain/tenant"
	"github.com/Alexandr1st/libratio-abfcdf53-sub000/internal/ports/repository"
)

/*
Provisioning writes three records in order and never rolls back:

	1. create_tenant      tenants row with owner = creator
	2. create_membership  creator's roster row, administrator = true
	3. link_person        creator's club pointer -> new tenant

If 2 or 3 fails the tenant stays. Deleting it would throw away a name the
user is about to retry against. Instead the caller gets the tenant back
together with a PartialFailureError, and CompleteProvisioningCmd re-runs 2-3
against the SAME tenant. Both are idempotent writes (upsert, same-value
pointer set), so repeating them never duplicates anything.
*/

type Step string

const (
	StepCreateTenant     Step = "create_tenant"
	StepCreateMembership Step = "create_membership"
	StepLinkPerson       Step = "link_person"
)

type ProvisionResult struct {
	Tenant    *tenant.Tenant
	Completed []Step
	// Created is false when an existing tenant was completed instead.
	Created bool
}

func stepNames(steps []Step) []string {
	out := make([]string, len(steps))
	for i, s := range steps {
		out[i] = string(s)
	}
	return out
}

type ProvisionTenantCmd struct {
	personRepo     repository.PersonStore
	tenantRepo     repository.TenantStore
	membershipRepo repository.MemberShipStore
	actors         *ActorLoader
	recorder       *Recorder
	retry          RetryPolicy
}

func NewProvisionTenantCmd(
	p repository.PersonStore,
	t repository.TenantStore,
	m repository.MemberShipStore,
	a *ActorLoader,
	r *Recorder,
	retry RetryPolicy,
) *ProvisionTenantCmd {
	return &ProvisionTenantCmd{p, t, m, a, r, retry}
}

func (h *ProvisionTenantCmd) Handle(ctx context.Context, principal policy.Principal, draft tenant.Draft) (res *ProvisionResult, err error) {
	ctx, span := tracer.Start(ctx, "Commands.ProvisionTenant")
	defer func() { endSpan(span, err) }()

	if err := draft.Validate(); err != nil {
		return nil, err
	}

	var actor policy.Actor
	group, gctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		loaded, err := h.actors.Load(gctx, principal)
		actor = loaded
		return err
	})
	group.Go(func() error {
		_, err := h.personRepo.GetPersonByID(gctx, principal.ID)
		return err
	})
	if err := group.Wait(); err != nil {
		return nil, err
	}
	// Registering a club is self-service: the record being changed is the
	// creator's own pointer.
	if err := policy.CanPerform(actor, policy.ActionProvisionTenant, policy.Target{PersonID: principal.ID}).Err(); err != nil {
		return nil, err
	}

	// Step 1
	t := tenant.NewTenant(draft, actor.ID, time.Now().UTC())
	if err := h.tenantRepo.CreateTenant(ctx, t); err != nil {
		return nil, err
	}
	res = &ProvisionResult{Tenant: t, Completed: []Step{StepCreateTenant}, Created: true}

	// Steps 2-3
	if err := completeProvisioning(ctx, h.personRepo, h.membershipRepo, h.retry, t, res); err != nil {
		reportIncomplete(ctx, h.recorder, actor.ID, t, res, err)
		return res, err
	}

	slog.InfoContext(ctx, "tenant provisioned", "tenant_id", t.TenantID, "owner_id", actor.ID)
	h.recorder.Record(ctx, audit.New(audit.ActionTenantProvisioned, actor.ID, &t.TenantID, &t.TenantID, map[string]any{
		"name": t.Name,
		"kind": string(t.Kind),
	}))
	return res, nil
}

// completeProvisioning runs steps 2 and 3 for t's owner, skipping any step
// whose effect is already visible. On failure it returns a
// PartialFailureError and res.Completed lists what is durable.
func completeProvisioning(
	ctx context.Context,
	persons repository.PersonStore,
	memberships repository.MemberShipStore,
	retry RetryPolicy,
	t *tenant.Tenant,
	res *ProvisionResult,
) error {
	if t.OwnerUserID == nil {
		return domainErr.Validationf("tenant %s has no owner to provision", t.TenantID)
	}
	ownerID := *t.OwnerUserID
	fail := func(step Step, cause error) error {
		return &domainErr.PartialFailureError{
			Operation: "provision_tenant",
			Completed: stepNames(res.Completed),
			Failed:    string(step),
			Cause:     cause,
		}
	}

	// Step 2: the owner's administrator membership.
	err := retry.Do(ctx, func() error {
		existing, err := memberships.GetMember(ctx, ownerID, t.TenantID)
		switch {
		case err == nil && existing.IsAdmin:
			return nil
		case err != nil && !errors.Is(err, domainErr.ErrNotFound):
			return err
		}
		m := membership.New(ownerID, t.TenantID, true, nil, time.Now().UTC())
		if existing != nil {
			m.Position = existing.Position
			m.JoinedAt = existing.JoinedAt
		}
		return memberships.UpsertMembership(ctx, m)
	})
	if err != nil {
		return fail(StepCreateMembership, err)
	}
	res.Completed = append(res.Completed, StepCreateMembership)

	// Step 3: the owner's pointer.
	err = retry.Do(ctx, func() error {
		p, err := persons.GetPersonByID(ctx, ownerID)
		if err != nil {
			return err
		}
		if p.PointsAt(t.TenantID) && p.ClubName != nil && *p.ClubName == t.Name {
			return nil
		}
		return persons.UpdateAffiliation(ctx, ownerID, person.AffiliatedWith(t.TenantID, t.Name))
	})
	if err != nil {
		return fail(StepLinkPerson, err)
	}
	res.Completed = append(res.Completed, StepLinkPerson)
	return nil
}

func reportIncomplete(ctx context.Context, rec *Recorder, actorID uuid.UUID, t *tenant.Tenant, res *ProvisionResult, err error) {
	slog.WarnContext(ctx, "tenant provisioning incomplete", "tenant_id", t.TenantID,
		"completed", stepNames(res.Completed), "error", err)
	meta := map[string]any{"completed": stepNames(res.Completed)}
	var pf *domainErr.PartialFailureError
	if errors.As(err, &pf) {
		meta["failed"] = pf.Failed
	}
	rec.Record(ctx, audit.New(audit.ActionTenantProvisioningIncomplete, actorID, &t.TenantID, t.OwnerUserID, meta))
}

// CompleteProvisioningCmd is the repair for a partial provisioning: it
// re-runs steps 2-3 only and never creates a tenant.
type CompleteProvisioningCmd struct {
	personRepo     repository.PersonStore
	tenantRepo     repository.TenantStore
	membershipRepo repository.MemberShipStore
	actors         *ActorLoader
	recorder       *Recorder
	retry          RetryPolicy
}

func NewCompleteProvisioningCmd(
	p repository.PersonStore,
	t repository.TenantStore,
	m repository.MemberShipStore,
	a *ActorLoader,
	r *Recorder,
	retry RetryPolicy,
) *CompleteProvisioningCmd {
	return &CompleteProvisioningCmd{p, t, m, a, r, retry}
}

// Handle is the caller-facing repair. Only the owner or a platform admin may
// run it.
func (h *CompleteProvisioningCmd) Handle(ctx context.Context, principal policy.Principal, tenantID uuid.UUID) (res *ProvisionResult, err error) {
	ctx, span := tracer.Start(ctx, "Commands.CompleteProvisioning")
	defer func() { endSpan(span, err) }()

	actor, t, err := loadTenantFacts(ctx, h.actors, h.tenantRepo, principal, tenantID)
	if err != nil {
		return nil, err
	}
	if err := policy.CanPerform(actor, policy.ActionManageTenant, policy.Target{Tenant: t}).Err(); err != nil {
		return nil, err
	}
	return h.resume(ctx, actor.ID, t)
}

// Resume is the system entry point used by the repair worker.
func (h *CompleteProvisioningCmd) Resume(ctx context.Context, tenantID uuid.UUID) (*ProvisionResult, error) {
	t, err := h.tenantRepo.GetTenantByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	return h.resume(ctx, uuid.Nil, t)
}

func (h *CompleteProvisioningCmd) resume(ctx context.Context, actorID uuid.UUID, t *tenant.Tenant) (*ProvisionResult, error) {
	res := &ProvisionResult{Tenant: t, Completed: []Step{StepCreateTenant}}
	if err := completeProvisioning(ctx, h.personRepo, h.membershipRepo, h.retry, t, res); err != nil {
		reportIncomplete(ctx, h.recorder, actorID, t, res, err)
		return res, err
	}
	slog.InfoContext(ctx, "tenant provisioning completed", "tenant_id", t.TenantID)
	h.recorder.Record(ctx, audit.New(audit.ActionTenantProvisioned, actorID, &t.TenantID, &t.TenantID, map[string]any{
		"name":     t.Name,
		"repaired": true,
	}))
	return res, nil
}

// EnsureProvisionedCmd replaces the old fire-and-forget post-login check. The
// caller runs it synchronously and may retry it.
//
//   - person owns a tenant: finish steps 2-3 for it (Created=false)
//   - owns none, draft given: provision a new one
//   - owns none, no draft: nothing to do, nil result
type EnsureProvisionedCmd struct {
	tenantRepo repository.TenantStore
	actors     *ActorLoader
	provision  *ProvisionTenantCmd
	complete   *CompleteProvisioningCmd
}

func NewEnsureProvisionedCmd(t repository.TenantStore, a *ActorLoader, p *ProvisionTenantCmd, c *CompleteProvisioningCmd) *EnsureProvisionedCmd {
	return &EnsureProvisionedCmd{t, a, p, c}
}

func (h *EnsureProvisionedCmd) Handle(ctx context.Context, principal policy.Principal, draft *tenant.Draft) (res *ProvisionResult, err error) {
	ctx, span := tracer.Start(ctx, "Commands.EnsureProvisioned")
	defer func() { endSpan(span, err) }()

	actor, err := h.actors.Load(ctx, principal)
	if err != nil {
		return nil, err
	}
	if err := policy.CanPerform(actor, policy.ActionProvisionTenant, policy.Target{PersonID: principal.ID}).Err(); err != nil {
		return nil, err
	}

	owned, err := h.tenantRepo.GetTenantByOwnerID(ctx, principal.ID)
	if err != nil {
		return nil, err
	}
	if len(owned) > 0 {
		oldest := owned[0]
		for _, t := range owned[1:] {
			if t.CreatedAt.Before(oldest.CreatedAt) {
				oldest = t
			}
		}
		return h.complete.resume(ctx, actor.ID, &oldest)
	}
	if draft == nil {
		return nil, nil
	}
	return h.provision.Handle(ctx, principal, *draft)
}
