// internal/app/commands/update_tenant.commands.go
package commands

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Alexandr1st/libratio-abfcdf53-sub000/internal/domain/audit"
	domainErr "github.com/Alexandr1st/libratio-abfcdf53-sub000/internal/domain/errors"
	"github.com/Alexandr1st/libratio-abfcdf53-sub000/internal/domain/policy"
	"github.com/Alexandr1st/libratio-abfcdf53-sub000/internal/domain/tenant"
	"github.com/Alexandr1st/libratio-abfcdf53-sub000/internal/ports/repository"
)

// UpdateTenantProfileCmd edits a tenant's public profile. Member pointers
// carry a copy of the name; after a rename they are refreshed by the repair
// pass, not here.
type UpdateTenantProfileCmd struct {
	tenantRepo repository.TenantStore
	actors     *ActorLoader
	recorder   *Recorder
}

func NewUpdateTenantProfileCmd(t repository.TenantStore, a *ActorLoader, r *Recorder) *UpdateTenantProfileCmd {
	return &UpdateTenantProfileCmd{t, a, r}
}

func (h *UpdateTenantProfileCmd) Handle(ctx context.Context, principal policy.Principal, tenantID uuid.UUID, patch tenant.ProfilePatch) (t *tenant.Tenant, err error) {
	ctx, span := tracer.Start(ctx, "Commands.UpdateTenantProfile")
	defer func() { endSpan(span, err) }()

	if tenantID == uuid.Nil {
		return nil, domainErr.ErrInvalidInput
	}
	actor, t, err := loadTenantFacts(ctx, h.actors, h.tenantRepo, principal, tenantID)
	if err != nil {
		return nil, err
	}
	if err := policy.CanPerform(actor, policy.ActionManageTenant, policy.Target{Tenant: t}).Err(); err != nil {
		return nil, err
	}

	oldName := t.Name
	if err := t.Apply(patch, time.Now().UTC()); err != nil {
		return nil, err
	}
	if err := h.tenantRepo.UpdateTenant(ctx, t); err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "tenant profile updated", "tenant_id", tenantID)
	meta := map[string]any{}
	if oldName != t.Name {
		meta["old_name"] = oldName
		meta["new_name"] = t.Name
	}
	h.recorder.Record(ctx, audit.New(audit.ActionTenantUpdated, actor.ID, &tenantID, &tenantID, meta))
	return t, nil
}
