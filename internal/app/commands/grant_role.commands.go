// internal/app/commands/grant_role.commands.go
package commands

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Alexandr1st/libratio-abfcdf53-sub000/internal/domain/admin"
	"github.com/Alexandr1st/libratio-abfcdf53-sub000/internal/domain/audit"
	domainErr "github.com/Alexandr1st/libratio-abfcdf53-sub000/internal/domain/errors"
	"github.com/Alexandr1st/libratio-abfcdf53-sub000/internal/domain/policy"
	"github.com/Alexandr1st/libratio-abfcdf53-sub000/internal/ports/repository"
)

type RoleParams struct {
	PersonID uuid.UUID
	Role     admin.Role
}

func (p RoleParams) validate() error {
	if p.PersonID == uuid.Nil {
		return domainErr.ErrInvalidInput
	}
	if !p.Role.Valid() {
		return domainErr.ErrInvalidRole
	}
	return nil
}

// GrantRoleCmd hands out a platform role. Granting a role the person already
// holds succeeds without writing.
type GrantRoleCmd struct {
	personRepo repository.PersonStore
	roleRepo   repository.AdminRoleStore
	actors     *ActorLoader
	recorder   *Recorder
}

func NewGrantRoleCmd(p repository.PersonStore, r repository.AdminRoleStore, a *ActorLoader, rec *Recorder) *GrantRoleCmd {
	return &GrantRoleCmd{p, r, a, rec}
}

func (h *GrantRoleCmd) Handle(ctx context.Context, principal policy.Principal, params RoleParams) (err error) {
	ctx, span := tracer.Start(ctx, "Commands.GrantRole")
	defer func() { endSpan(span, err) }()

	if err := params.validate(); err != nil {
		return err
	}
	actor, err := h.actors.Load(ctx, principal)
	if err != nil {
		return err
	}
	if err := policy.CanPerform(actor, policy.ActionGrantRole, policy.Target{PersonID: params.PersonID, Role: params.Role}).Err(); err != nil {
		return err
	}
	if _, err := h.personRepo.GetPersonByID(ctx, params.PersonID); err != nil {
		return err
	}

	grantedBy := actor.ID
	created, err := h.roleRepo.GrantRole(ctx, &admin.RoleGrant{
		PersonID:  params.PersonID,
		Role:      params.Role,
		GrantedBy: &grantedBy,
		GrantedAt: time.Now().UTC(),
	})
	if err != nil {
		return err
	}
	if !created {
		return nil
	}
	h.actors.Forget(ctx, policy.Principal{ID: params.PersonID})

	slog.InfoContext(ctx, "admin role granted", "person_id", params.PersonID, "role", params.Role)
	personID := params.PersonID
	h.recorder.Record(ctx, audit.New(audit.ActionRoleGranted, actor.ID, nil, &personID, map[string]any{
		"role": string(params.Role),
	}))
	return nil
}

// RevokeRoleCmd removes a platform role. Revoking an absent grant succeeds.
type RevokeRoleCmd struct {
	roleRepo repository.AdminRoleStore
	actors   *ActorLoader
	recorder *Recorder
}

func NewRevokeRoleCmd(r repository.AdminRoleStore, a *ActorLoader, rec *Recorder) *RevokeRoleCmd {
	return &RevokeRoleCmd{r, a, rec}
}

func (h *RevokeRoleCmd) Handle(ctx context.Context, principal policy.Principal, params RoleParams) (err error) {
	ctx, span := tracer.Start(ctx, "Commands.RevokeRole")
	defer func() { endSpan(span, err) }()

	if err := params.validate(); err != nil {
		return err
	}
	actor, err := h.actors.Load(ctx, principal)
	if err != nil {
		return err
	}
	if err := policy.CanPerform(actor, policy.ActionRevokeRole, policy.Target{PersonID: params.PersonID, Role: params.Role}).Err(); err != nil {
		return err
	}

	removed, err := h.roleRepo.RevokeRole(ctx, params.PersonID, params.Role)
	if err != nil {
		return err
	}
	// Invalidate even when nothing was removed: a stale cache entry may
	// still list the role.
	h.actors.Forget(ctx, policy.Principal{ID: params.PersonID})
	if !removed {
		return nil
	}

	slog.InfoContext(ctx, "admin role revoked", "person_id", params.PersonID, "role", params.Role)
	personID := params.PersonID
	h.recorder.Record(ctx, audit.New(audit.ActionRoleRevoked, actor.ID, nil, &personID, map[string]any{
		"role": string(params.Role),
	}))
	return nil
}
