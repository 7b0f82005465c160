// internal/app/commands/repair_pointer.commands.go
package commands

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/Alexandr1st/libratio-abfcdf53-sub000/internal/domain/audit"
	domainErr "github.com/Alexandr1st/libratio-abfcdf53-sub000/internal/domain/errors"
	"github.com/Alexandr1st/libratio-abfcdf53-sub000/internal/domain/membership"
	"github.com/Alexandr1st/libratio-abfcdf53-sub000/internal/domain/person"
	"github.com/Alexandr1st/libratio-abfcdf53-sub000/internal/ports/repository"
)

// RepairPointerCmd recomputes a person's club pointer from the roster. It is
// a system operation: the reconciler and the repair worker call it, and any
// command may call it after a partial failure. Running it twice is a no-op.
type RepairPointerCmd struct {
	personRepo     repository.PersonStore
	tenantRepo     repository.TenantStore
	membershipRepo repository.MemberShipStore
	txManager      repository.TransactionManager
	recorder       *Recorder
}

func NewRepairPointerCmd(
	p repository.PersonStore,
	t repository.TenantStore,
	m repository.MemberShipStore,
	tx repository.TransactionManager,
	r *Recorder,
) *RepairPointerCmd {
	return &RepairPointerCmd{p, t, m, tx, r}
}

type RepairOutcome struct {
	PersonID uuid.UUID
	Before   person.Affiliation
	After    person.Affiliation
	Changed  bool
}

func (h *RepairPointerCmd) Handle(ctx context.Context, personID uuid.UUID) (out RepairOutcome, err error) {
	ctx, span := tracer.Start(ctx, "Commands.RepairPointer")
	defer func() { endSpan(span, err) }()

	if personID == uuid.Nil {
		return out, domainErr.ErrInvalidInput
	}
	out.PersonID = personID

	// Where the store has transactions the read and the write see one
	// snapshot; elsewhere the worst case is one more repair pass.
	err = h.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		p, err := h.personRepo.GetPersonByID(txCtx, personID)
		if err != nil {
			return err
		}
		roster, err := h.membershipRepo.ListMembersByUserID(txCtx, personID)
		if err != nil {
			return err
		}
		want, err := h.desired(txCtx, p, roster)
		if err != nil {
			return err
		}
		out.Before = p.Affiliation()
		out.After = want
		if want.Equal(out.Before) {
			return nil
		}
		if err := h.personRepo.UpdateAffiliation(txCtx, personID, want); err != nil {
			return err
		}
		out.Changed = true
		return nil
	})
	if err != nil {
		return out, err
	}

	if out.Changed {
		slog.InfoContext(ctx, "club pointer repaired", "person_id", personID)
		meta := map[string]any{}
		if out.Before.ClubID != nil {
			meta["old_club_id"] = out.Before.ClubID.String()
		}
		if out.After.ClubID != nil {
			meta["new_club_id"] = out.After.ClubID.String()
		}
		h.recorder.Record(ctx, audit.New(audit.ActionPointerRepaired, uuid.Nil, out.After.ClubID, &personID, meta))
	}
	return out, nil
}

// desired derives the pointer from the roster:
//   - empty roster: no pointer
//   - current pointer still on the roster: keep it, refresh the label
//   - otherwise: membership.Primary
//
// Rows whose tenant has disappeared are skipped.
func (h *RepairPointerCmd) desired(ctx context.Context, p *person.Person, roster []*membership.MemberShip) (person.Affiliation, error) {
	candidates := roster
	if p.ClubID != nil && membership.Contains(roster, *p.ClubID) {
		t, err := h.tenantRepo.GetTenantByID(ctx, *p.ClubID)
		switch {
		case err == nil:
			return person.AffiliatedWith(t.TenantID, t.Name), nil
		case !errors.Is(err, domainErr.ErrNotFound):
			return person.NoAffiliation, err
		}
		candidates = without(roster, *p.ClubID)
	}

	for len(candidates) > 0 {
		primary := membership.Primary(candidates)
		t, err := h.tenantRepo.GetTenantByID(ctx, primary.TenantID)
		if err == nil {
			return person.AffiliatedWith(t.TenantID, t.Name), nil
		}
		if !errors.Is(err, domainErr.ErrNotFound) {
			return person.NoAffiliation, err
		}
		candidates = without(candidates, primary.TenantID)
	}
	return person.NoAffiliation, nil
}

func without(rows []*membership.MemberShip, tenantID uuid.UUID) []*membership.MemberShip {
	out := make([]*membership.MemberShip, 0, len(rows))
	for _, m := range rows {
		if m.TenantID != tenantID {
			out = append(out, m)
		}
	}
	return out
}
