// internal/app/commands/register_person.commands.go
package commands

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/Alexandr1st/libratio-abfcdf53-sub000/internal/domain/audit"
	domainErr "github.com/Alexandr1st/libratio-abfcdf53-sub000/internal/domain/errors"
	"github.com/Alexandr1st/libratio-abfcdf53-sub000/internal/domain/person"
	"github.com/Alexandr1st/libratio-abfcdf53-sub000/internal/domain/policy"
	"github.com/Alexandr1st/libratio-abfcdf53-sub000/internal/ports/repository"
)

// RegisterPersonCmd creates the Person row for a freshly authenticated
// identity. Running it again for the same identity returns the existing row.
type RegisterPersonCmd struct {
	personRepo repository.PersonStore
	actors     *ActorLoader
	recorder   *Recorder
}

func NewRegisterPersonCmd(p repository.PersonStore, a *ActorLoader, r *Recorder) *RegisterPersonCmd {
	return &RegisterPersonCmd{p, a, r}
}

func (h *RegisterPersonCmd) Handle(ctx context.Context, principal policy.Principal, displayName string) (p *person.Person, err error) {
	ctx, span := tracer.Start(ctx, "Commands.RegisterPerson")
	defer func() { endSpan(span, err) }()

	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		return nil, domainErr.Validationf("display name is required")
	}
	actor, err := h.actors.Load(ctx, principal)
	if err != nil {
		return nil, err
	}
	if err := policy.CanPerform(actor, policy.ActionMutateOwnProfile, policy.Target{PersonID: principal.ID}).Err(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	created, err := h.personRepo.CreatePersonIfAbsent(ctx, &person.Person{
		ID:          principal.ID,
		DisplayName: displayName,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		return nil, err
	}
	if created {
		slog.InfoContext(ctx, "person registered", "person_id", principal.ID)
		id := principal.ID
		h.recorder.Record(ctx, audit.New(audit.ActionPersonRegistered, actor.ID, nil, &id, nil))
	}
	return h.personRepo.GetPersonByID(ctx, principal.ID)
}
