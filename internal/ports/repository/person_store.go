// internal/ports/repository/person_store.go
package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/Alexandr1st/libratio-abfcdf53-sub000/internal/domain/person"
)

type PersonStore interface {
	// CreatePersonIfAbsent inserts p unless a row with the same id exists.
	// It reports whether a row was written.
	CreatePersonIfAbsent(ctx context.Context, p *person.Person) (bool, error)
	GetPersonByID(ctx context.Context, personID uuid.UUID) (*person.Person, error)
	// UpdateAffiliation writes only club_id and club_name. Only the
	// membership ledger and the provisioning workflow call it.
	UpdateAffiliation(ctx context.Context, personID uuid.UUID, aff person.Affiliation) error
	// ListPersonIDs pages through persons in id order, starting after the
	// given id (uuid.Nil for the first page).
	ListPersonIDs(ctx context.Context, after uuid.UUID, limit int) ([]uuid.UUID, error)
}

// Key rules:
// context.Context always first
// No sql.ErrNoRows leaks → return domain errors
// Connection failures → domainErr.ErrTransientStore
