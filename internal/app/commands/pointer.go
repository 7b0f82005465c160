// internal/app/commands/pointer.go
package commands

import (
	"context"

	"github.com/google/uuid"

	"github.com/Alexandr1st/libratio-abfcdf53-sub000/internal/domain/person"
	"github.com/Alexandr1st/libratio-abfcdf53-sub000/internal/ports/repository"
)

// Step names reported in partial failures.
const (
	stepDeleteMembership     = "delete_membership"
	stepClearPointer         = "clear_pointer"
	stepDeleteOldMemberships = "delete_old_memberships"
	stepUpsertMembership     = "upsert_membership"
	stepUpdatePointer        = "update_pointer"
)

// detachPointer clears the person's club pointer if, and only if, it still
// references tenantID. The read is repeated on every attempt so a concurrent
// writer that already moved the pointer elsewhere is left alone. It reports
// whether a write happened.
func detachPointer(ctx context.Context, persons repository.PersonStore, retry RetryPolicy, personID, tenantID uuid.UUID) (bool, error) {
	cleared := false
	err := retry.Do(ctx, func() error {
		p, err := persons.GetPersonByID(ctx, personID)
		if err != nil {
			return err
		}
		if !p.PointsAt(tenantID) {
			return nil
		}
		if err := persons.UpdateAffiliation(ctx, personID, person.NoAffiliation); err != nil {
			return err
		}
		cleared = true
		return nil
	})
	return cleared, err
}

// attachPointer points the person at the tenant. Writing the same value twice
// is harmless, so it is retried blindly.
func attachPointer(ctx context.Context, persons repository.PersonStore, retry RetryPolicy, personID, tenantID uuid.UUID, tenantName string) error {
	aff := person.AffiliatedWith(tenantID, tenantName)
	return retry.Do(ctx, func() error {
		return persons.UpdateAffiliation(ctx, personID, aff)
	})
}
