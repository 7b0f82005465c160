// internal/ports/repository/reading_store.go
package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/Alexandr1st/libratio-abfcdf53-sub000/internal/domain/reading"
)

type ReadingStore interface {
	GetRecord(ctx context.Context, personID, catalogItemID uuid.UUID) (*reading.Record, error)
	// UpsertRecord creates the record or overwrites only the columns named by
	// fields. Keyed on (person_id, catalog_item_id).
	UpsertRecord(ctx context.Context, rec *reading.Record, fields reading.FieldSet) error
}
