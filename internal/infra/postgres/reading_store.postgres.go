// internal/infra/postgres/reading_store.postgres.go
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"

	domainErr "github.com/Alexandr1st/libratio-abfcdf53-sub000/internal/domain/errors"
	"github.com/Alexandr1st/libratio-abfcdf53-sub000/internal/domain/reading"
	"github.com/Alexandr1st/libratio-abfcdf53-sub000/internal/ports/repository"
)

var _ repository.ReadingStore = (*ReadingStore)(nil)

type ReadingStore struct {
	db *sql.DB
}

func NewReadingStore(db *sql.DB) *ReadingStore {
	return &ReadingStore{db: db}
}

// columns owned by each field set, in the order they are overwritten on conflict
var fieldColumns = []struct {
	set  reading.FieldSet
	cols []string
}{
	{reading.FieldStatus, []string{"status", "started_at", "completed_at"}},
	{reading.FieldOpinion, []string{"opinion", "rating"}},
	{reading.FieldNotes, []string{"notes"}},
	{reading.FieldQuotes, []string{"quotes"}},
	{reading.FieldPages, []string{"pages_read"}},
}

// upsertQuery builds an insert whose conflict branch overwrites only the
// columns of fields, so writers on disjoint field sets never clobber each
// other.
func upsertQuery(fields reading.FieldSet) string {
	var b strings.Builder
	b.WriteString(`
		INSERT INTO reading_records (person_id, catalog_item_id, status, started_at, completed_at,
		    rating, opinion, notes, quotes, pages_read, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (person_id, catalog_item_id)
		DO UPDATE SET `)
	for _, fc := range fieldColumns {
		if !fields.Has(fc.set) {
			continue
		}
		for _, c := range fc.cols {
			b.WriteString(c + " = EXCLUDED." + c + ", ")
		}
	}
	b.WriteString("updated_at = EXCLUDED.updated_at")
	return b.String()
}

func (s *ReadingStore) UpsertRecord(ctx context.Context, rec *reading.Record, fields reading.FieldSet) error {
	// quotes is NOT NULL; a nil slice would bind as NULL.
	quotes := rec.Quotes
	if quotes == nil {
		quotes = []string{}
	}
	_, err := conn(ctx, s.db).ExecContext(ctx, upsertQuery(fields),
		rec.PersonID,
		rec.CatalogItemID,
		string(rec.Status),
		rec.StartedAt,
		rec.CompletedAt,
		rec.Rating,
		rec.Opinion,
		rec.Notes,
		pq.Array(quotes),
		rec.PagesRead,
		rec.CreatedAt,
		rec.UpdatedAt,
	)
	return classify("upsert_reading_record", err)
}

func (s *ReadingStore) GetRecord(ctx context.Context, personID, catalogItemID uuid.UUID) (*reading.Record, error) {
	query := `
		SELECT person_id, catalog_item_id, status, started_at, completed_at,
		       rating, opinion, notes, quotes, pages_read, created_at, updated_at
		FROM reading_records
		WHERE person_id = $1 AND catalog_item_id = $2`

	var (
		rec               reading.Record
		status            string
		startedAt, doneAt sql.NullTime
		rating, pages     sql.NullInt64
		opinion, notes    sql.NullString
		quotes            []string
	)
	err := conn(ctx, s.db).QueryRowContext(ctx, query, personID, catalogItemID).Scan(
		&rec.PersonID,
		&rec.CatalogItemID,
		&status,
		&startedAt,
		&doneAt,
		&rating,
		&opinion,
		&notes,
		pq.Array(&quotes),
		&pages,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domainErr.ErrReadingNotFound
		}
		return nil, classify("get_reading_record", err)
	}
	rec.Status = reading.Status(status)
	rec.StartedAt = timePtr(startedAt)
	rec.CompletedAt = timePtr(doneAt)
	rec.Rating = intPtr(rating)
	rec.PagesRead = intPtr(pages)
	rec.Opinion = stringPtr(opinion)
	rec.Notes = stringPtr(notes)
	rec.Quotes = quotes
	return &rec, nil
}
