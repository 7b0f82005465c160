package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainErr "github.com/Alexandr1st/libratio-abfcdf53-sub000/internal/domain/errors"
	"github.com/Alexandr1st/libratio-abfcdf53-sub000/internal/domain/membership"
	"github.com/Alexandr1st/libratio-abfcdf53-sub000/internal/domain/person"
	"github.com/Alexandr1st/libratio-abfcdf53-sub000/internal/domain/reading"
)

func setupMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	return db, mock, func() { db.Close() }
}

func TestMembershipStore_CreateMembership(t *testing.T) {
	m := membership.New(uuid.New(), uuid.New(), false, nil, time.Now())

	t.Run("inserted", func(t *testing.T) {
		db, mock, cleanup := setupMockDB(t)
		defer cleanup()

		mock.ExpectExec(`INSERT INTO memberships`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := NewMembershipStore(db).CreateMembership(context.Background(), m)
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("conflict is already_member", func(t *testing.T) {
		db, mock, cleanup := setupMockDB(t)
		defer cleanup()

		mock.ExpectExec(`ON CONFLICT \(person_id, tenant_id\) DO NOTHING`).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := NewMembershipStore(db).CreateMembership(context.Background(), m)
		assert.ErrorIs(t, err, domainErr.ErrAlreadyMember)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("connection loss is transient", func(t *testing.T) {
		db, mock, cleanup := setupMockDB(t)
		defer cleanup()

		mock.ExpectExec(`INSERT INTO memberships`).
			WillReturnError(&pq.Error{Code: "08006"})

		err := NewMembershipStore(db).CreateMembership(context.Background(), m)
		assert.ErrorIs(t, err, domainErr.ErrTransientStore)
		assert.True(t, domainErr.Retryable(err))
	})
}

func TestMembershipStore_DeleteMissingIsNotAnError(t *testing.T) {
	db, mock, cleanup := setupMockDB(t)
	defer cleanup()

	mock.ExpectExec(`DELETE FROM memberships`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	removed, err := NewMembershipStore(db).DeleteMembership(context.Background(), uuid.New(), uuid.New())
	assert.NoError(t, err)
	assert.False(t, removed)
}

func TestPersonStore_GetPersonByID(t *testing.T) {
	id := uuid.New()
	clubID := uuid.New()
	now := time.Now().UTC()
	cols := []string{"id", "display_name", "club_id", "club_name", "created_at", "updated_at"}

	t.Run("affiliated", func(t *testing.T) {
		db, mock, cleanup := setupMockDB(t)
		defer cleanup()

		mock.ExpectQuery(`SELECT id, display_name, club_id, club_name`).
			WillReturnRows(sqlmock.NewRows(cols).AddRow(id.String(), "Ada", clubID.String(), "Inklings", now, now))

		p, err := NewPersonStore(db).GetPersonByID(context.Background(), id)
		require.NoError(t, err)
		require.NotNil(t, p.ClubID)
		assert.Equal(t, clubID, *p.ClubID)
		assert.Equal(t, "Inklings", *p.ClubName)
	})

	t.Run("unaffiliated", func(t *testing.T) {
		db, mock, cleanup := setupMockDB(t)
		defer cleanup()

		mock.ExpectQuery(`FROM persons`).
			WillReturnRows(sqlmock.NewRows(cols).AddRow(id.String(), "Ada", nil, nil, now, now))

		p, err := NewPersonStore(db).GetPersonByID(context.Background(), id)
		require.NoError(t, err)
		assert.Nil(t, p.ClubID)
		assert.Nil(t, p.ClubName)
	})

	t.Run("missing", func(t *testing.T) {
		db, mock, cleanup := setupMockDB(t)
		defer cleanup()

		mock.ExpectQuery(`FROM persons`).WillReturnError(sql.ErrNoRows)

		_, err := NewPersonStore(db).GetPersonByID(context.Background(), id)
		assert.ErrorIs(t, err, domainErr.ErrNotFound)
	})
}

func TestPersonStore_UpdateAffiliationMissingPerson(t *testing.T) {
	db, mock, cleanup := setupMockDB(t)
	defer cleanup()

	mock.ExpectExec(`UPDATE persons`).WillReturnResult(sqlmock.NewResult(0, 0))

	err := NewPersonStore(db).UpdateAffiliation(context.Background(), uuid.New(), person.NoAffiliation)
	assert.ErrorIs(t, err, domainErr.ErrPersonNotFound)
}

func TestUpsertQuery_OverwritesOnlyOwnedColumns(t *testing.T) {
	q := upsertQuery(reading.FieldNotes)
	assert.Contains(t, q, "notes = EXCLUDED.notes")
	assert.Contains(t, q, "updated_at = EXCLUDED.updated_at")
	assert.NotContains(t, q, "status = EXCLUDED.status")
	assert.NotContains(t, q, "quotes = EXCLUDED.quotes")

	q = upsertQuery(reading.FieldStatus)
	assert.Contains(t, q, "completed_at = EXCLUDED.completed_at")
	assert.NotContains(t, q, "notes = EXCLUDED.notes")
}

func TestReadingStore_GetRecord(t *testing.T) {
	db, mock, cleanup := setupMockDB(t)
	defer cleanup()

	pid, item := uuid.New(), uuid.New()
	now := time.Now().UTC()
	cols := []string{"person_id", "catalog_item_id", "status", "started_at", "completed_at",
		"rating", "opinion", "notes", "quotes", "pages_read", "created_at", "updated_at"}
	mock.ExpectQuery(`FROM reading_records`).
		WillReturnRows(sqlmock.NewRows(cols).AddRow(
			pid.String(), item.String(), "completed", now, now,
			int64(4), nil, "loved it", []byte(`{"first","second"}`), int64(320), now, now,
		))

	rec, err := NewReadingStore(db).GetRecord(context.Background(), pid, item)
	require.NoError(t, err)
	assert.Equal(t, reading.StatusCompleted, rec.Status)
	assert.NotNil(t, rec.CompletedAt)
	assert.Equal(t, 4, *rec.Rating)
	assert.Nil(t, rec.Opinion)
	assert.Equal(t, []string{"first", "second"}, rec.Quotes)
	assert.Equal(t, 320, *rec.PagesRead)
}

// arrayLiteral matches a Postgres array argument by its text form.
type arrayLiteral string

func (a arrayLiteral) Match(v driver.Value) bool {
	s, ok := v.(string)
	return ok && s == string(a)
}

func TestReadingStore_UpsertFreshRecordBindsEmptyQuotes(t *testing.T) {
	db, mock, cleanup := setupMockDB(t)
	defer cleanup()

	rec := reading.NewRecord(uuid.New(), uuid.New(), time.Now().UTC())
	require.Nil(t, rec.Quotes)

	anyArg := sqlmock.AnyArg()
	mock.ExpectExec(`INSERT INTO reading_records`).
		WithArgs(anyArg, anyArg, anyArg, anyArg, anyArg, anyArg, anyArg, anyArg, arrayLiteral("{}"), anyArg, anyArg, anyArg).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, NewReadingStore(db).UpsertRecord(context.Background(), rec, reading.FieldStatus))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTxManager_StoresJoinTransaction(t *testing.T) {
	t.Run("commit", func(t *testing.T) {
		db, mock, cleanup := setupMockDB(t)
		defer cleanup()

		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE persons`).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		persons := NewPersonStore(db)
		err := NewTxManager(db).RunInTx(context.Background(), func(ctx context.Context) error {
			return persons.UpdateAffiliation(ctx, uuid.New(), person.NoAffiliation)
		})
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rollback on error", func(t *testing.T) {
		db, mock, cleanup := setupMockDB(t)
		defer cleanup()

		mock.ExpectBegin()
		mock.ExpectRollback()

		boom := errors.New("boom")
		err := NewTxManager(db).RunInTx(context.Background(), func(ctx context.Context) error {
			return boom
		})
		assert.ErrorIs(t, err, boom)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		transient bool
	}{
		{"bad conn", driver.ErrBadConn, true},
		{"deadline", context.DeadlineExceeded, true},
		{"admin shutdown", &pq.Error{Code: "57P01"}, true},
		{"serialization", &pq.Error{Code: "40001"}, true},
		{"unique violation", &pq.Error{Code: "23505"}, false},
		{"check violation", &pq.Error{Code: "23514"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := classify("op", tt.err)
			assert.Equal(t, tt.transient, domainErr.Retryable(err))
			assert.ErrorIs(t, err, tt.err)
		})
	}
	assert.NoError(t, classify("op", nil))
}
