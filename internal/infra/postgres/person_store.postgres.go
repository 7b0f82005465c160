// internal/infra/postgres/person_store.postgres.go
package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	domainErr "github.com/Alexandr1st/libratio-abfcdf53-sub000/internal/domain/errors"
	"github.com/Alexandr1st/libratio-abfcdf53-sub000/internal/domain/person"
	"github.com/Alexandr1st/libratio-abfcdf53-sub000/internal/ports/repository"
)

var _ repository.PersonStore = (*PersonStore)(nil)

type PersonStore struct {
	db *sql.DB
}

func NewPersonStore(db *sql.DB) *PersonStore {
	return &PersonStore{db: db}
}

func (s *PersonStore) CreatePersonIfAbsent(ctx context.Context, p *person.Person) (bool, error) {
	query := `
		INSERT INTO persons (id, display_name, club_id, club_name, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO NOTHING`

	res, err := conn(ctx, s.db).ExecContext(ctx, query,
		p.ID,
		p.DisplayName,
		p.ClubID,
		p.ClubName,
		p.CreatedAt,
		p.UpdatedAt,
	)
	if err != nil {
		return false, classify("create_person", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, classify("create_person", err)
	}
	return n == 1, nil
}

func (s *PersonStore) GetPersonByID(ctx context.Context, personID uuid.UUID) (*person.Person, error) {
	query := `
		SELECT id, display_name, club_id, club_name, created_at, updated_at
		FROM persons
		WHERE id = $1`

	var (
		p        person.Person
		clubID   uuid.NullUUID
		clubName sql.NullString
	)
	err := conn(ctx, s.db).QueryRowContext(ctx, query, personID).Scan(
		&p.ID,
		&p.DisplayName,
		&clubID,
		&clubName,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domainErr.ErrPersonNotFound
		}
		return nil, classify("get_person", err)
	}
	p.ClubID = uuidPtr(clubID)
	p.ClubName = stringPtr(clubName)
	return &p, nil
}

// UpdateAffiliation writes the pointer pair and nothing else.
func (s *PersonStore) UpdateAffiliation(ctx context.Context, personID uuid.UUID, aff person.Affiliation) error {
	query := `
		UPDATE persons
		SET club_id = $2, club_name = $3, updated_at = NOW()
		WHERE id = $1`

	res, err := conn(ctx, s.db).ExecContext(ctx, query, personID, aff.ClubID, aff.ClubName)
	if err != nil {
		return classify("update_affiliation", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return classify("update_affiliation", err)
	}
	if n == 0 {
		return domainErr.ErrPersonNotFound
	}
	return nil
}

func (s *PersonStore) ListPersonIDs(ctx context.Context, after uuid.UUID, limit int) ([]uuid.UUID, error) {
	query := `
		SELECT id
		FROM persons
		WHERE id > $1
		ORDER BY id
		LIMIT $2`

	rows, err := conn(ctx, s.db).QueryContext(ctx, query, after, limit)
	if err != nil {
		return nil, classify("list_persons", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, classify("list_persons", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("list_persons", err)
	}
	return ids, nil
}
