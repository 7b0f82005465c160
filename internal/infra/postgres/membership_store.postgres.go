// internal/infra/postgres/membership_store.postgres.go
package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	domainErr "github.com/Alexandr1st/libratio-abfcdf53-sub000/internal/domain/errors"
	"github.com/Alexandr1st/libratio-abfcdf53-sub000/internal/domain/membership"
	"github.com/Alexandr1st/libratio-abfcdf53-sub000/internal/ports/repository"
)

var _ repository.MemberShipStore = (*MembershipStore)(nil)

type MembershipStore struct {
	db *sql.DB
}

func NewMembershipStore(db *sql.DB) *MembershipStore {
	return &MembershipStore{db: db}
}

const membershipColumns = `person_id, tenant_id, is_admin, position, joined_at, updated_at`

func scanMembership(row rowScanner) (*membership.MemberShip, error) {
	var (
		m   membership.MemberShip
		pos sql.NullString
	)
	if err := row.Scan(&m.UserID, &m.TenantID, &m.IsAdmin, &pos, &m.JoinedAt, &m.UpdatedAt); err != nil {
		return nil, err
	}
	m.Position = stringPtr(pos)
	return &m, nil
}

// CreateMembership relies on the primary key: of two concurrent inserts for
// the same pair exactly one affects a row.
func (s *MembershipStore) CreateMembership(ctx context.Context, m *membership.MemberShip) error {
	query := `
		INSERT INTO memberships (` + membershipColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (person_id, tenant_id) DO NOTHING`

	res, err := conn(ctx, s.db).ExecContext(ctx, query,
		m.UserID, m.TenantID, m.IsAdmin, m.Position, m.JoinedAt, m.UpdatedAt)
	if err != nil {
		return classify("create_membership", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return classify("create_membership", err)
	}
	if n == 0 {
		return domainErr.ErrAlreadyMember
	}
	return nil
}

func (s *MembershipStore) UpsertMembership(ctx context.Context, m *membership.MemberShip) error {
	query := `
		INSERT INTO memberships (` + membershipColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (person_id, tenant_id)
		DO UPDATE SET is_admin = EXCLUDED.is_admin,
		              position = EXCLUDED.position,
		              updated_at = EXCLUDED.updated_at`

	_, err := conn(ctx, s.db).ExecContext(ctx, query,
		m.UserID, m.TenantID, m.IsAdmin, m.Position, m.JoinedAt, m.UpdatedAt)
	return classify("upsert_membership", err)
}

func (s *MembershipStore) UpdateMember(ctx context.Context, m *membership.MemberShip) error {
	query := `
		UPDATE memberships
		SET is_admin = $3, position = $4, updated_at = $5
		WHERE person_id = $1 AND tenant_id = $2`

	res, err := conn(ctx, s.db).ExecContext(ctx, query,
		m.UserID, m.TenantID, m.IsAdmin, m.Position, m.UpdatedAt)
	if err != nil {
		return classify("update_membership", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return classify("update_membership", err)
	}
	if n == 0 {
		return domainErr.ErrMembershipNotFound
	}
	return nil
}

func (s *MembershipStore) GetMember(ctx context.Context, userID, tenantID uuid.UUID) (*membership.MemberShip, error) {
	query := `SELECT ` + membershipColumns + ` FROM memberships WHERE person_id = $1 AND tenant_id = $2`

	m, err := scanMembership(conn(ctx, s.db).QueryRowContext(ctx, query, userID, tenantID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domainErr.ErrMembershipNotFound
		}
		return nil, classify("get_membership", err)
	}
	return m, nil
}

func (s *MembershipStore) ListMembersByUserID(ctx context.Context, userID uuid.UUID) ([]*membership.MemberShip, error) {
	query := `SELECT ` + membershipColumns + ` FROM memberships WHERE person_id = $1 ORDER BY joined_at`
	return s.list(ctx, "list_memberships_by_person", query, userID)
}

func (s *MembershipStore) GetMembersByTenantID(ctx context.Context, tenantID uuid.UUID) ([]*membership.MemberShip, error) {
	query := `SELECT ` + membershipColumns + ` FROM memberships WHERE tenant_id = $1 ORDER BY joined_at`
	return s.list(ctx, "list_memberships_by_tenant", query, tenantID)
}

func (s *MembershipStore) list(ctx context.Context, op, query string, arg uuid.UUID) ([]*membership.MemberShip, error) {
	rows, err := conn(ctx, s.db).QueryContext(ctx, query, arg)
	if err != nil {
		return nil, classify(op, err)
	}
	defer rows.Close()

	var out []*membership.MemberShip
	for rows.Next() {
		m, err := scanMembership(rows)
		if err != nil {
			return nil, classify(op, err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(op, err)
	}
	return out, nil
}

func (s *MembershipStore) DeleteMembership(ctx context.Context, userID, tenantID uuid.UUID) (bool, error) {
	res, err := conn(ctx, s.db).ExecContext(ctx,
		`DELETE FROM memberships WHERE person_id = $1 AND tenant_id = $2`, userID, tenantID)
	if err != nil {
		return false, classify("delete_membership", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, classify("delete_membership", err)
	}
	return n > 0, nil
}
