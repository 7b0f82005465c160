// internal/infra/postgres/tenant_store.postgres.go
package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	domainErr "github.com/Alexandr1st/libratio-abfcdf53-sub000/internal/domain/errors"
	"github.com/Alexandr1st/libratio-abfcdf53-sub000/internal/domain/tenant"
	"github.com/Alexandr1st/libratio-abfcdf53-sub000/internal/ports/repository"
)

var _ repository.TenantStore = (*TenantStore)(nil)

type TenantStore struct {
	db *sql.DB
}

func NewTenantStore(db *sql.DB) *TenantStore {
	return &TenantStore{db: db}
}

const tenantColumns = `id, kind, name, description, location, link, logo_ref, owner_id, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTenant(row rowScanner) (*tenant.Tenant, error) {
	var (
		t     tenant.Tenant
		kind  string
		owner uuid.NullUUID
	)
	if err := row.Scan(
		&t.TenantID,
		&kind,
		&t.Name,
		&t.Description,
		&t.Location,
		&t.Link,
		&t.LogoRef,
		&owner,
		&t.CreatedAt,
		&t.UpdatedAt,
	); err != nil {
		return nil, err
	}
	t.Kind = tenant.Kind(kind)
	t.OwnerUserID = uuidPtr(owner)
	return &t, nil
}

func (s *TenantStore) CreateTenant(ctx context.Context, t *tenant.Tenant) error {
	query := `
		INSERT INTO tenants (` + tenantColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := conn(ctx, s.db).ExecContext(ctx, query,
		t.TenantID,
		string(t.Kind),
		t.Name,
		t.Description,
		t.Location,
		t.Link,
		t.LogoRef,
		t.OwnerUserID,
		t.CreatedAt,
		t.UpdatedAt,
	)
	return classify("create_tenant", err)
}

func (s *TenantStore) GetTenantByID(ctx context.Context, tenantID uuid.UUID) (*tenant.Tenant, error) {
	query := `SELECT ` + tenantColumns + ` FROM tenants WHERE id = $1`

	t, err := scanTenant(conn(ctx, s.db).QueryRowContext(ctx, query, tenantID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domainErr.ErrTenantNotFound
		}
		return nil, classify("get_tenant", err)
	}
	return t, nil
}

func (s *TenantStore) UpdateTenant(ctx context.Context, t *tenant.Tenant) error {
	query := `
		UPDATE tenants
		SET kind = $2, name = $3, description = $4, location = $5, link = $6,
		    logo_ref = $7, owner_id = $8, updated_at = $9
		WHERE id = $1`

	res, err := conn(ctx, s.db).ExecContext(ctx, query,
		t.TenantID,
		string(t.Kind),
		t.Name,
		t.Description,
		t.Location,
		t.Link,
		t.LogoRef,
		t.OwnerUserID,
		t.UpdatedAt,
	)
	if err != nil {
		return classify("update_tenant", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return classify("update_tenant", err)
	}
	if n == 0 {
		return domainErr.ErrTenantNotFound
	}
	return nil
}

// GetTenantByOwnerID returns the owner's tenants, oldest first.
func (s *TenantStore) GetTenantByOwnerID(ctx context.Context, ownerUserID uuid.UUID) ([]tenant.Tenant, error) {
	query := `SELECT ` + tenantColumns + ` FROM tenants WHERE owner_id = $1 ORDER BY created_at, id`

	rows, err := conn(ctx, s.db).QueryContext(ctx, query, ownerUserID)
	if err != nil {
		return nil, classify("list_owned_tenants", err)
	}
	defer rows.Close()

	var out []tenant.Tenant
	for rows.Next() {
		t, err := scanTenant(rows)
		if err != nil {
			return nil, classify("list_owned_tenants", err)
		}
		out = append(out, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("list_owned_tenants", err)
	}
	return out, nil
}
