// internal/infra/postgres/library_store.postgres.go
package postgres

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	domainErr "github.com/Alexandr1st/libratio-abfcdf53-sub000/internal/domain/errors"
	"github.com/Alexandr1st/libratio-abfcdf53-sub000/internal/domain/library"
	"github.com/Alexandr1st/libratio-abfcdf53-sub000/internal/ports/repository"
)

var (
	_ repository.LibraryStore = (*LibraryStore)(nil)
	_ repository.CatalogStore = (*CatalogStore)(nil)
)

type LibraryStore struct {
	db *sql.DB
}

func NewLibraryStore(db *sql.DB) *LibraryStore {
	return &LibraryStore{db: db}
}

func (s *LibraryStore) AddItem(ctx context.Context, a *library.Association) error {
	query := `
		INSERT INTO library_items (tenant_id, catalog_item_id, added_by, added_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (tenant_id, catalog_item_id) DO NOTHING`

	res, err := conn(ctx, s.db).ExecContext(ctx, query, a.TenantID, a.CatalogItemID, a.AddedBy, a.AddedAt)
	if err != nil {
		return classify("add_library_item", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return classify("add_library_item", err)
	}
	if n == 0 {
		return domainErr.ErrAlreadyInLibrary
	}
	return nil
}

func (s *LibraryStore) ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]library.Association, error) {
	query := `
		SELECT tenant_id, catalog_item_id, added_by, added_at
		FROM library_items
		WHERE tenant_id = $1
		ORDER BY added_at, catalog_item_id`

	rows, err := conn(ctx, s.db).QueryContext(ctx, query, tenantID)
	if err != nil {
		return nil, classify("list_library", err)
	}
	defer rows.Close()

	var out []library.Association
	for rows.Next() {
		var a library.Association
		if err := rows.Scan(&a.TenantID, &a.CatalogItemID, &a.AddedBy, &a.AddedAt); err != nil {
			return nil, classify("list_library", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("list_library", err)
	}
	return out, nil
}

func (s *LibraryStore) Exists(ctx context.Context, tenantID, catalogItemID uuid.UUID) (bool, error) {
	var ok bool
	err := conn(ctx, s.db).QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM library_items WHERE tenant_id = $1 AND catalog_item_id = $2)`,
		tenantID, catalogItemID,
	).Scan(&ok)
	if err != nil {
		return false, classify("library_item_exists", err)
	}
	return ok, nil
}

// CatalogStore reads the catalog owned by the catalog service.
type CatalogStore struct {
	db *sql.DB
}

func NewCatalogStore(db *sql.DB) *CatalogStore {
	return &CatalogStore{db: db}
}

func (s *CatalogStore) ItemExists(ctx context.Context, catalogItemID uuid.UUID) (bool, error) {
	var ok bool
	err := conn(ctx, s.db).QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM catalog_items WHERE id = $1)`, catalogItemID,
	).Scan(&ok)
	if err != nil {
		return false, classify("catalog_item_exists", err)
	}
	return ok, nil
}
