// internal/ports/repository/library_store.go
package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/Alexandr1st/libratio-abfcdf53-sub000/internal/domain/library"
)

type LibraryStore interface {
	// AddItem is a conditional insert; a duplicate (tenant_id,
	// catalog_item_id) returns domainErr.ErrAlreadyInLibrary.
	AddItem(ctx context.Context, a *library.Association) error
	ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]library.Association, error)
	Exists(ctx context.Context, tenantID, catalogItemID uuid.UUID) (bool, error)
}

// CatalogStore is the read-only view of the external book catalog.
type CatalogStore interface {
	ItemExists(ctx context.Context, catalogItemID uuid.UUID) (bool, error)
}
