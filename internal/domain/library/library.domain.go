// internal/domain/library/library.domain.go
package library

import (
	"time"

	"github.com/google/uuid"
)

// Association places a catalog item in a tenant's shared library. Rows are
// never updated; (TenantID, CatalogItemID) is unique.
type Association struct {
	TenantID      uuid.UUID
	CatalogItemID uuid.UUID
	AddedBy       uuid.UUID
	AddedAt       time.Time
}
