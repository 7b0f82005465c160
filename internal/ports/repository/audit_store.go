// internal/ports/repository/audit_store.go
package repository

import (
	"context"

	"github.com/Alexandr1st/libratio-abfcdf53-sub000/internal/domain/audit"
)

type AuditStore interface {
	// Append is write-only. Audit rows are never updated or deleted.
	Append(ctx context.Context, event *audit.AuditEvent) error
}
