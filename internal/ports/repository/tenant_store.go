// internal/ports/repository/tenant_store.go
package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/Alexandr1st/libratio-abfcdf53-sub000/internal/domain/tenant"
)

type TenantStore interface {
	CreateTenant(ctx context.Context, t *tenant.Tenant) error
	GetTenantByID(ctx context.Context, tenantID uuid.UUID) (*tenant.Tenant, error)
	UpdateTenant(ctx context.Context, t *tenant.Tenant) error
	GetTenantByOwnerID(ctx context.Context, ownerUserID uuid.UUID) ([]tenant.Tenant, error)
}
