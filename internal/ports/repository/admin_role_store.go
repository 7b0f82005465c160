// internal/ports/repository/admin_role_store.go
package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/Alexandr1st/libratio-abfcdf53-sub000/internal/domain/admin"
)

type AdminRoleStore interface {
	// GrantRole is create-if-absent on (person_id, role).
	GrantRole(ctx context.Context, g *admin.RoleGrant) (bool, error)
	RevokeRole(ctx context.Context, personID uuid.UUID, role admin.Role) (bool, error)
	ListGrants(ctx context.Context, personID uuid.UUID) ([]admin.RoleGrant, error)
}
