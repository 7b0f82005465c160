// internal/ports/cache/role_cache.go
package cache

import (
	"context"

	"github.com/google/uuid"

	"github.com/Alexandr1st/libratio-abfcdf53-sub000/internal/domain/admin"
)

// RoleCache memoizes a person's AdminRoleGrant roles. A miss is reported with
// ok=false; implementations never return errors to the caller, a broken cache
// just behaves like an empty one.
type RoleCache interface {
	Get(ctx context.Context, personID uuid.UUID) (roles []admin.Role, ok bool)
	Set(ctx context.Context, personID uuid.UUID, roles []admin.Role)
	Invalidate(ctx context.Context, personID uuid.UUID)
}
