// internal/infra/cache/local.cache.go
package cache

import (
	"context"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"

	"github.com/Alexandr1st/libratio-abfcdf53-sub000/internal/domain/admin"
	portcache "github.com/Alexandr1st/libratio-abfcdf53-sub000/internal/ports/cache"
)

var _ portcache.RoleCache = (*LocalRoleCache)(nil)

// LocalRoleCache keeps roles in process memory. Invalidation is only seen by
// this process, so multi-instance deployments use RedisRoleCache instead.
type LocalRoleCache struct {
	c *gocache.Cache
}

func NewLocalRoleCache(ttl time.Duration) *LocalRoleCache {
	return &LocalRoleCache{c: gocache.New(ttl, ttl+ttl/2)}
}

func (l *LocalRoleCache) Get(_ context.Context, personID uuid.UUID) ([]admin.Role, bool) {
	v, ok := l.c.Get(personID.String())
	if !ok {
		return nil, false
	}
	roles, ok := v.([]admin.Role)
	if !ok {
		return nil, false
	}
	return append([]admin.Role(nil), roles...), true
}

func (l *LocalRoleCache) Set(_ context.Context, personID uuid.UUID, roles []admin.Role) {
	l.c.SetDefault(personID.String(), append([]admin.Role(nil), roles...))
}

func (l *LocalRoleCache) Invalidate(_ context.Context, personID uuid.UUID) {
	l.c.Delete(personID.String())
}
