// internal/infra/cache/redis.cache.go
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/Alexandr1st/libratio-abfcdf53-sub000/internal/domain/admin"
	portcache "github.com/Alexandr1st/libratio-abfcdf53-sub000/internal/ports/cache"
)

var _ portcache.RoleCache = (*RedisRoleCache)(nil)

const roleKeyPrefix = "roles:"

// RedisRoleCache shares cached roles between instances, so a revoke seen by
// one process takes effect everywhere on the next read.
type RedisRoleCache struct {
	client redis.Cmdable
	ttl    time.Duration
}

// NewRedisClient connects and pings.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return rdb, nil
}

func NewRedisRoleCache(client redis.Cmdable, ttl time.Duration) *RedisRoleCache {
	return &RedisRoleCache{client: client, ttl: ttl}
}

func roleKey(personID uuid.UUID) string {
	return roleKeyPrefix + personID.String()
}

func (r *RedisRoleCache) Get(ctx context.Context, personID uuid.UUID) ([]admin.Role, bool) {
	raw, err := r.client.Get(ctx, roleKey(personID)).Bytes()
	if err != nil {
		if err != redis.Nil {
			slog.WarnContext(ctx, "role cache read failed", "person_id", personID, "error", err)
		}
		return nil, false
	}
	var roles []admin.Role
	if err := json.Unmarshal(raw, &roles); err != nil {
		slog.WarnContext(ctx, "role cache entry corrupt", "person_id", personID, "error", err)
		return nil, false
	}
	return roles, true
}

func (r *RedisRoleCache) Set(ctx context.Context, personID uuid.UUID, roles []admin.Role) {
	if roles == nil {
		roles = []admin.Role{}
	}
	raw, err := json.Marshal(roles)
	if err != nil {
		return
	}
	if err := r.client.Set(ctx, roleKey(personID), raw, r.ttl).Err(); err != nil {
		slog.WarnContext(ctx, "role cache write failed", "person_id", personID, "error", err)
	}
}

func (r *RedisRoleCache) Invalidate(ctx context.Context, personID uuid.UUID) {
	if err := r.client.Del(ctx, roleKey(personID)).Err(); err != nil {
		slog.WarnContext(ctx, "role cache invalidate failed", "person_id", personID, "error", err)
	}
}
