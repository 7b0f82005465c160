// internal/app/commands/actor_loader.go
package commands

import (
	"context"
	"fmt"

	"golang.org/x/sync/singleflight"

	"github.com/Alexandr1st/libratio-abfcdf53-sub000/internal/domain/admin"
	"github.com/Alexandr1st/libratio-abfcdf53-sub000/internal/domain/policy"
	"github.com/Alexandr1st/libratio-abfcdf53-sub000/internal/ports/cache"
	"github.com/Alexandr1st/libratio-abfcdf53-sub000/internal/ports/repository"
)

// ActorLoader turns an identity-provider principal into a policy.Actor by
// reading AdminRoleGrant rows, through the role cache when one is configured.
type ActorLoader struct {
	roleRepo  repository.AdminRoleStore
	roleCache cache.RoleCache

	// concurrent misses for one person share a single grant read
	sf singleflight.Group
}

func NewActorLoader(r repository.AdminRoleStore, c cache.RoleCache) *ActorLoader {
	return &ActorLoader{roleRepo: r, roleCache: c}
}

func (l *ActorLoader) Load(ctx context.Context, p policy.Principal) (policy.Actor, error) {
	actor := policy.Actor{ID: p.ID, Authenticated: p.Authenticated}
	// Unauthenticated callers are denied before roles matter.
	if !p.Authenticated {
		return actor, nil
	}
	if l.roleCache != nil {
		if roles, ok := l.roleCache.Get(ctx, p.ID); ok {
			actor.Roles = roles
			return actor, nil
		}
	}
	// The shared read outlives the caller that started it; other waiters
	// must not see that caller's cancellation.
	shared := context.WithoutCancel(ctx)
	v, err, _ := l.sf.Do(p.ID.String(), func() (interface{}, error) {
		grants, err := l.roleRepo.ListGrants(shared, p.ID)
		if err != nil {
			return nil, err
		}
		roles := admin.RolesOf(grants)
		if l.roleCache != nil {
			l.roleCache.Set(shared, p.ID, roles)
		}
		return roles, nil
	})
	if err != nil {
		return actor, fmt.Errorf("load role grants: %w", err)
	}
	actor.Roles = append([]admin.Role(nil), v.([]admin.Role)...)
	return actor, nil
}

// Forget drops any cached roles for a person after a grant changes.
func (l *ActorLoader) Forget(ctx context.Context, p policy.Principal) {
	if l.roleCache != nil {
		l.roleCache.Invalidate(ctx, p.ID)
	}
}
