package cache

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/Alexandr1st/libratio-abfcdf53-sub000/internal/domain/admin"
)

func TestLocalRoleCache(t *testing.T) {
	ctx := context.Background()
	c := NewLocalRoleCache(time.Minute)
	id := uuid.New()

	_, ok := c.Get(ctx, id)
	assert.False(t, ok)

	c.Set(ctx, id, []admin.Role{admin.RoleAdmin})
	roles, ok := c.Get(ctx, id)
	assert.True(t, ok)
	assert.Equal(t, []admin.Role{admin.RoleAdmin}, roles)

	// an empty role list is still a hit
	other := uuid.New()
	c.Set(ctx, other, nil)
	roles, ok = c.Get(ctx, other)
	assert.True(t, ok)
	assert.Empty(t, roles)

	c.Invalidate(ctx, id)
	_, ok = c.Get(ctx, id)
	assert.False(t, ok)
}

func TestLocalRoleCache_Expiry(t *testing.T) {
	ctx := context.Background()
	c := NewLocalRoleCache(20 * time.Millisecond)
	id := uuid.New()

	c.Set(ctx, id, []admin.Role{admin.RoleModerator})
	time.Sleep(40 * time.Millisecond)
	_, ok := c.Get(ctx, id)
	assert.False(t, ok)
}

func TestLocalRoleCache_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	c := NewLocalRoleCache(time.Minute)
	id := uuid.New()

	c.Set(ctx, id, []admin.Role{admin.RoleAdmin})
	roles, _ := c.Get(ctx, id)
	roles[0] = admin.RoleSuperAdmin

	again, _ := c.Get(ctx, id)
	assert.Equal(t, admin.RoleAdmin, again[0])
}

func TestRoleKey(t *testing.T) {
	id := uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")
	assert.Equal(t, "roles:6ba7b810-9dad-11d1-80b4-00c04fd430c8", roleKey(id))
}
