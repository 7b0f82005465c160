// internal/domain/membership/membership.domain.go
package membership

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// MemberShip is the roster row linking a person to a tenant. There is at most
// one per (UserID, TenantID); the store enforces it with a primary key.
type MemberShip struct {
	UserID   uuid.UUID
	TenantID uuid.UUID
	IsAdmin  bool
	// Position is a free-form label such as "moderator" or "treasurer".
	Position  *string
	JoinedAt  time.Time
	UpdatedAt time.Time
}

// New builds a membership joined at now.
func New(userID, tenantID uuid.UUID, isAdmin bool, position *string, now time.Time) *MemberShip {
	return &MemberShip{
		UserID:    userID,
		TenantID:  tenantID,
		IsAdmin:   isAdmin,
		Position:  position,
		JoinedAt:  now,
		UpdatedAt: now,
	}
}

// Primary picks the tenant a person's pointer should reference when the
// roster holds more than one row: administrator memberships first, then the
// earliest join. Ties on time fall back to tenant id so the choice is stable.
func Primary(rows []*MemberShip) *MemberShip {
	if len(rows) == 0 {
		return nil
	}
	sorted := make([]*MemberShip, len(rows))
	copy(sorted, rows)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.IsAdmin != b.IsAdmin {
			return a.IsAdmin
		}
		if !a.JoinedAt.Equal(b.JoinedAt) {
			return a.JoinedAt.Before(b.JoinedAt)
		}
		return a.TenantID.String() < b.TenantID.String()
	})
	return sorted[0]
}

// Contains reports whether the roster has a row for tenantID.
func Contains(rows []*MemberShip, tenantID uuid.UUID) bool {
	for _, m := range rows {
		if m.TenantID == tenantID {
			return true
		}
	}
	return false
}
