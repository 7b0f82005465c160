// internal/ports/repository/membership_store.go
package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/Alexandr1st/libratio-abfcdf53-sub000/internal/domain/membership"
)

type MemberShipStore interface {
	// CreateMembership is a conditional insert keyed on (user_id, tenant_id).
	// It returns domainErr.ErrAlreadyMember when the row exists; there is no
	// separate existence check, so concurrent callers cannot both succeed.
	CreateMembership(ctx context.Context, m *membership.MemberShip) error
	// UpsertMembership inserts, or on conflict updates is_admin and position.
	// joined_at of an existing row is kept.
	UpsertMembership(ctx context.Context, m *membership.MemberShip) error
	UpdateMember(ctx context.Context, m *membership.MemberShip) error
	GetMember(ctx context.Context, userID, tenantID uuid.UUID) (*membership.MemberShip, error)
	ListMembersByUserID(ctx context.Context, userID uuid.UUID) ([]*membership.MemberShip, error)
	GetMembersByTenantID(ctx context.Context, tenantID uuid.UUID) ([]*membership.MemberShip, error)
	// DeleteMembership removes the row. Deleting a missing row is not an
	// error; the bool reports whether anything was removed.
	DeleteMembership(ctx context.Context, userID, tenantID uuid.UUID) (bool, error)
}
