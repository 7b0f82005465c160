// internal/app/commands/membership_queries.go
package commands

import (
	"context"
	"errors"
	"sort"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	domainErr "github.com/Alexandr1st/libratio-abfcdf53-sub000/internal/domain/errors"
	"github.com/Alexandr1st/libratio-abfcdf53-sub000/internal/domain/membership"
	"github.com/Alexandr1st/libratio-abfcdf53-sub000/internal/domain/policy"
	"github.com/Alexandr1st/libratio-abfcdf53-sub000/internal/domain/tenant"
	"github.com/Alexandr1st/libratio-abfcdf53-sub000/internal/ports/repository"
)

// MembershipQuery answers roster questions. Reads never consult the person's
// pointer: the roster is authoritative.
type MembershipQuery struct {
	tenantRepo     repository.TenantStore
	membershipRepo repository.MemberShipStore
}

func NewMembershipQuery(t repository.TenantStore, m repository.MemberShipStore) *MembershipQuery {
	return &MembershipQuery{t, m}
}

type MemberView struct {
	Membership *membership.MemberShip
	Role       policy.EffectiveTenantRole
}

// ListMembers returns the tenant's roster, owner first, then by join time.
func (q *MembershipQuery) ListMembers(ctx context.Context, principal policy.Principal, tenantID uuid.UUID) ([]MemberView, error) {
	if !principal.Authenticated {
		return nil, domainErr.ErrForbidden
	}
	var (
		t    *tenant.Tenant
		rows []*membership.MemberShip
	)
	group, gctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		tt, err := q.tenantRepo.GetTenantByID(gctx, tenantID)
		t = tt
		return err
	})
	group.Go(func() error {
		r, err := q.membershipRepo.GetMembersByTenantID(gctx, tenantID)
		rows = r
		return err
	})
	if err := group.Wait(); err != nil {
		return nil, err
	}

	views := make([]MemberView, 0, len(rows))
	for _, m := range rows {
		views = append(views, MemberView{Membership: m, Role: policy.EvaluateEffectiveRole(t, m.UserID, m.IsAdmin)})
	}
	rank := map[policy.EffectiveTenantRole]int{policy.TenantRoleOwner: 0, policy.TenantRoleAdmin: 1, policy.TenantRoleMember: 2}
	sort.SliceStable(views, func(i, j int) bool {
		if rank[views[i].Role] != rank[views[j].Role] {
			return rank[views[i].Role] < rank[views[j].Role]
		}
		return views[i].Membership.JoinedAt.Before(views[j].Membership.JoinedAt)
	})
	return views, nil
}

// EffectiveTenant returns the tenant a person belongs to according to the
// roster, or nil when they belong nowhere.
func (q *MembershipQuery) EffectiveTenant(ctx context.Context, personID uuid.UUID) (*tenant.Tenant, error) {
	rows, err := q.membershipRepo.ListMembersByUserID(ctx, personID)
	if err != nil {
		return nil, err
	}
	for len(rows) > 0 {
		primary := membership.Primary(rows)
		t, err := q.tenantRepo.GetTenantByID(ctx, primary.TenantID)
		if err == nil {
			return t, nil
		}
		if !errors.Is(err, domainErr.ErrNotFound) {
			return nil, err
		}
		rows = without(rows, primary.TenantID)
	}
	return nil, nil
}
