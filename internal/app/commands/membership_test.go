package commands

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alexandr1st/libratio-abfcdf53-sub000/internal/domain/admin"
	"github.com/Alexandr1st/libratio-abfcdf53-sub000/internal/domain/audit"
	domainErr "github.com/Alexandr1st/libratio-abfcdf53-sub000/internal/domain/errors"
	"github.com/Alexandr1st/libratio-abfcdf53-sub000/internal/domain/person"
	"github.com/Alexandr1st/libratio-abfcdf53-sub000/internal/domain/policy"
)

func TestJoinTenant_LeavesPointerAlone(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	owner := h.register(t, "Ada")
	club := h.provision(t, owner, "Inklings")
	reader := h.register(t, "Bea")

	m, err := NewJoinTenantCmd(h.store, h.store, h.store, h.actors, h.rec).
		Handle(ctx, reader, JoinTenantParams{TenantID: club.TenantID})
	require.NoError(t, err)
	assert.False(t, m.IsAdmin)

	p, err := h.store.GetPersonByID(ctx, reader.ID)
	require.NoError(t, err)
	assert.Nil(t, p.ClubID)
	assert.Equal(t, 1, h.eventCount(audit.ActionMembershipJoined))

	// the next repair pass derives the pointer from the roster
	out, err := NewRepairPointerCmd(h.store, h.store, h.store, h.store, h.rec).Handle(ctx, reader.ID)
	require.NoError(t, err)
	assert.True(t, out.Changed)
	assert.Equal(t, club.TenantID, *out.After.ClubID)
}

func TestJoinTenant_Twice(t *testing.T) {
	h := newHarness(t)
	owner := h.register(t, "Ada")
	club := h.provision(t, owner, "Inklings")
	reader := h.register(t, "Bea")
	h.join(t, reader, club.TenantID)

	_, err := NewJoinTenantCmd(h.store, h.store, h.store, h.actors, h.rec).
		Handle(context.Background(), reader, JoinTenantParams{TenantID: club.TenantID})
	assert.ErrorIs(t, err, domainErr.ErrAlreadyMember)
}

func TestJoinTenant_ConcurrentJoinsCreateOneRow(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	owner := h.register(t, "Ada")
	club := h.provision(t, owner, "Inklings")
	reader := h.register(t, "Bea")
	cmd := NewJoinTenantCmd(h.store, h.store, h.store, h.actors, h.rec)

	const callers = 8
	errs := make([]error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = cmd.Handle(ctx, reader, JoinTenantParams{TenantID: club.TenantID})
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, domainErr.ErrAlreadyMember)
	}
	assert.Equal(t, 1, succeeded)

	rows, err := h.store.ListMembersByUserID(ctx, reader.ID)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestJoinTenant_Unauthenticated(t *testing.T) {
	h := newHarness(t)
	owner := h.register(t, "Ada")
	club := h.provision(t, owner, "Inklings")

	anon := policy.Principal{ID: owner.ID}
	_, err := NewJoinTenantCmd(h.store, h.store, h.store, h.actors, h.rec).
		Handle(context.Background(), anon, JoinTenantParams{TenantID: club.TenantID})
	assert.ErrorIs(t, err, domainErr.ErrForbidden)
}

func TestLeaveTenant(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	owner := h.register(t, "Ada")
	club := h.provision(t, owner, "Inklings")
	leave := NewLeaveTenantCmd(h.store, h.store, h.store, h.actors, h.rec, h.retry)

	setup := func(t *testing.T) policy.Principal {
		reader := h.register(t, "Bea")
		h.join(t, reader, club.TenantID)
		require.NoError(t, h.store.UpdateAffiliation(ctx, reader.ID, person.AffiliatedWith(club.TenantID, club.Name)))
		return reader
	}
	params := func(p policy.Principal) LeaveTenantParams {
		return LeaveTenantParams{PersonID: p.ID, TenantID: club.TenantID}
	}

	t.Run("clears pointer and is idempotent", func(t *testing.T) {
		reader := setup(t)
		require.NoError(t, leave.Handle(ctx, reader, params(reader)))
		require.NoError(t, leave.Handle(ctx, reader, params(reader)))

		_, err := h.store.GetMember(ctx, reader.ID, club.TenantID)
		assert.ErrorIs(t, err, domainErr.ErrNotFound)
		p, err := h.store.GetPersonByID(ctx, reader.ID)
		require.NoError(t, err)
		assert.Nil(t, p.ClubID)
		assert.Nil(t, p.ClubName)
	})

	t.Run("pointer elsewhere is kept", func(t *testing.T) {
		reader := setup(t)
		other := uuid.New()
		require.NoError(t, h.store.UpdateAffiliation(ctx, reader.ID, person.AffiliatedWith(other, "Elsewhere")))

		require.NoError(t, leave.Handle(ctx, reader, params(reader)))
		p, err := h.store.GetPersonByID(ctx, reader.ID)
		require.NoError(t, err)
		assert.True(t, p.PointsAt(other))
	})

	t.Run("transient pointer failures are retried", func(t *testing.T) {
		reader := setup(t)
		h.store.FailNext("UpdateAffiliation", transient("update_affiliation"), 2)

		require.NoError(t, leave.Handle(ctx, reader, params(reader)))
		p, err := h.store.GetPersonByID(ctx, reader.ID)
		require.NoError(t, err)
		assert.Nil(t, p.ClubID)
	})

	t.Run("exhausted retries report partial failure and rerun finishes", func(t *testing.T) {
		reader := setup(t)
		stale := h.eventCount(audit.ActionPointerStale)
		h.store.FailNext("UpdateAffiliation", transient("update_affiliation"), 3)

		err := leave.Handle(ctx, reader, params(reader))
		var pf *domainErr.PartialFailureError
		require.ErrorAs(t, err, &pf)
		assert.Equal(t, "leave", pf.Operation)
		assert.Equal(t, []string{"delete_membership"}, pf.Completed)
		assert.Equal(t, "clear_pointer", pf.Failed)
		assert.Equal(t, stale+1, h.eventCount(audit.ActionPointerStale))

		_, err = h.store.GetMember(ctx, reader.ID, club.TenantID)
		assert.ErrorIs(t, err, domainErr.ErrNotFound)
		p, err := h.store.GetPersonByID(ctx, reader.ID)
		require.NoError(t, err)
		assert.True(t, p.PointsAt(club.TenantID))

		require.NoError(t, leave.Handle(ctx, reader, params(reader)))
		p, err = h.store.GetPersonByID(ctx, reader.ID)
		require.NoError(t, err)
		assert.Nil(t, p.ClubID)
	})

	t.Run("membership delete failure is a plain error", func(t *testing.T) {
		reader := setup(t)
		h.store.FailNext("DeleteMembership", transient("delete_membership"), 1)

		err := leave.Handle(ctx, reader, params(reader))
		assert.ErrorIs(t, err, domainErr.ErrTransientStore)
		assert.NotErrorIs(t, err, domainErr.ErrPartialFailure)
	})

	t.Run("owner cannot leave", func(t *testing.T) {
		err := leave.Handle(ctx, owner, params(owner))
		assert.ErrorIs(t, err, domainErr.ErrValidation)
	})

	t.Run("someone else cannot leave for you", func(t *testing.T) {
		reader := setup(t)
		err := leave.Handle(ctx, owner, params(reader))
		assert.ErrorIs(t, err, domainErr.ErrForbidden)
	})
}

func TestRemoveMember(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	owner := h.register(t, "Ada")
	club := h.provision(t, owner, "Inklings")
	reader := h.register(t, "Bea")
	bystander := h.register(t, "Cy")
	h.join(t, reader, club.TenantID)
	remove := NewRemoveMemberCmd(h.store, h.store, h.store, h.actors, h.rec, h.retry)
	params := MemberParams{TenantID: club.TenantID, PersonID: reader.ID}

	assert.ErrorIs(t, remove.Handle(ctx, bystander, params), domainErr.ErrForbidden)
	assert.ErrorIs(t, remove.Handle(ctx, owner, MemberParams{TenantID: club.TenantID, PersonID: owner.ID}), domainErr.ErrValidation)

	require.NoError(t, remove.Handle(ctx, owner, params))
	_, err := h.store.GetMember(ctx, reader.ID, club.TenantID)
	assert.ErrorIs(t, err, domainErr.ErrNotFound)
	assert.Equal(t, 1, h.eventCount(audit.ActionMembershipRemoved))
}

func TestUpdateMember(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	owner := h.register(t, "Ada")
	club := h.provision(t, owner, "Inklings")
	reader := h.register(t, "Bea")
	h.join(t, reader, club.TenantID)
	update := NewUpdateMemberCmd(h.store, h.store, h.actors, h.rec)

	yes, no, label := true, false, "treasurer"
	m, err := update.Handle(ctx, owner, UpdateMemberParams{TenantID: club.TenantID, PersonID: reader.ID, IsAdmin: &yes, Position: &label})
	require.NoError(t, err)
	assert.True(t, m.IsAdmin)
	assert.Equal(t, "treasurer", *m.Position)

	_, err = update.Handle(ctx, owner, UpdateMemberParams{TenantID: club.TenantID, PersonID: owner.ID, IsAdmin: &no})
	assert.ErrorIs(t, err, domainErr.ErrValidation)

	_, err = update.Handle(ctx, reader, UpdateMemberParams{TenantID: club.TenantID, PersonID: reader.ID, IsAdmin: &no})
	assert.ErrorIs(t, err, domainErr.ErrForbidden)
}

func TestReassignMembership(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	operator := h.platformAdmin(t, admin.RoleAdmin)
	ownerA := h.register(t, "Ada")
	clubA := h.provision(t, ownerA, "Inklings")
	ownerB := h.register(t, "Bea")
	clubB := h.provision(t, ownerB, "Detection Club")
	reassign := NewReassignMembershipCmd(h.store, h.store, h.store, h.actors, h.rec, h.retry)

	reader := h.register(t, "Cy")
	h.join(t, reader, clubA.TenantID)

	t.Run("moves roster row and pointer", func(t *testing.T) {
		m, err := reassign.Handle(ctx, operator, ReassignParams{PersonID: reader.ID, NewTenantID: clubB.TenantID})
		require.NoError(t, err)
		assert.Equal(t, clubB.TenantID, m.TenantID)
		assert.False(t, m.IsAdmin)

		rows, err := h.store.ListMembersByUserID(ctx, reader.ID)
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, clubB.TenantID, rows[0].TenantID)

		p, err := h.store.GetPersonByID(ctx, reader.ID)
		require.NoError(t, err)
		assert.True(t, p.PointsAt(clubB.TenantID))
		assert.Equal(t, "Detection Club", *p.ClubName)
	})

	t.Run("rerun is harmless", func(t *testing.T) {
		_, err := reassign.Handle(ctx, operator, ReassignParams{PersonID: reader.ID, NewTenantID: clubB.TenantID})
		require.NoError(t, err)
		rows, err := h.store.ListMembersByUserID(ctx, reader.ID)
		require.NoError(t, err)
		assert.Len(t, rows, 1)
	})

	t.Run("pointer failure after upsert is partial", func(t *testing.T) {
		h.store.FailNext("UpdateAffiliation", transient("update_affiliation"), 3)
		_, err := reassign.Handle(ctx, operator, ReassignParams{PersonID: reader.ID, NewTenantID: clubA.TenantID})

		var pf *domainErr.PartialFailureError
		require.ErrorAs(t, err, &pf)
		assert.Equal(t, "update_pointer", pf.Failed)
		assert.Equal(t, []string{"delete_old_memberships", "upsert_membership"}, pf.Completed)

		// the roster already says A; repair brings the pointer in line
		out, err := NewRepairPointerCmd(h.store, h.store, h.store, h.store, h.rec).Handle(ctx, reader.ID)
		require.NoError(t, err)
		assert.True(t, out.Changed)
		assert.Equal(t, clubA.TenantID, *out.After.ClubID)
	})

	t.Run("owner cannot be moved out of own tenant", func(t *testing.T) {
		_, err := reassign.Handle(ctx, operator, ReassignParams{PersonID: ownerA.ID, NewTenantID: clubB.TenantID})
		assert.ErrorIs(t, err, domainErr.ErrValidation)
		_, err = h.store.GetMember(ctx, ownerA.ID, clubA.TenantID)
		assert.NoError(t, err)
	})

	t.Run("requires platform admin", func(t *testing.T) {
		_, err := reassign.Handle(ctx, ownerB, ReassignParams{PersonID: reader.ID, NewTenantID: clubB.TenantID})
		assert.ErrorIs(t, err, domainErr.ErrForbidden)
	})
}

func TestRepairPointer(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	owner := h.register(t, "Ada")
	club := h.provision(t, owner, "Inklings")
	repair := NewRepairPointerCmd(h.store, h.store, h.store, h.store, h.rec)

	t.Run("consistent pointer is left alone", func(t *testing.T) {
		out, err := repair.Handle(ctx, owner.ID)
		require.NoError(t, err)
		assert.False(t, out.Changed)
	})

	t.Run("pointer to a tenant not on the roster is cleared", func(t *testing.T) {
		reader := h.register(t, "Bea")
		require.NoError(t, h.store.UpdateAffiliation(ctx, reader.ID, person.AffiliatedWith(club.TenantID, club.Name)))

		out, err := repair.Handle(ctx, reader.ID)
		require.NoError(t, err)
		assert.True(t, out.Changed)
		assert.Nil(t, out.After.ClubID)

		again, err := repair.Handle(ctx, reader.ID)
		require.NoError(t, err)
		assert.False(t, again.Changed)
	})

	t.Run("missing pointer is filled from the roster", func(t *testing.T) {
		reader := h.register(t, "Cy")
		h.join(t, reader, club.TenantID)

		out, err := repair.Handle(ctx, reader.ID)
		require.NoError(t, err)
		assert.True(t, out.Changed)
		assert.Equal(t, club.TenantID, *out.After.ClubID)
		assert.Equal(t, "Inklings", *out.After.ClubName)
	})

	t.Run("stale label is refreshed", func(t *testing.T) {
		require.NoError(t, h.store.UpdateAffiliation(ctx, owner.ID, person.AffiliatedWith(club.TenantID, "Old Name")))
		out, err := repair.Handle(ctx, owner.ID)
		require.NoError(t, err)
		assert.True(t, out.Changed)
		assert.Equal(t, "Inklings", *out.After.ClubName)
	})

	t.Run("unknown person", func(t *testing.T) {
		_, err := repair.Handle(ctx, uuid.New())
		assert.ErrorIs(t, err, domainErr.ErrNotFound)
	})
}

func TestMembershipQuery(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	owner := h.register(t, "Ada")
	club := h.provision(t, owner, "Inklings")
	reader := h.register(t, "Bea")
	h.join(t, reader, club.TenantID)
	q := NewMembershipQuery(h.store, h.store)

	views, err := q.ListMembers(ctx, reader, club.TenantID)
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.Equal(t, owner.ID, views[0].Membership.UserID)
	assert.Equal(t, policy.TenantRoleOwner, views[0].Role)
	assert.Equal(t, policy.TenantRoleMember, views[1].Role)

	_, err = q.ListMembers(ctx, policy.Principal{ID: reader.ID}, club.TenantID)
	assert.ErrorIs(t, err, domainErr.ErrForbidden)

	// the roster answers even when the pointer is empty
	got, err := q.EffectiveTenant(ctx, reader.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, club.TenantID, got.TenantID)

	none, err := q.EffectiveTenant(ctx, uuid.New())
	require.NoError(t, err)
	assert.Nil(t, none)
}
