package membership

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestPrimary(t *testing.T) {
	person := uuid.New()
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	early := New(person, uuid.New(), false, nil, t0)
	late := New(person, uuid.New(), false, nil, t0.Add(time.Hour))
	adminLate := New(person, uuid.New(), true, nil, t0.Add(2*time.Hour))

	assert.Nil(t, Primary(nil))
	assert.Same(t, early, Primary([]*MemberShip{late, early}))
	assert.Same(t, adminLate, Primary([]*MemberShip{late, early, adminLate}))

	// equal join times fall back to tenant id
	a := New(person, uuid.MustParse("00000000-0000-0000-0000-000000000001"), false, nil, t0)
	b := New(person, uuid.MustParse("00000000-0000-0000-0000-000000000002"), false, nil, t0)
	assert.Same(t, a, Primary([]*MemberShip{b, a}))
}

func TestContains(t *testing.T) {
	m := New(uuid.New(), uuid.New(), false, nil, time.Now())
	assert.True(t, Contains([]*MemberShip{m}, m.TenantID))
	assert.False(t, Contains([]*MemberShip{m}, uuid.New()))
}
