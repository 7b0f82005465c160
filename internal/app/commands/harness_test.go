package commands

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/Alexandr1st/libratio-abfcdf53-sub000/internal/domain/admin"
	domainErr "github.com/Alexandr1st/libratio-abfcdf53-sub000/internal/domain/errors"
	"github.com/Alexandr1st/libratio-abfcdf53-sub000/internal/domain/policy"
	"github.com/Alexandr1st/libratio-abfcdf53-sub000/internal/domain/tenant"
	"github.com/Alexandr1st/libratio-abfcdf53-sub000/internal/infra/memory"
)

// fastRetry allows three attempts with no real waiting.
var fastRetry = RetryPolicy{MaxRetries: 2, InitialInterval: time.Millisecond, MaxInterval: time.Millisecond}

var errUnreachable = errors.New("store unreachable")

func transient(op string) error { return domainErr.Transient(op, errUnreachable) }

type harness struct {
	store  *memory.Store
	actors *ActorLoader
	rec    *Recorder
	retry  RetryPolicy
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	s := memory.NewStore()
	return &harness{
		store:  s,
		actors: NewActorLoader(s, nil),
		rec:    NewRecorder(s, nil),
		retry:  fastRetry,
	}
}

func (h *harness) register(t *testing.T, name string) policy.Principal {
	t.Helper()
	p := policy.Principal{ID: uuid.New(), Authenticated: true}
	_, err := NewRegisterPersonCmd(h.store, h.actors, h.rec).Handle(context.Background(), p, name)
	require.NoError(t, err)
	return p
}

func (h *harness) platformAdmin(t *testing.T, role admin.Role) policy.Principal {
	t.Helper()
	p := h.register(t, "operator")
	_, err := h.store.GrantRole(context.Background(), &admin.RoleGrant{PersonID: p.ID, Role: role, GrantedAt: time.Now()})
	require.NoError(t, err)
	// register already loaded (and may have cached) an empty role set
	h.actors.Forget(context.Background(), p)
	return p
}

func (h *harness) provisionCmd() *ProvisionTenantCmd {
	return NewProvisionTenantCmd(h.store, h.store, h.store, h.actors, h.rec, h.retry)
}

func (h *harness) completeCmd() *CompleteProvisioningCmd {
	return NewCompleteProvisioningCmd(h.store, h.store, h.store, h.actors, h.rec, h.retry)
}

func (h *harness) provision(t *testing.T, owner policy.Principal, name string) *tenant.Tenant {
	t.Helper()
	res, err := h.provisionCmd().Handle(context.Background(), owner, tenant.Draft{Name: name})
	require.NoError(t, err)
	return res.Tenant
}

func (h *harness) join(t *testing.T, p policy.Principal, tenantID uuid.UUID) {
	t.Helper()
	_, err := NewJoinTenantCmd(h.store, h.store, h.store, h.actors, h.rec).
		Handle(context.Background(), p, JoinTenantParams{TenantID: tenantID})
	require.NoError(t, err)
}

func (h *harness) eventCount(action string) int {
	n := 0
	for _, ev := range h.store.Events() {
		if ev.Action == action {
			n++
		}
	}
	return n
}
