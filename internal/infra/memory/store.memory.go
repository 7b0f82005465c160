// internal/infra/memory/store.memory.go
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/Alexandr1st/libratio-abfcdf53-sub000/internal/domain/admin"
	"github.com/Alexandr1st/libratio-abfcdf53-sub000/internal/domain/audit"
	domainErr "github.com/Alexandr1st/libratio-abfcdf53-sub000/internal/domain/errors"
	"github.com/Alexandr1st/libratio-abfcdf53-sub000/internal/domain/library"
	"github.com/Alexandr1st/libratio-abfcdf53-sub000/internal/domain/membership"
	"github.com/Alexandr1st/libratio-abfcdf53-sub000/internal/domain/person"
	"github.com/Alexandr1st/libratio-abfcdf53-sub000/internal/domain/reading"
	"github.com/Alexandr1st/libratio-abfcdf53-sub000/internal/domain/tenant"
)

type pairKey struct {
	a uuid.UUID
	b uuid.UUID
}

type roleKey struct {
	person uuid.UUID
	role   admin.Role
}

// Store keeps every table in maps behind one RWMutex. Each method is atomic
// on its own, which is exactly the guarantee the commands assume of a real
// store; RunInTx adds nothing on top. Rows are copied in and out so callers
// never share memory with the store.
type Store struct {
	mu sync.RWMutex

	persons     map[uuid.UUID]person.Person
	tenants     map[uuid.UUID]tenant.Tenant
	memberships map[pairKey]membership.MemberShip // (person, tenant)
	readings    map[pairKey]reading.Record        // (person, item)
	library     map[pairKey]library.Association   // (tenant, item)
	grants      map[roleKey]admin.RoleGrant
	catalog     map[uuid.UUID]struct{}
	events      []audit.AuditEvent

	faults map[string][]error
}

func NewStore() *Store {
	return &Store{
		persons:     make(map[uuid.UUID]person.Person),
		tenants:     make(map[uuid.UUID]tenant.Tenant),
		memberships: make(map[pairKey]membership.MemberShip),
		readings:    make(map[pairKey]reading.Record),
		library:     make(map[pairKey]library.Association),
		grants:      make(map[roleKey]admin.RoleGrant),
		catalog:     make(map[uuid.UUID]struct{}),
		faults:      make(map[string][]error),
	}
}

// FailNext makes the next `times` calls to the named method return err
// before touching any state. Method names match the port methods, e.g.
// "UpdateAffiliation".
func (s *Store) FailNext(method string, err error, times int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := 0; i < times; i++ {
		s.faults[method] = append(s.faults[method], err)
	}
}

// begin checks the context and pops an injected fault. Callers hold no lock.
func (s *Store) begin(ctx context.Context, method string) error {
	select {
	case <-ctx.Done():
		return domainErr.Transient(method, ctx.Err())
	default:
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if q := s.faults[method]; len(q) > 0 {
		err := q[0]
		s.faults[method] = q[1:]
		return err
	}
	return nil
}

// RunInTx satisfies repository.TransactionManager.
func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// AddCatalogItem seeds the read-only catalog.
func (s *Store) AddCatalogItem(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.catalog[id] = struct{}{}
}

// Events returns a copy of the audit log.
func (s *Store) Events() []audit.AuditEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]audit.AuditEvent, len(s.events))
	copy(out, s.events)
	return out
}

// ---- persons

func (s *Store) CreatePersonIfAbsent(ctx context.Context, p *person.Person) (bool, error) {
	if err := s.begin(ctx, "CreatePersonIfAbsent"); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.persons[p.ID]; ok {
		return false, nil
	}
	s.persons[p.ID] = clonePerson(*p)
	return true, nil
}

func (s *Store) GetPersonByID(ctx context.Context, personID uuid.UUID) (*person.Person, error) {
	if err := s.begin(ctx, "GetPersonByID"); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.persons[personID]
	if !ok {
		return nil, domainErr.ErrPersonNotFound
	}
	out := clonePerson(p)
	return &out, nil
}

func (s *Store) UpdateAffiliation(ctx context.Context, personID uuid.UUID, aff person.Affiliation) error {
	if err := s.begin(ctx, "UpdateAffiliation"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.persons[personID]
	if !ok {
		return domainErr.ErrPersonNotFound
	}
	p.ClubID = cloneUUID(aff.ClubID)
	p.ClubName = cloneString(aff.ClubName)
	s.persons[personID] = p
	return nil
}

func (s *Store) ListPersonIDs(ctx context.Context, after uuid.UUID, limit int) ([]uuid.UUID, error) {
	if err := s.begin(ctx, "ListPersonIDs"); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]uuid.UUID, 0, len(s.persons))
	for id := range s.persons {
		if after == uuid.Nil || id.String() > after.String() {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}
	return ids, nil
}

// ---- tenants

func (s *Store) CreateTenant(ctx context.Context, t *tenant.Tenant) error {
	if err := s.begin(ctx, "CreateTenant"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tenants[t.TenantID] = cloneTenant(*t)
	return nil
}

func (s *Store) GetTenantByID(ctx context.Context, tenantID uuid.UUID) (*tenant.Tenant, error) {
	if err := s.begin(ctx, "GetTenantByID"); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tenants[tenantID]
	if !ok {
		return nil, domainErr.ErrTenantNotFound
	}
	out := cloneTenant(t)
	return &out, nil
}

func (s *Store) UpdateTenant(ctx context.Context, t *tenant.Tenant) error {
	if err := s.begin(ctx, "UpdateTenant"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tenants[t.TenantID]; !ok {
		return domainErr.ErrTenantNotFound
	}
	s.tenants[t.TenantID] = cloneTenant(*t)
	return nil
}

func (s *Store) GetTenantByOwnerID(ctx context.Context, ownerUserID uuid.UUID) ([]tenant.Tenant, error) {
	if err := s.begin(ctx, "GetTenantByOwnerID"); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []tenant.Tenant
	for _, t := range s.tenants {
		if t.IsOwnedBy(ownerUserID) {
			out = append(out, cloneTenant(t))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// TenantCount is a test helper.
func (s *Store) TenantCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tenants)
}

// ---- memberships

func (s *Store) CreateMembership(ctx context.Context, m *membership.MemberShip) error {
	if err := s.begin(ctx, "CreateMembership"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	k := pairKey{m.UserID, m.TenantID}
	if _, ok := s.memberships[k]; ok {
		return domainErr.ErrAlreadyMember
	}
	s.memberships[k] = cloneMembership(*m)
	return nil
}

func (s *Store) UpsertMembership(ctx context.Context, m *membership.MemberShip) error {
	if err := s.begin(ctx, "UpsertMembership"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	k := pairKey{m.UserID, m.TenantID}
	row := cloneMembership(*m)
	if old, ok := s.memberships[k]; ok {
		row.JoinedAt = old.JoinedAt
	}
	s.memberships[k] = row
	return nil
}

func (s *Store) UpdateMember(ctx context.Context, m *membership.MemberShip) error {
	if err := s.begin(ctx, "UpdateMember"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	k := pairKey{m.UserID, m.TenantID}
	old, ok := s.memberships[k]
	if !ok {
		return domainErr.ErrMembershipNotFound
	}
	row := cloneMembership(*m)
	row.JoinedAt = old.JoinedAt
	s.memberships[k] = row
	return nil
}

func (s *Store) GetMember(ctx context.Context, userID, tenantID uuid.UUID) (*membership.MemberShip, error) {
	if err := s.begin(ctx, "GetMember"); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.memberships[pairKey{userID, tenantID}]
	if !ok {
		return nil, domainErr.ErrMembershipNotFound
	}
	out := cloneMembership(m)
	return &out, nil
}

func (s *Store) ListMembersByUserID(ctx context.Context, userID uuid.UUID) ([]*membership.MemberShip, error) {
	if err := s.begin(ctx, "ListMembersByUserID"); err != nil {
		return nil, err
	}
	return s.filterMemberships(func(m membership.MemberShip) bool { return m.UserID == userID }), nil
}

func (s *Store) GetMembersByTenantID(ctx context.Context, tenantID uuid.UUID) ([]*membership.MemberShip, error) {
	if err := s.begin(ctx, "GetMembersByTenantID"); err != nil {
		return nil, err
	}
	return s.filterMemberships(func(m membership.MemberShip) bool { return m.TenantID == tenantID }), nil
}

func (s *Store) filterMemberships(keep func(membership.MemberShip) bool) []*membership.MemberShip {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*membership.MemberShip
	for _, m := range s.memberships {
		if keep(m) {
			c := cloneMembership(m)
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].JoinedAt.Before(out[j].JoinedAt) })
	return out
}

func (s *Store) DeleteMembership(ctx context.Context, userID, tenantID uuid.UUID) (bool, error) {
	if err := s.begin(ctx, "DeleteMembership"); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	k := pairKey{userID, tenantID}
	if _, ok := s.memberships[k]; !ok {
		return false, nil
	}
	delete(s.memberships, k)
	return true, nil
}

// ---- reading records

func (s *Store) GetRecord(ctx context.Context, personID, catalogItemID uuid.UUID) (*reading.Record, error) {
	if err := s.begin(ctx, "GetRecord"); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.readings[pairKey{personID, catalogItemID}]
	if !ok {
		return nil, domainErr.ErrReadingNotFound
	}
	out := cloneRecord(r)
	return &out, nil
}

func (s *Store) UpsertRecord(ctx context.Context, rec *reading.Record, fields reading.FieldSet) error {
	if err := s.begin(ctx, "UpsertRecord"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	k := pairKey{rec.PersonID, rec.CatalogItemID}
	cur, ok := s.readings[k]
	if !ok {
		s.readings[k] = cloneRecord(*rec)
		return nil
	}
	src := cloneRecord(*rec)
	reading.Merge(&cur, &src, fields)
	s.readings[k] = cur
	return nil
}

// ---- library and catalog

func (s *Store) AddItem(ctx context.Context, a *library.Association) error {
	if err := s.begin(ctx, "AddItem"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	k := pairKey{a.TenantID, a.CatalogItemID}
	if _, ok := s.library[k]; ok {
		return domainErr.ErrAlreadyInLibrary
	}
	s.library[k] = *a
	return nil
}

func (s *Store) ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]library.Association, error) {
	if err := s.begin(ctx, "ListByTenant"); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []library.Association
	for k, a := range s.library {
		if k.a == tenantID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *Store) Exists(ctx context.Context, tenantID, catalogItemID uuid.UUID) (bool, error) {
	if err := s.begin(ctx, "Exists"); err != nil {
		return false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.library[pairKey{tenantID, catalogItemID}]
	return ok, nil
}

func (s *Store) ItemExists(ctx context.Context, catalogItemID uuid.UUID) (bool, error) {
	if err := s.begin(ctx, "ItemExists"); err != nil {
		return false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.catalog[catalogItemID]
	return ok, nil
}

// ---- admin role grants

func (s *Store) GrantRole(ctx context.Context, g *admin.RoleGrant) (bool, error) {
	if err := s.begin(ctx, "GrantRole"); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	k := roleKey{g.PersonID, g.Role}
	if _, ok := s.grants[k]; ok {
		return false, nil
	}
	row := *g
	row.GrantedBy = cloneUUID(g.GrantedBy)
	s.grants[k] = row
	return true, nil
}

func (s *Store) RevokeRole(ctx context.Context, personID uuid.UUID, role admin.Role) (bool, error) {
	if err := s.begin(ctx, "RevokeRole"); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	k := roleKey{personID, role}
	if _, ok := s.grants[k]; !ok {
		return false, nil
	}
	delete(s.grants, k)
	return true, nil
}

func (s *Store) ListGrants(ctx context.Context, personID uuid.UUID) ([]admin.RoleGrant, error) {
	if err := s.begin(ctx, "ListGrants"); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []admin.RoleGrant
	for k, g := range s.grants {
		if k.person == personID {
			out = append(out, g)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Role < out[j].Role })
	return out, nil
}

// ---- audit

func (s *Store) Append(ctx context.Context, event *audit.AuditEvent) error {
	if err := s.begin(ctx, "Append"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, *event)
	return nil
}
