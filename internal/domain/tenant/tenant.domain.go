// internal/domain/tenant/tenant.domain.go
package tenant

import (
	"strings"
	"time"

	"github.com/google/uuid"

	domainErr "github.com/Alexandr1st/libratio-abfcdf53-sub000/internal/domain/errors"
)

// Kind distinguishes reading clubs from companies. Both behave identically.
type Kind string

const (
	KindClub    Kind = "club"
	KindCompany Kind = "company"
)

// Tenant owns a shared library and a membership roster.
type Tenant struct {
	TenantID    uuid.UUID
	Kind        Kind
	Name        string
	Description string
	Location    string
	Link        string
	LogoRef     string
	// OwnerUserID is the contact person. When set, that person must also hold
	// an administrator membership for this tenant.
	OwnerUserID *uuid.UUID
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Draft carries the caller-supplied fields for a new tenant.
type Draft struct {
	Kind        Kind
	Name        string
	Description string
	Location    string
	Link        string
	LogoRef     string
}

// Validate normalizes and checks a draft in place.
func (d *Draft) Validate() error {
	d.Name = strings.TrimSpace(d.Name)
	if d.Name == "" {
		return domainErr.Validationf("tenant name is required")
	}
	if d.Kind == "" {
		d.Kind = KindClub
	}
	if d.Kind != KindClub && d.Kind != KindCompany {
		return domainErr.Validationf("unknown tenant kind %q", d.Kind)
	}
	return nil
}

// NewTenant builds a tenant owned by ownerID. The owner's membership is NOT
// created here.
func NewTenant(d Draft, ownerID uuid.UUID, now time.Time) *Tenant {
	owner := ownerID
	return &Tenant{
		TenantID:    uuid.New(),
		Kind:        d.Kind,
		Name:        d.Name,
		Description: d.Description,
		Location:    d.Location,
		Link:        d.Link,
		LogoRef:     d.LogoRef,
		OwnerUserID: &owner,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// IsOwnedBy reports whether personID is the tenant's contact person.
func (t *Tenant) IsOwnedBy(personID uuid.UUID) bool {
	return t.OwnerUserID != nil && *t.OwnerUserID == personID
}

// ProfilePatch is a partial profile edit. Nil fields are left alone.
type ProfilePatch struct {
	Name        *string
	Description *string
	Location    *string
	Link        *string
	LogoRef     *string
}

// Apply mutates the tenant profile. It returns a validation error when the
// patch would blank the name.
func (t *Tenant) Apply(p ProfilePatch, now time.Time) error {
	if p.Name != nil {
		name := strings.TrimSpace(*p.Name)
		if name == "" {
			return domainErr.Validationf("tenant name is required")
		}
		t.Name = name
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Location != nil {
		t.Location = *p.Location
	}
	if p.Link != nil {
		t.Link = *p.Link
	}
	if p.LogoRef != nil {
		t.LogoRef = *p.LogoRef
	}
	t.UpdatedAt = now
	return nil
}
