// internal/domain/person/person.domain.go
package person

import (
	"time"

	"github.com/google/uuid"
)

// Person is a registered reader. ClubID and ClubName are a denormalized cache
// of the roster: the memberships table is the authority for "who belongs
// where" and the pointer may lag behind it.
type Person struct {
	ID          uuid.UUID
	DisplayName string
	ClubID      *uuid.UUID // nil when unaffiliated
	ClubName    *string    // tenant name at the time the pointer was written
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Affiliation is the pointer pair written by the membership ledger and the
// provisioning workflow. Nobody else writes it.
type Affiliation struct {
	ClubID   *uuid.UUID
	ClubName *string
}

// NoAffiliation clears both fields.
var NoAffiliation = Affiliation{}

// AffiliatedWith builds the pointer for a tenant.
func AffiliatedWith(tenantID uuid.UUID, name string) Affiliation {
	id := tenantID
	n := name
	return Affiliation{ClubID: &id, ClubName: &n}
}

// Affiliation returns the current pointer pair.
func (p *Person) Affiliation() Affiliation {
	return Affiliation{ClubID: p.ClubID, ClubName: p.ClubName}
}

// PointsAt reports whether the pointer currently references tenantID.
func (p *Person) PointsAt(tenantID uuid.UUID) bool {
	return p.ClubID != nil && *p.ClubID == tenantID
}

// Equal compares two pointers by value.
func (a Affiliation) Equal(b Affiliation) bool {
	if (a.ClubID == nil) != (b.ClubID == nil) || (a.ClubName == nil) != (b.ClubName == nil) {
		return false
	}
	if a.ClubID != nil && *a.ClubID != *b.ClubID {
		return false
	}
	if a.ClubName != nil && *a.ClubName != *b.ClubName {
		return false
	}
	return true
}
