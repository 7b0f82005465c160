package memory

import (
	"github.com/google/uuid"

	"github.com/Alexandr1st/libratio-abfcdf53-sub000/internal/domain/membership"
	"github.com/Alexandr1st/libratio-abfcdf53-sub000/internal/domain/person"
	"github.com/Alexandr1st/libratio-abfcdf53-sub000/internal/domain/reading"
	"github.com/Alexandr1st/libratio-abfcdf53-sub000/internal/domain/tenant"
)

func cloneUUID(id *uuid.UUID) *uuid.UUID {
	if id == nil {
		return nil
	}
	c := *id
	return &c
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}

func cloneInt(n *int) *int {
	if n == nil {
		return nil
	}
	c := *n
	return &c
}

func clonePerson(p person.Person) person.Person {
	p.ClubID = cloneUUID(p.ClubID)
	p.ClubName = cloneString(p.ClubName)
	return p
}

func cloneTenant(t tenant.Tenant) tenant.Tenant {
	t.OwnerUserID = cloneUUID(t.OwnerUserID)
	return t
}

func cloneMembership(m membership.MemberShip) membership.MemberShip {
	m.Position = cloneString(m.Position)
	return m
}

func cloneRecord(r reading.Record) reading.Record {
	if r.StartedAt != nil {
		t := *r.StartedAt
		r.StartedAt = &t
	}
	if r.CompletedAt != nil {
		t := *r.CompletedAt
		r.CompletedAt = &t
	}
	r.Rating = cloneInt(r.Rating)
	r.PagesRead = cloneInt(r.PagesRead)
	r.Opinion = cloneString(r.Opinion)
	r.Notes = cloneString(r.Notes)
	r.Quotes = append([]string(nil), r.Quotes...)
	return r
}
