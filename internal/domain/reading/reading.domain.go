// internal/domain/reading/reading.domain.go
package reading

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	domainErr "github.com/Alexandr1st/libratio-abfcdf53-sub000/internal/domain/errors"
)

type Status string

const (
	StatusWantToRead Status = "want_to_read"
	StatusReading    Status = "reading"
	StatusPaused     Status = "paused"
	StatusCompleted  Status = "completed"
)

// MinOpinionLength is the number of characters a public opinion needs.
const MinOpinionLength = 100

const (
	MinRating = 1
	MaxRating = 5
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusWantToRead, StatusReading, StatusPaused, StatusCompleted:
		return true
	}
	return false
}

// Record is a diary entry: one person's progress on one catalog item.
type Record struct {
	PersonID      uuid.UUID
	CatalogItemID uuid.UUID
	Status        Status
	StartedAt     *time.Time
	CompletedAt   *time.Time // non-nil iff Status == StatusCompleted
	Rating        *int
	Opinion       *string
	Notes         *string
	Quotes        []string
	PagesRead     *int
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// NewRecord returns the defaults a missing record is merged onto.
func NewRecord(personID, catalogItemID uuid.UUID, now time.Time) *Record {
	return &Record{
		PersonID:      personID,
		CatalogItemID: catalogItemID,
		Status:        StatusWantToRead,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// SetStatus moves the record to next and keeps the derived timestamps
// consistent. Any status may follow any other. Applying the current status
// again changes nothing.
func (r *Record) SetStatus(next Status, now time.Time) error {
	if !next.Valid() {
		return domainErr.ErrInvalidStatus
	}
	prev := r.Status
	if prev == next {
		return nil
	}

	switch {
	case next == StatusCompleted:
		t := now
		r.CompletedAt = &t
	case prev == StatusCompleted:
		r.CompletedAt = nil
	}

	// startedAt is stamped on the first move away from want_to_read and
	// survives every later transition.
	if r.StartedAt == nil && prev == StatusWantToRead {
		t := now
		r.StartedAt = &t
	}

	r.Status = next
	r.UpdatedAt = now
	return nil
}

// Consistent reports whether the completedAt invariant holds.
func (r *Record) Consistent() bool {
	return (r.Status == StatusCompleted) == (r.CompletedAt != nil)
}

// ValidateOpinion checks a public opinion. Text length is counted in
// characters, not bytes.
func ValidateOpinion(text string, rating int) error {
	if rating < MinRating || rating > MaxRating {
		return domainErr.ErrRatingOutOfRange
	}
	if utf8.RuneCountInString(text) < MinOpinionLength {
		return domainErr.ErrOpinionTooShort
	}
	return nil
}

// RecordOpinion stores text and rating together or not at all.
func (r *Record) RecordOpinion(text string, rating int, now time.Time) error {
	if err := ValidateOpinion(text, rating); err != nil {
		return err
	}
	t, n := text, rating
	r.Opinion = &t
	r.Rating = &n
	r.UpdatedAt = now
	return nil
}

// RecordNotes replaces the private notes. An empty string clears them.
func (r *Record) RecordNotes(notes string, now time.Time) {
	if strings.TrimSpace(notes) == "" {
		r.Notes = nil
	} else {
		n := notes
		r.Notes = &n
	}
	r.UpdatedAt = now
}

// AddQuote appends a quote, keeping insertion order.
func (r *Record) AddQuote(quote string, now time.Time) error {
	quote = strings.TrimSpace(quote)
	if quote == "" {
		return domainErr.Validationf("quote must not be empty")
	}
	r.Quotes = append(r.Quotes, quote)
	r.UpdatedAt = now
	return nil
}

// SetPagesRead updates the page counter.
func (r *Record) SetPagesRead(pages int, now time.Time) error {
	if pages < 0 {
		return domainErr.Validationf("pages read must not be negative")
	}
	p := pages
	r.PagesRead = &p
	r.UpdatedAt = now
	return nil
}
