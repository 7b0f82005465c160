// internal/app/commands/reading_diary.commands.go
package commands

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	domainErr "github.com/Alexandr1st/libratio-abfcdf53-sub000/internal/domain/errors"
	"github.com/Alexandr1st/libratio-abfcdf53-sub000/internal/domain/policy"
	"github.com/Alexandr1st/libratio-abfcdf53-sub000/internal/domain/reading"
	"github.com/Alexandr1st/libratio-abfcdf53-sub000/internal/ports/repository"
)

// Diary writes are upserts keyed on (person, catalog item). A missing record
// is created from defaults with the mutation merged on top; an existing one
// has only the mutation's field set overwritten. Two writers racing on the
// same field set resolve last-write-wins.
//
// Reading records are personal data, not authority, so they are not audited.

type ReadingRef struct {
	PersonID      uuid.UUID
	CatalogItemID uuid.UUID
}

func (r ReadingRef) validate() error {
	if r.PersonID == uuid.Nil || r.CatalogItemID == uuid.Nil {
		return domainErr.ErrInvalidInput
	}
	return nil
}

// diaryBase holds what every diary command needs.
type diaryBase struct {
	readingRepo repository.ReadingStore
	catalogRepo repository.CatalogStore
	actors      *ActorLoader
}

// prepare authorizes the caller, checks the catalog item and returns the
// current record (or fresh defaults) plus whether it already existed.
func (b diaryBase) prepare(ctx context.Context, principal policy.Principal, ref ReadingRef, now time.Time) (*reading.Record, bool, error) {
	if err := ref.validate(); err != nil {
		return nil, false, err
	}
	var (
		actor    policy.Actor
		exists   bool
		rec      *reading.Record
		existing bool
	)
	group, gctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		loaded, err := b.actors.Load(gctx, principal)
		actor = loaded
		return err
	})
	group.Go(func() error {
		ok, err := b.catalogRepo.ItemExists(gctx, ref.CatalogItemID)
		exists = ok
		return err
	})
	group.Go(func() error {
		r, err := b.readingRepo.GetRecord(gctx, ref.PersonID, ref.CatalogItemID)
		switch {
		case err == nil:
			rec, existing = r, true
		case errors.Is(err, domainErr.ErrNotFound):
		default:
			return err
		}
		return nil
	})
	if err := group.Wait(); err != nil {
		return nil, false, err
	}

	if err := policy.CanPerform(actor, policy.ActionMutateOwnReading, policy.Target{PersonID: ref.PersonID}).Err(); err != nil {
		return nil, false, err
	}
	if !exists {
		return nil, false, domainErr.ErrCatalogItemNotFound
	}
	if rec == nil {
		rec = reading.NewRecord(ref.PersonID, ref.CatalogItemID, now)
	}
	return rec, existing, nil
}

type SetReadingStatusCmd struct {
	diaryBase
}

func NewSetReadingStatusCmd(r repository.ReadingStore, c repository.CatalogStore, a *ActorLoader) *SetReadingStatusCmd {
	return &SetReadingStatusCmd{diaryBase{r, c, a}}
}

type SetStatusParams struct {
	ReadingRef
	Status reading.Status
}

// Handle applies the status and persists status, startedAt and completedAt.
// Setting the current status again writes nothing.
func (h *SetReadingStatusCmd) Handle(ctx context.Context, principal policy.Principal, params SetStatusParams) (rec *reading.Record, err error) {
	ctx, span := tracer.Start(ctx, "Commands.SetReadingStatus")
	defer func() { endSpan(span, err) }()

	if !params.Status.Valid() {
		return nil, domainErr.ErrInvalidStatus
	}
	now := time.Now().UTC()
	rec, existing, err := h.prepare(ctx, principal, params.ReadingRef, now)
	if err != nil {
		return nil, err
	}
	if existing && rec.Status == params.Status {
		return rec, nil
	}
	if err := rec.SetStatus(params.Status, now); err != nil {
		return nil, err
	}
	if err := h.readingRepo.UpsertRecord(ctx, rec, reading.FieldStatus); err != nil {
		return nil, err
	}
	return rec, nil
}

type RecordOpinionCmd struct {
	diaryBase
}

func NewRecordOpinionCmd(r repository.ReadingStore, c repository.CatalogStore, a *ActorLoader) *RecordOpinionCmd {
	return &RecordOpinionCmd{diaryBase{r, c, a}}
}

type RecordOpinionParams struct {
	ReadingRef
	Opinion string
	Rating  int
}

// Handle stores a public opinion: text and rating together, or nothing.
func (h *RecordOpinionCmd) Handle(ctx context.Context, principal policy.Principal, params RecordOpinionParams) (rec *reading.Record, err error) {
	ctx, span := tracer.Start(ctx, "Commands.RecordOpinion")
	defer func() { endSpan(span, err) }()

	// Rejected input never reaches the store.
	if err := reading.ValidateOpinion(params.Opinion, params.Rating); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	rec, _, err = h.prepare(ctx, principal, params.ReadingRef, now)
	if err != nil {
		return nil, err
	}
	if err := rec.RecordOpinion(params.Opinion, params.Rating, now); err != nil {
		return nil, err
	}
	if err := h.readingRepo.UpsertRecord(ctx, rec, reading.FieldOpinion); err != nil {
		return nil, err
	}
	return rec, nil
}

// DiaryEntryCmd covers the free-form parts of a diary entry: private notes,
// quotes and the page counter.
type DiaryEntryCmd struct {
	diaryBase
}

func NewDiaryEntryCmd(r repository.ReadingStore, c repository.CatalogStore, a *ActorLoader) *DiaryEntryCmd {
	return &DiaryEntryCmd{diaryBase{r, c, a}}
}

// RecordNotes replaces the notes. There is no length threshold.
func (h *DiaryEntryCmd) RecordNotes(ctx context.Context, principal policy.Principal, ref ReadingRef, notes string) (rec *reading.Record, err error) {
	ctx, span := tracer.Start(ctx, "Commands.RecordNotes")
	defer func() { endSpan(span, err) }()

	now := time.Now().UTC()
	rec, _, err = h.prepare(ctx, principal, ref, now)
	if err != nil {
		return nil, err
	}
	rec.RecordNotes(notes, now)
	if err := h.readingRepo.UpsertRecord(ctx, rec, reading.FieldNotes); err != nil {
		return nil, err
	}
	return rec, nil
}

// AddQuote appends to the ordered quote list.
func (h *DiaryEntryCmd) AddQuote(ctx context.Context, principal policy.Principal, ref ReadingRef, quote string) (rec *reading.Record, err error) {
	ctx, span := tracer.Start(ctx, "Commands.AddQuote")
	defer func() { endSpan(span, err) }()

	now := time.Now().UTC()
	rec, _, err = h.prepare(ctx, principal, ref, now)
	if err != nil {
		return nil, err
	}
	if err := rec.AddQuote(quote, now); err != nil {
		return nil, err
	}
	if err := h.readingRepo.UpsertRecord(ctx, rec, reading.FieldQuotes); err != nil {
		return nil, err
	}
	return rec, nil
}

func (h *DiaryEntryCmd) SetPagesRead(ctx context.Context, principal policy.Principal, ref ReadingRef, pages int) (rec *reading.Record, err error) {
	ctx, span := tracer.Start(ctx, "Commands.SetPagesRead")
	defer func() { endSpan(span, err) }()

	if pages < 0 {
		return nil, domainErr.Validationf("pages read must not be negative")
	}
	now := time.Now().UTC()
	rec, _, err = h.prepare(ctx, principal, ref, now)
	if err != nil {
		return nil, err
	}
	if err := rec.SetPagesRead(pages, now); err != nil {
		return nil, err
	}
	if err := h.readingRepo.UpsertRecord(ctx, rec, reading.FieldPages); err != nil {
		return nil, err
	}
	return rec, nil
}

// ReadingRecordQuery returns one person's record for a catalog item. Diary
// entries are private, so only the owner may read them.
type ReadingRecordQuery struct {
	readingRepo repository.ReadingStore
}

func NewReadingRecordQuery(r repository.ReadingStore) *ReadingRecordQuery {
	return &ReadingRecordQuery{r}
}

func (q *ReadingRecordQuery) Get(ctx context.Context, principal policy.Principal, ref ReadingRef) (*reading.Record, error) {
	if err := ref.validate(); err != nil {
		return nil, err
	}
	if !principal.Authenticated || principal.ID != ref.PersonID {
		return nil, domainErr.ErrForbidden
	}
	return q.readingRepo.GetRecord(ctx, ref.PersonID, ref.CatalogItemID)
}
