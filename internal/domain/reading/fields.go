package reading

// FieldSet names the columns a mutation owns. Stores overwrite exactly these
// columns on upsert, so two concurrent writers touching different sets do not
// clobber each other and writers on the same set resolve last-write-wins.
type FieldSet uint8

const (
	FieldStatus  FieldSet = 1 << iota // status, started_at, completed_at
	FieldOpinion                      // opinion, rating
	FieldNotes
	FieldQuotes
	FieldPages

	FieldAll = FieldStatus | FieldOpinion | FieldNotes | FieldQuotes | FieldPages
)

// Has reports whether every field in f is in s.
func (s FieldSet) Has(f FieldSet) bool { return s&f == f }

// Merge copies the fields named by set from src onto dst. Identity and
// CreatedAt are never copied.
func Merge(dst, src *Record, set FieldSet) {
	if set.Has(FieldStatus) {
		dst.Status = src.Status
		dst.StartedAt = src.StartedAt
		dst.CompletedAt = src.CompletedAt
	}
	if set.Has(FieldOpinion) {
		dst.Opinion = src.Opinion
		dst.Rating = src.Rating
	}
	if set.Has(FieldNotes) {
		dst.Notes = src.Notes
	}
	if set.Has(FieldQuotes) {
		dst.Quotes = append([]string(nil), src.Quotes...)
	}
	if set.Has(FieldPages) {
		dst.PagesRead = src.PagesRead
	}
	dst.UpdatedAt = src.UpdatedAt
}
