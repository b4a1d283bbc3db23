package qso

import "github.com/google/uuid"

// ContestIDGenerator mints a ContestID for a new contest session. The
// core never calls this itself — ContestID is a caller-supplied field
// on Draft — but the generator is the production path callers use to
// get one.
type ContestIDGenerator interface {
	Generate() ContestID
}

// UUIDv7Generator mints time-sortable UUIDv7 contest ids. Embedding a
// timestamp in the most significant bits keeps contest ids orderable
// by creation time, which is convenient when multiple contest logs
// from the same operator need to be listed chronologically.
type UUIDv7Generator struct{}

// Generate returns a new UUIDv7-derived ContestID. Panics if UUID
// generation fails, which the uuid package documents as not
// happening in practice.
func (UUIDv7Generator) Generate() ContestID {
	return ContestID(uuid.Must(uuid.NewV7()).String())
}
