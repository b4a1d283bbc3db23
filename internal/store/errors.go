package store

import (
	"errors"
	"fmt"

	"github.com/contestlog/qsocore/internal/qso"
)

// UnknownIDError is returned when Edit or Delete targets an id the
// store has no live record for.
type UnknownIDError struct {
	ID qso.ID
}

func (e *UnknownIDError) Error() string {
	return fmt.Sprintf("unknown id %s", e.ID)
}

// IDCollisionError is returned when a pinned insert names an id that
// already has a live record. Only compensating inserts (undo of a
// delete, or replay) ever carry a pinned id, so this indicates the
// journal or undo stack has fallen out of sync with the store.
type IDCollisionError struct {
	ID qso.ID
}

func (e *IDCollisionError) Error() string {
	return fmt.Sprintf("pinned insert collides with live id %s", e.ID)
}

// IsUnknownID reports whether err is (or wraps) an UnknownIDError.
func IsUnknownID(err error) bool {
	var e *UnknownIDError
	return errors.As(err, &e)
}

// IsIDCollision reports whether err is (or wraps) an IDCollisionError.
func IsIDCollision(err error) bool {
	var e *IDCollisionError
	return errors.As(err, &e)
}
