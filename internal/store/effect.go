package store

import "github.com/contestlog/qsocore/internal/qso"

// Effect reports the concrete, pre-state-dependent outcome of a
// successful Apply call. The runtime uses it to construct the
// inverse op before handing the forward op to the journal — see
// opmodel.InverseForInsert/InverseForEdit/InverseForDelete.
type Effect struct {
	// InsertedID is set when Apply handled an Insert: the id the
	// store assigned (or the pinned id it accepted).
	InsertedID qso.ID

	// PriorPatch is set when Apply handled an Edit: the pre-update
	// values of every field the patch touched.
	PriorPatch qso.Patch

	// RemovedRecord is set when Apply handled a Delete: the full
	// record as it existed immediately before removal.
	RemovedRecord qso.Record
}
