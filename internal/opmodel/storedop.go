package opmodel

import "github.com/contestlog/qsocore/internal/qso"

// StoredOp is the journal envelope around an applied op. OpSeq is
// strictly monotonic and gapless — the k-th stored op has OpSeq == k.
// Inverse is computed against the pre-state at the moment Op was
// applied, so replay and undo are local operations: neither needs to
// look further back than the single StoredOp it is working with.
//
// Op and Inverse are always one of Insert, Edit, or Delete — Undo and
// Redo are resolved into a concrete op by the runtime before a
// StoredOp is ever constructed (see runtime's writer loop).
type StoredOp struct {
	OpSeq       uint64
	AppliedAtMs int64
	Op          Op
	Inverse     Op
}

// InverseForInsert builds the inverse of an Insert that was assigned id.
func InverseForInsert(id qso.ID) Op {
	return Delete{ID: id}
}

// InverseForEdit builds the inverse of an Edit from the prior values
// AppliedEffect reported for the fields it touched.
func InverseForEdit(prior qso.Patch) Op {
	return Edit{Patch: prior}
}

// InverseForDelete builds the inverse of a Delete from the record it
// removed. The inverse is a pinned insert: replay must restore the
// original id, not draw a fresh one.
func InverseForDelete(removed qso.Record) Op {
	return Insert{Draft: qso.FromRecord(removed)}
}
