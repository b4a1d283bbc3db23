package opmodel

import "github.com/contestlog/qsocore/internal/qso"

// Kind identifies the concrete Op variant, primarily for logging and
// for the "kind" column in the journal's ops table.
type Kind string

const (
	KindInsert Kind = "insert"
	KindEdit   Kind = "edit"
	KindDelete Kind = "delete"
	KindUndo   Kind = "undo"
	KindRedo   Kind = "redo"
)

// Op is the sealed interface implemented by every op variant the
// journal can store. Undo and Redo never reach the store directly —
// the runtime resolves them into a concrete Insert/Edit/Delete before
// calling store.Apply (see runtime's writer loop) — but they are part
// of the Op set because they are valid journal-facing commands.
type Op interface {
	Kind() Kind
	op()
}

// Insert produces a new record. PinnedID mirrors qso.Draft.PinnedID:
// empty for user inserts (store assigns), set for compensating inserts
// (undo of a delete, or replay of one).
type Insert struct {
	Draft qso.Draft
}

func (Insert) Kind() Kind { return KindInsert }
func (Insert) op()        {}

// Edit requires an existing id and carries a sparse patch.
type Edit struct {
	Patch qso.Patch
}

func (Edit) Kind() Kind { return KindEdit }
func (Edit) op()        {}

// Delete tombstones an existing record.
type Delete struct {
	ID qso.ID
}

func (Delete) Kind() Kind { return KindDelete }
func (Delete) op()        {}

// Undo requests that the runtime pop and re-apply the inverse at the
// top of the undo stack. It carries no payload of its own — the
// runtime resolves it into a concrete compensating op before it is
// ever handed to the store.
type Undo struct{}

func (Undo) Kind() Kind { return KindUndo }
func (Undo) op()        {}

// Redo is symmetric with Undo, against the redo stack.
type Redo struct{}

func (Redo) Kind() Kind { return KindRedo }
func (Redo) op()        {}
