package runtime

import (
	"github.com/contestlog/qsocore/internal/opmodel"
	"github.com/contestlog/qsocore/internal/qso"
)

// Projector is the pull-based incremental projector contract. It is
// an external collaborator — the core ships only this interface,
// never a concrete scoring implementation. The runtime
// guarantees OnApplied ordering matches op_seq, and calls every
// method synchronously: from Open during startup replay, and from the
// writer loop during live operation, so a Projector never needs its
// own locking against the store it derives from.
type Projector interface {
	// OnApplied is called once per applied op, in op_seq order.
	OnApplied(stored *opmodel.StoredOp)

	// OnReplayComplete is called once, after replay finishes (or
	// immediately, with up_to 0, if the journal was empty).
	OnReplayComplete(upTo uint64)

	// Invalidate signals that id's contribution to any derived state
	// may have changed.
	Invalidate(id qso.ID)
}

// noopProjector satisfies Projector without doing anything; used when
// a caller opens a runtime with no projector attached.
type noopProjector struct{}

func (noopProjector) OnApplied(*opmodel.StoredOp) {}
func (noopProjector) OnReplayComplete(uint64)     {}
func (noopProjector) Invalidate(qso.ID)           {}
