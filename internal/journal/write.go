package journal

import (
	"fmt"

	"github.com/contestlog/qsocore/internal/opmodel"
)

// AppendBatch commits a batch of stored ops in a single transaction
// and returns the highest op_seq in the batch (the new high-water
// mark). Ops must already be in ascending, gapless op_seq order —
// the persistence worker guarantees this since it is the only writer
// pulling from the submission queue.
func (s *Sink) AppendBatch(ops []opmodel.StoredOp) (highWater uint64, err error) {
	if len(ops) == 0 {
		return 0, nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("journal: append batch: begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op once committed

	stmt, err := tx.Prepare(`
		INSERT INTO ops (op_seq, applied_at_ms, kind, forward, inverse)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("journal: append batch: prepare: %w", err)
	}
	defer stmt.Close()

	for _, so := range ops {
		forward, err := marshalOp(so.Op)
		if err != nil {
			return 0, fmt.Errorf("journal: append batch: op_seq %d: %w", so.OpSeq, err)
		}
		inverse, err := marshalOp(so.Inverse)
		if err != nil {
			return 0, fmt.Errorf("journal: append batch: op_seq %d: %w", so.OpSeq, err)
		}

		if _, err := stmt.Exec(so.OpSeq, so.AppliedAtMs, string(so.Op.Kind()), forward, inverse); err != nil {
			return 0, fmt.Errorf("journal: append batch: insert op_seq %d: %w", so.OpSeq, err)
		}

		if so.OpSeq > highWater {
			highWater = so.OpSeq
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("journal: append batch: commit: %w", err)
	}

	return highWater, nil
}
