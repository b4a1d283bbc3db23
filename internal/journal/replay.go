package journal

import (
	"fmt"

	"github.com/contestlog/qsocore/internal/opmodel"
)

// Replay streams stored ops with op_seq > fromSeq in ascending,
// gapless order, calling fn once per op. If a snapshot exists at S >
// fromSeq the caller is expected to have already restored it and
// passed S as fromSeq — Replay itself only ever reads the ops table.
//
// A decode failure is always fatal (IncompatibleJournalError); Replay
// stops and returns the error without calling fn for the bad record.
func (s *Sink) Replay(fromSeq uint64, fn func(opmodel.StoredOp) error) error {
	rows, err := s.db.Query(`
		SELECT op_seq, applied_at_ms, forward, inverse
		FROM ops
		WHERE op_seq > ?
		ORDER BY op_seq ASC
	`, fromSeq)
	if err != nil {
		return fmt.Errorf("journal: replay: query: %w", err)
	}
	defer rows.Close()

	lastSeq := fromSeq
	for rows.Next() {
		var opSeq uint64
		var appliedAtMs int64
		var forwardBlob, inverseBlob []byte

		if err := rows.Scan(&opSeq, &appliedAtMs, &forwardBlob, &inverseBlob); err != nil {
			return fmt.Errorf("journal: replay: scan op_seq near %d: %w", lastSeq, err)
		}

		if opSeq != lastSeq+1 {
			return fmt.Errorf("journal: replay: gap in op_seq: %d then %d", lastSeq, opSeq)
		}

		forward, err := unmarshalOp(forwardBlob)
		if err != nil {
			return fmt.Errorf("journal: replay: op_seq %d: %w", opSeq, err)
		}
		inverse, err := unmarshalOp(inverseBlob)
		if err != nil {
			return fmt.Errorf("journal: replay: op_seq %d: %w", opSeq, err)
		}

		so := opmodel.StoredOp{
			OpSeq:       opSeq,
			AppliedAtMs: appliedAtMs,
			Op:          forward,
			Inverse:     inverse,
		}
		if err := fn(so); err != nil {
			return fmt.Errorf("journal: replay: op_seq %d: apply: %w", opSeq, err)
		}

		lastSeq = opSeq
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("journal: replay: iterate: %w", err)
	}

	return nil
}

// HighWaterMark returns the highest op_seq currently in the journal,
// or 0 if the journal is empty.
func (s *Sink) HighWaterMark() (uint64, error) {
	var max uint64
	row := s.db.QueryRow(`SELECT COALESCE(MAX(op_seq), 0) FROM ops`)
	if err := row.Scan(&max); err != nil {
		return 0, fmt.Errorf("journal: high water mark: %w", err)
	}
	return max, nil
}

// OpsSinceSnapshot reports how many ops have been appended since the
// given snapshot position. The runtime uses this diagnostic to decide
// when to take its next snapshot; the cadence policy itself lives in
// the runtime, not here.
func (s *Sink) OpsSinceSnapshot(snapshotUpToSeq uint64) (uint64, error) {
	hw, err := s.HighWaterMark()
	if err != nil {
		return 0, err
	}
	if hw < snapshotUpToSeq {
		return 0, nil
	}
	return hw - snapshotUpToSeq, nil
}
