package store

import "github.com/contestlog/qsocore/internal/qso"

// Snapshot captures everything needed to restore a Store without
// replaying the ops that produced it: the canonical record sequence,
// the id counter, and the journal position it was taken at (spec
// §4.3 "A snapshot captures (canonical record sequence, next_id,
// up_to_seq)").
type Snapshot struct {
	Records []qso.Record
	NextID  qso.ID
	UpToSeq uint64
}

// Snapshot returns a Snapshot of the store's current state as of
// journal position upToSeq. The caller supplies upToSeq because only
// the runtime (which assigns op_seq) knows the store's current
// journal position.
func (s *Store) Snapshot(upToSeq uint64) Snapshot {
	return Snapshot{
		Records: s.Records(),
		NextID:  s.nextID,
		UpToSeq: upToSeq,
	}
}

// Restore replaces the store's entire state with snap. It is used at
// startup to fast-forward from a persisted snapshot before streaming
// the remaining journal tail.
func (s *Store) Restore(snap Snapshot) {
	s.records = make(map[qso.ID]qso.Record, len(snap.Records))
	s.order = make([]qso.ID, 0, len(snap.Records))
	for _, rec := range snap.Records {
		s.records[rec.ID] = rec.Clone()
		s.order = append(s.order, rec.ID)
	}
	s.nextID = snap.NextID
}
