package journal

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/contestlog/qsocore/internal/qso"
	"github.com/contestlog/qsocore/internal/store"
)

// wireSnapshot is the JSON-on-the-wire shape of a store.Snapshot.
// Record fields are flattened rather than reusing qso.Record's own
// (non-existent) JSON tags, keeping the journal's wire format
// independent of the in-memory struct layout.
type wireSnapshot struct {
	NextID  uint64           `json:"next_id"`
	Records []wireSnapRecord `json:"records"`
}

type wireSnapRecord struct {
	ID          uint64 `json:"id"`
	Contest     string `json:"contest"`
	CallsignRaw string `json:"callsign_raw"`
	Callsign    string `json:"callsign"`
	Band        uint8  `json:"band"`
	Mode        uint8  `json:"mode"`
	FrequencyHz uint64 `json:"frequency_hz"`
	TimestampMs int64  `json:"timestamp_ms"`
	RadioID     string `json:"radio_id"`
	OperatorID  string `json:"operator_id"`
	Exchange    []byte `json:"exchange,omitempty"`
	Flags       uint32 `json:"flags"`
}

// WriteSnapshot persists a store snapshot at the given journal
// position. Writing a snapshot never truncates the op log (spec
// §4.3); log compaction is out of scope.
func (s *Sink) WriteSnapshot(snap store.Snapshot, createdAtMs int64) error {
	w := wireSnapshot{
		NextID:  uint64(snap.NextID),
		Records: make([]wireSnapRecord, len(snap.Records)),
	}
	for i, rec := range snap.Records {
		w.Records[i] = wireSnapRecord{
			ID:          uint64(rec.ID),
			Contest:     string(rec.Contest),
			CallsignRaw: rec.CallsignRaw,
			Callsign:    rec.Callsign,
			Band:        uint8(rec.Band),
			Mode:        uint8(rec.Mode),
			FrequencyHz: rec.FrequencyHz,
			TimestampMs: rec.TimestampMs,
			RadioID:     rec.RadioID,
			OperatorID:  rec.OperatorID,
			Exchange:    rec.Exchange,
			Flags:       uint32(rec.Flags),
		}
	}

	data, err := json.Marshal(w)
	if err != nil {
		return fmt.Errorf("journal: write snapshot: marshal: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO snapshots (up_to_seq, created_at_ms, state)
		VALUES (?, ?, ?)
		ON CONFLICT(up_to_seq) DO NOTHING
	`, snap.UpToSeq, createdAtMs, data)
	if err != nil {
		return fmt.Errorf("journal: write snapshot: insert: %w", err)
	}

	return nil
}

// LatestSnapshot returns the most recent snapshot, if any.
func (s *Sink) LatestSnapshot() (store.Snapshot, bool, error) {
	row := s.db.QueryRow(`
		SELECT up_to_seq, state FROM snapshots
		ORDER BY up_to_seq DESC
		LIMIT 1
	`)

	var upToSeq uint64
	var data []byte
	if err := row.Scan(&upToSeq, &data); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return store.Snapshot{}, false, nil
		}
		return store.Snapshot{}, false, fmt.Errorf("journal: latest snapshot: %w", err)
	}

	var w wireSnapshot
	if err := json.Unmarshal(data, &w); err != nil {
		return store.Snapshot{}, false, fmt.Errorf("journal: latest snapshot: unmarshal: %w", err)
	}

	snap := store.Snapshot{
		NextID:  qso.ID(w.NextID),
		UpToSeq: upToSeq,
		Records: make([]qso.Record, len(w.Records)),
	}
	for i, r := range w.Records {
		snap.Records[i] = qso.Record{
			ID:          qso.ID(r.ID),
			Contest:     qso.ContestID(r.Contest),
			CallsignRaw: r.CallsignRaw,
			Callsign:    r.Callsign,
			Band:        qso.Band(r.Band),
			Mode:        qso.Mode(r.Mode),
			FrequencyHz: r.FrequencyHz,
			TimestampMs: r.TimestampMs,
			RadioID:     r.RadioID,
			OperatorID:  r.OperatorID,
			Exchange:    r.Exchange,
			Flags:       qso.Flags(r.Flags),
		}
	}

	return snap, true, nil
}
