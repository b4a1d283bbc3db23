package qso

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// ContestID identifies the contest instance a record belongs to. The
// core treats it as an opaque string; callers typically populate it
// from a UUIDv7 minted once per contest session (see uuid.NewV7).
type ContestID string

// Exchange is the contest-defined payload accompanying a QSO. Its
// contents are opaque to the core — only the projector interprets them.
type Exchange []byte

// Record is one logged contact. Every field is owned by the record;
// the store never aliases Record fields across copies it hands out.
type Record struct {
	ID ID

	Contest ContestID

	CallsignRaw string
	Callsign    string // normalized form, see NormalizeCallsign

	Band Band
	Mode Mode

	FrequencyHz uint64

	TimestampMs int64 // UTC, milliseconds since epoch

	RadioID    string
	OperatorID string

	Exchange Exchange

	Flags Flags
}

// Clone returns a deep copy of r so callers holding a Record returned
// by the store cannot observe or cause mutation of store-owned state.
func (r Record) Clone() Record {
	out := r
	if r.Exchange != nil {
		out.Exchange = append(Exchange(nil), r.Exchange...)
	}
	return out
}

// Draft is the pre-insert shape of a Record: every field a Record has
// except the id, which the store assigns at insert time. PinnedID is
// set only for compensating inserts (undo of a delete, or replay) and
// is never set by user-initiated inserts.
type Draft struct {
	Contest ContestID

	CallsignRaw string
	Callsign    string

	Band Band
	Mode Mode

	FrequencyHz uint64
	TimestampMs int64

	RadioID    string
	OperatorID string

	Exchange Exchange

	Flags Flags

	// PinnedID forces the insert to reuse a specific id instead of
	// drawing the next one from the store's counter. The store rejects
	// a pinned insert that collides with a live record (IdCollision).
	PinnedID *ID
}

// FromRecord builds a pinned Draft that reproduces r exactly, used to
// derive the inverse of a Delete.
func FromRecord(r Record) Draft {
	id := r.ID
	return Draft{
		Contest:     r.Contest,
		CallsignRaw: r.CallsignRaw,
		Callsign:    r.Callsign,
		Band:        r.Band,
		Mode:        r.Mode,
		FrequencyHz: r.FrequencyHz,
		TimestampMs: r.TimestampMs,
		RadioID:     r.RadioID,
		OperatorID:  r.OperatorID,
		Exchange:    append(Exchange(nil), r.Exchange...),
		Flags:       r.Flags,
		PinnedID:    &id,
	}
}

// toRecord materializes a Draft into a Record with the given assigned id.
func (d Draft) toRecord(id ID) Record {
	return Record{
		ID:          id,
		Contest:     d.Contest,
		CallsignRaw: d.CallsignRaw,
		Callsign:    d.Callsign,
		Band:        d.Band,
		Mode:        d.Mode,
		FrequencyHz: d.FrequencyHz,
		TimestampMs: d.TimestampMs,
		RadioID:     d.RadioID,
		OperatorID:  d.OperatorID,
		Exchange:    append(Exchange(nil), d.Exchange...),
		Flags:       d.Flags,
	}
}

// ToRecord exposes toRecord for packages that assign ids outside the
// store's own apply path (e.g. tests constructing expected state).
func (d Draft) ToRecord(id ID) Record {
	return d.toRecord(id)
}

// Patch is a sparse update: a record id plus one optional new value
// per mutable field. A nil field means "no change". ApplyTo mutates a
// copy of rec and returns it along with the prior values of every
// field that changed, so the runtime can derive an inverse patch.
type Patch struct {
	ID ID

	Contest     *ContestID
	CallsignRaw *string
	Callsign    *string
	Band        *Band
	Mode        *Mode
	FrequencyHz *uint64
	TimestampMs *int64
	RadioID     *string
	OperatorID  *string
	Exchange    *Exchange
	Flags       *Flags
}

// IsEmpty reports whether the patch touches no fields at all.
func (p Patch) IsEmpty() bool {
	return p.Contest == nil && p.CallsignRaw == nil && p.Callsign == nil &&
		p.Band == nil && p.Mode == nil && p.FrequencyHz == nil &&
		p.TimestampMs == nil && p.RadioID == nil && p.OperatorID == nil &&
		p.Exchange == nil && p.Flags == nil
}

// ApplyTo applies p to a copy of rec, returning the updated record and
// a Patch carrying the pre-update values of every field p touched
// (the raw material for an inverse patch).
func (p Patch) ApplyTo(rec Record) (updated Record, prior Patch) {
	updated = rec.Clone()
	prior = Patch{ID: rec.ID}

	if p.Contest != nil {
		v := updated.Contest
		prior.Contest = &v
		updated.Contest = *p.Contest
	}
	if p.CallsignRaw != nil {
		v := updated.CallsignRaw
		prior.CallsignRaw = &v
		updated.CallsignRaw = *p.CallsignRaw
	}
	if p.Callsign != nil {
		v := updated.Callsign
		prior.Callsign = &v
		updated.Callsign = *p.Callsign
	}
	if p.Band != nil {
		v := updated.Band
		prior.Band = &v
		updated.Band = *p.Band
	}
	if p.Mode != nil {
		v := updated.Mode
		prior.Mode = &v
		updated.Mode = *p.Mode
	}
	if p.FrequencyHz != nil {
		v := updated.FrequencyHz
		prior.FrequencyHz = &v
		updated.FrequencyHz = *p.FrequencyHz
	}
	if p.TimestampMs != nil {
		v := updated.TimestampMs
		prior.TimestampMs = &v
		updated.TimestampMs = *p.TimestampMs
	}
	if p.RadioID != nil {
		v := updated.RadioID
		prior.RadioID = &v
		updated.RadioID = *p.RadioID
	}
	if p.OperatorID != nil {
		v := updated.OperatorID
		prior.OperatorID = &v
		updated.OperatorID = *p.OperatorID
	}
	if p.Exchange != nil {
		v := append(Exchange(nil), updated.Exchange...)
		prior.Exchange = &v
		updated.Exchange = append(Exchange(nil), (*p.Exchange)...)
	}
	if p.Flags != nil {
		v := updated.Flags
		prior.Flags = &v
		updated.Flags = *p.Flags
	}

	return updated, prior
}

// NormalizeCallsign produces the normalized form of a raw callsign:
// Unicode NFC normalization followed by uppercasing and stripping of
// anything but ASCII letters, digits, and '/'. This is the one piece of
// domain logic the core performs on exchange-adjacent data; everything
// else about the exchange stays opaque.
func NormalizeCallsign(raw string) string {
	normalized := norm.NFC.String(raw)
	var b strings.Builder
	b.Grow(len(normalized))
	for _, r := range normalized {
		switch {
		case r >= 'a' && r <= 'z':
			b.WriteRune(r - 'a' + 'A')
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '/':
			b.WriteRune(r)
		}
	}
	return b.String()
}
