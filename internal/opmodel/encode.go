package opmodel

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"

	"github.com/contestlog/qsocore/internal/qso"
)

// magic and currentVersion form the encoding header: {magic: 4 bytes
// "QSOL", version: u16}. Every encoded op blob carries this header so
// replay can detect an incompatible journal before it tries to
// interpret the payload.
var magic = [4]byte{'Q', 'S', 'O', 'L'}

const currentVersion uint16 = 1

// Encode serializes an op into a versioned, length-prefixed blob
// suitable for storage in the journal's BLOB columns.
func Encode(op Op) ([]byte, error) {
	w, err := toWire(op)
	if err != nil {
		return nil, fmt.Errorf("encode op: %w", err)
	}

	payload, err := json.Marshal(w)
	if err != nil {
		return nil, fmt.Errorf("encode op: marshal payload: %w", err)
	}

	var buf bytes.Buffer
	buf.Write(magic[:])
	_ = binary.Write(&buf, binary.BigEndian, currentVersion)
	_ = binary.Write(&buf, binary.BigEndian, uint32(len(payload)))
	buf.Write(payload)
	return buf.Bytes(), nil
}

// Decode parses a blob produced by Encode back into an Op. It returns
// an IncompatibleJournal error if the header's magic or version do
// not match what this build understands.
func Decode(data []byte) (Op, error) {
	if len(data) < 4+2+4 {
		return nil, &IncompatibleJournalError{Reason: "blob shorter than header"}
	}
	if !bytes.Equal(data[:4], magic[:]) {
		return nil, &IncompatibleJournalError{Reason: fmt.Sprintf("bad magic %q", data[:4])}
	}
	version := binary.BigEndian.Uint16(data[4:6])
	if version != currentVersion {
		return nil, &IncompatibleJournalError{Reason: fmt.Sprintf("unsupported version %d", version)}
	}
	length := binary.BigEndian.Uint32(data[6:10])
	if int(length) != len(data)-10 {
		return nil, &IncompatibleJournalError{Reason: "length prefix mismatch"}
	}

	var w wireOp
	if err := json.Unmarshal(data[10:], &w); err != nil {
		return nil, &IncompatibleJournalError{Reason: fmt.Sprintf("unmarshal payload: %v", err)}
	}

	return fromWire(w)
}

// wireOp is the JSON-on-the-wire discriminated union for Op. Exactly
// one of Insert/Edit/Delete is populated, selected by Kind.
type wireOp struct {
	Kind   Kind         `json:"kind"`
	Insert *wireInsert  `json:"insert,omitempty"`
	Edit   *wirePatch   `json:"edit,omitempty"`
	Delete *wireDeleteT `json:"delete,omitempty"`
}

type wireInsert struct {
	PinnedID    *uint64 `json:"pinned_id,omitempty"`
	Contest     string  `json:"contest"`
	CallsignRaw string  `json:"callsign_raw"`
	Callsign    string  `json:"callsign"`
	Band        uint8   `json:"band"`
	Mode        uint8   `json:"mode"`
	FrequencyHz uint64  `json:"frequency_hz"`
	TimestampMs int64   `json:"timestamp_ms"`
	RadioID     string  `json:"radio_id"`
	OperatorID  string  `json:"operator_id"`
	Exchange    []byte  `json:"exchange,omitempty"`
	Flags       uint32  `json:"flags"`
}

type wirePatch struct {
	ID          uint64  `json:"id"`
	Contest     *string `json:"contest,omitempty"`
	CallsignRaw *string `json:"callsign_raw,omitempty"`
	Callsign    *string `json:"callsign,omitempty"`
	Band        *uint8  `json:"band,omitempty"`
	Mode        *uint8  `json:"mode,omitempty"`
	FrequencyHz *uint64 `json:"frequency_hz,omitempty"`
	TimestampMs *int64  `json:"timestamp_ms,omitempty"`
	RadioID     *string `json:"radio_id,omitempty"`
	OperatorID  *string `json:"operator_id,omitempty"`
	Exchange    []byte  `json:"exchange,omitempty"`
	HasExchange bool    `json:"has_exchange,omitempty"`
	Flags       *uint32 `json:"flags,omitempty"`
}

type wireDeleteT struct {
	ID uint64 `json:"id"`
}

func toWire(op Op) (wireOp, error) {
	switch v := op.(type) {
	case Insert:
		wi := &wireInsert{
			Contest:     string(v.Draft.Contest),
			CallsignRaw: v.Draft.CallsignRaw,
			Callsign:    v.Draft.Callsign,
			Band:        uint8(v.Draft.Band),
			Mode:        uint8(v.Draft.Mode),
			FrequencyHz: v.Draft.FrequencyHz,
			TimestampMs: v.Draft.TimestampMs,
			RadioID:     v.Draft.RadioID,
			OperatorID:  v.Draft.OperatorID,
			Exchange:    v.Draft.Exchange,
			Flags:       uint32(v.Draft.Flags),
		}
		if v.Draft.PinnedID != nil {
			id := uint64(*v.Draft.PinnedID)
			wi.PinnedID = &id
		}
		return wireOp{Kind: KindInsert, Insert: wi}, nil

	case Edit:
		p := v.Patch
		we := &wirePatch{ID: uint64(p.ID)}
		if p.Contest != nil {
			s := string(*p.Contest)
			we.Contest = &s
		}
		we.CallsignRaw = p.CallsignRaw
		we.Callsign = p.Callsign
		if p.Band != nil {
			b := uint8(*p.Band)
			we.Band = &b
		}
		if p.Mode != nil {
			m := uint8(*p.Mode)
			we.Mode = &m
		}
		we.FrequencyHz = p.FrequencyHz
		we.TimestampMs = p.TimestampMs
		we.RadioID = p.RadioID
		we.OperatorID = p.OperatorID
		if p.Exchange != nil {
			we.HasExchange = true
			we.Exchange = []byte(*p.Exchange)
		}
		if p.Flags != nil {
			f := uint32(*p.Flags)
			we.Flags = &f
		}
		return wireOp{Kind: KindEdit, Edit: we}, nil

	case Delete:
		return wireOp{Kind: KindDelete, Delete: &wireDeleteT{ID: uint64(v.ID)}}, nil

	case Undo:
		return wireOp{Kind: KindUndo}, nil

	case Redo:
		return wireOp{Kind: KindRedo}, nil

	default:
		return wireOp{}, fmt.Errorf("unknown op type %T", op)
	}
}

func fromWire(w wireOp) (Op, error) {
	switch w.Kind {
	case KindInsert:
		if w.Insert == nil {
			return nil, &IncompatibleJournalError{Reason: "insert kind missing payload"}
		}
		d := qso.Draft{
			Contest:     qso.ContestID(w.Insert.Contest),
			CallsignRaw: w.Insert.CallsignRaw,
			Callsign:    w.Insert.Callsign,
			Band:        qso.Band(w.Insert.Band),
			Mode:        qso.Mode(w.Insert.Mode),
			FrequencyHz: w.Insert.FrequencyHz,
			TimestampMs: w.Insert.TimestampMs,
			RadioID:     w.Insert.RadioID,
			OperatorID:  w.Insert.OperatorID,
			Exchange:    w.Insert.Exchange,
			Flags:       qso.Flags(w.Insert.Flags),
		}
		if w.Insert.PinnedID != nil {
			id := qso.ID(*w.Insert.PinnedID)
			d.PinnedID = &id
		}
		return Insert{Draft: d}, nil

	case KindEdit:
		if w.Edit == nil {
			return nil, &IncompatibleJournalError{Reason: "edit kind missing payload"}
		}
		p := qso.Patch{ID: qso.ID(w.Edit.ID)}
		if w.Edit.Contest != nil {
			c := qso.ContestID(*w.Edit.Contest)
			p.Contest = &c
		}
		p.CallsignRaw = w.Edit.CallsignRaw
		p.Callsign = w.Edit.Callsign
		if w.Edit.Band != nil {
			b := qso.Band(*w.Edit.Band)
			p.Band = &b
		}
		if w.Edit.Mode != nil {
			m := qso.Mode(*w.Edit.Mode)
			p.Mode = &m
		}
		p.FrequencyHz = w.Edit.FrequencyHz
		p.TimestampMs = w.Edit.TimestampMs
		p.RadioID = w.Edit.RadioID
		p.OperatorID = w.Edit.OperatorID
		if w.Edit.HasExchange {
			e := qso.Exchange(w.Edit.Exchange)
			p.Exchange = &e
		}
		if w.Edit.Flags != nil {
			f := qso.Flags(*w.Edit.Flags)
			p.Flags = &f
		}
		return Edit{Patch: p}, nil

	case KindDelete:
		if w.Delete == nil {
			return nil, &IncompatibleJournalError{Reason: "delete kind missing payload"}
		}
		return Delete{ID: qso.ID(w.Delete.ID)}, nil

	case KindUndo:
		return Undo{}, nil

	case KindRedo:
		return Redo{}, nil

	default:
		return nil, &IncompatibleJournalError{Reason: fmt.Sprintf("unknown op kind %q", w.Kind)}
	}
}
