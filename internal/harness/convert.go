package harness

import (
	"fmt"

	"github.com/contestlog/qsocore/internal/qso"
)

// draftFromArgs builds a Draft from scenario args. contest is used
// unless args overrides it with a "contest" string.
func draftFromArgs(args map[string]interface{}, contest qso.ContestID) (qso.Draft, error) {
	d := qso.Draft{Contest: contest}

	if v, ok := args["contest"]; ok {
		s, err := toString(v, "contest")
		if err != nil {
			return d, err
		}
		d.Contest = qso.ContestID(s)
	}
	if v, ok := args["callsign"]; ok {
		s, err := toString(v, "callsign")
		if err != nil {
			return d, err
		}
		d.CallsignRaw = s
		d.Callsign = qso.NormalizeCallsign(s)
	}
	if v, ok := args["band"]; ok {
		s, err := toString(v, "band")
		if err != nil {
			return d, err
		}
		b, err := qso.ParseBand(s)
		if err != nil {
			return d, err
		}
		d.Band = b
	}
	if v, ok := args["mode"]; ok {
		s, err := toString(v, "mode")
		if err != nil {
			return d, err
		}
		m, err := qso.ParseMode(s)
		if err != nil {
			return d, err
		}
		d.Mode = m
	}
	if v, ok := args["frequency_hz"]; ok {
		n, err := toUint64(v, "frequency_hz")
		if err != nil {
			return d, err
		}
		d.FrequencyHz = n
	}
	if v, ok := args["timestamp_ms"]; ok {
		n, err := toInt64(v, "timestamp_ms")
		if err != nil {
			return d, err
		}
		d.TimestampMs = n
	}
	if v, ok := args["radio_id"]; ok {
		s, err := toString(v, "radio_id")
		if err != nil {
			return d, err
		}
		d.RadioID = s
	}
	if v, ok := args["operator_id"]; ok {
		s, err := toString(v, "operator_id")
		if err != nil {
			return d, err
		}
		d.OperatorID = s
	}

	return d, nil
}

// patchFromArgs builds a Patch from scenario args. args["id"] selects
// the target record explicitly; if absent, the most recently inserted
// id (lastIDs["last"]) is used.
func patchFromArgs(args map[string]interface{}, lastIDs map[string]qso.ID) (qso.Patch, error) {
	id, err := idFromArgs(args, lastIDs)
	if err != nil {
		return qso.Patch{}, err
	}
	p := qso.Patch{ID: id}

	if v, ok := args["callsign"]; ok {
		s, err := toString(v, "callsign")
		if err != nil {
			return p, err
		}
		p.CallsignRaw = &s
	}
	if v, ok := args["band"]; ok {
		s, err := toString(v, "band")
		if err != nil {
			return p, err
		}
		b, err := qso.ParseBand(s)
		if err != nil {
			return p, err
		}
		p.Band = &b
	}
	if v, ok := args["mode"]; ok {
		s, err := toString(v, "mode")
		if err != nil {
			return p, err
		}
		m, err := qso.ParseMode(s)
		if err != nil {
			return p, err
		}
		p.Mode = &m
	}
	if v, ok := args["frequency_hz"]; ok {
		n, err := toUint64(v, "frequency_hz")
		if err != nil {
			return p, err
		}
		p.FrequencyHz = &n
	}
	if v, ok := args["timestamp_ms"]; ok {
		n, err := toInt64(v, "timestamp_ms")
		if err != nil {
			return p, err
		}
		p.TimestampMs = &n
	}

	return p, nil
}

// idFromArgs resolves args["id"], defaulting to the last inserted id
// when absent.
func idFromArgs(args map[string]interface{}, lastIDs map[string]qso.ID) (qso.ID, error) {
	if v, ok := args["id"]; ok {
		n, err := toUint64(v, "id")
		if err != nil {
			return 0, err
		}
		return qso.ID(n), nil
	}
	if id, ok := lastIDs["last"]; ok {
		return id, nil
	}
	return 0, fmt.Errorf("no id given and no prior insert to default to")
}

func toString(v interface{}, field string) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("field %q: expected string, got %T", field, v)
	}
	return s, nil
}

func toInt64(v interface{}, field string) (int64, error) {
	switch n := v.(type) {
	case int:
		return int64(n), nil
	case int64:
		return n, nil
	case uint64:
		return int64(n), nil
	case float64:
		return int64(n), nil
	default:
		return 0, fmt.Errorf("field %q: expected integer, got %T", field, v)
	}
}

func toUint64(v interface{}, field string) (uint64, error) {
	n, err := toInt64(v, field)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, fmt.Errorf("field %q: must be non-negative, got %d", field, n)
	}
	return uint64(n), nil
}
