package qso

import "fmt"

// ID is a monotonic QSO identifier. IDs are never reused and are
// assigned in strictly increasing order starting at 1.
type ID uint64

// String implements fmt.Stringer for log-friendly formatting.
func (id ID) String() string {
	return fmt.Sprintf("qso#%d", uint64(id))
}

// Band is a closed enumeration of amateur radio contest bands.
type Band uint8

const (
	BandUnknown Band = iota
	Band160m
	Band80m
	Band40m
	Band20m
	Band15m
	Band10m
	Band6m
	Band2m
)

var bandNames = map[Band]string{
	BandUnknown: "unknown",
	Band160m:    "160m",
	Band80m:     "80m",
	Band40m:     "40m",
	Band20m:     "20m",
	Band15m:     "15m",
	Band10m:     "10m",
	Band6m:      "6m",
	Band2m:      "2m",
}

// String implements fmt.Stringer.
func (b Band) String() string {
	if name, ok := bandNames[b]; ok {
		return name
	}
	return fmt.Sprintf("band(%d)", uint8(b))
}

// Valid reports whether b is one of the closed set of known bands.
func (b Band) Valid() bool {
	_, ok := bandNames[b]
	return ok && b != BandUnknown
}

// ParseBand parses a band name (e.g. "20m") into its Band value.
func ParseBand(name string) (Band, error) {
	for b, n := range bandNames {
		if n == name {
			return b, nil
		}
	}
	return BandUnknown, fmt.Errorf("qso: unknown band %q", name)
}

// Mode is a closed enumeration of contest modulation modes.
type Mode uint8

const (
	ModeUnknown Mode = iota
	ModeCW
	ModeSSB
	ModeFM
	ModeRTTY
	ModeFT8
	ModeFT4
)

var modeNames = map[Mode]string{
	ModeUnknown: "unknown",
	ModeCW:      "CW",
	ModeSSB:     "SSB",
	ModeFM:      "FM",
	ModeRTTY:    "RTTY",
	ModeFT8:     "FT8",
	ModeFT4:     "FT4",
}

// String implements fmt.Stringer.
func (m Mode) String() string {
	if name, ok := modeNames[m]; ok {
		return name
	}
	return fmt.Sprintf("mode(%d)", uint8(m))
}

// Valid reports whether m is one of the closed set of known modes.
func (m Mode) Valid() bool {
	_, ok := modeNames[m]
	return ok && m != ModeUnknown
}

// ParseMode parses a mode name (e.g. "CW") into its Mode value.
func ParseMode(name string) (Mode, error) {
	for m, n := range modeNames {
		if n == name {
			return m, nil
		}
	}
	return ModeUnknown, fmt.Errorf("qso: unknown mode %q", name)
}

// Flags is a bit field of editorial states attached to a record.
// Flags are orthogonal to one another and never drive store behavior
// on their own — they are carried for the projector and UI to read.
type Flags uint32

const (
	// FlagDupe marks a record as a contest-rules duplicate contact.
	FlagDupe Flags = 1 << iota
	// FlagManualEdit marks a record that has been hand-edited since insert.
	FlagManualEdit
	// FlagNeedsReview marks a record flagged for operator follow-up.
	FlagNeedsReview
)

// Has reports whether all bits in want are set in f.
func (f Flags) Has(want Flags) bool {
	return f&want == want
}

// Set returns f with the given bits set.
func (f Flags) Set(bits Flags) Flags {
	return f | bits
}

// Clear returns f with the given bits cleared.
func (f Flags) Clear(bits Flags) Flags {
	return f &^ bits
}
