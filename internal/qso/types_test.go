package qso

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBandRoundTrip(t *testing.T) {
	for b := range bandNames {
		if b == BandUnknown {
			continue
		}
		parsed, err := ParseBand(b.String())
		require.NoError(t, err)
		assert.Equal(t, b, parsed)
	}
}

func TestParseBandUnknown(t *testing.T) {
	_, err := ParseBand("33m")
	require.Error(t, err)
}

func TestParseModeRoundTrip(t *testing.T) {
	for m := range modeNames {
		if m == ModeUnknown {
			continue
		}
		parsed, err := ParseMode(m.String())
		require.NoError(t, err)
		assert.Equal(t, m, parsed)
	}
}

func TestParseModeUnknown(t *testing.T) {
	_, err := ParseMode("AM")
	require.Error(t, err)
}
