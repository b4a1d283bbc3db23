package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contestlog/qsocore/internal/opmodel"
	"github.com/contestlog/qsocore/internal/qso"
)

func draft(callsign string) qso.Draft {
	return qso.Draft{
		CallsignRaw: callsign,
		Callsign:    qso.NormalizeCallsign(callsign),
		Band:        qso.Band20m,
		Mode:        qso.ModeCW,
		FrequencyHz: 14025000,
		TimestampMs: 1000,
	}
}

func TestInsertAssignsMonotonicIDs(t *testing.T) {
	s := New()

	eff1, err := s.Apply(opmodel.Insert{Draft: draft("k1abc")})
	require.NoError(t, err)
	assert.Equal(t, qso.ID(1), eff1.InsertedID)

	eff2, err := s.Apply(opmodel.Insert{Draft: draft("w1xyz")})
	require.NoError(t, err)
	assert.Equal(t, qso.ID(2), eff2.InsertedID)

	assert.Equal(t, 2, s.Len())
}

func TestIterCanonicalOrderIsAscendingID(t *testing.T) {
	s := New()
	_, _ = s.Apply(opmodel.Insert{Draft: draft("a")})
	_, _ = s.Apply(opmodel.Insert{Draft: draft("b")})
	_, _ = s.Apply(opmodel.Insert{Draft: draft("c")})

	var ids []qso.ID
	s.IterCanonical(func(r qso.Record) bool {
		ids = append(ids, r.ID)
		return true
	})
	assert.Equal(t, []qso.ID{1, 2, 3}, ids)
}

func TestEditUnknownIDFailsPure(t *testing.T) {
	s := New()
	freq := uint64(1)
	_, err := s.Apply(opmodel.Edit{Patch: qso.Patch{ID: 42, FrequencyHz: &freq}})
	require.Error(t, err)
	assert.True(t, IsUnknownID(err))
	assert.Equal(t, 0, s.Len())
}

func TestDeleteThenPinnedInsertRestoresID(t *testing.T) {
	s := New()
	_, _ = s.Apply(opmodel.Insert{Draft: draft("a")}) // id 1
	_, _ = s.Apply(opmodel.Insert{Draft: draft("b")}) // id 2

	before, ok := s.Get(1)
	require.True(t, ok)

	delEff, err := s.Apply(opmodel.Delete{ID: 1})
	require.NoError(t, err)
	assert.Equal(t, 1, s.Len())

	inverse := opmodel.InverseForDelete(delEff.RemovedRecord)
	_, err = s.Apply(inverse)
	require.NoError(t, err)

	after, ok := s.Get(1)
	require.True(t, ok)
	assert.Equal(t, before, after)

	var ids []qso.ID
	s.IterCanonical(func(r qso.Record) bool { ids = append(ids, r.ID); return true })
	assert.Equal(t, []qso.ID{1, 2}, ids)
}

func TestPinnedInsertCollisionFails(t *testing.T) {
	s := New()
	_, _ = s.Apply(opmodel.Insert{Draft: draft("a")}) // id 1

	pinned := qso.ID(1)
	_, err := s.Apply(opmodel.Insert{Draft: qso.Draft{CallsignRaw: "dup", PinnedID: &pinned}})
	require.Error(t, err)
	assert.True(t, IsIDCollision(err))
}

func TestApplyEditThenInverseRestoresPreState(t *testing.T) {
	s := New()
	_, _ = s.Apply(opmodel.Insert{Draft: draft("a")})
	before, _ := s.Get(1)

	newFreq := uint64(14026000)
	eff, err := s.Apply(opmodel.Edit{Patch: qso.Patch{ID: 1, FrequencyHz: &newFreq}})
	require.NoError(t, err)

	inverse := opmodel.InverseForEdit(eff.PriorPatch)
	_, err = s.Apply(inverse)
	require.NoError(t, err)

	after, _ := s.Get(1)
	assert.Equal(t, before, after)
}

func TestSnapshotRestoreRoundTrip(t *testing.T) {
	s := New()
	_, _ = s.Apply(opmodel.Insert{Draft: draft("a")})
	_, _ = s.Apply(opmodel.Insert{Draft: draft("b")})
	_, _ = s.Apply(opmodel.Delete{ID: 1})
	_, _ = s.Apply(opmodel.Insert{Draft: draft("c")})

	snap := s.Snapshot(4)

	restored := New()
	restored.Restore(snap)

	assert.Equal(t, s.Records(), restored.Records())
	assert.Equal(t, s.NextID(), restored.NextID())
}

func TestDeleteUnknownIDFails(t *testing.T) {
	s := New()
	_, err := s.Apply(opmodel.Delete{ID: 1})
	require.Error(t, err)
	assert.True(t, IsUnknownID(err))
}

func TestRevertInsertRestoresCounterNoHole(t *testing.T) {
	s := New()
	eff1, err := s.Apply(opmodel.Insert{Draft: draft("a")})
	require.NoError(t, err)
	assert.Equal(t, qso.ID(1), eff1.InsertedID)

	eff2, err := s.Apply(opmodel.Insert{Draft: draft("b")})
	require.NoError(t, err)
	assert.Equal(t, qso.ID(2), eff2.InsertedID)

	s.RevertInsert(eff2.InsertedID)
	assert.Equal(t, 1, s.Len())
	assert.Equal(t, qso.ID(2), s.NextID(), "reverting the top insert must free its id for reuse")

	eff3, err := s.Apply(opmodel.Insert{Draft: draft("c")})
	require.NoError(t, err)
	assert.Equal(t, qso.ID(2), eff3.InsertedID, "next insert must not leave a hole at the reverted id")
}

func TestRevertInsertOfPinnedIDDoesNotTouchCounter(t *testing.T) {
	s := New()
	_, err := s.Apply(opmodel.Insert{Draft: draft("a")}) // id 1
	require.NoError(t, err)
	_, err = s.Apply(opmodel.Insert{Draft: draft("b")}) // id 2
	require.NoError(t, err)

	delEff, err := s.Apply(opmodel.Delete{ID: 1})
	require.NoError(t, err)

	inverse := opmodel.InverseForDelete(delEff.RemovedRecord)
	reinsertEff, err := s.Apply(inverse)
	require.NoError(t, err)

	s.RevertInsert(reinsertEff.InsertedID)
	assert.Equal(t, 1, s.Len())
	assert.Equal(t, qso.ID(3), s.NextID(), "reverting a pinned (low-id) insert must not rewind the counter")
}
