package journal

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/contestlog/qsocore/internal/opmodel"
	"github.com/contestlog/qsocore/internal/qso"
	"github.com/contestlog/qsocore/internal/store"
)

func openTestSink(t *testing.T) *Sink {
	t.Helper()
	path := filepath.Join(t.TempDir(), "journal.db")
	sink, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { sink.Close() })
	return sink
}

func TestAppendBatchAndReplay(t *testing.T) {
	sink := openTestSink(t)

	ops := []opmodel.StoredOp{
		{OpSeq: 1, AppliedAtMs: 1000, Op: opmodel.Insert{Draft: qso.Draft{CallsignRaw: "k1abc"}}, Inverse: opmodel.Delete{ID: 1}},
		{OpSeq: 2, AppliedAtMs: 1001, Op: opmodel.Delete{ID: 1}, Inverse: opmodel.Insert{Draft: qso.Draft{CallsignRaw: "k1abc", PinnedID: idPtr(1)}}},
	}

	hw, err := sink.AppendBatch(ops)
	require.NoError(t, err)
	require.Equal(t, uint64(2), hw)

	var replayed []opmodel.StoredOp
	err = sink.Replay(0, func(so opmodel.StoredOp) error {
		replayed = append(replayed, so)
		return nil
	})
	require.NoError(t, err)
	require.Len(t, replayed, 2)
	require.Equal(t, ops[0].Op, replayed[0].Op)
	require.Equal(t, ops[1].Op, replayed[1].Op)
}

func TestReplayFromSeqSkipsPriorOps(t *testing.T) {
	sink := openTestSink(t)

	ops := []opmodel.StoredOp{
		{OpSeq: 1, AppliedAtMs: 1000, Op: opmodel.Insert{Draft: qso.Draft{CallsignRaw: "a"}}, Inverse: opmodel.Delete{ID: 1}},
		{OpSeq: 2, AppliedAtMs: 1001, Op: opmodel.Insert{Draft: qso.Draft{CallsignRaw: "b"}}, Inverse: opmodel.Delete{ID: 2}},
	}
	_, err := sink.AppendBatch(ops)
	require.NoError(t, err)

	var replayed []opmodel.StoredOp
	err = sink.Replay(1, func(so opmodel.StoredOp) error {
		replayed = append(replayed, so)
		return nil
	})
	require.NoError(t, err)
	require.Len(t, replayed, 1)
	require.Equal(t, uint64(2), replayed[0].OpSeq)
}

func TestSnapshotRoundTrip(t *testing.T) {
	sink := openTestSink(t)

	snap := store.Snapshot{
		NextID: 2,
		Records: []qso.Record{
			{ID: 1, CallsignRaw: "k1abc", Callsign: "K1ABC"},
			{ID: 2, CallsignRaw: "w1xyz", Callsign: "W1XYZ"},
		},
		UpToSeq: 5,
	}

	require.NoError(t, sink.WriteSnapshot(snap, 2000))

	got, ok, err := sink.LatestSnapshot()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, snap.NextID, got.NextID)
	require.Equal(t, snap.UpToSeq, got.UpToSeq)
	require.Equal(t, snap.Records, got.Records)
}

func TestLatestSnapshotEmptyJournal(t *testing.T) {
	sink := openTestSink(t)
	_, ok, err := sink.LatestSnapshot()
	require.NoError(t, err)
	require.False(t, ok)
}

func TestHighWaterMarkEmptyJournal(t *testing.T) {
	sink := openTestSink(t)
	hw, err := sink.HighWaterMark()
	require.NoError(t, err)
	require.Equal(t, uint64(0), hw)
}

func idPtr(id qso.ID) *qso.ID { return &id }
