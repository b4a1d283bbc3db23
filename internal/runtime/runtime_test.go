package runtime

import (
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/contestlog/qsocore/internal/opmodel"
	"github.com/contestlog/qsocore/internal/qso"
)

func openTestRuntime(t *testing.T, cfg Config) *Runtime {
	t.Helper()
	return openTestRuntimeWithProjector(t, cfg, nil)
}

func openTestRuntimeWithProjector(t *testing.T, cfg Config, projector Projector) *Runtime {
	t.Helper()
	path := filepath.Join(t.TempDir(), "journal.db")
	rt, err := Open(path, cfg, projector)
	require.NoError(t, err)
	t.Cleanup(rt.Shutdown)
	return rt
}

// recordingProjector tracks which ids Invalidate was called with, in order.
type recordingProjector struct {
	mu          sync.Mutex
	invalidated []qso.ID
}

func (p *recordingProjector) OnApplied(*opmodel.StoredOp) {}
func (p *recordingProjector) OnReplayComplete(uint64)     {}
func (p *recordingProjector) Invalidate(id qso.ID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.invalidated = append(p.invalidated, id)
}

func (p *recordingProjector) invalidatedIDs() []qso.ID {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]qso.ID, len(p.invalidated))
	copy(out, p.invalidated)
	return out
}

func sampleDraft(callsign string) qso.Draft {
	return qso.Draft{
		CallsignRaw: callsign,
		Band:        qso.Band20m,
		Mode:        qso.ModeCW,
		FrequencyHz: 14025000,
		TimestampMs: 1000,
	}
}

func TestInsertThenRead(t *testing.T) {
	rt := openTestRuntime(t, Config{})

	id, err := rt.Insert(sampleDraft("k1abc"))
	require.NoError(t, err)
	require.Equal(t, qso.ID(1), id)

	require.Equal(t, 1, rt.Len())
	rec, ok := rt.Get(1)
	require.True(t, ok)
	require.Equal(t, "K1ABC", rec.Callsign)
}

func TestEditAndUndoRedo(t *testing.T) {
	rt := openTestRuntime(t, Config{})

	id, err := rt.Insert(sampleDraft("k1abc"))
	require.NoError(t, err)

	newFreq := uint64(14026000)
	err = rt.Edit(qso.Patch{ID: id, FrequencyHz: &newFreq})
	require.NoError(t, err)

	rec, _ := rt.Get(id)
	require.Equal(t, newFreq, rec.FrequencyHz)

	require.NoError(t, rt.Undo())
	rec, _ = rt.Get(id)
	require.Equal(t, uint64(14025000), rec.FrequencyHz)

	require.NoError(t, rt.Redo())
	rec, _ = rt.Get(id)
	require.Equal(t, newFreq, rec.FrequencyHz)
}

func TestDeleteAndUndoRestoresID(t *testing.T) {
	rt := openTestRuntime(t, Config{})

	id1, err := rt.Insert(sampleDraft("k1abc"))
	require.NoError(t, err)
	id2, err := rt.Insert(sampleDraft("w1xyz"))
	require.NoError(t, err)

	before, _ := rt.Get(id1)

	require.NoError(t, rt.Delete(id1))
	require.Equal(t, 1, rt.Len())

	require.NoError(t, rt.Undo())
	require.Equal(t, 2, rt.Len())

	after, ok := rt.Get(id1)
	require.True(t, ok)
	require.Equal(t, before, after)

	var order []qso.ID
	rt.IterCanonical(func(r qso.Record) bool {
		order = append(order, r.ID)
		return true
	})
	require.Equal(t, []qso.ID{id1, id2}, order)
}

func TestUndoWithEmptyStackFails(t *testing.T) {
	rt := openTestRuntime(t, Config{})
	err := rt.Undo()
	require.Error(t, err)
	require.True(t, IsCode(err, ErrNothingToUndo))
}

func TestRedoWithEmptyStackFails(t *testing.T) {
	rt := openTestRuntime(t, Config{})
	err := rt.Redo()
	require.Error(t, err)
	require.True(t, IsCode(err, ErrNothingToRedo))
}

func TestUserOpClearsRedoStack(t *testing.T) {
	rt := openTestRuntime(t, Config{})

	id, err := rt.Insert(sampleDraft("k1abc"))
	require.NoError(t, err)
	require.NoError(t, rt.Delete(id))
	require.NoError(t, rt.Undo())

	_, err = rt.Insert(sampleDraft("w1xyz"))
	require.NoError(t, err)

	err = rt.Redo()
	require.True(t, IsCode(err, ErrNothingToRedo))
}

func TestReplayEquivalence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")

	rt, err := Open(path, Config{}, nil)
	require.NoError(t, err)

	id1, err := rt.Insert(sampleDraft("k1abc"))
	require.NoError(t, err)
	newFreq := uint64(14030000)
	require.NoError(t, rt.Edit(qso.Patch{ID: id1, FrequencyHz: &newFreq}))
	_, err = rt.Insert(sampleDraft("w1xyz"))
	require.NoError(t, err)
	require.NoError(t, rt.Delete(id1))

	before := rt.store.Records()
	rt.Shutdown()

	reopened, err := Open(path, Config{}, nil)
	require.NoError(t, err)
	defer reopened.Shutdown()

	after := reopened.store.Records()
	require.Equal(t, before, after)
}

// TestRapidSequentialInsertsStayContiguous covers normal (non-stalled)
// operation: a long run of sequential inserts never leaves a gap in
// assigned ids. The queue-full rollback path itself (a submit that
// fails because the persistence worker has fallen behind) is
// exercised deterministically at the journal-worker level, since
// reproducing a truly stalled worker here would depend on goroutine
// scheduling.
func TestRapidSequentialInsertsStayContiguous(t *testing.T) {
	rt := openTestRuntime(t, Config{})

	for i := 0; i < 50; i++ {
		_, err := rt.Insert(sampleDraft("k1abc"))
		require.NoError(t, err)
	}

	var ids []qso.ID
	rt.IterCanonical(func(r qso.Record) bool {
		ids = append(ids, r.ID)
		return true
	})
	require.Len(t, ids, 50)
	for i, id := range ids {
		require.Equal(t, qso.ID(i+1), id)
	}
}

func TestDurableAckResolvesAfterDurableUpToEvent(t *testing.T) {
	rt := openTestRuntime(t, Config{AckMode: AckDurable})

	sub := rt.Subscribe()
	defer sub.Unsubscribe()

	id, err := rt.Insert(sampleDraft("k1abc"))
	require.NoError(t, err)

	select {
	case ev := <-sub.Events:
		require.Equal(t, EventOpApplied, ev.Kind)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for OpApplied")
	}

	var sawDurable bool
	for i := 0; i < 2 && !sawDurable; i++ {
		select {
		case ev := <-sub.Events:
			if ev.Kind == EventDurableUpTo && ev.OpSeq >= uint64(id) {
				sawDurable = true
			}
		case <-time.After(time.Second):
		}
	}
	require.True(t, sawDurable, "expected a DurableUpTo event covering the insert")
}

func TestShutdownIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")
	rt, err := Open(path, Config{}, nil)
	require.NoError(t, err)

	rt.Shutdown()
	rt.Shutdown()

	_, err = rt.Insert(sampleDraft("k1abc"))
	require.True(t, IsCode(err, ErrShuttingDown))
}

func TestProjectorInvalidateFiresOnEditDeleteAndUndoRedo(t *testing.T) {
	proj := &recordingProjector{}
	rt := openTestRuntimeWithProjector(t, Config{}, proj)

	id, err := rt.Insert(sampleDraft("k1abc"))
	require.NoError(t, err)

	newFreq := uint64(14026000)
	require.NoError(t, rt.Edit(qso.Patch{ID: id, FrequencyHz: &newFreq}))
	require.NoError(t, rt.Undo())
	require.NoError(t, rt.Redo())
	require.NoError(t, rt.Delete(id))

	require.Equal(t, []qso.ID{id, id, id, id}, proj.invalidatedIDs())
}

func TestEditNormalizesCallsignFromRaw(t *testing.T) {
	rt := openTestRuntime(t, Config{})

	id, err := rt.Insert(sampleDraft("k1abc"))
	require.NoError(t, err)

	raw := "w1xyz"
	require.NoError(t, rt.Edit(qso.Patch{ID: id, CallsignRaw: &raw}))

	rec, ok := rt.Get(id)
	require.True(t, ok)
	require.Equal(t, "w1xyz", rec.CallsignRaw)
	require.Equal(t, "W1XYZ", rec.Callsign)
}
