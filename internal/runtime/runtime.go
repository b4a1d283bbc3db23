package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/contestlog/qsocore/internal/journal"
	"github.com/contestlog/qsocore/internal/opmodel"
	"github.com/contestlog/qsocore/internal/qso"
	"github.com/contestlog/qsocore/internal/store"
)

// Runtime is the single-writer command runtime. It owns the store,
// the undo/redo stacks, and the op-sequence counter
// exclusively within its writer goroutine; the persistence worker
// appends op batches to the journal from its own goroutine. The two
// communicate through the bounded submission queue and the
// commit/error callbacks below; the writer goroutine also writes
// snapshots to the journal's connection directly (maybeSnapshot).
type Runtime struct {
	cfg Config

	store *store.Store
	undo  *undoStack
	redo  *undoStack

	sink   *journal.Sink
	worker *journal.Worker

	projector Projector
	events    *broadcaster

	cmdCh chan any

	opSeq            uint64
	opsSinceSnapshot int

	degraded atomic.Bool
	closed   atomic.Bool
	done     chan struct{}

	durableMu      sync.Mutex
	durableWaiters map[uint64][]chan struct{}

	workerCancel context.CancelFunc
	workerDone   chan struct{}
}

// Open replays the journal at path into a fresh store, then starts
// the writer and persistence worker goroutines. If projector is nil,
// a no-op Projector is used. Startup blocks until replay completes;
// the returned Runtime only ever reflects a fully-replayed state.
func Open(path string, cfg Config, projector Projector) (*Runtime, error) {
	cfg = setDefaults(cfg)
	if projector == nil {
		projector = noopProjector{}
	}

	sink, err := journal.Open(path)
	if err != nil {
		return nil, fmt.Errorf("runtime: open journal: %w", err)
	}

	s := store.New()
	var fromSeq uint64

	snap, ok, err := sink.LatestSnapshot()
	if err != nil {
		sink.Close()
		return nil, fmt.Errorf("runtime: load snapshot: %w", err)
	}
	if ok {
		s.Restore(snap)
		fromSeq = snap.UpToSeq
	}

	lastSeq := fromSeq
	err = sink.Replay(fromSeq, func(so opmodel.StoredOp) error {
		if _, applyErr := s.Apply(so.Op); applyErr != nil {
			return fmt.Errorf("replay op_seq %d: %w", so.OpSeq, applyErr)
		}
		projector.OnApplied(&so)
		lastSeq = so.OpSeq
		return nil
	})
	if err != nil {
		sink.Close()
		return nil, fmt.Errorf("runtime: replay: %w", err)
	}
	projector.OnReplayComplete(lastSeq)

	r := &Runtime{
		cfg:            cfg,
		store:          s,
		undo:           newUndoStack(cfg.UndoDepth),
		redo:           newUndoStack(cfg.UndoDepth),
		sink:           sink,
		worker:         journal.NewWorker(sink, cfg.PersistQueueCapacity, cfg.PersistBatchMax, cfg.PersistBatchLatency),
		projector:      projector,
		events:         newBroadcaster(cfg.EventBuffer),
		cmdCh:          make(chan any),
		opSeq:          lastSeq,
		done:           make(chan struct{}),
		durableWaiters: make(map[uint64][]chan struct{}),
		workerDone:     make(chan struct{}),
	}

	workerCtx, cancel := context.WithCancel(context.Background())
	r.workerCancel = cancel

	go func() {
		defer close(r.workerDone)
		r.worker.Run(workerCtx, r.onCommit, r.onPersistError)
	}()

	go r.runWriterLoop()

	return r, nil
}

// Insert submits an Insert command and blocks until it resolves per
// the runtime's AckMode.
func (r *Runtime) Insert(draft qso.Draft) (qso.ID, error) {
	if r.closed.Load() {
		return 0, &CommandError{Code: ErrShuttingDown}
	}
	draft.Callsign = qso.NormalizeCallsign(draft.CallsignRaw)

	reply := make(chan insertResult, 1)
	select {
	case r.cmdCh <- insertCmd{draft: draft, reply: reply}:
	case <-r.done:
		return 0, &CommandError{Code: ErrShuttingDown}
	}
	res := <-reply
	return res.id, res.err
}

// Edit submits an Edit command.
func (r *Runtime) Edit(patch qso.Patch) error {
	if r.closed.Load() {
		return &CommandError{Code: ErrShuttingDown}
	}
	if patch.CallsignRaw != nil {
		norm := qso.NormalizeCallsign(*patch.CallsignRaw)
		patch.Callsign = &norm
	}
	reply := make(chan error, 1)
	select {
	case r.cmdCh <- editCmd{patch: patch, reply: reply}:
	case <-r.done:
		return &CommandError{Code: ErrShuttingDown}
	}
	return <-reply
}

// Delete submits a Delete command.
func (r *Runtime) Delete(id qso.ID) error {
	if r.closed.Load() {
		return &CommandError{Code: ErrShuttingDown}
	}
	reply := make(chan error, 1)
	select {
	case r.cmdCh <- deleteCmd{id: id, reply: reply}:
	case <-r.done:
		return &CommandError{Code: ErrShuttingDown}
	}
	return <-reply
}

// Undo submits an Undo command.
func (r *Runtime) Undo() error {
	if r.closed.Load() {
		return &CommandError{Code: ErrShuttingDown}
	}
	reply := make(chan error, 1)
	select {
	case r.cmdCh <- undoCmd{reply: reply}:
	case <-r.done:
		return &CommandError{Code: ErrShuttingDown}
	}
	return <-reply
}

// Redo submits a Redo command.
func (r *Runtime) Redo() error {
	if r.closed.Load() {
		return &CommandError{Code: ErrShuttingDown}
	}
	reply := make(chan error, 1)
	select {
	case r.cmdCh <- redoCmd{reply: reply}:
	case <-r.done:
		return &CommandError{Code: ErrShuttingDown}
	}
	return <-reply
}

// Subscribe returns a Subscription delivering the runtime's event
// stream. Subscribe itself is read-only and does not go through the
// writer loop.
func (r *Runtime) Subscribe() *Subscription {
	return r.events.subscribe()
}

// Get and IterCanonical expose read access to the live store directly
// — reads never need to go through the writer loop, since Record and
// IterCanonical's callback both hand back deep copies. Both stay
// available even when the runtime has degraded to read-only.
func (r *Runtime) Get(id qso.ID) (qso.Record, bool) {
	return r.store.Get(id)
}

func (r *Runtime) IterCanonical(fn func(qso.Record) bool) {
	r.store.IterCanonical(fn)
}

func (r *Runtime) Len() int {
	return r.store.Len()
}

// Shutdown idempotently drains the command queue, flushes the
// persistence worker, emits Shutdown, and joins both goroutines.
func (r *Runtime) Shutdown() {
	if !r.closed.CompareAndSwap(false, true) {
		<-r.done
		return
	}

	reply := make(chan struct{})
	r.cmdCh <- shutdownCmd{reply: reply}
	<-reply
}

// runWriterLoop is the single writer goroutine: it owns the store,
// the undo/redo stacks, and the op-sequence counter for the lifetime
// of the Runtime.
func (r *Runtime) runWriterLoop() {
	defer close(r.done)

	for cmd := range r.cmdCh {
		switch c := cmd.(type) {
		case insertCmd:
			c.reply <- r.handleInsert(c.draft)
		case editCmd:
			c.reply <- r.handleEdit(c.patch)
		case deleteCmd:
			c.reply <- r.handleDelete(c.id)
		case undoCmd:
			c.reply <- r.handleUndo()
		case redoCmd:
			c.reply <- r.handleRedo()
		case shutdownCmd:
			r.handleShutdown()
			close(c.reply)
			return
		default:
			slog.Error("runtime: writer loop received unknown command", "type", fmt.Sprintf("%T", cmd))
		}
	}
}

func (r *Runtime) handleInsert(draft qso.Draft) insertResult {
	if r.degraded.Load() {
		return insertResult{err: &CommandError{Code: ErrPersistDegraded}}
	}

	op := opmodel.Insert{Draft: draft}
	effect, err := r.store.Apply(op)
	if err != nil {
		return insertResult{err: err}
	}

	inverse := opmodel.InverseForInsert(effect.InsertedID)
	if err := r.commit(op, inverse); err != nil {
		// The op never entered the log: revert it as if it never
		// happened, restoring the id counter too (unlike a normal
		// compensating delete), so the next insert doesn't leave a hole.
		r.store.RevertInsert(effect.InsertedID)
		return insertResult{err: err}
	}

	r.pushUndo(inverse)
	return insertResult{id: effect.InsertedID}
}

func (r *Runtime) handleEdit(patch qso.Patch) error {
	if r.degraded.Load() {
		return &CommandError{Code: ErrPersistDegraded}
	}

	op := opmodel.Edit{Patch: patch}
	effect, err := r.store.Apply(op)
	if err != nil {
		return err
	}

	inverse := opmodel.InverseForEdit(effect.PriorPatch)
	if err := r.commit(op, inverse); err != nil {
		if _, rbErr := r.store.Apply(inverse); rbErr != nil {
			slog.Error("runtime: rollback after queue-full failed", "error", rbErr)
		}
		return err
	}

	r.pushUndo(inverse)
	r.projector.Invalidate(patch.ID)
	return nil
}

func (r *Runtime) handleDelete(id qso.ID) error {
	if r.degraded.Load() {
		return &CommandError{Code: ErrPersistDegraded}
	}

	op := opmodel.Delete{ID: id}
	effect, err := r.store.Apply(op)
	if err != nil {
		return err
	}

	inverse := opmodel.InverseForDelete(effect.RemovedRecord)
	if err := r.commit(op, inverse); err != nil {
		if _, rbErr := r.store.Apply(inverse); rbErr != nil {
			slog.Error("runtime: rollback after queue-full failed", "error", rbErr)
		}
		return err
	}

	r.pushUndo(inverse)
	r.projector.Invalidate(id)
	return nil
}

// handleUndo pops the top inverse, applies it as a fresh forward op,
// and journals the new op's own inverse onto redo. Undo is not a log
// rewind — it is a normal, newly journaled op.
func (r *Runtime) handleUndo() error {
	if r.degraded.Load() {
		return &CommandError{Code: ErrPersistDegraded}
	}

	forward, ok := r.undo.pop()
	if !ok {
		return &CommandError{Code: ErrNothingToUndo}
	}

	newInverse, err := r.applyCompensating(forward)
	if err != nil {
		// The popped inverse no longer applies cleanly; nothing to
		// restore it to, since it has already left the undo stack.
		return err
	}

	r.redo.push(newInverse)
	return nil
}

func (r *Runtime) handleRedo() error {
	if r.degraded.Load() {
		return &CommandError{Code: ErrPersistDegraded}
	}

	forward, ok := r.redo.pop()
	if !ok {
		return &CommandError{Code: ErrNothingToRedo}
	}

	newInverse, err := r.applyCompensating(forward)
	if err != nil {
		return err
	}

	r.undo.push(newInverse)
	return nil
}

// applyCompensating applies a resolved Undo/Redo forward op (always a
// concrete Insert/Edit/Delete, never opmodel.Undo/Redo themselves) and
// returns its own freshly derived inverse for the opposite stack.
func (r *Runtime) applyCompensating(forward opmodel.Op) (opmodel.Op, error) {
	effect, err := r.store.Apply(forward)
	if err != nil {
		return nil, err
	}

	var inverse opmodel.Op
	var id qso.ID
	switch v := forward.(type) {
	case opmodel.Insert:
		inverse = opmodel.InverseForInsert(effect.InsertedID)
		id = effect.InsertedID
	case opmodel.Edit:
		inverse = opmodel.InverseForEdit(effect.PriorPatch)
		id = v.Patch.ID
	case opmodel.Delete:
		inverse = opmodel.InverseForDelete(effect.RemovedRecord)
		id = v.ID
	default:
		return nil, fmt.Errorf("runtime: undo/redo resolved to unsupported op %T", v)
	}

	if err := r.commit(forward, inverse); err != nil {
		if _, ok := forward.(opmodel.Insert); ok {
			r.store.RevertInsert(effect.InsertedID)
		} else if _, rbErr := r.store.Apply(inverse); rbErr != nil {
			slog.Error("runtime: rollback after queue-full failed", "error", rbErr)
		}
		return nil, err
	}

	r.projector.Invalidate(id)

	return inverse, nil
}

// pushUndo pushes inverse onto the undo stack and clears redo: every
// successful user op pushes its inverse onto undo and clears redo.
func (r *Runtime) pushUndo(inverse opmodel.Op) {
	r.undo.push(inverse)
	r.redo.clear()
}

// commit assigns the next op_seq, submits the stored op to the
// persistence worker, publishes OpApplied, and — for AckDurable —
// blocks until DurableUpTo reaches this op_seq or the runtime
// degrades. It never mutates the store; callers apply before calling
// commit and roll back on a non-nil return.
func (r *Runtime) commit(op, inverse opmodel.Op) error {
	seq := r.opSeq + 1

	so := opmodel.StoredOp{
		OpSeq:       seq,
		AppliedAtMs: r.cfg.Clock.NowMs(),
		Op:          op,
		Inverse:     inverse,
	}

	if !r.worker.Submit(so) {
		return &CommandError{Code: ErrPersistQueueFull}
	}
	r.opSeq = seq

	r.projector.OnApplied(&so)
	r.events.publish(Event{Kind: EventOpApplied, OpSeq: seq, OpSummary: string(op.Kind())})

	r.maybeSnapshot()

	if r.cfg.AckMode == AckDurable {
		return r.awaitDurable(seq)
	}
	return nil
}

// awaitDurable blocks until op_seq has been observed durable, or the
// runtime degrades while waiting.
func (r *Runtime) awaitDurable(seq uint64) error {
	waiter := make(chan struct{})

	r.durableMu.Lock()
	r.durableWaiters[seq] = append(r.durableWaiters[seq], waiter)
	r.durableMu.Unlock()

	<-waiter

	if r.degraded.Load() {
		return &CommandError{Code: ErrPersistDegraded}
	}
	return nil
}

// onCommit is invoked on the persistence worker's goroutine once a
// batch lands durably. It publishes DurableUpTo and wakes any
// AckDurable waiter whose op_seq is now covered.
func (r *Runtime) onCommit(highWater uint64) {
	r.events.publish(Event{Kind: EventDurableUpTo, OpSeq: highWater})

	r.durableMu.Lock()
	for seq, waiters := range r.durableWaiters {
		if seq > highWater {
			continue
		}
		for _, w := range waiters {
			close(w)
		}
		delete(r.durableWaiters, seq)
	}
	r.durableMu.Unlock()
}

// onPersistError is invoked on the persistence worker's goroutine
// after a commit failure. It degrades the runtime to read-only and
// wakes every outstanding durable waiter so none blocks forever; they
// observe the degraded flag and return PersistDegraded.
func (r *Runtime) onPersistError(err error) {
	r.degraded.Store(true)
	r.events.publish(Event{Kind: EventPersistErr, Detail: err.Error()})

	r.durableMu.Lock()
	for seq, waiters := range r.durableWaiters {
		for _, w := range waiters {
			close(w)
		}
		delete(r.durableWaiters, seq)
	}
	r.durableMu.Unlock()
}

// maybeSnapshot takes a snapshot if SnapshotIntervalOps is enabled and
// enough ops have accumulated since the last one.
func (r *Runtime) maybeSnapshot() {
	if r.cfg.SnapshotIntervalOps <= 0 {
		return
	}
	r.opsSinceSnapshot++
	if r.opsSinceSnapshot < r.cfg.SnapshotIntervalOps {
		return
	}
	r.opsSinceSnapshot = 0

	snap := r.store.Snapshot(r.opSeq)
	if err := r.sink.WriteSnapshot(snap, r.cfg.Clock.NowMs()); err != nil {
		slog.Error("runtime: snapshot write failed", "error", err, "up_to_seq", snap.UpToSeq)
	}
}

// handleShutdown drains any commands still queued behind the
// shutdown command, flushes the persistence worker, publishes
// Shutdown, and joins the worker goroutine. Called only from the
// writer loop.
func (r *Runtime) handleShutdown() {
drain:
	for {
		select {
		case cmd := <-r.cmdCh:
			rejectPending(cmd)
		default:
			break drain
		}
	}

	r.workerCancel()
	<-r.workerDone

	r.events.publish(Event{Kind: EventShutdown})
	r.events.closeAll()
	r.sink.Close()
}

// rejectPending replies to a command that arrived after shutdown
// began with ErrShuttingDown.
func rejectPending(cmd any) {
	switch c := cmd.(type) {
	case insertCmd:
		c.reply <- insertResult{err: &CommandError{Code: ErrShuttingDown}}
	case editCmd:
		c.reply <- &CommandError{Code: ErrShuttingDown}
	case deleteCmd:
		c.reply <- &CommandError{Code: ErrShuttingDown}
	case undoCmd:
		c.reply <- &CommandError{Code: ErrShuttingDown}
	case redoCmd:
		c.reply <- &CommandError{Code: ErrShuttingDown}
	case shutdownCmd:
		close(c.reply)
	}
}
