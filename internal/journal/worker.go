package journal

import (
	"context"
	"log/slog"
	"time"

	"github.com/contestlog/qsocore/internal/opmodel"
)

// Worker is the persistence worker: it is the only goroutine that
// ever calls Sink.AppendBatch (snapshot writes reach the same
// connection from the runtime's writer goroutine). It drains a bounded submission queue with
// explicit backpressure rather than an unbounded one, so a stalled
// journal surfaces as PersistQueueFull instead of unbounded memory
// growth.
type Worker struct {
	sink     *Sink
	queue    *submitQueue
	batchMax int
	latency  time.Duration
}

// NewWorker constructs a Worker with the given queue capacity, max
// ops per transaction, and max batching delay.
func NewWorker(sink *Sink, queueCapacity, batchMax int, batchLatency time.Duration) *Worker {
	return &Worker{
		sink:     sink,
		queue:    newSubmitQueue(queueCapacity),
		batchMax: batchMax,
		latency:  batchLatency,
	}
}

// Submit enqueues a stored op for the next commit. Returns false if
// the queue is full or closed — the caller (runtime writer loop) must
// treat that as PersistQueueFull and roll back the op it just applied.
func (w *Worker) Submit(so opmodel.StoredOp) bool {
	return w.queue.trySubmit(so)
}

// Len reports the current queue depth.
func (w *Worker) Len() int {
	return w.queue.len()
}

// Run drains the queue and commits batches until ctx is cancelled or
// Close is called. For each committed batch it invokes onCommit with
// the batch's high-water op_seq; a commit failure invokes onError and
// stops the worker, since the journal is now in an unknown state
// relative to the in-memory store.
func (w *Worker) Run(ctx context.Context, onCommit func(highWater uint64), onError func(err error)) {
	for {
		select {
		case <-ctx.Done():
			w.Flush(onCommit, onError)
			return

		case <-w.queue.wait():
			if w.queue.len() == 0 {
				// Closed with nothing left: drain one final time in
				// case items arrived between the close and this wake,
				// then exit.
				w.Flush(onCommit, onError)
				return
			}
			if !w.drainAndCommit(onCommit, onError) {
				return
			}

		case <-time.After(w.latency):
			if w.queue.len() == 0 {
				continue
			}
			if !w.drainAndCommit(onCommit, onError) {
				return
			}
		}
	}
}

// Flush drains and commits every remaining queued op, looping until
// the queue is empty. Used on shutdown so no submitted op is lost.
func (w *Worker) Flush(onCommit func(uint64), onError func(error)) {
	for w.queue.len() > 0 {
		if !w.drainAndCommit(onCommit, onError) {
			return
		}
	}
}

// drainAndCommit pulls up to batchMax ops and commits them in one
// transaction. Returns false if a commit error occurred (the caller
// should stop the worker).
func (w *Worker) drainAndCommit(onCommit func(uint64), onError func(error)) bool {
	batch := w.queue.drain(w.batchMax)
	if len(batch) == 0 {
		return true
	}

	highWater, err := w.sink.AppendBatch(batch)
	if err != nil {
		slog.Error("journal: batch commit failed", "error", err, "batch_size", len(batch))
		onError(err)
		return false
	}

	slog.Debug("journal: batch committed", "high_water", highWater, "batch_size", len(batch))
	onCommit(highWater)
	return true
}

// Close signals that no more ops will be submitted and wakes any
// blocked waiters.
func (w *Worker) Close() {
	w.queue.close()
}
