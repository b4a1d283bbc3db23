// Package journal is the persistence sink: a SQLite-backed append-only
// op log with batched transactional commit, a bounded submission
// queue with error-on-full backpressure, snapshotting, and replay on
// startup.
//
// A Sink owns exactly one *sql.DB connection (WAL mode,
// synchronous=NORMAL). Op batches are appended only by the Worker's
// goroutine (Worker.Run). Snapshot writes (WriteSnapshot) are made by
// the runtime's writer goroutine on the same connection; database/sql
// serializes them with the worker's transactions.
package journal
