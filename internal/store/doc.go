// Package store is the authoritative in-memory collection of QSO
// records. It applies ops, maintains canonical (insertion) order and
// monotonic identity, and reports enough about each applied op for
// the runtime to derive that op's inverse.
//
// Store is not safe for concurrent use by design: the runtime is the
// only caller, and it calls Apply from a single writer goroutine.
// Reads (Get, IterCanonical, Len) are likewise expected to run on or
// be synchronized with that goroutine; Store takes no locks of its
// own.
package store
