// Package runtime implements the single-writer command loop that ties
// the store, the op model, and the journal together: it serializes
// mutation, derives compensating ops, bridges to the persistence
// worker, maintains bounded undo/redo stacks, and publishes a
// best-effort event stream to subscribers.
package runtime
