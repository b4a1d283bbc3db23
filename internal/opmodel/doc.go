// Package opmodel defines the closed set of mutating operations the
// journal understands (Op), the journal envelope that wraps a forward
// op with its compensating inverse (StoredOp), and the stable
// versioned wire encoding used to persist both.
package opmodel
