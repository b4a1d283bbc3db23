// Package qso defines the QSO record model: identifiers, closed
// enumerations (band, mode), the record itself, and the sparse shapes
// used to create and patch it.
//
// Every type in this package is a plain value type owned by its
// holder — nothing here talks to the store, the journal, or the
// runtime. The only non-trivial logic is callsign normalization.
package qso
