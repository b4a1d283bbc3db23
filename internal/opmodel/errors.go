package opmodel

import "fmt"

// IncompatibleJournalError is returned by Decode when a blob's header
// doesn't match this build's magic/version, or its payload cannot be
// interpreted. Replay treats this as fatal.
type IncompatibleJournalError struct {
	Reason string
}

func (e *IncompatibleJournalError) Error() string {
	return fmt.Sprintf("incompatible journal record: %s", e.Reason)
}
