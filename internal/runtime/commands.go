package runtime

import (
	"github.com/contestlog/qsocore/internal/qso"
)

// The writer loop accepts exactly these command shapes on its single
// command channel. Each carries its own reply slot; the caller blocks
// on reply, which the loop always
// eventually sends to (success or CommandError), except shutdownCmd's
// reply which fires once the loop has fully drained and exited.
type insertCmd struct {
	draft qso.Draft
	reply chan insertResult
}

type insertResult struct {
	id  qso.ID
	err error
}

type editCmd struct {
	patch qso.Patch
	reply chan error
}

type deleteCmd struct {
	id    qso.ID
	reply chan error
}

type undoCmd struct {
	reply chan error
}

type redoCmd struct {
	reply chan error
}

type shutdownCmd struct {
	reply chan struct{}
}
