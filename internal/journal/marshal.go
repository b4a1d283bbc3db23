package journal

import (
	"fmt"

	"github.com/contestlog/qsocore/internal/opmodel"
)

// marshalOp encodes an op for storage in a BLOB column.
func marshalOp(op opmodel.Op) ([]byte, error) {
	blob, err := opmodel.Encode(op)
	if err != nil {
		return nil, fmt.Errorf("marshal op: %w", err)
	}
	return blob, nil
}

// unmarshalOp decodes a BLOB column back into an op. A decode failure
// here is always an IncompatibleJournalError and is treated as fatal
// by Replay.
func unmarshalOp(data []byte) (opmodel.Op, error) {
	op, err := opmodel.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("unmarshal op: %w", err)
	}
	return op, nil
}
