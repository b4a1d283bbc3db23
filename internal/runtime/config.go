package runtime

import "time"

// AckMode governs when a mutating command's reply resolves.
type AckMode int

const (
	// AckInMemory resolves as soon as the store has applied the op and
	// the stored op has been accepted into the persistence queue.
	AckInMemory AckMode = iota
	// AckDurable resolves only after a DurableUpTo event with
	// op_seq >= this op's has been observed.
	AckDurable
)

// Config recognizes the tunables of the single-writer runtime. The
// zero value is not meant to be used directly; call setDefaults (via
// New) to fill in every field left at its zero value.
type Config struct {
	AckMode AckMode

	// PersistQueueCapacity bounds the persistence worker's submission
	// queue. Default 1024.
	PersistQueueCapacity int

	// PersistBatchMax caps ops per journal transaction. Default 256.
	PersistBatchMax int

	// PersistBatchLatency caps batching delay. Default 5ms.
	PersistBatchLatency time.Duration

	// EventBuffer sets the per-subscriber event buffer depth. A
	// subscriber that falls this far behind loses intermediate events.
	// Default 4096.
	EventBuffer int

	// UndoDepth caps the undo and redo stacks. Overflow discards the
	// oldest entry. Default 256.
	UndoDepth int

	// SnapshotIntervalOps requests a snapshot every N applied ops. 0
	// disables automatic snapshotting.
	SnapshotIntervalOps int

	// Clock supplies AppliedAtMs/snapshot timestamps. Defaults to the
	// system clock; tests inject a deterministic one.
	Clock Clock
}

// DefaultConfig returns a Config with every tunable at its spec default.
func DefaultConfig() Config {
	return Config{
		AckMode:              AckInMemory,
		PersistQueueCapacity: 1024,
		PersistBatchMax:      256,
		PersistBatchLatency:  5 * time.Millisecond,
		EventBuffer:          4096,
		UndoDepth:            256,
		SnapshotIntervalOps:  0,
		Clock:                systemClock{},
	}
}

// setDefaults fills any zero-valued field of cfg with the spec default,
// returning the completed Config. AckMode has no "unset" sentinel
// distinct from AckInMemory, so it is left as given.
func setDefaults(cfg Config) Config {
	d := DefaultConfig()
	if cfg.PersistQueueCapacity == 0 {
		cfg.PersistQueueCapacity = d.PersistQueueCapacity
	}
	if cfg.PersistBatchMax == 0 {
		cfg.PersistBatchMax = d.PersistBatchMax
	}
	if cfg.PersistBatchLatency == 0 {
		cfg.PersistBatchLatency = d.PersistBatchLatency
	}
	if cfg.EventBuffer == 0 {
		cfg.EventBuffer = d.EventBuffer
	}
	if cfg.UndoDepth == 0 {
		cfg.UndoDepth = d.UndoDepth
	}
	if cfg.Clock == nil {
		cfg.Clock = d.Clock
	}
	return cfg
}
