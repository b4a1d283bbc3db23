package runtime

import "time"

// Clock supplies the millisecond timestamps the writer goroutine
// stamps onto applied ops and snapshots. Tests substitute a
// deterministic implementation (testutil.DeterministicClock) so that
// golden scenario output never depends on wall-clock time.
type Clock interface {
	NowMs() int64
}

type systemClock struct{}

func (systemClock) NowMs() int64 { return time.Now().UnixMilli() }
