package runtime

import "sync"

// EventKind identifies the concrete shape of an Event.
type EventKind string

const (
	EventOpApplied   EventKind = "op_applied"
	EventDurableUpTo EventKind = "durable_up_to"
	EventPersistErr  EventKind = "persist_error"
	EventShutdown    EventKind = "shutdown"
)

// Event is the broadcast unit published on the runtime's event
// stream. Only the fields relevant to Kind are populated.
type Event struct {
	Kind EventKind

	// OpSeq is set for OpApplied and DurableUpTo. PersistError events
	// leave it at 0: the failed batch's op_seq is not reported.
	OpSeq uint64

	// OpSummary is a short human-readable description of the applied
	// op, set for OpApplied.
	OpSummary string

	// Detail carries the persistence error text, set for PersistError.
	Detail string
}

// broadcaster is a many-subscriber, single-publisher fan-out. Only the
// writer loop ever calls publish. A subscriber whose buffer is full
// when publish tries to deliver loses the event rather than stalling
// the writer — unlike a Go channel send, which would block, each
// subscriber here is a bounded, drop-when-full mailbox.
type broadcaster struct {
	mu     sync.Mutex
	subs   map[int]chan Event
	nextID int
	buffer int
}

func newBroadcaster(buffer int) *broadcaster {
	return &broadcaster{
		subs:   make(map[int]chan Event),
		buffer: buffer,
	}
}

// Subscription is a handle returned by subscribe. Events arrives in
// publish order but may have gaps if the subscriber falls behind.
// Unsubscribe stops delivery and releases the channel.
type Subscription struct {
	id     int
	Events <-chan Event
	b      *broadcaster
}

// Unsubscribe removes the subscription. Safe to call more than once.
func (s *Subscription) Unsubscribe() {
	s.b.unsubscribe(s.id)
}

func (b *broadcaster) subscribe() *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	ch := make(chan Event, b.buffer)
	b.subs[id] = ch

	return &Subscription{id: id, Events: ch, b: b}
}

func (b *broadcaster) unsubscribe(id int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if ch, ok := b.subs[id]; ok {
		delete(b.subs, id)
		close(ch)
	}
}

// publish delivers ev to every current subscriber, dropping it for
// any subscriber whose buffer is currently full.
func (b *broadcaster) publish(ev Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, ch := range b.subs {
		select {
		case ch <- ev:
		default:
			// Laggard: drop. The subscriber will receive the next
			// event and may resynchronize from the store.
		}
	}
}

// closeAll closes every subscriber channel. Used on shutdown after
// the Shutdown event has been published.
func (b *broadcaster) closeAll() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
}
