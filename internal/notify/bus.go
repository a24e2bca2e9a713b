package notify

import (
	"sync"
	"time"
)

// Event is a typed change notification.
type Event struct {
	// ID uniquely identifies the event across execution contexts.
	ID string `json:"id"`

	// Kind names the event category. Currently always KindDataChanged.
	Kind string `json:"kind"`

	// Key names the data that changed (e.g. "patients").
	Key string `json:"key"`

	// At is the publish time. Informational only: cross-context ordering
	// is not derived from it.
	At time.Time `json:"at"`
}

// KindDataChanged announces that patient data changed somewhere.
const KindDataChanged = "data-changed"

// Handler receives published events.
type Handler func(Event)

// Bus is the in-process publish/subscribe layer. Handlers are invoked
// synchronously, in subscribe order, whenever Publish is called within the
// same execution context; within one context handlers observe events in
// publish order.
type Bus struct {
	mu       sync.Mutex
	handlers map[int]Handler
	order    []int
	nextID   int
}

// Subscription identifies one registered handler.
type Subscription struct {
	bus *Bus
	id  int
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{handlers: make(map[int]Handler)}
}

// Subscribe registers a handler for every future publish.
func (b *Bus) Subscribe(h Handler) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	b.handlers[id] = h
	b.order = append(b.order, id)
	return &Subscription{bus: b, id: id}
}

// Unsubscribe removes the handler. A removed handler is never invoked
// again, including for publishes already in flight on other goroutines.
func (s *Subscription) Unsubscribe() {
	s.bus.mu.Lock()
	defer s.bus.mu.Unlock()

	delete(s.bus.handlers, s.id)
	for i, id := range s.bus.order {
		if id == s.id {
			s.bus.order = append(s.bus.order[:i], s.bus.order[i+1:]...)
			break
		}
	}
}

// Publish invokes every subscribed handler with the event, synchronously
// and in subscribe order.
func (b *Bus) Publish(e Event) {
	b.mu.Lock()
	ids := make([]int, len(b.order))
	copy(ids, b.order)
	b.mu.Unlock()

	for _, id := range ids {
		// Re-check under the lock so an unsubscribe between the snapshot
		// and the call still suppresses delivery.
		b.mu.Lock()
		h, ok := b.handlers[id]
		b.mu.Unlock()
		if ok {
			h(e)
		}
	}
}
