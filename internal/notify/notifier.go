package notify

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Notifier announces "data changed" events to every interested observer:
// in-process subscribers through the bus, other execution contexts through
// the transport. Signals observed from other contexts are translated back
// into a local publish.
type Notifier struct {
	bus       *Bus
	transport Transport
	log       *zap.Logger

	mu       sync.Mutex
	observed map[string]struct{}
	stop     func() error
}

// New creates a notifier. transport may be nil for in-process-only use.
func New(bus *Bus, transport Transport, log *zap.Logger) *Notifier {
	return &Notifier{
		bus:       bus,
		transport: transport,
		log:       log,
		observed:  make(map[string]struct{}),
	}
}

// Start begins listening for cross-context signals. No-op without a
// transport.
func (n *Notifier) Start() error {
	if n.transport == nil {
		return nil
	}

	stop, err := n.transport.Listen(n.receive)
	if err != nil {
		return fmt.Errorf("start signal listener: %w", err)
	}
	n.stop = stop
	return nil
}

// Close stops the cross-context listener.
func (n *Notifier) Close() error {
	if n.stop == nil {
		return nil
	}
	return n.stop()
}

// Subscribe registers a handler on the local bus.
func (n *Notifier) Subscribe(h Handler) *Subscription {
	return n.bus.Subscribe(h)
}

// NotifyDataChanged publishes a data-changed event for the given key to
// local subscribers and announces it to other contexts. A transport failure
// is logged, not returned: cross-context delivery is best-effort.
func (n *Notifier) NotifyDataChanged(key string) {
	e := Event{
		ID:   uuid.NewString(),
		Kind: KindDataChanged,
		Key:  key,
		At:   time.Now().UTC(),
	}

	n.markObserved(e.ID)
	n.bus.Publish(e)

	if n.transport == nil {
		return
	}
	if err := n.transport.Announce(e); err != nil {
		n.log.Warn("cross-context announce failed",
			zap.String("event_id", e.ID), zap.Error(err))
	}
}

// receive handles a signal observed on the transport. Events already seen -
// announced by this notifier itself, or replayed by duplicate filesystem
// notifications for one write - are suppressed so local subscribers see
// each event exactly once.
func (n *Notifier) receive(e Event) {
	if !n.markObserved(e.ID) {
		return
	}
	n.bus.Publish(e)
}

// markObserved records the event ID, reporting whether it was new.
func (n *Notifier) markObserved(id string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()

	if _, ok := n.observed[id]; ok {
		return false
	}
	// The signal slot only ever replays recent writes; cap the set so a
	// long-lived process doesn't grow it unbounded.
	if len(n.observed) > 1024 {
		n.observed = make(map[string]struct{})
	}
	n.observed[id] = struct{}{}
	return true
}
