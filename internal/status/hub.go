package status

import (
	"log/slog"
	"sync"
)

// Listener receives one change event. It runs synchronously on the
// publisher's goroutine; slow listeners delay later listeners.
type Listener func(Event)

type subscriber struct {
	id uint64
	fn Listener
}

// Hub fans change events out to subscribed listeners in subscription
// order. A panicking listener is logged and isolated; it never blocks
// delivery to the remaining listeners or reaches the publisher.
type Hub struct {
	mu     sync.Mutex
	subs   []subscriber
	nextID uint64
}

func NewHub() *Hub {
	return &Hub{}
}

// Subscribe registers fn and returns its unsubscribe function. The
// returned function is idempotent and safe to call during delivery.
func (h *Hub) Subscribe(fn Listener) func() {
	h.mu.Lock()
	id := h.nextID
	h.nextID++
	h.subs = append(h.subs, subscriber{id: id, fn: fn})
	h.mu.Unlock()

	return func() {
		h.mu.Lock()
		for i, sub := range h.subs {
			if sub.id == id {
				h.subs = append(h.subs[:i:i], h.subs[i+1:]...)
				break
			}
		}
		h.mu.Unlock()
	}
}

// Publish delivers e to every listener subscribed at call time.
// Delivery iterates a snapshot, so unsubscribing mid-delivery neither
// crashes nor skips other listeners.
func (h *Hub) Publish(e Event) {
	h.mu.Lock()
	snapshot := make([]subscriber, len(h.subs))
	copy(snapshot, h.subs)
	h.mu.Unlock()

	for _, sub := range snapshot {
		notify(sub.fn, e)
	}
}

func notify(fn Listener, e Event) {
	defer func() {
		if r := recover(); r != nil {
			slog.Warn("status listener panicked", "unit", e.UnitID, "panic", r)
		}
	}()
	fn(e)
}
