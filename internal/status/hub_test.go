package status

import (
	"testing"
)

func TestHub_DeliversInSubscriptionOrder(t *testing.T) {
	h := NewHub()
	var order []string

	h.Subscribe(func(Event) { order = append(order, "first") })
	h.Subscribe(func(Event) { order = append(order, "second") })
	h.Subscribe(func(Event) { order = append(order, "third") })

	h.Publish(Event{UnitID: "web-1"})

	want := []string{"first", "second", "third"}
	if len(order) != len(want) {
		t.Fatalf("deliveries: got %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("delivery %d: got %q, want %q", i, order[i], want[i])
		}
	}
}

func TestHub_Unsubscribe(t *testing.T) {
	h := NewHub()
	var calls int

	cancel := h.Subscribe(func(Event) { calls++ })
	h.Publish(Event{UnitID: "web-1"})
	cancel()
	h.Publish(Event{UnitID: "web-1"})

	if calls != 1 {
		t.Fatalf("calls after unsubscribe: got %d, want 1", calls)
	}

	// Idempotent.
	cancel()
	h.Publish(Event{UnitID: "web-1"})
	if calls != 1 {
		t.Fatalf("calls after double unsubscribe: got %d, want 1", calls)
	}
}

func TestHub_PanickingListenerIsIsolated(t *testing.T) {
	h := NewHub()
	var after int

	h.Subscribe(func(Event) { panic("listener bug") })
	h.Subscribe(func(Event) { after++ })

	// Must not propagate to the publisher.
	h.Publish(Event{UnitID: "web-1"})

	if after != 1 {
		t.Fatalf("listener after the panicking one: got %d calls, want 1", after)
	}
}

func TestHub_UnsubscribeDuringDelivery(t *testing.T) {
	h := NewHub()
	var calls []string

	var cancelSecond func()
	h.Subscribe(func(Event) {
		calls = append(calls, "first")
		cancelSecond()
	})
	cancelSecond = h.Subscribe(func(Event) { calls = append(calls, "second") })
	h.Subscribe(func(Event) { calls = append(calls, "third") })

	// Delivery iterates a snapshot: the second listener was subscribed
	// at publish time, so it still receives this event; the third is
	// neither crashed nor skipped.
	h.Publish(Event{UnitID: "web-1"})

	want := []string{"first", "second", "third"}
	if len(calls) != len(want) {
		t.Fatalf("deliveries: got %v, want %v", calls, want)
	}

	// The unsubscribed listener is gone for the next publish.
	calls = nil
	h.Publish(Event{UnitID: "web-1"})
	if len(calls) != 2 || calls[0] != "first" || calls[1] != "third" {
		t.Fatalf("second publish deliveries: got %v, want [first third]", calls)
	}
}
