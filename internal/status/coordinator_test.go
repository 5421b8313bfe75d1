package status

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// proberFunc adapts a function to the Prober interface. Inline stub
// avoids an import cycle with adapter/fake.
type proberFunc func(ctx context.Context, unitID string) (RawResult, error)

func (f proberFunc) Probe(ctx context.Context, unitID string) (RawResult, error) {
	return f(ctx, unitID)
}

func newTestCoordinator(prober Prober, clk Clock, waitBudget time.Duration) (*Coordinator, *Cache, *Hub) {
	cache := NewCache(DefaultCacheTTL, clk)
	hub := NewHub()
	return NewCoordinator(cache, prober, hub, clk, waitBudget), cache, hub
}

func TestCoordinator_FreshCacheSkipsProbe(t *testing.T) {
	clk := newTestClock(t0)
	var probes atomic.Int32
	prober := proberFunc(func(_ context.Context, _ string) (RawResult, error) {
		probes.Add(1)
		return RawResult{Lifecycle: LifecycleRunning}, nil
	})
	coord, cache, _ := newTestCoordinator(prober, clk, 0)

	cache.Put(Record{UnitID: "web-1", Lifecycle: LifecycleRunning, CheckedAt: t0})

	rec := coord.Resolve(context.Background(), "web-1", false)
	if rec.Lifecycle != LifecycleRunning {
		t.Fatalf("lifecycle: got %q, want running", rec.Lifecycle)
	}
	if got := probes.Load(); got != 0 {
		t.Fatalf("probes on fresh cache: got %d, want 0", got)
	}

	// Past the TTL the same call probes again.
	clk.Advance(DefaultCacheTTL)
	coord.Resolve(context.Background(), "web-1", false)
	if got := probes.Load(); got != 1 {
		t.Fatalf("probes on stale cache: got %d, want 1", got)
	}
}

func TestCoordinator_ForceBypassesFreshCache(t *testing.T) {
	clk := newTestClock(t0)
	var probes atomic.Int32
	prober := proberFunc(func(_ context.Context, _ string) (RawResult, error) {
		probes.Add(1)
		return RawResult{Lifecycle: LifecycleRunning}, nil
	})
	coord, cache, _ := newTestCoordinator(prober, clk, 0)

	cache.Put(Record{UnitID: "web-1", Lifecycle: LifecycleRunning, CheckedAt: t0})

	coord.Resolve(context.Background(), "web-1", true)
	if got := probes.Load(); got != 1 {
		t.Fatalf("probes on force: got %d, want 1", got)
	}
}

func TestCoordinator_DedupConcurrentResolves(t *testing.T) {
	const callers = 8

	clk := newTestClock(t0)
	gate := make(chan struct{})
	var probes atomic.Int32
	prober := proberFunc(func(ctx context.Context, _ string) (RawResult, error) {
		probes.Add(1)
		select {
		case <-gate:
		case <-ctx.Done():
			return RawResult{}, ctx.Err()
		}
		return RawResult{Lifecycle: LifecycleRunning, Reachability: ReachAccessible}, nil
	})
	coord, _, _ := newTestCoordinator(prober, clk, time.Minute)

	var wg sync.WaitGroup
	results := make([]Record, callers)
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = coord.Resolve(context.Background(), "web-1", true)
		}()
	}

	// Let everyone either own the probe or attach as a waiter, then
	// release the single in-flight probe.
	time.Sleep(50 * time.Millisecond)
	close(gate)
	wg.Wait()

	if got := probes.Load(); got != 1 {
		t.Fatalf("probe invocations for %d concurrent callers: got %d, want 1", callers, got)
	}
	for i, rec := range results {
		if rec.Lifecycle != LifecycleRunning {
			t.Fatalf("caller %d lifecycle: got %q, want running", i, rec.Lifecycle)
		}
	}
}

func TestCoordinator_ProbeFailureBecomesErrorRecord(t *testing.T) {
	clk := newTestClock(t0)
	prober := proberFunc(func(_ context.Context, _ string) (RawResult, error) {
		return RawResult{}, errors.New("dial unix /var/run/docker.sock: timeout")
	})
	coord, cache, _ := newTestCoordinator(prober, clk, 0)

	rec := coord.Resolve(context.Background(), "db-2", true)

	if rec.Lifecycle != LifecycleError {
		t.Fatalf("lifecycle: got %q, want error", rec.Lifecycle)
	}
	if rec.Reachability != ReachUnknown {
		t.Fatalf("reachability: got %q, want unknown", rec.Reachability)
	}
	if rec.ErrorDetail == "" {
		t.Fatal("error detail must carry the probe failure")
	}

	// The failure is cached like any result.
	cached, ok := cache.Get("db-2")
	if !ok || cached.Lifecycle != LifecycleError {
		t.Fatalf("cached record: got %+v, ok=%v", cached, ok)
	}
}

func TestCoordinator_WaiterBudgetFallsBackToStale(t *testing.T) {
	clk := newTestClock(t0)
	gate := make(chan struct{})
	defer close(gate)

	prober := proberFunc(func(ctx context.Context, _ string) (RawResult, error) {
		select {
		case <-gate:
		case <-ctx.Done():
		}
		return RawResult{Lifecycle: LifecycleRunning}, nil
	})
	coord, cache, _ := newTestCoordinator(prober, clk, 30*time.Millisecond)

	stale := Record{UnitID: "web-1", Lifecycle: LifecycleStopped, CheckedAt: t0.Add(-time.Hour)}
	cache.Put(stale)

	// Owner starts a probe that will hang past every waiter's budget.
	ownerStarted := make(chan struct{})
	go func() {
		close(ownerStarted)
		coord.Resolve(context.Background(), "web-1", true)
	}()
	<-ownerStarted
	time.Sleep(10 * time.Millisecond)

	start := time.Now()
	rec := coord.Resolve(context.Background(), "web-1", true)
	waited := time.Since(start)

	if rec.Lifecycle != LifecycleStopped {
		t.Fatalf("fallback record lifecycle: got %q, want the stale cached value", rec.Lifecycle)
	}
	if waited > 2*time.Second {
		t.Fatalf("waiter blocked %v, budget was 30ms", waited)
	}
}

func TestCoordinator_WaiterBudgetWithNothingCached(t *testing.T) {
	clk := newTestClock(t0)
	gate := make(chan struct{})
	defer close(gate)

	prober := proberFunc(func(ctx context.Context, _ string) (RawResult, error) {
		select {
		case <-gate:
		case <-ctx.Done():
		}
		return RawResult{}, nil
	})
	coord, _, _ := newTestCoordinator(prober, clk, 30*time.Millisecond)

	ownerStarted := make(chan struct{})
	go func() {
		close(ownerStarted)
		coord.Resolve(context.Background(), "ghost-9", true)
	}()
	<-ownerStarted
	time.Sleep(10 * time.Millisecond)

	rec := coord.Resolve(context.Background(), "ghost-9", true)

	if rec.UnitID != "ghost-9" {
		t.Fatalf("unit id: got %q, want ghost-9", rec.UnitID)
	}
	if rec.Reachability != ReachUnknown {
		t.Fatalf("reachability for never-probed unit: got %q, want unknown", rec.Reachability)
	}
	if !rec.CheckedAt.IsZero() {
		t.Fatal("never-probed unit must not claim a check time")
	}
}

func TestCoordinator_EventsOnFirstAndChangedOnly(t *testing.T) {
	clk := newTestClock(t0)

	var lifecycle atomic.Value
	lifecycle.Store(LifecycleStopped)
	prober := proberFunc(func(_ context.Context, _ string) (RawResult, error) {
		return RawResult{Lifecycle: lifecycle.Load().(LifecycleState)}, nil
	})
	coord, _, hub := newTestCoordinator(prober, clk, 0)

	var mu sync.Mutex
	var events []Event
	hub.Subscribe(func(e Event) {
		mu.Lock()
		events = append(events, e)
		mu.Unlock()
	})

	coord.Resolve(context.Background(), "web-1", true)
	clk.Advance(time.Second)
	coord.Resolve(context.Background(), "web-1", true) // unchanged
	clk.Advance(time.Second)
	lifecycle.Store(LifecycleRunning)
	coord.Resolve(context.Background(), "web-1", true) // changed

	mu.Lock()
	defer mu.Unlock()
	if len(events) != 2 {
		t.Fatalf("events: got %d, want 2", len(events))
	}
	if events[0].Previous != nil {
		t.Fatalf("first event previous: got %+v, want nil", events[0].Previous)
	}
	if events[1].Previous == nil || events[1].Previous.Lifecycle != LifecycleStopped {
		t.Fatalf("second event previous: got %+v, want stopped", events[1].Previous)
	}
	if events[1].Current.Lifecycle != LifecycleRunning {
		t.Fatalf("second event current: got %q, want running", events[1].Current.Lifecycle)
	}
}
