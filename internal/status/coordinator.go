package status

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"fleetwatch/internal/check"
)

// DefaultWaitBudget bounds how long a caller waits on someone else's
// in-flight probe before falling back to whatever is cached.
const DefaultWaitBudget = 5 * time.Second

// Coordinator guarantees at most one in-flight probe per unit. Callers
// arriving while a probe runs wait for its completion broadcast instead
// of starting a second probe.
type Coordinator struct {
	cache      *Cache
	prober     Prober
	hub        *Hub
	clock      Clock
	waitBudget time.Duration

	mu       sync.Mutex
	inflight map[string]chan struct{} // closed when the probe completes
}

func NewCoordinator(cache *Cache, prober Prober, hub *Hub, clock Clock, waitBudget time.Duration) *Coordinator {
	check.Assert(cache != nil, "NewCoordinator: cache must not be nil")
	check.Assert(prober != nil, "NewCoordinator: prober must not be nil")
	check.Assert(hub != nil, "NewCoordinator: hub must not be nil")
	if clock == nil {
		clock = RealClock{}
	}
	if waitBudget <= 0 {
		waitBudget = DefaultWaitBudget
	}
	return &Coordinator{
		cache:      cache,
		prober:     prober,
		hub:        hub,
		clock:      clock,
		waitBudget: waitBudget,
		inflight:   make(map[string]chan struct{}),
	}
}

// Resolve returns the unit's status, probing when the cache cannot
// serve it. It never returns an error: probe failures are cached as
// error-state records, and a waiter that exhausts its budget gets the
// best-effort cached value (possibly stale, possibly absent).
func (c *Coordinator) Resolve(ctx context.Context, unitID string, force bool) Record {
	if !force {
		if rec, ok := c.cache.Get(unitID); ok && c.cache.Fresh(rec) {
			return rec
		}
	}

	c.mu.Lock()
	done, running := c.inflight[unitID]
	if !running {
		done = make(chan struct{})
		c.inflight[unitID] = done
	}
	c.mu.Unlock()

	if running {
		return c.await(ctx, unitID, done)
	}

	rec := c.probe(ctx, unitID)

	c.mu.Lock()
	delete(c.inflight, unitID)
	c.mu.Unlock()
	close(done)

	return rec
}

// await blocks on the owner's completion broadcast, bounded by the wait
// budget and the caller's context. A slow or hung probe must not cascade
// into unbounded caller latency.
func (c *Coordinator) await(ctx context.Context, unitID string, done <-chan struct{}) Record {
	timer := time.NewTimer(c.waitBudget)
	defer timer.Stop()

	select {
	case <-done:
	case <-timer.C:
		slog.Debug("probe wait budget exhausted, serving cached", "unit", unitID)
	case <-ctx.Done():
	}

	rec, ok := c.cache.Get(unitID)
	if !ok {
		// Never probed and the in-flight probe has not landed yet.
		return Record{UnitID: unitID, DisplayName: unitID, Reachability: ReachUnknown}
	}
	return rec
}

// probe runs the prober once, caches the outcome, and publishes a change
// event when observable state differs from the previous record.
func (c *Coordinator) probe(ctx context.Context, unitID string) Record {
	res, err := c.prober.Probe(ctx, unitID)
	now := c.clock.Now()
	rec := buildRecord(unitID, res, err, now)
	if err != nil {
		slog.Debug("probe failed", "unit", unitID, "err", err)
	}

	prev, had := c.cache.Get(unitID)
	c.cache.Put(rec)

	var prevPtr *Record
	if had {
		prevPtr = &prev
	}
	if changed(prevPtr, rec) {
		c.hub.Publish(Event{
			UnitID:     unitID,
			Previous:   prevPtr,
			Current:    rec,
			ObservedAt: now,
		})
	}
	return rec
}
