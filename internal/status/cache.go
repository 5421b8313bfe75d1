package status

import (
	"sync"
	"time"
)

// DefaultCacheTTL is how long a cached record counts as fresh.
const DefaultCacheTTL = 15 * time.Second

// Cache holds the latest Record per unit. Last write wins; entries are
// removed only by Clear. Safe for concurrent use.
type Cache struct {
	mu      sync.RWMutex
	records map[string]Record
	ttl     time.Duration
	clock   Clock
}

func NewCache(ttl time.Duration, clock Clock) *Cache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if clock == nil {
		clock = RealClock{}
	}
	return &Cache{
		records: make(map[string]Record),
		ttl:     ttl,
		clock:   clock,
	}
}

// Get returns the cached record for a unit regardless of freshness.
func (c *Cache) Get(unitID string) (Record, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	rec, ok := c.records[unitID]
	return rec, ok
}

// Fresh reports whether rec is recent enough to serve without a probe.
func (c *Cache) Fresh(rec Record) bool {
	return c.clock.Now().Sub(rec.CheckedAt) < c.ttl
}

// Put overwrites the unit's record unconditionally.
func (c *Cache) Put(rec Record) {
	c.mu.Lock()
	c.records[rec.UnitID] = rec
	c.mu.Unlock()
}

// Snapshot returns a copy of the whole cache, not a live view.
func (c *Cache) Snapshot() map[string]Record {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]Record, len(c.records))
	for id, rec := range c.records {
		out[id] = rec
	}
	return out
}

// UnitIDs returns the ids of every unit seen so far.
func (c *Cache) UnitIDs() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.records))
	for id := range c.records {
		out = append(out, id)
	}
	return out
}

// Clear empties the cache.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.records = make(map[string]Record)
	c.mu.Unlock()
}
