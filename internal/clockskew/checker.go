// Package clockskew watches wall-clock drift against NTP. Cache
// freshness decisions compare wall-clock timestamps, so heavy skew can
// make stale records look fresh or fresh records look stale.
package clockskew

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/beevik/ntp"

	"fleetwatch/internal/status"
)

const (
	DefaultPool      = "pool.ntp.org"
	DefaultInterval  = 60 * time.Second
	DefaultThreshold = 500 * time.Millisecond
)

// Status is the latest skew measurement.
type Status struct {
	Offset    time.Duration
	Healthy   bool
	Error     string
	CheckedAt time.Time
}

// Checker periodically queries an NTP pool and remembers the last
// measured offset. A transition past the threshold is logged once.
type Checker struct {
	pool      string
	interval  time.Duration
	threshold time.Duration
	clock     status.Clock

	mu      sync.RWMutex
	current Status
}

// New builds a Checker against pool; an empty pool selects DefaultPool.
func New(clock status.Clock, pool string) *Checker {
	if clock == nil {
		clock = status.RealClock{}
	}
	if pool == "" {
		pool = DefaultPool
	}
	return &Checker{
		pool:      pool,
		interval:  DefaultInterval,
		threshold: DefaultThreshold,
		clock:     clock,
	}
}

// Run blocks, re-measuring on the checker's interval until ctx ends.
func (c *Checker) Run(ctx context.Context) {
	c.check()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.check()
		}
	}
}

func (c *Checker) check() {
	resp, err := ntp.Query(c.pool)
	if err != nil {
		c.observe(0, err)
		return
	}
	c.observe(resp.ClockOffset, nil)
}

// observe folds one measurement into the checker state.
func (c *Checker) observe(offset time.Duration, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock.Now()
	wasHealthy := c.current.Healthy

	if err != nil {
		c.current = Status{Error: err.Error(), CheckedAt: now}
		return
	}

	abs := offset
	if abs < 0 {
		abs = -abs
	}
	c.current = Status{
		Offset:    offset,
		Healthy:   abs < c.threshold,
		CheckedAt: now,
	}
	if wasHealthy && !c.current.Healthy {
		slog.Warn("wall clock skewed, status freshness may misjudge",
			"offset", offset, "threshold", c.threshold)
	}
}

// Status returns the latest measurement.
func (c *Checker) Status() Status {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current
}
