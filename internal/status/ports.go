package status

import (
	"context"
	"time"
)

// Prober performs one status check for one unit.
// Production: adapter/docker.Prober
// Testing: adapter/fake.Prober
//
// Any error return is treated as a failed probe and cached as an
// error-state record; it is never surfaced to callers of the Service.
// The prober bounds its own call latency.
type Prober interface {
	Probe(ctx context.Context, unitID string) (RawResult, error)
}

// Clock abstracts time.Now() for deterministic testing.
type Clock interface {
	Now() time.Time
}

// RealClock implements Clock using the real system clock.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

// ResolveFunc resolves one unit's status, probing if needed.
type ResolveFunc func(ctx context.Context, unitID string, force bool) Record
