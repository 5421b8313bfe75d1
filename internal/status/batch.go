package status

import (
	"context"
	"sync"
)

// DefaultMaxConcurrency caps simultaneous outstanding probes in a batch.
const DefaultMaxConcurrency = 3

// Runner resolves many units with a bounded concurrency ceiling. Units
// are partitioned into consecutive groups of MaxConcurrency; a group's
// resolves run concurrently, and the next group does not start before
// the current one fully completes.
type Runner struct {
	Resolve        ResolveFunc
	MaxConcurrency int
}

func (r *Runner) limit() int {
	if r.MaxConcurrency <= 0 {
		return DefaultMaxConcurrency
	}
	return r.MaxConcurrency
}

// RunAll resolves every unit in unitIDs and returns the results keyed
// by unit id.
func (r *Runner) RunAll(ctx context.Context, unitIDs []string, force bool) map[string]Record {
	out := make(map[string]Record, len(unitIDs))
	limit := r.limit()

	for start := 0; start < len(unitIDs); start += limit {
		end := min(start+limit, len(unitIDs))
		group := unitIDs[start:end]
		results := make([]Record, len(group))

		var wg sync.WaitGroup
		for i, id := range group {
			wg.Add(1)
			go func() {
				defer wg.Done()
				results[i] = r.Resolve(ctx, id, force)
			}()
		}
		wg.Wait()

		for i, id := range group {
			out[id] = results[i]
		}
	}
	return out
}
