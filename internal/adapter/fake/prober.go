package fake

import (
	"context"
	"sync"

	"fleetwatch/internal/status"
)

var _ status.Prober = (*Prober)(nil)

// Prober returns canned probe results per unit id.
type Prober struct {
	CallRecorder

	mu      sync.Mutex
	results map[string]status.RawResult
	errs    map[string]error

	// ProbeFunc, when set, overrides the canned results entirely.
	ProbeFunc func(ctx context.Context, unitID string) (status.RawResult, error)
	// Gate, when non-nil, blocks every probe until the channel closes.
	Gate chan struct{}
}

// SetResult cans a successful result for a unit.
func (p *Prober) SetResult(unitID string, res status.RawResult) {
	p.mu.Lock()
	if p.results == nil {
		p.results = make(map[string]status.RawResult)
	}
	p.results[unitID] = res
	delete(p.errs, unitID)
	p.mu.Unlock()
}

// SetError cans a probe failure for a unit.
func (p *Prober) SetError(unitID string, err error) {
	p.mu.Lock()
	if p.errs == nil {
		p.errs = make(map[string]error)
	}
	p.errs[unitID] = err
	p.mu.Unlock()
}

func (p *Prober) Probe(ctx context.Context, unitID string) (status.RawResult, error) {
	p.record("Probe", unitID)

	if p.Gate != nil {
		select {
		case <-p.Gate:
		case <-ctx.Done():
			return status.RawResult{}, ctx.Err()
		}
	}

	if p.ProbeFunc != nil {
		return p.ProbeFunc(ctx, unitID)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if err, ok := p.errs[unitID]; ok {
		return status.RawResult{}, err
	}
	if res, ok := p.results[unitID]; ok {
		return res, nil
	}
	return status.RawResult{Lifecycle: status.LifecycleStopped, Reachability: status.ReachUnknown}, nil
}
