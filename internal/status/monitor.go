package status

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

const (
	// DefaultQuickInterval drives per-unit fast monitoring.
	DefaultQuickInterval = 5 * time.Second
	// DefaultGlobalInterval drives the slow sweep over all known units.
	DefaultGlobalInterval = 60 * time.Second
)

// Scheduler drives two independent timing regimes: a slow global sweep
// re-resolving every unit the cache has seen, and fast per-unit monitors
// for units under active watch. Cancelling a monitor stops future
// scheduled probes only; a probe already in flight completes normally,
// still updates the cache, and still fires events. Resolves therefore
// run on the scheduler's base context, not the per-monitor one.
type Scheduler struct {
	Resolve        ResolveFunc
	Runner         *Runner
	UnitIDs        func() []string // units known to the cache, swept with force
	QuickInterval  time.Duration
	GlobalInterval time.Duration

	mu       sync.Mutex
	base     context.Context
	monitors map[string]context.CancelFunc
	sweep    context.CancelFunc
}

func (s *Scheduler) quick() time.Duration {
	if s.QuickInterval <= 0 {
		return DefaultQuickInterval
	}
	return s.QuickInterval
}

func (s *Scheduler) global() time.Duration {
	if s.GlobalInterval <= 0 {
		return DefaultGlobalInterval
	}
	return s.GlobalInterval
}

// Start arms the global sweep. Restartable after Stop; a second Start
// while running is a no-op.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sweep != nil {
		return
	}
	s.base = ctx
	if s.monitors == nil {
		s.monitors = make(map[string]context.CancelFunc)
	}
	sweepCtx, cancel := context.WithCancel(ctx)
	s.sweep = cancel
	go s.runSweep(sweepCtx)
}

func (s *Scheduler) runSweep(ctx context.Context) {
	ticker := time.NewTicker(s.global())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			ids := s.UnitIDs()
			if len(ids) == 0 {
				continue
			}
			slog.Debug("status sweep", "units", len(ids))
			s.Runner.RunAll(s.baseCtx(), ids, true)
		}
	}
}

// StartMonitoring resolves the unit immediately, then re-resolves it
// every QuickInterval until stopped. Starting an already monitored unit
// first cancels the prior monitor, so a unit never has two timers.
func (s *Scheduler) StartMonitoring(unitID string) {
	s.mu.Lock()
	if s.monitors == nil {
		s.monitors = make(map[string]context.CancelFunc)
	}
	if cancel, ok := s.monitors[unitID]; ok {
		cancel()
	}
	monCtx, cancel := context.WithCancel(s.baseCtxLocked())
	s.monitors[unitID] = cancel
	s.mu.Unlock()

	go s.runMonitor(monCtx, unitID)
}

func (s *Scheduler) runMonitor(ctx context.Context, unitID string) {
	s.Resolve(s.baseCtx(), unitID, true)

	ticker := time.NewTicker(s.quick())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Resolve(s.baseCtx(), unitID, true)
		}
	}
}

// StopMonitoring cancels the unit's monitor only.
func (s *Scheduler) StopMonitoring(unitID string) {
	s.mu.Lock()
	cancel, ok := s.monitors[unitID]
	if ok {
		delete(s.monitors, unitID)
	}
	s.mu.Unlock()
	if ok {
		cancel()
	}
}

// StopAll cancels every per-unit monitor and the global sweep.
func (s *Scheduler) StopAll() {
	s.mu.Lock()
	cancels := make([]context.CancelFunc, 0, len(s.monitors)+1)
	for id, cancel := range s.monitors {
		cancels = append(cancels, cancel)
		delete(s.monitors, id)
	}
	if s.sweep != nil {
		cancels = append(cancels, s.sweep)
		s.sweep = nil
	}
	s.mu.Unlock()

	for _, cancel := range cancels {
		cancel()
	}
}

func (s *Scheduler) baseCtx() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.baseCtxLocked()
}

func (s *Scheduler) baseCtxLocked() context.Context {
	if s.base == nil {
		return context.Background()
	}
	return s.base
}
