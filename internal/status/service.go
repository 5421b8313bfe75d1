package status

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"fleetwatch/internal/check"
)

const tracerName = "fleetwatch/status"

// Options tunes a Service. Zero values select the defaults.
type Options struct {
	CacheTTL       time.Duration // freshness window, default 15s
	WaitBudget     time.Duration // max wait on someone else's probe, default 5s
	QuickInterval  time.Duration // per-unit monitor cadence, default 5s
	GlobalInterval time.Duration // global sweep cadence, default 60s
	MaxConcurrency int           // batch probe ceiling, default 3
	Clock          Clock         // default RealClock
	Tracer         trace.Tracer  // default otel global tracer
}

// Service is the public surface of the status core. One instance is
// constructed at the application's composition root and handed to every
// adapter that needs it; there is no package-level singleton. Timers
// start in Start, not at construction, and stop in Shutdown.
type Service struct {
	cache  *Cache
	hub    *Hub
	coord  *Coordinator
	runner *Runner
	sched  *Scheduler
	tracer trace.Tracer

	mu      sync.Mutex
	base    context.Context
	cancel  context.CancelFunc
	started bool
}

// New wires the core around the given prober.
func New(prober Prober, opts Options) *Service {
	check.Assert(prober != nil, "status.New: prober must not be nil")

	clock := opts.Clock
	if clock == nil {
		clock = RealClock{}
	}
	tracer := opts.Tracer
	if tracer == nil {
		tracer = otel.Tracer(tracerName)
	}

	cache := NewCache(opts.CacheTTL, clock)
	hub := NewHub()
	coord := NewCoordinator(cache, prober, hub, clock, opts.WaitBudget)
	runner := &Runner{Resolve: coord.Resolve, MaxConcurrency: opts.MaxConcurrency}
	sched := &Scheduler{
		Resolve:        coord.Resolve,
		Runner:         runner,
		UnitIDs:        cache.UnitIDs,
		QuickInterval:  opts.QuickInterval,
		GlobalInterval: opts.GlobalInterval,
	}

	return &Service{
		cache:  cache,
		hub:    hub,
		coord:  coord,
		runner: runner,
		sched:  sched,
		tracer: tracer,
	}
}

// Start arms the global sweep and enables monitoring. Calling Start
// again after StopAllMonitoring re-arms the sweep.
func (s *Service) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		s.base, s.cancel = context.WithCancel(ctx)
		s.started = true
	}
	s.sched.Start(s.base)
}

// Shutdown cancels all monitors, the sweep, and the base context.
// Probes already in flight complete and still update the cache.
func (s *Service) Shutdown() {
	s.mu.Lock()
	cancel := s.cancel
	s.base = nil
	s.cancel = nil
	s.started = false
	s.mu.Unlock()

	s.sched.StopAll()
	if cancel != nil {
		cancel()
	}
}

// GetStatus returns the unit's status, probing when the cache cannot
// serve it fresh. Probe failures come back as error-state records;
// this call never fails.
func (s *Service) GetStatus(ctx context.Context, unitID string, force bool) Record {
	ctx, span := s.tracer.Start(ctx, "status.get", trace.WithAttributes(
		attribute.String("unit.id", unitID),
		attribute.Bool("force", force),
	))
	defer span.End()

	rec := s.coord.Resolve(ctx, unitID, force)
	span.SetAttributes(attribute.String("unit.lifecycle", string(rec.Lifecycle)))
	return rec
}

// GetManyStatuses resolves several units with the batch concurrency
// ceiling applied.
func (s *Service) GetManyStatuses(ctx context.Context, unitIDs []string, force bool) map[string]Record {
	ctx, span := s.tracer.Start(ctx, "status.get_many", trace.WithAttributes(
		attribute.Int("unit.count", len(unitIDs)),
		attribute.Bool("force", force),
	))
	defer span.End()

	return s.runner.RunAll(ctx, unitIDs, force)
}

// StartMonitoring probes the unit now and re-probes it on the quick
// interval until stopped.
func (s *Service) StartMonitoring(unitID string) {
	s.sched.StartMonitoring(unitID)
}

// StopMonitoring cancels the unit's monitor only.
func (s *Service) StopMonitoring(unitID string) {
	s.sched.StopMonitoring(unitID)
}

// StopAllMonitoring cancels every monitor and the global sweep.
func (s *Service) StopAllMonitoring() {
	s.sched.StopAll()
}

// AllCached returns a snapshot copy of the cache.
func (s *Service) AllCached() map[string]Record {
	return s.cache.Snapshot()
}

// ClearCache empties the cache. Units must be resolved again before the
// sweep picks them back up.
func (s *Service) ClearCache() {
	s.cache.Clear()
}

// Subscribe registers a change listener and returns its unsubscribe
// function.
func (s *Service) Subscribe(fn Listener) func() {
	return s.hub.Subscribe(fn)
}
