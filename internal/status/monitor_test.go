package status

import (
	"context"
	"sync"
	"testing"
	"time"
)

// resolveRecorder counts resolves per unit, concurrency-safe.
type resolveRecorder struct {
	mu    sync.Mutex
	calls map[string]int
}

func newResolveRecorder() *resolveRecorder {
	return &resolveRecorder{calls: make(map[string]int)}
}

func (r *resolveRecorder) resolve(_ context.Context, unitID string, _ bool) Record {
	r.mu.Lock()
	r.calls[unitID]++
	r.mu.Unlock()
	return Record{UnitID: unitID, Lifecycle: LifecycleRunning}
}

func (r *resolveRecorder) count(unitID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls[unitID]
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal(msg)
}

func newTestScheduler(rec *resolveRecorder, quick, global time.Duration, unitIDs func() []string) *Scheduler {
	if unitIDs == nil {
		unitIDs = func() []string { return nil }
	}
	return &Scheduler{
		Resolve:        rec.resolve,
		Runner:         &Runner{Resolve: rec.resolve},
		UnitIDs:        unitIDs,
		QuickInterval:  quick,
		GlobalInterval: global,
	}
}

func TestScheduler_StartMonitoringProbesImmediately(t *testing.T) {
	rec := newResolveRecorder()
	s := newTestScheduler(rec, time.Hour, time.Hour, nil)
	s.Start(context.Background())
	defer s.StopAll()

	s.StartMonitoring("web-1")

	waitFor(t, 2*time.Second, func() bool { return rec.count("web-1") >= 1 },
		"no immediate probe after StartMonitoring")
}

func TestScheduler_MonitorRepeats(t *testing.T) {
	rec := newResolveRecorder()
	s := newTestScheduler(rec, 15*time.Millisecond, time.Hour, nil)
	s.Start(context.Background())
	defer s.StopAll()

	s.StartMonitoring("web-1")

	waitFor(t, 2*time.Second, func() bool { return rec.count("web-1") >= 3 },
		"monitor did not repeat on the quick interval")
}

func TestScheduler_StopMonitoringIsolation(t *testing.T) {
	rec := newResolveRecorder()
	s := newTestScheduler(rec, 15*time.Millisecond, time.Hour, nil)
	s.Start(context.Background())
	defer s.StopAll()

	s.StartMonitoring("a")
	s.StartMonitoring("b")
	waitFor(t, 2*time.Second, func() bool { return rec.count("a") >= 2 && rec.count("b") >= 2 },
		"monitors did not start")

	s.StopMonitoring("a")
	// Give a possible straggler tick time to land, then measure.
	time.Sleep(30 * time.Millisecond)
	frozen := rec.count("a")
	bBefore := rec.count("b")

	waitFor(t, 2*time.Second, func() bool { return rec.count("b") >= bBefore+2 },
		"remaining monitor stalled after stopping the other")
	if got := rec.count("a"); got != frozen {
		t.Fatalf("stopped monitor kept probing: %d -> %d", frozen, got)
	}
}

func TestScheduler_RestartReplacesMonitor(t *testing.T) {
	rec := newResolveRecorder()
	s := newTestScheduler(rec, 25*time.Millisecond, time.Hour, nil)
	s.Start(context.Background())
	defer s.StopAll()

	s.StartMonitoring("web-1")
	s.StartMonitoring("web-1")

	time.Sleep(130 * time.Millisecond)
	s.StopMonitoring("web-1")

	// Two immediate probes (one per Start) plus roughly five ticks from
	// a single surviving timer. A duplicated timer would double that.
	if got := rec.count("web-1"); got > 9 {
		t.Fatalf("probe count suggests duplicate monitors: %d", got)
	}
}

func TestScheduler_SweepRefreshesKnownUnits(t *testing.T) {
	rec := newResolveRecorder()
	s := newTestScheduler(rec, time.Hour, 15*time.Millisecond, func() []string {
		return []string{"web-1", "db-2"}
	})
	s.Start(context.Background())
	defer s.StopAll()

	waitFor(t, 2*time.Second, func() bool {
		return rec.count("web-1") >= 2 && rec.count("db-2") >= 2
	}, "sweep did not refresh the known units")
}

func TestScheduler_SweepSkipsEmptyCache(t *testing.T) {
	rec := newResolveRecorder()
	s := newTestScheduler(rec, time.Hour, 10*time.Millisecond, func() []string { return nil })
	s.Start(context.Background())

	time.Sleep(60 * time.Millisecond)
	s.StopAll()

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if len(rec.calls) != 0 {
		t.Fatalf("sweep probed with an empty cache: %v", rec.calls)
	}
}

func TestScheduler_StopAllHaltsEverything(t *testing.T) {
	rec := newResolveRecorder()
	s := newTestScheduler(rec, 15*time.Millisecond, 15*time.Millisecond, func() []string {
		return []string{"swept"}
	})
	s.Start(context.Background())
	s.StartMonitoring("web-1")

	waitFor(t, 2*time.Second, func() bool { return rec.count("web-1") >= 2 && rec.count("swept") >= 1 },
		"timers did not start")

	s.StopAll()
	time.Sleep(30 * time.Millisecond)
	web := rec.count("web-1")
	swept := rec.count("swept")

	time.Sleep(60 * time.Millisecond)
	if rec.count("web-1") != web || rec.count("swept") != swept {
		t.Fatal("probes continued after StopAll")
	}
}
