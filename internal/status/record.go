package status

import "time"

// LifecycleState is the coarse run state of a unit.
type LifecycleState string

const (
	LifecycleRunning LifecycleState = "running"
	LifecycleStopped LifecycleState = "stopped"
	LifecycleError   LifecycleState = "error"
)

// Reachability reports whether the unit's service answered a probe.
type Reachability string

const (
	ReachAccessible    Reachability = "accessible"
	ReachNotAccessible Reachability = "not_accessible"
	ReachUnknown       Reachability = "unknown"
)

// PortMapping is one published port of a running unit.
type PortMapping struct {
	Internal  uint16
	External  uint16
	Transport string // "tcp" or "udp"
}

// Record is one snapshot of one unit's status. Records are replaced whole
// on every probe; consumers never observe a partially updated record.
type Record struct {
	UnitID       string
	DisplayName  string
	Lifecycle    LifecycleState
	Reachability Reachability
	Endpoint     string
	Ports        []PortMapping
	CheckedAt    time.Time
	ErrorDetail  string
}

// RawResult is what a Prober reports for one unit on success.
type RawResult struct {
	DisplayName  string
	Lifecycle    LifecycleState
	Reachability Reachability
	Endpoint     string
	Ports        []PortMapping
}

// Event is published when a unit's observable state differs from its
// previous record. Previous is nil for the first observation of a unit.
type Event struct {
	UnitID     string
	Previous   *Record
	Current    Record
	ObservedAt time.Time
}

// buildRecord normalizes a probe outcome into a cacheable Record.
// A probe error becomes an error-state record, not a propagated failure.
// Ports are kept only for running units.
func buildRecord(unitID string, res RawResult, probeErr error, now time.Time) Record {
	if probeErr != nil {
		return Record{
			UnitID:       unitID,
			DisplayName:  unitID,
			Lifecycle:    LifecycleError,
			Reachability: ReachUnknown,
			CheckedAt:    now,
			ErrorDetail:  probeErr.Error(),
		}
	}

	rec := Record{
		UnitID:       unitID,
		DisplayName:  res.DisplayName,
		Lifecycle:    res.Lifecycle,
		Reachability: res.Reachability,
		Endpoint:     res.Endpoint,
		CheckedAt:    now,
	}
	if rec.DisplayName == "" {
		rec.DisplayName = unitID
	}
	if rec.Lifecycle == "" {
		rec.Lifecycle = LifecycleStopped
	}
	if rec.Reachability == "" {
		rec.Reachability = ReachUnknown
	}
	if rec.Lifecycle == LifecycleRunning && len(res.Ports) > 0 {
		rec.Ports = append([]PortMapping(nil), res.Ports...)
	}
	return rec
}
