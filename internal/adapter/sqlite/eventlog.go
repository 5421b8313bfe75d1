// Package sqlite persists status change events for later inspection.
// Only events are journaled; cached status itself never survives a
// process restart.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"fleetwatch/internal/status"
)

// LoggedEvent is one journaled change event as read back from disk.
type LoggedEvent struct {
	Seq           int64
	UnitID        string
	PrevLifecycle string // empty for a unit's first observation
	Lifecycle     string
	Reachability  string
	Endpoint      string
	Ports         []status.PortMapping
	ErrorDetail   string
	ObservedAt    time.Time
}

// EventLog is an append-only journal of status change events.
type EventLog struct {
	db *sql.DB
}

// OpenEventLog opens or creates the journal at path.
func OpenEventLog(path string) (*EventLog, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create event log directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open event log: %w", err)
	}
	if _, err := db.Exec(`PRAGMA journal_mode = WAL`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set event log journal mode: %w", err)
	}
	if _, err := db.Exec(`PRAGMA busy_timeout = 5000`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set event log busy timeout: %w", err)
	}
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS status_events (
	seq INTEGER PRIMARY KEY AUTOINCREMENT,
	unit_id TEXT NOT NULL,
	prev_lifecycle TEXT NOT NULL DEFAULT '',
	lifecycle TEXT NOT NULL,
	reachability TEXT NOT NULL,
	endpoint TEXT NOT NULL DEFAULT '',
	ports_json TEXT NOT NULL DEFAULT '[]',
	error_detail TEXT NOT NULL DEFAULT '',
	observed_at TEXT NOT NULL
)`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize event log schema: %w", err)
	}

	return &EventLog{db: db}, nil
}

// Append journals one change event.
func (l *EventLog) Append(ctx context.Context, e status.Event) error {
	prevLifecycle := ""
	if e.Previous != nil {
		prevLifecycle = string(e.Previous.Lifecycle)
	}

	portsJSON, err := json.Marshal(e.Current.Ports)
	if err != nil {
		return fmt.Errorf("marshal event ports: %w", err)
	}

	_, err = l.db.ExecContext(ctx, `
INSERT INTO status_events (unit_id, prev_lifecycle, lifecycle, reachability, endpoint, ports_json, error_detail, observed_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.UnitID,
		prevLifecycle,
		string(e.Current.Lifecycle),
		string(e.Current.Reachability),
		e.Current.Endpoint,
		string(portsJSON),
		e.Current.ErrorDetail,
		e.ObservedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("append status event for %q: %w", e.UnitID, err)
	}
	return nil
}

// Recent returns up to limit events, newest first.
func (l *EventLog) Recent(ctx context.Context, limit int) ([]LoggedEvent, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := l.db.QueryContext(ctx, `
SELECT seq, unit_id, prev_lifecycle, lifecycle, reachability, endpoint, ports_json, error_detail, observed_at
FROM status_events ORDER BY seq DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list status events: %w", err)
	}
	defer rows.Close()

	out := make([]LoggedEvent, 0, limit)
	for rows.Next() {
		var (
			ev         LoggedEvent
			portsJSON  string
			observedAt string
		)
		if err := rows.Scan(&ev.Seq, &ev.UnitID, &ev.PrevLifecycle, &ev.Lifecycle, &ev.Reachability, &ev.Endpoint, &portsJSON, &ev.ErrorDetail, &observedAt); err != nil {
			return nil, fmt.Errorf("scan status event row: %w", err)
		}
		if err := json.Unmarshal([]byte(portsJSON), &ev.Ports); err != nil {
			return nil, fmt.Errorf("unmarshal ports for event %d: %w", ev.Seq, err)
		}
		ev.ObservedAt, err = time.Parse(time.RFC3339Nano, observedAt)
		if err != nil {
			return nil, fmt.Errorf("parse observed_at for event %d: %w", ev.Seq, err)
		}
		out = append(out, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate status event rows: %w", err)
	}
	return out, nil
}

func (l *EventLog) Close() error {
	if l == nil || l.db == nil {
		return nil
	}
	return l.db.Close()
}
