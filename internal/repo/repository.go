package repo

import (
	"context"

	"github.com/hamed0406/uptimemonitor/internal/domain"
)

// SnapshotStore holds the single current CycleSnapshot.
type SnapshotStore interface {
	// Current never blocks on an in-flight publish.
	Current() domain.CycleSnapshot
	// Publish installs s atomically. Snapshots older than the current one are
	// rejected with domain.ErrStaleSnapshot.
	Publish(s domain.CycleSnapshot) error
	SetInProgress(bool)
}

// CycleSink receives every published snapshot (history, state file, ...).
// Sinks are best-effort; their errors never fail a cycle.
type CycleSink interface {
	Record(ctx context.Context, s domain.CycleSnapshot) error
}

// StateLoader returns the last known up/down state per target id, used to
// detect transitions across process restarts.
type StateLoader interface {
	LoadStates(ctx context.Context) (map[domain.TargetID]bool, error)
}

// StateStore is a sink that can also seed previous states.
type StateStore interface {
	CycleSink
	StateLoader
}

// HistoryReader lists past outcomes of one target, newest first.
type HistoryReader interface {
	History(ctx context.Context, id domain.TargetID, limit int) ([]domain.Outcome, error)
}
