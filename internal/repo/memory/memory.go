// Package memory keeps the current snapshot in process memory.
package memory

import (
	"sync"
	"sync/atomic"

	"github.com/hamed0406/uptimemonitor/internal/domain"
	"github.com/hamed0406/uptimemonitor/internal/repo"
)

var _ repo.SnapshotStore = (*Store)(nil)

// Store publishes snapshots through an atomic pointer: readers load it without
// locking, the single writer swaps it under mu so publication stays ordered.
type Store struct {
	mu         sync.Mutex
	current    atomic.Pointer[domain.CycleSnapshot]
	inProgress atomic.Bool
}

// New starts with an empty snapshot describing targets that have not been
// checked yet.
func New() *Store {
	s := &Store{}
	s.current.Store(&domain.CycleSnapshot{Targets: []domain.TargetView{}})
	return s
}

// NewWithTargets seeds the initial snapshot with unchecked views so the API
// lists every target before the first cycle completes.
func NewWithTargets(targets []domain.Target) *Store {
	s := &Store{}
	views := make([]domain.TargetView, 0, len(targets))
	for _, t := range targets {
		views = append(views, domain.NewTargetView(t, domain.Outcome{TargetID: t.ID}, domain.TargetStats{}))
	}
	s.current.Store(&domain.CycleSnapshot{
		Targets: views,
		Summary: domain.Summary{TotalTargets: len(views), TotalDown: len(views)},
	})
	return s
}

// Current returns the latest published snapshot. The targets slice is shared
// with other readers and must be treated as read-only.
func (m *Store) Current() domain.CycleSnapshot {
	snap := *m.current.Load()
	snap.IsCycleInProgress = m.inProgress.Load()
	return snap
}

func (m *Store) Publish(s domain.CycleSnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if cur := m.current.Load(); s.TotalCyclesRun <= cur.TotalCyclesRun {
		return domain.ErrStaleSnapshot
	}
	s.IsCycleInProgress = false
	views := make([]domain.TargetView, len(s.Targets))
	copy(views, s.Targets)
	s.Targets = views
	m.current.Store(&s)
	return nil
}

func (m *Store) SetInProgress(v bool) { m.inProgress.Store(v) }
