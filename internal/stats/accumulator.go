// Package stats keeps per-target running counters for the lifetime of the
// process.
package stats

import (
	"errors"
	"fmt"
	"sync"

	"github.com/hamed0406/uptimemonitor/internal/domain"
)

var errMissingTarget = errors.New("outcome has no target id")

// Accumulator owns the TargetStats map. Counters only ever grow.
type Accumulator struct {
	mu    sync.RWMutex
	stats map[domain.TargetID]*domain.TargetStats
}

func NewAccumulator() *Accumulator {
	return &Accumulator{stats: make(map[domain.TargetID]*domain.TargetStats)}
}

// Apply folds one outcome into the stats of its target and returns a copy.
func (a *Accumulator) Apply(o domain.Outcome) (domain.TargetStats, error) {
	if o.TargetID == "" {
		return domain.TargetStats{}, errMissingTarget
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.applyLocked(o), nil
}

// ApplyAll validates every outcome before touching the map, so a rejected
// batch leaves all counters unchanged. Results follow the input order.
func (a *Accumulator) ApplyAll(outcomes []domain.Outcome) ([]domain.TargetStats, error) {
	if err := validate(outcomes); err != nil {
		return nil, err
	}
	out := make([]domain.TargetStats, len(outcomes))
	a.mu.Lock()
	defer a.mu.Unlock()
	for i, o := range outcomes {
		out[i] = a.applyLocked(o)
	}
	return out, nil
}

// Preview returns the stats ApplyAll would produce for outcomes without
// committing anything.
func (a *Accumulator) Preview(outcomes []domain.Outcome) ([]domain.TargetStats, error) {
	if err := validate(outcomes); err != nil {
		return nil, err
	}
	work := make(map[domain.TargetID]*domain.TargetStats, len(outcomes))
	out := make([]domain.TargetStats, len(outcomes))
	a.mu.RLock()
	defer a.mu.RUnlock()
	for i, o := range outcomes {
		s := work[o.TargetID]
		if s == nil {
			s = &domain.TargetStats{}
			if cur := a.stats[o.TargetID]; cur != nil {
				*s = copyStats(cur)
			}
			work[o.TargetID] = s
		}
		fold(s, o)
		out[i] = copyStats(s)
	}
	return out, nil
}

func validate(outcomes []domain.Outcome) error {
	for i, o := range outcomes {
		if o.TargetID == "" {
			return fmt.Errorf("outcome %d: %w", i, errMissingTarget)
		}
	}
	return nil
}

func (a *Accumulator) applyLocked(o domain.Outcome) domain.TargetStats {
	s := a.stats[o.TargetID]
	if s == nil {
		s = &domain.TargetStats{}
		a.stats[o.TargetID] = s
	}
	fold(s, o)
	return copyStats(s)
}

func fold(s *domain.TargetStats, o domain.Outcome) {
	at := o.CheckedAt
	s.TotalChecks++
	if o.OK {
		s.SuccessfulChecks++
		s.LastSuccessAt = &at
	} else {
		s.FailedChecks++
		s.LastFailureAt = &at
	}
}

// Get returns a copy of the stats for id.
func (a *Accumulator) Get(id domain.TargetID) (domain.TargetStats, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	s, ok := a.stats[id]
	if !ok {
		return domain.TargetStats{}, false
	}
	return copyStats(s), true
}

// All returns a copy of every tracked target's stats.
func (a *Accumulator) All() map[domain.TargetID]domain.TargetStats {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make(map[domain.TargetID]domain.TargetStats, len(a.stats))
	for id, s := range a.stats {
		out[id] = copyStats(s)
	}
	return out
}

func copyStats(s *domain.TargetStats) domain.TargetStats {
	out := *s
	if s.LastSuccessAt != nil {
		t := *s.LastSuccessAt
		out.LastSuccessAt = &t
	}
	if s.LastFailureAt != nil {
		t := *s.LastFailureAt
		out.LastFailureAt = &t
	}
	return out
}
