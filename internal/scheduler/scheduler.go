package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/uptimemonitor/internal/domain"
	"github.com/hamed0406/uptimemonitor/internal/repo"
)

// ErrStopped is returned by Trigger once the scheduler is shutting down.
var ErrStopped = errors.New("scheduler stopped")

type CycleRunner interface {
	RunCycle(ctx context.Context, reason string) (domain.CycleSnapshot, error)
}

type State int

const (
	Idle State = iota
	Running
)

func (s State) String() string {
	if s == Running {
		return "running"
	}
	return "idle"
}

// flight is one in-flight cycle. done is closed exactly once, after snap and
// err are set, so every waiter sees the same result.
type flight struct {
	reason string
	done   chan struct{}
	snap   domain.CycleSnapshot
	err    error
}

// Scheduler guarantees at most one cycle at a time. Triggers arriving while a
// cycle runs join it instead of queueing another one.
type Scheduler struct {
	logger   *zap.Logger
	runner   CycleRunner
	store    repo.SnapshotStore
	schedule Schedule

	mu       sync.Mutex
	inflight *flight
	stopped  bool
	wg       sync.WaitGroup
}

// New builds a scheduler. schedule may be nil, in which case only the
// startup cycle and manual triggers run.
func New(logger *zap.Logger, runner CycleRunner, store repo.SnapshotStore, schedule Schedule) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{logger: logger, runner: runner, store: store, schedule: schedule}
}

func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inflight != nil {
		return Running
	}
	return Idle
}

// Trigger starts a cycle when idle or joins the running one, then waits for
// its snapshot. If ctx ends first the caller stops waiting; the cycle keeps
// running.
func (s *Scheduler) Trigger(ctx context.Context, reason string) (domain.CycleSnapshot, error) {
	f := s.begin(ctx, reason)
	if f == nil {
		return domain.CycleSnapshot{}, ErrStopped
	}
	select {
	case <-f.done:
		return f.snap, f.err
	case <-ctx.Done():
		return domain.CycleSnapshot{}, ctx.Err()
	}
}

func (s *Scheduler) begin(ctx context.Context, reason string) *flight {
	s.mu.Lock()
	defer s.mu.Unlock()
	if f := s.inflight; f != nil {
		s.logger.Debug("cycle_joined", zap.String("reason", reason), zap.String("running_reason", f.reason))
		return f
	}
	if s.stopped {
		return nil
	}

	f := &flight{reason: reason, done: make(chan struct{})}
	s.inflight = f
	if s.store != nil {
		s.store.SetInProgress(true)
	}
	s.wg.Add(1)
	go s.run(context.WithoutCancel(ctx), f)
	return f
}

func (s *Scheduler) run(ctx context.Context, f *flight) {
	defer s.wg.Done()
	snap, err := s.runner.RunCycle(ctx, f.reason)

	s.mu.Lock()
	f.snap, f.err = snap, err
	s.inflight = nil
	if s.store != nil {
		s.store.SetInProgress(false)
	}
	s.mu.Unlock()
	close(f.done)
}

// Run executes the startup cycle and then one cycle per schedule tick until
// ctx is cancelled. It returns after the in-flight cycle, if any, finished.
func (s *Scheduler) Run(ctx context.Context) {
	start := time.Now()
	s.begin(ctx, ReasonStartup)

	sched := s.schedule
	if sched == nil {
		<-ctx.Done()
		s.Stop()
		s.logger.Info("scheduler_stopped")
		return
	}
	if e, ok := sched.(Every); ok && e.Start.IsZero() {
		e.Start = start
		sched = e
	}

	for {
		next := sched.Next(time.Now())
		if next.IsZero() {
			<-ctx.Done()
			break
		}
		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			s.Stop()
			s.logger.Info("scheduler_stopped")
			return
		case <-timer.C:
			s.begin(ctx, ReasonScheduled)
		}
	}
	s.Stop()
	s.logger.Info("scheduler_stopped")
}

// Stop refuses new cycles and blocks until the running one, if any, has
// finished. Later triggers get ErrStopped.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	s.stopped = true
	s.mu.Unlock()
	s.wg.Wait()
}
