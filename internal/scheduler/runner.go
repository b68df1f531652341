package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/hamed0406/uptimemonitor/internal/domain"
	"github.com/hamed0406/uptimemonitor/internal/probe"
	"github.com/hamed0406/uptimemonitor/internal/repo"
	"github.com/hamed0406/uptimemonitor/internal/stats"
	"github.com/hamed0406/uptimemonitor/internal/telemetry"
)

const (
	ReasonStartup   = "startup"
	ReasonScheduled = "scheduled"
	ReasonManual    = "manual"
	ReasonBatch     = "batch"
)

// Runner executes one check cycle: probe every target in parallel, fold the
// outcomes into stats, publish the snapshot, then alert and feed sinks.
type Runner struct {
	Logger   *zap.Logger
	Registry *domain.Registry
	Prober   probe.Prober
	Stats    *stats.Accumulator
	Store    repo.SnapshotStore
	Alerter  *Alerter
	Sinks    []repo.CycleSink
	Metrics  *telemetry.Metrics
	Tracer   trace.Tracer

	// Schedule computes nextRunAt. Nil falls back to Interval.
	Schedule Schedule
	Interval time.Duration

	// SinkTimeout bounds each sink write (default 10s).
	SinkTimeout time.Duration

	runMu sync.Mutex
	prev  map[domain.TargetID]bool
}

func NewRunner(
	logger *zap.Logger,
	reg *domain.Registry,
	prober probe.Prober,
	acc *stats.Accumulator,
	store repo.SnapshotStore,
	alerter *Alerter,
	interval time.Duration,
) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	if alerter == nil {
		alerter = NewAlerter(logger, nil, nil, AlerterConfig{})
	}
	return &Runner{
		Logger:   logger,
		Registry: reg,
		Prober:   prober,
		Stats:    acc,
		Store:    store,
		Alerter:  alerter,
		Interval: interval,
	}
}

// Seed loads the previous ok flag per target so the first cycle after a
// restart can still detect transitions. Unknown ids are ignored.
func (r *Runner) Seed(ctx context.Context, loader repo.StateLoader) error {
	states, err := loader.LoadStates(ctx)
	if err != nil {
		return fmt.Errorf("load previous states: %w", err)
	}
	r.runMu.Lock()
	defer r.runMu.Unlock()
	if r.prev == nil {
		r.prev = make(map[domain.TargetID]bool, len(states))
	}
	for id, ok := range states {
		if _, known := r.Registry.Get(id); known {
			r.prev[id] = ok
		}
	}
	return nil
}

// RunCycle runs one cycle. On an internal failure the previous snapshot is
// returned together with a *domain.CycleError and nothing is published.
func (r *Runner) RunCycle(ctx context.Context, reason string) (domain.CycleSnapshot, error) {
	r.runMu.Lock()
	defer r.runMu.Unlock()

	start := time.Now().UTC()
	id := uuid.NewString()
	targets := r.Registry.Targets()

	ctx, span := r.tracer().Start(ctx, "uptime.cycle", trace.WithAttributes(
		attribute.String("cycle.id", id),
		attribute.String("cycle.reason", reason),
		attribute.Int("cycle.targets", len(targets)),
	))
	defer span.End()

	log := r.Logger.With(zap.String("cycle_id", id), zap.String("reason", reason))
	log.Info("cycle_started", zap.Int("targets", len(targets)))

	outcomes := r.probeAll(ctx, targets)

	snap, err := r.publish(id, reason, start, targets, outcomes)
	if err != nil {
		cerr := &domain.CycleError{CycleID: id, Reason: reason, Err: err}
		log.Error("cycle_failed",
			zap.String("error_kind", string(domain.CycleInternalError)),
			zap.Error(err),
		)
		span.RecordError(cerr)
		span.SetStatus(codes.Error, err.Error())
		r.Metrics.CycleDone(ctx, reason, time.Since(start), cerr)
		return r.Store.Current(), cerr
	}

	r.observe(targets, outcomes)
	r.logCompleted(log, snap, targets, outcomes)
	span.SetAttributes(
		attribute.Int("cycle.up", snap.Summary.TotalUp),
		attribute.Int("cycle.down", snap.Summary.TotalDown),
	)
	r.Metrics.CycleDone(ctx, reason, time.Since(start), nil)
	r.record(ctx, log, snap)
	return snap, nil
}

func (r *Runner) probeAll(ctx context.Context, targets []domain.Target) []domain.Outcome {
	outcomes := make([]domain.Outcome, len(targets))
	var wg sync.WaitGroup
	for i, t := range targets {
		i, t := i, t
		wg.Add(1)
		go func() {
			defer wg.Done()
			pctx, span := r.tracer().Start(ctx, "uptime.probe", trace.WithAttributes(
				attribute.String("target.id", string(t.ID)),
				attribute.String("target.kind", string(t.Kind)),
			))
			o := r.Prober.Probe(pctx, t)
			span.SetAttributes(attribute.Bool("probe.ok", o.OK), attribute.Int64("probe.latency_ms", o.LatencyMS))
			if !o.OK {
				span.SetStatus(codes.Error, o.Error)
			}
			span.End()
			r.Metrics.ProbeDone(ctx, t, o)
			outcomes[i] = o
		}()
	}
	wg.Wait()
	return outcomes
}

// publish builds the snapshot from previewed stats, publishes it, then
// commits the stats. A failure before commit leaves the stats untouched.
func (r *Runner) publish(id, reason string, start time.Time, targets []domain.Target, outcomes []domain.Outcome) (snap domain.CycleSnapshot, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("aggregation panic: %v", rec)
		}
	}()

	preview, err := r.Stats.Preview(outcomes)
	if err != nil {
		return domain.CycleSnapshot{}, err
	}
	views := make([]domain.TargetView, len(targets))
	for i, t := range targets {
		views[i] = domain.NewTargetView(t, outcomes[i], preview[i])
	}
	summary := domain.Summarize(views)
	if summary.TotalUp+summary.TotalDown != summary.TotalTargets || summary.TotalTargets != len(targets) {
		return domain.CycleSnapshot{}, errors.New("summary does not match target count")
	}

	finish := time.Now().UTC()
	next := r.nextRun(finish)
	snap = domain.CycleSnapshot{
		CycleID:                   id,
		Reason:                    reason,
		Targets:                   views,
		LastRunAt:                 &finish,
		CycleDurationMS:           finish.Sub(start).Milliseconds(),
		TotalCyclesRun:            r.Store.Current().TotalCyclesRun + 1,
		AggregateUptimePercentage: domain.Percentage(summary.TotalUp, summary.TotalTargets),
		Summary:                   summary,
	}
	if !next.IsZero() {
		snap.NextRunAt = &next
	}
	if err := r.Store.Publish(snap); err != nil {
		return domain.CycleSnapshot{}, fmt.Errorf("publish: %w", err)
	}
	if _, err := r.Stats.ApplyAll(outcomes); err != nil {
		return domain.CycleSnapshot{}, fmt.Errorf("commit stats: %w", err)
	}
	return snap, nil
}

// nextRun is finish + interval for fixed intervals and the next cron
// activation otherwise.
func (r *Runner) nextRun(finish time.Time) time.Time {
	switch s := r.Schedule.(type) {
	case nil:
	case Every:
		if s.Interval > 0 {
			return finish.Add(s.Interval)
		}
		return time.Time{}
	default:
		return s.Next(finish)
	}
	if r.Interval > 0 {
		return finish.Add(r.Interval)
	}
	return time.Time{}
}

// observe runs after publish; deliveries happen in the background.
func (r *Runner) observe(targets []domain.Target, outcomes []domain.Outcome) {
	if r.prev == nil {
		r.prev = make(map[domain.TargetID]bool, len(targets))
	}
	for i, t := range targets {
		var previous *bool
		if ok, seen := r.prev[t.ID]; seen {
			previous = &ok
		}
		r.Alerter.Observe(t, previous, outcomes[i])
		r.prev[t.ID] = outcomes[i].OK
	}
}

func (r *Runner) logCompleted(log *zap.Logger, snap domain.CycleSnapshot, targets []domain.Target, outcomes []domain.Outcome) {
	log.Info("cycle_completed",
		zap.Int("total_cycles_run", snap.TotalCyclesRun),
		zap.Int("up", snap.Summary.TotalUp),
		zap.Int("down", snap.Summary.TotalDown),
		zap.Int64("duration_ms", snap.CycleDurationMS),
	)
	if snap.Summary.TotalDown == 0 {
		return
	}
	failures := make([]failure, 0, snap.Summary.TotalDown)
	for i, o := range outcomes {
		if o.OK {
			continue
		}
		failures = append(failures, failure{
			Name:      targets[i].Name,
			Kind:      string(targets[i].Kind),
			Location:  targets[i].Address,
			Reason:    failureReason(o),
			LatencyMS: o.LatencyMS,
		})
	}
	log.Warn("cycle_failures", zap.Array("failures", failureList(failures)))
}

func (r *Runner) record(ctx context.Context, log *zap.Logger, snap domain.CycleSnapshot) {
	timeout := r.SinkTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	for _, s := range r.Sinks {
		sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
		if err := s.Record(sctx, snap); err != nil {
			log.Warn("cycle_sink_failed", zap.String("sink", fmt.Sprintf("%T", s)), zap.Error(err))
		}
		cancel()
	}
}

func (r *Runner) tracer() trace.Tracer {
	if r.Tracer != nil {
		return r.Tracer
	}
	return otel.Tracer("github.com/hamed0406/uptimemonitor/internal/scheduler")
}
