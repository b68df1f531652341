package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/uptimemonitor/internal/domain"
	"github.com/hamed0406/uptimemonitor/internal/notify"
	"github.com/hamed0406/uptimemonitor/internal/telemetry"
)

type AlerterConfig struct {
	// Timeout bounds each delivery (default 10s).
	Timeout time.Duration
}

// Alerter compares each new outcome with the previous ok flag of its target
// and dispatches DOWN/RECOVERED events without blocking the caller.
type Alerter struct {
	logger    *zap.Logger
	transport notify.Transport
	metrics   *telemetry.Metrics
	cfg       AlerterConfig

	wg sync.WaitGroup
}

func NewAlerter(logger *zap.Logger, transport notify.Transport, metrics *telemetry.Metrics, cfg AlerterConfig) *Alerter {
	if logger == nil {
		logger = zap.NewNop()
	}
	if transport == nil {
		transport = notify.Nop{}
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Alerter{logger: logger, transport: transport, metrics: metrics, cfg: cfg}
}

// Observe fires an event when previousOK is known and differs from o.OK.
// The first observation of a target never fires.
func (a *Alerter) Observe(t domain.Target, previousOK *bool, o domain.Outcome) (notify.Event, bool) {
	if previousOK == nil || *previousOK == o.OK {
		return notify.Event{}, false
	}
	at := o.CheckedAt
	if at.IsZero() {
		at = time.Now().UTC()
	}
	e := notify.Event{Kind: notify.EventDown, Target: t, Outcome: o, At: at}
	if o.OK {
		e.Kind = notify.EventRecovered
	}
	a.metrics.Transition(context.Background(), t, string(e.Kind))

	a.wg.Add(1)
	go a.dispatch(e)
	return e, true
}

func (a *Alerter) dispatch(e notify.Event) {
	defer a.wg.Done()
	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Timeout)
	defer cancel()

	fields := []zap.Field{
		zap.String("event", string(e.Kind)),
		zap.String("target_id", string(e.Target.ID)),
		zap.String("name", e.Target.Name),
	}
	if err := notify.Deliver(ctx, a.transport, e); err != nil {
		a.logger.Warn("alert_failed", append(fields,
			zap.String("error_kind", string(domain.TransportNotifyError)),
			zap.Error(err),
		)...)
		return
	}
	a.logger.Info("alert_sent", fields...)
}

// Wait blocks until every dispatched event has been delivered or failed.
func (a *Alerter) Wait() { a.wg.Wait() }
