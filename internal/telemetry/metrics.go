package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/hamed0406/uptimemonitor/internal/domain"
)

// Metrics records probe and cycle instruments. A nil *Metrics is a no-op.
type Metrics struct {
	probes        metric.Int64Counter
	probeFailures metric.Int64Counter
	probeLatency  metric.Float64Histogram
	cycles        metric.Int64Counter
	cycleDuration metric.Float64Histogram
	transitions   metric.Int64Counter
}

func NewMetrics(meter metric.Meter) (*Metrics, error) {
	probes, err := meter.Int64Counter("uptime.probe.checks",
		metric.WithDescription("Number of probes executed"),
	)
	if err != nil {
		return nil, err
	}
	failures, err := meter.Int64Counter("uptime.probe.failures",
		metric.WithDescription("Number of probes reporting DOWN"),
	)
	if err != nil {
		return nil, err
	}
	latency, err := meter.Float64Histogram("uptime.probe.latency",
		metric.WithDescription("Probe latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}
	cycles, err := meter.Int64Counter("uptime.cycle.runs",
		metric.WithDescription("Number of check cycles by reason and result"),
	)
	if err != nil {
		return nil, err
	}
	cycleDur, err := meter.Float64Histogram("uptime.cycle.duration",
		metric.WithDescription("Duration of a check cycle in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}
	transitions, err := meter.Int64Counter("uptime.transitions",
		metric.WithDescription("Number of UP/DOWN transitions"),
	)
	if err != nil {
		return nil, err
	}
	return &Metrics{
		probes:        probes,
		probeFailures: failures,
		probeLatency:  latency,
		cycles:        cycles,
		cycleDuration: cycleDur,
		transitions:   transitions,
	}, nil
}

func (m *Metrics) ProbeDone(ctx context.Context, t domain.Target, o domain.Outcome) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("target_id", string(t.ID)),
		attribute.String("kind", string(t.Kind)),
	)
	m.probes.Add(ctx, 1, attrs)
	m.probeLatency.Record(ctx, float64(o.LatencyMS), attrs)
	if !o.OK {
		m.probeFailures.Add(ctx, 1, metric.WithAttributes(
			attribute.String("target_id", string(t.ID)),
			attribute.String("kind", string(t.Kind)),
			attribute.String("error_kind", string(o.ErrorKind)),
		))
	}
}

func (m *Metrics) CycleDone(ctx context.Context, reason string, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.cycles.Add(ctx, 1, metric.WithAttributes(
		attribute.String("reason", reason),
		attribute.String("result", result),
	))
	m.cycleDuration.Record(ctx, elapsed.Seconds(), metric.WithAttributes(
		attribute.String("reason", reason),
	))
}

func (m *Metrics) Transition(ctx context.Context, t domain.Target, kind string) {
	if m == nil {
		return
	}
	m.transitions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("target_id", string(t.ID)),
		attribute.String("event", kind),
	))
}
