// Package telemetry wires OpenTelemetry metrics and traces for the monitor.
package telemetry

import (
	"context"
	"fmt"
	"sort"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/multierr"
)

const scope = "github.com/hamed0406/uptimemonitor"

type Config struct {
	ServiceName string
	// OTLPEndpoint is a full URL (http://collector:4318). Empty keeps spans
	// in process.
	OTLPEndpoint string
}

// Provider owns the meter and tracer providers. Metrics are pulled through a
// manual reader and exposed by Collect.
type Provider struct {
	reader *sdkmetric.ManualReader
	mp     *sdkmetric.MeterProvider
	tp     *sdktrace.TracerProvider
}

func Setup(ctx context.Context, cfg Config) (*Provider, error) {
	if cfg.ServiceName == "" {
		cfg.ServiceName = "uptime-monitor"
	}
	res := resource.NewSchemaless(attribute.String("service.name", cfg.ServiceName))

	tpOpts := []sdktrace.TracerProviderOption{sdktrace.WithResource(res)}
	if cfg.OTLPEndpoint != "" {
		exp, err := otlptracehttp.New(ctx, otlptracehttp.WithEndpointURL(cfg.OTLPEndpoint))
		if err != nil {
			return nil, fmt.Errorf("otlp exporter: %w", err)
		}
		tpOpts = append(tpOpts, sdktrace.WithBatcher(exp))
	}

	reader := sdkmetric.NewManualReader()
	return &Provider{
		reader: reader,
		mp:     sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader), sdkmetric.WithResource(res)),
		tp:     sdktrace.NewTracerProvider(tpOpts...),
	}, nil
}

func (p *Provider) Meter() metric.Meter { return p.mp.Meter(scope) }

func (p *Provider) Tracer() trace.Tracer { return p.tp.Tracer(scope) }

func (p *Provider) Shutdown(ctx context.Context) error {
	return multierr.Combine(p.tp.Shutdown(ctx), p.mp.Shutdown(ctx))
}

// Point is one flattened data point. Histograms report count and sum.
type Point struct {
	Name       string            `json:"name"`
	Attributes map[string]string `json:"attributes,omitempty"`
	Value      float64           `json:"value,omitempty"`
	Count      uint64            `json:"count,omitempty"`
	Sum        float64           `json:"sum,omitempty"`
}

// Collect reads the current metric values, sorted by name.
func (p *Provider) Collect(ctx context.Context) ([]Point, error) {
	var rm metricdata.ResourceMetrics
	if err := p.reader.Collect(ctx, &rm); err != nil {
		return nil, err
	}
	return Flatten(rm), nil
}

func Flatten(rm metricdata.ResourceMetrics) []Point {
	var out []Point
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			switch d := m.Data.(type) {
			case metricdata.Sum[int64]:
				for _, dp := range d.DataPoints {
					out = append(out, Point{Name: m.Name, Attributes: attrs(dp.Attributes), Value: float64(dp.Value)})
				}
			case metricdata.Sum[float64]:
				for _, dp := range d.DataPoints {
					out = append(out, Point{Name: m.Name, Attributes: attrs(dp.Attributes), Value: dp.Value})
				}
			case metricdata.Histogram[float64]:
				for _, dp := range d.DataPoints {
					out = append(out, Point{Name: m.Name, Attributes: attrs(dp.Attributes), Count: dp.Count, Sum: dp.Sum})
				}
			}
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func attrs(set attribute.Set) map[string]string {
	if set.Len() == 0 {
		return nil
	}
	out := make(map[string]string, set.Len())
	for _, kv := range set.ToSlice() {
		out[string(kv.Key)] = kv.Value.Emit()
	}
	return out
}
