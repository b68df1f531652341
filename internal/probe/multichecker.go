package probe

import (
	"context"
	"fmt"
	"time"

	"github.com/hamed0406/uptimemonitor/internal/domain"
)

// Dispatcher routes each target to the prober registered for its kind and
// turns panics into failed outcomes.
type Dispatcher struct {
	probers map[domain.Kind]Prober
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{probers: make(map[domain.Kind]Prober)}
}

// Handle registers p for kind k, replacing any previous prober.
func (d *Dispatcher) Handle(k domain.Kind, p Prober) *Dispatcher {
	d.probers[k] = p
	return d
}

func (d *Dispatcher) Probe(ctx context.Context, t domain.Target) (out domain.Outcome) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			out = domain.Outcome{
				TargetID:  t.ID,
				LatencyMS: elapsedMS(start),
				Error:     fmt.Sprintf("probe panic: %v", r),
				ErrorKind: domain.ProbeTransportError,
				CheckedAt: time.Now().UTC(),
			}
		}
	}()

	p, ok := d.probers[t.Kind]
	if !ok {
		return domain.Outcome{
			TargetID:  t.ID,
			Error:     fmt.Sprintf("no prober for kind %q", t.Kind),
			ErrorKind: domain.ProbeTransportError,
			CheckedAt: time.Now().UTC(),
		}
	}
	out = p.Probe(ctx, t)
	out.TargetID = t.ID
	if out.LatencyMS < 0 {
		out.LatencyMS = 0
	}
	return out
}
