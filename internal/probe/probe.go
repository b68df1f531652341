package probe

import (
	"context"

	"github.com/hamed0406/uptimemonitor/internal/domain"
)

// Prober performs a single check against one target. Implementations never
// panic or return errors: every failure mode becomes a failed Outcome.
type Prober interface {
	Probe(ctx context.Context, t domain.Target) domain.Outcome
}

// ProberFunc adapts a function to Prober.
type ProberFunc func(ctx context.Context, t domain.Target) domain.Outcome

func (f ProberFunc) Probe(ctx context.Context, t domain.Target) domain.Outcome {
	return f(ctx, t)
}
