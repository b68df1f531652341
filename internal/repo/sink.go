package repo

import (
	"context"

	"github.com/hamed0406/uptimemonitor/internal/domain"
)

// SinkFunc adapts a function to CycleSink.
type SinkFunc func(ctx context.Context, s domain.CycleSnapshot) error

func (f SinkFunc) Record(ctx context.Context, s domain.CycleSnapshot) error { return f(ctx, s) }
