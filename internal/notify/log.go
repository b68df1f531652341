package notify

import (
	"context"

	"go.uber.org/zap"
)

// Log writes alerts to the structured log instead of an external channel.
type Log struct {
	Logger *zap.Logger
}

func (l Log) NotifyDown(_ context.Context, e Event) error {
	l.Logger.Warn("target_down",
		zap.String("target_id", string(e.Target.ID)),
		zap.String("name", e.Target.Name),
		zap.String("location", e.Target.Address),
		zap.String("reason", reason(e.Outcome)),
	)
	return nil
}

func (l Log) NotifyRecovered(_ context.Context, e Event) error {
	l.Logger.Info("target_recovered",
		zap.String("target_id", string(e.Target.ID)),
		zap.String("name", e.Target.Name),
		zap.String("location", e.Target.Address),
		zap.Int64("latency_ms", e.Outcome.LatencyMS),
	)
	return nil
}
