package scheduler

import (
	"fmt"

	"go.uber.org/zap/zapcore"

	"github.com/hamed0406/uptimemonitor/internal/domain"
)

type failure struct {
	Name      string
	Kind      string
	Location  string
	Reason    string
	LatencyMS int64
}

func (f failure) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddString("name", f.Name)
	enc.AddString("kind", f.Kind)
	enc.AddString("location", f.Location)
	enc.AddString("reason", f.Reason)
	enc.AddInt64("latencyMs", f.LatencyMS)
	return nil
}

type failureList []failure

func (l failureList) MarshalLogArray(enc zapcore.ArrayEncoder) error {
	for _, f := range l {
		if err := enc.AppendObject(f); err != nil {
			return err
		}
	}
	return nil
}

func failureReason(o domain.Outcome) string {
	switch {
	case o.Error != "":
		return o.Error
	case o.StatusCode != nil:
		return fmt.Sprintf("HTTP %d", *o.StatusCode)
	default:
		return "unknown"
	}
}
