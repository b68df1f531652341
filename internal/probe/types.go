package probe

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/hamed0406/uptimemonitor/internal/domain"
)

// Default per-kind timeouts.
const (
	DefaultHTTPTimeout = 9 * time.Second
	DefaultTCPTimeout  = 5 * time.Second
	DefaultICMPTimeout = 3 * time.Second
)

func elapsedMS(start time.Time) int64 {
	ms := time.Since(start).Milliseconds()
	if ms < 0 {
		return 0
	}
	return ms
}

// failed builds the outcome for a probe that did not reach its target.
func failed(ctx context.Context, id domain.TargetID, start time.Time, err error) domain.Outcome {
	msg, kind := classify(ctx, err)
	return domain.Outcome{
		TargetID:  id,
		OK:        false,
		LatencyMS: elapsedMS(start),
		Error:     msg,
		ErrorKind: kind,
		CheckedAt: time.Now().UTC(),
	}
}

// classify maps deadline hits to "Timeout"; anything else keeps its message.
func classify(ctx context.Context, err error) (string, domain.ErrorKind) {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return domain.TimeoutMessage, domain.ProbeTimeout
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return domain.TimeoutMessage, domain.ProbeTimeout
	}
	return err.Error(), domain.ProbeTransportError
}
