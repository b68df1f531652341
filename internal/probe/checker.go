package probe

import (
	"context"
	"net"
	"time"

	"github.com/hamed0406/uptimemonitor/internal/domain"
)

// DialFunc matches net.Dialer.DialContext.
type DialFunc func(ctx context.Context, network, address string) (net.Conn, error)

// TCPProber reports whether host:port accepts a connection within Timeout.
type TCPProber struct {
	Timeout time.Duration
	Dial    DialFunc
}

func NewTCPProber(timeout time.Duration) *TCPProber {
	if timeout <= 0 {
		timeout = DefaultTCPTimeout
	}
	d := &net.Dialer{}
	return &TCPProber{Timeout: timeout, Dial: d.DialContext}
}

// Probe settles exactly once: the dial either returns a connection, which is
// closed immediately, or an error.
func (p *TCPProber) Probe(ctx context.Context, t domain.Target) domain.Outcome {
	ctx, cancel := context.WithTimeout(ctx, p.Timeout)
	defer cancel()

	start := time.Now()
	conn, err := p.Dial(ctx, "tcp", t.Address)
	if err != nil {
		if conn != nil {
			_ = conn.Close()
		}
		return failed(ctx, t.ID, start, err)
	}
	latency := elapsedMS(start)
	_ = conn.Close()

	return domain.Outcome{
		TargetID:  t.ID,
		OK:        true,
		LatencyMS: latency,
		CheckedAt: time.Now().UTC(),
	}
}
