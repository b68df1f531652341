package probe

import (
	"context"
	"errors"
	"time"

	probing "github.com/prometheus-community/pro-bing"

	"github.com/hamed0406/uptimemonitor/internal/domain"
)

// ICMPProber sends a single echo request. Unprivileged mode uses UDP ping
// sockets, which Linux only allows when net.ipv4.ping_group_range permits it.
type ICMPProber struct {
	Timeout    time.Duration
	Privileged bool
}

func NewICMPProber(timeout time.Duration, privileged bool) *ICMPProber {
	if timeout <= 0 {
		timeout = DefaultICMPTimeout
	}
	return &ICMPProber{Timeout: timeout, Privileged: privileged}
}

func (p *ICMPProber) Probe(ctx context.Context, t domain.Target) domain.Outcome {
	ctx, cancel := context.WithTimeout(ctx, p.Timeout)
	defer cancel()

	start := time.Now()
	pinger, err := probing.NewPinger(t.Address)
	if err != nil {
		return failed(ctx, t.ID, start, err)
	}
	pinger.Count = 1
	pinger.Timeout = p.Timeout
	pinger.SetPrivileged(p.Privileged)

	if err := pinger.RunWithContext(ctx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return failed(ctx, t.ID, start, err)
	}

	st := pinger.Statistics()
	if st.PacketsRecv == 0 {
		return failed(ctx, t.ID, start, context.DeadlineExceeded)
	}
	return domain.Outcome{
		TargetID:  t.ID,
		OK:        true,
		LatencyMS: st.AvgRtt.Milliseconds(),
		CheckedAt: time.Now().UTC(),
	}
}
