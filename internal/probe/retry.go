package probe

import (
	"context"
	"fmt"
	"time"

	"github.com/hamed0406/uptimemonitor/internal/domain"
)

// Retry re-runs a failed probe up to Attempts times in total. The last
// outcome is returned; a final failure notes how many attempts were made.
type Retry struct {
	Inner    Prober
	Attempts int
	Backoff  time.Duration
}

func (r Retry) Probe(ctx context.Context, t domain.Target) domain.Outcome {
	attempts := max(r.Attempts, 1)
	var last domain.Outcome
	for i := 0; i < attempts; i++ {
		last = r.Inner.Probe(ctx, t)
		if last.OK || i == attempts-1 {
			break
		}
		if r.Backoff > 0 {
			timer := time.NewTimer(r.Backoff)
			select {
			case <-ctx.Done():
				timer.Stop()
				return last
			case <-timer.C:
			}
		}
	}
	if !last.OK && attempts > 1 {
		last.Error = fmt.Sprintf("%s (after %d attempts)", last.Error, attempts)
	}
	return last
}
