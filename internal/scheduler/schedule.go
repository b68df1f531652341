package scheduler

import (
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// Schedule yields the next tick strictly after a given time.
type Schedule interface {
	Next(after time.Time) time.Time
}

// Every ticks on a fixed grid anchored at Start, so slow cycles do not drift
// the following ticks.
type Every struct {
	Start    time.Time
	Interval time.Duration
}

func (e Every) Next(after time.Time) time.Time {
	if e.Interval <= 0 {
		return time.Time{}
	}
	if after.Before(e.Start) {
		return e.Start
	}
	n := after.Sub(e.Start)/e.Interval + 1
	return e.Start.Add(n * e.Interval)
}

var standardCronParser = cron.NewParser(
	cron.Minute |
		cron.Hour |
		cron.Dom |
		cron.Month |
		cron.Dow |
		cron.Descriptor,
)

type cronSchedule struct {
	s cron.Schedule
}

func (c cronSchedule) Next(after time.Time) time.Time { return c.s.Next(after.UTC()) }

// ParseSchedule parses a five-field UTC cron expression or a descriptor such
// as "@every 30s".
func ParseSchedule(expr string) (Schedule, error) {
	clean := strings.TrimSpace(expr)
	if clean == "" {
		return nil, fmt.Errorf("cron expression is required")
	}
	upper := strings.ToUpper(clean)
	if strings.Contains(upper, "CRON_TZ=") || strings.Contains(upper, "TZ=") {
		return nil, fmt.Errorf("cron expression must be UTC-only (timezone prefixes are not allowed)")
	}
	s, err := standardCronParser.Parse(clean)
	if err != nil {
		return nil, fmt.Errorf("invalid cron expression: %w", err)
	}
	return cronSchedule{s: s}, nil
}
