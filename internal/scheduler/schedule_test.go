package scheduler

import (
	"testing"
	"time"
)

func TestEvery_AnchoredGrid(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	e := Every{Start: start, Interval: 15 * time.Second}

	cases := []struct {
		after time.Time
		want  time.Time
	}{
		{start.Add(-time.Second), start},
		{start, start.Add(15 * time.Second)},
		{start.Add(14 * time.Second), start.Add(15 * time.Second)},
		{start.Add(15 * time.Second), start.Add(30 * time.Second)},
		{start.Add(47 * time.Second), start.Add(60 * time.Second)},
	}
	for _, c := range cases {
		if got := e.Next(c.after); !got.Equal(c.want) {
			t.Fatalf("Next(%v) = %v, want %v", c.after.Sub(start), got.Sub(start), c.want.Sub(start))
		}
	}

	if !(Every{Start: start}).Next(start).IsZero() {
		t.Fatal("zero interval must never tick")
	}
}

func TestParseSchedule(t *testing.T) {
	s, err := ParseSchedule("*/5 * * * *")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	from := time.Date(2025, 1, 1, 10, 2, 30, 0, time.UTC)
	if got := s.Next(from); !got.Equal(time.Date(2025, 1, 1, 10, 5, 0, 0, time.UTC)) {
		t.Fatalf("unexpected next %v", got)
	}

	if _, err := ParseSchedule("@every 30s"); err != nil {
		t.Fatalf("descriptor: %v", err)
	}
	for _, bad := range []string{"", "CRON_TZ=Europe/Oslo * * * * *", "61 * * * *", "* * *"} {
		if _, err := ParseSchedule(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}
