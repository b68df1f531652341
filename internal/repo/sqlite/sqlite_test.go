package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hamed0406/uptimemonitor/internal/domain"
)

func newTestStore(t *testing.T, cfg Config) *Store {
	t.Helper()
	if cfg.DSN == "" {
		cfg.DSN = filepath.Join(t.TempDir(), "uptime.db")
	}
	s, err := Open(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func view(id domain.TargetID, ok bool, status *int, at time.Time) domain.TargetView {
	return domain.TargetView{
		Target:  domain.Target{ID: id, Kind: domain.KindHTTP, Name: string(id), Address: "https://" + string(id)},
		Outcome: domain.Outcome{TargetID: id, OK: ok, StatusCode: status, LatencyMS: 7, CheckedAt: at},
	}
}

func TestStore_RecordThenLoadStatesAndHistory(t *testing.T) {
	s := newTestStore(t, Config{})
	ctx := context.Background()

	t0 := time.Date(2025, 8, 1, 10, 0, 0, 0, time.UTC)
	ok200, bad500 := 200, 500
	first := domain.CycleSnapshot{
		CycleID: "c1", Reason: "startup", TotalCyclesRun: 1, LastRunAt: &t0,
		Targets: []domain.TargetView{view("a", true, &ok200, t0), view("b", true, nil, t0)},
	}
	t1 := t0.Add(15 * time.Second)
	second := domain.CycleSnapshot{
		CycleID: "c2", Reason: "scheduled", TotalCyclesRun: 2, LastRunAt: &t1,
		Targets: []domain.TargetView{view("a", false, &bad500, t1), view("b", true, nil, t1)},
	}
	require.NoError(t, s.Record(ctx, first))
	require.NoError(t, s.Record(ctx, second))

	states, err := s.LoadStates(ctx)
	require.NoError(t, err)
	require.Equal(t, map[domain.TargetID]bool{"a": false, "b": true}, states)

	hist, err := s.History(ctx, "a", 10)
	require.NoError(t, err)
	require.Len(t, hist, 2)
	require.False(t, hist[0].OK)
	require.Equal(t, 500, *hist[0].StatusCode)
	require.True(t, hist[0].CheckedAt.Equal(t1))
	require.True(t, hist[1].OK)

	hist, err = s.History(ctx, "b", 1)
	require.NoError(t, err)
	require.Len(t, hist, 1)
	require.Nil(t, hist[0].StatusCode)
}

func TestStore_SkipsUncheckedViews(t *testing.T) {
	s := newTestStore(t, Config{})
	ctx := context.Background()

	now := time.Now().UTC()
	snap := domain.CycleSnapshot{
		CycleID: "c1", TotalCyclesRun: 1, LastRunAt: &now,
		Targets: []domain.TargetView{view("never", false, nil, time.Time{})},
	}
	require.NoError(t, s.Record(ctx, snap))

	states, err := s.LoadStates(ctx)
	require.NoError(t, err)
	require.Empty(t, states)
}

func TestStore_PruneByAge(t *testing.T) {
	s := newTestStore(t, Config{RetentionAge: time.Hour})
	ctx := context.Background()

	old := time.Now().UTC().Add(-2 * time.Hour)
	fresh := time.Now().UTC()
	snap := domain.CycleSnapshot{
		CycleID: "c1", TotalCyclesRun: 1, LastRunAt: &fresh,
		Targets: []domain.TargetView{view("old", true, nil, old), view("new", true, nil, fresh)},
	}
	require.NoError(t, s.Record(ctx, snap))

	hist, err := s.History(ctx, "old", 10)
	require.NoError(t, err)
	require.Empty(t, hist)

	hist, err = s.History(ctx, "new", 10)
	require.NoError(t, err)
	require.Len(t, hist, 1)
}

func TestStore_HistoryOrdersWholeAndFractionalSeconds(t *testing.T) {
	s := newTestStore(t, Config{})
	ctx := context.Background()

	t0 := time.Date(2025, 8, 1, 10, 0, 0, 0, time.UTC)
	t1 := t0.Add(100 * time.Millisecond)
	for i, at := range []time.Time{t0, t1} {
		at := at
		require.NoError(t, s.Record(ctx, domain.CycleSnapshot{
			CycleID: "c" + string(rune('1'+i)), TotalCyclesRun: i + 1, LastRunAt: &at,
			Targets: []domain.TargetView{view("a", i == 1, nil, at)},
		}))
	}

	hist, err := s.History(ctx, "a", 10)
	require.NoError(t, err)
	require.Len(t, hist, 2)
	require.True(t, hist[0].CheckedAt.Equal(t1), "newest first, got %s", hist[0].CheckedAt)
	require.True(t, hist[1].CheckedAt.Equal(t0))
}

func TestFormatTime_FixedWidth(t *testing.T) {
	whole := formatTime(time.Date(2025, 8, 1, 10, 0, 0, 0, time.UTC))
	frac := formatTime(time.Date(2025, 8, 1, 10, 0, 0, 100_000_000, time.FixedZone("CEST", 2*3600)))
	require.Len(t, frac, len(whole))
	require.Less(t, frac, whole)
}
