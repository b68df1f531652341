package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hamed0406/uptimemonitor/internal/config"
	"github.com/hamed0406/uptimemonitor/internal/domain"
	"github.com/hamed0406/uptimemonitor/internal/repo/memory"
	"github.com/hamed0406/uptimemonitor/internal/scheduler"
	"github.com/hamed0406/uptimemonitor/internal/telemetry"
)

// ---- test helpers ----

type fakeTrigger struct {
	calls  atomic.Int32
	snap   domain.CycleSnapshot
	err    error
	reason string
}

func (f *fakeTrigger) Trigger(_ context.Context, reason string) (domain.CycleSnapshot, error) {
	f.calls.Add(1)
	f.reason = reason
	return f.snap, f.err
}

type fakeHistory struct {
	rows  []domain.Outcome
	limit int
}

func (f *fakeHistory) History(_ context.Context, _ domain.TargetID, limit int) ([]domain.Outcome, error) {
	f.limit = limit
	return f.rows, nil
}

type fakeMetrics []telemetry.Point

func (f fakeMetrics) Collect(context.Context) ([]telemetry.Point, error) { return f, nil }

func newTestServer(t *testing.T, trig Trigger) (*Server, *memory.Store) {
	t.Helper()
	reg, err := domain.NewRegistry([]domain.Target{
		{ID: "web", Kind: domain.KindHTTP, Name: "Web", Address: "https://example.com"},
		{ID: "db", Kind: domain.KindTCP, Name: "DB", Address: "db.internal:5432"},
	})
	require.NoError(t, err)
	store := memory.NewWithTargets(reg.Targets())
	return NewServer(zap.NewNop(), reg, store, trig), store
}

func do(t *testing.T, h http.Handler, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

// ---- tests ----

func TestStatus_ListsEveryTarget(t *testing.T) {
	srv, _ := newTestServer(t, &fakeTrigger{})
	h := srv.Router(Options{})

	rec := do(t, h, http.MethodGet, "/api/status")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var snap domain.CycleSnapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	require.Len(t, snap.Targets, 2)
	require.Equal(t, 2, snap.Summary.TotalUp+snap.Summary.TotalDown)
	require.Nil(t, snap.LastRunAt)
}

func TestStatus_RepeatedReadsAreIdentical(t *testing.T) {
	srv, _ := newTestServer(t, &fakeTrigger{})
	h := srv.Router(Options{})

	a := do(t, h, http.MethodGet, "/api/status").Body.String()
	b := do(t, h, http.MethodGet, "/api/status").Body.String()
	if a != b {
		t.Fatalf("reads differ:\n%s\n%s", a, b)
	}
}

func TestCheck_ReturnsTriggeredSnapshot(t *testing.T) {
	now := time.Now().UTC()
	trig := &fakeTrigger{snap: domain.CycleSnapshot{
		CycleID:        "c1",
		TotalCyclesRun: 1,
		LastRunAt:      &now,
		Targets:        []domain.TargetView{},
	}}
	srv, _ := newTestServer(t, trig)
	h := srv.Router(Options{})

	rec := do(t, h, http.MethodPost, "/api/check")
	require.Equal(t, http.StatusOK, rec.Code)
	require.EqualValues(t, 1, trig.calls.Load())
	require.Equal(t, "manual", trig.reason)

	var snap domain.CycleSnapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	require.Equal(t, "c1", snap.CycleID)
	require.Equal(t, 1, snap.TotalCyclesRun)
}

func TestCheck_CycleErrorKeepsPreviousSnapshot(t *testing.T) {
	trig := &fakeTrigger{err: &domain.CycleError{CycleID: "c2", Reason: "manual", Err: errors.New("boom")}}
	srv, _ := newTestServer(t, trig)
	h := srv.Router(Options{})

	rec := do(t, h, http.MethodPost, "/api/check")
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	var body struct {
		Error     string               `json:"error"`
		ErrorKind domain.ErrorKind     `json:"errorKind"`
		Snapshot  domain.CycleSnapshot `json:"snapshot"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, domain.CycleInternalError, body.ErrorKind)
	require.Contains(t, body.Error, "boom")
	require.Len(t, body.Snapshot.Targets, 2)
}

func TestCheck_StoppedSchedulerIsUnavailable(t *testing.T) {
	srv, _ := newTestServer(t, &fakeTrigger{err: scheduler.ErrStopped})
	rec := do(t, srv.Router(Options{}), http.MethodPost, "/api/check")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestCheck_GetNotAllowed(t *testing.T) {
	srv, _ := newTestServer(t, &fakeTrigger{})
	rec := do(t, srv.Router(Options{}), http.MethodGet, "/api/check")
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("GET /api/check: want 405, got %d", rec.Code)
	}
}

func TestTargets(t *testing.T) {
	srv, _ := newTestServer(t, &fakeTrigger{})
	h := srv.Router(Options{})

	rec := do(t, h, http.MethodGet, "/api/targets")
	require.Equal(t, http.StatusOK, rec.Code)
	var list []domain.Target
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 2)
	require.Equal(t, domain.TargetID("web"), list[0].ID)

	rec = do(t, h, http.MethodGet, "/api/targets/db")
	require.Equal(t, http.StatusOK, rec.Code)
	var view domain.TargetView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	require.Equal(t, "db.internal:5432", view.Address)

	rec = do(t, h, http.MethodGet, "/api/targets/nope")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHistory(t *testing.T) {
	srv, _ := newTestServer(t, &fakeTrigger{})

	rec := do(t, srv.Router(Options{}), http.MethodGet, "/api/targets/web/history")
	require.Equal(t, http.StatusNotImplemented, rec.Code)

	hist := &fakeHistory{rows: []domain.Outcome{{TargetID: "web", OK: true, LatencyMS: 12}}}
	srv.History = hist
	h := srv.Router(Options{})

	rec = do(t, h, http.MethodGet, "/api/targets/web/history?limit=5")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 5, hist.limit)
	var rows []domain.Outcome
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rows))
	require.Len(t, rows, 1)

	require.Equal(t, http.StatusBadRequest, do(t, h, http.MethodGet, "/api/targets/web/history?limit=0").Code)
	require.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/api/targets/nope/history").Code)
}

func TestMetrics(t *testing.T) {
	srv, _ := newTestServer(t, &fakeTrigger{})

	rec := do(t, srv.Router(Options{}), http.MethodGet, "/api/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `[]`, rec.Body.String())

	srv.Metrics = fakeMetrics{{Name: "uptime.cycle.runs", Value: 3}}
	rec = do(t, srv.Router(Options{}), http.MethodGet, "/api/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "uptime.cycle.runs")
}

func TestTargets_BuiltInListIsAddressable(t *testing.T) {
	reg, err := config.LoadRegistry("")
	require.NoError(t, err)
	srv := NewServer(zap.NewNop(), reg, memory.NewWithTargets(reg.Targets()), &fakeTrigger{})
	h := srv.Router(Options{})

	for _, tgt := range reg.Targets() {
		rec := do(t, h, http.MethodGet, "/api/targets/"+url.PathEscape(string(tgt.ID)))
		require.Equal(t, http.StatusOK, rec.Code, "target %s", tgt.ID)
	}
	rec := do(t, h, http.MethodGet, "/api/targets/url-aimhub-lighthouses")
	require.Equal(t, http.StatusOK, rec.Code)
	var view domain.TargetView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	require.Equal(t, "https://aimhublighthouses.uoeld.ac.ke", view.Address)
}
