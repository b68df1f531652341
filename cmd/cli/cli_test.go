package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hamed0406/uptimemonitor/internal/domain"
)

func sampleSnapshot() domain.CycleSnapshot {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	code := 200
	return domain.CycleSnapshot{
		TotalCyclesRun: 3,
		LastRunAt:      &now,
		Targets: []domain.TargetView{
			{
				Target:           domain.Target{ID: "a", Kind: domain.KindHTTP, Name: "Site A", Address: "https://a.example"},
				Outcome:          domain.Outcome{TargetID: "a", OK: true, LatencyMS: 42, StatusCode: &code, CheckedAt: now},
				UptimePercentage: 100,
			},
			{
				Target:  domain.Target{ID: "b", Kind: domain.KindTCP, Name: "DB", Address: "db:5432"},
				Outcome: domain.Outcome{TargetID: "b", OK: false, Error: "Timeout", CheckedAt: now},
			},
			{
				Target: domain.Target{ID: "c", Kind: domain.KindICMP, Name: "Router", Address: "10.0.0.1"},
			},
		},
		Summary: domain.Summary{TotalTargets: 3, TotalUp: 1, TotalDown: 2},
	}
}

func TestRenderSnapshot(t *testing.T) {
	out := renderSnapshot(sampleSnapshot())
	for _, want := range []string{"Site A", "200, 42ms", "DB", "Timeout", "Router", "not checked yet", "1 up, 2 down of 3 targets", "cycles run: 3"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output misses %q:\n%s", want, out)
		}
	}
}

func TestAPIClient_Snapshot(t *testing.T) {
	var gotKey, gotMethod string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey, gotMethod = r.Header.Get("X-API-Key"), r.Method
		if r.URL.Path == "/api/check" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte(`{"error":"forbidden"}`))
			return
		}
		_, _ = w.Write([]byte(`{"totalCyclesRun":7,"targets":[],"summary":{"totalTargets":0,"totalUp":0,"totalDown":0}}`))
	}))
	defer srv.Close()

	c := newAPIClient(srv.URL+"/", "secret")
	snap, raw, err := c.snapshot(context.Background(), http.MethodGet, "/api/status")
	require.NoError(t, err)
	require.Equal(t, 7, snap.TotalCyclesRun)
	require.NotEmpty(t, raw)
	require.Equal(t, "secret", gotKey)
	require.Equal(t, http.MethodGet, gotMethod)

	_, _, err = c.snapshot(context.Background(), http.MethodPost, "/api/check")
	require.Error(t, err)
	require.Contains(t, err.Error(), "forbidden")
}

func TestStatusCommand_JSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"totalCyclesRun":1,"targets":[]}`))
	}))
	defer srv.Close()

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"status", "--json", "--api", srv.URL})
	require.NoError(t, rootCmd.Execute())
	require.Contains(t, out.String(), "totalCyclesRun")
}

func TestStatefileJSON(t *testing.T) {
	raw, err := statefileJSON(sampleSnapshot())
	require.NoError(t, err)
	require.Contains(t, string(raw), `"lastRunUtc"`)
	require.Contains(t, string(raw), `"type":"url"`)
}
