package httpapi

import (
	"net/http"
	"net/http/httptest"
	"testing"

	apimw "github.com/hamed0406/uptimemonitor/internal/httpapi/middleware"
)

func TestRouter_Auth(t *testing.T) {
	srv, _ := newTestServer(t, &fakeTrigger{})
	h := srv.Router(Options{Keys: apimw.Keys{Public: []string{"pub"}, Admin: []string{"adm"}}})

	cases := []struct {
		method, path, key string
		want              int
	}{
		{http.MethodGet, "/healthz", "", http.StatusOK},
		{http.MethodGet, "/api/status", "", http.StatusUnauthorized},
		{http.MethodGet, "/api/status", "pub", http.StatusOK},
		{http.MethodGet, "/api/status", "adm", http.StatusOK},
		{http.MethodGet, "/api/targets", "pub", http.StatusOK},
		{http.MethodPost, "/api/check", "", http.StatusUnauthorized},
		{http.MethodPost, "/api/check", "pub", http.StatusForbidden},
		{http.MethodPost, "/api/check", "adm", http.StatusOK},
	}
	for _, c := range cases {
		req := httptest.NewRequest(c.method, c.path, nil)
		if c.key != "" {
			req.Header.Set("X-API-Key", c.key)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != c.want {
			t.Fatalf("%s %s key=%q: want %d, got %d", c.method, c.path, c.key, c.want, rec.Code)
		}
	}
}

func TestRouter_RateLimitsPublicRoutes(t *testing.T) {
	srv, _ := newTestServer(t, &fakeTrigger{})
	h := srv.Router(Options{PublicRPM: 1, PublicBurst: 2})

	for i := 0; i < 2; i++ {
		if rec := do(t, h, http.MethodGet, "/api/status"); rec.Code != http.StatusOK {
			t.Fatalf("request %d: want 200, got %d", i, rec.Code)
		}
	}
	rec := do(t, h, http.MethodGet, "/api/status")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("want 429, got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Fatal("missing Retry-After")
	}
	if rec := do(t, h, http.MethodGet, "/healthz"); rec.Code != http.StatusOK {
		t.Fatalf("healthz must not be limited, got %d", rec.Code)
	}
}

func TestRouter_CORSPreflight(t *testing.T) {
	srv, _ := newTestServer(t, &fakeTrigger{})
	h := srv.Router(Options{AllowedOrigins: []string{"https://dash.example.com"}})

	req := httptest.NewRequest(http.MethodOptions, "/api/status", nil)
	req.Header.Set("Origin", "https://dash.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://dash.example.com" {
		t.Fatalf("Access-Control-Allow-Origin=%q", got)
	}
}
