package probe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hamed0406/uptimemonitor/internal/domain"
)

func httpTarget(url string) domain.Target {
	return domain.Target{ID: "t1", Kind: domain.KindHTTP, Name: "t1", Address: url}
}

func TestHTTPProber_StatusOK(t *testing.T) {
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("want GET, got %s", r.Method)
		}
		w.WriteHeader(200)
		w.Write([]byte("ok"))
	}))
	defer s.Close()

	out := NewHTTPProber(2*time.Second).Probe(context.Background(), httpTarget(s.URL))
	if !out.OK {
		t.Fatalf("want ok, got %+v", out)
	}
	if out.StatusCode == nil || *out.StatusCode != 200 {
		t.Fatalf("want status 200, got %v", out.StatusCode)
	}
	if out.Error != "" || out.ErrorKind != "" {
		t.Fatalf("want no error, got %q/%q", out.Error, out.ErrorKind)
	}
	if out.LatencyMS < 0 || out.TargetID != "t1" || out.CheckedAt.IsZero() {
		t.Fatalf("unexpected outcome fields: %+v", out)
	}
}

func TestHTTPProber_ClientErrorCountsAsUp(t *testing.T) {
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer s.Close()

	out := NewHTTPProber(2*time.Second).Probe(context.Background(), httpTarget(s.URL))
	if !out.OK {
		t.Fatalf("4xx should be UP, got %+v", out)
	}
	if *out.StatusCode != 404 {
		t.Fatalf("want 404, got %d", *out.StatusCode)
	}
}

func TestHTTPProber_Status500(t *testing.T) {
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", 500)
	}))
	defer s.Close()

	out := NewHTTPProber(2*time.Second).Probe(context.Background(), httpTarget(s.URL))
	if out.OK {
		t.Fatalf("want failure, got %+v", out)
	}
	if out.StatusCode == nil || *out.StatusCode != 500 {
		t.Fatalf("want status 500, got %v", out.StatusCode)
	}
	if out.ErrorKind != domain.ProbeServerError {
		t.Fatalf("want ProbeServerError, got %q", out.ErrorKind)
	}
}

func TestHTTPProber_FollowsRedirects(t *testing.T) {
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/" {
			http.Redirect(w, r, "/final", http.StatusFound)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer s.Close()

	out := NewHTTPProber(2*time.Second).Probe(context.Background(), httpTarget(s.URL+"/"))
	if !out.OK || *out.StatusCode != http.StatusNoContent {
		t.Fatalf("want redirect followed to 204, got %+v", out)
	}
}

func TestHTTPProber_Timeout(t *testing.T) {
	release := make(chan struct{})
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer s.Close()
	defer close(release)

	start := time.Now()
	out := NewHTTPProber(50*time.Millisecond).Probe(context.Background(), httpTarget(s.URL))
	if out.OK {
		t.Fatalf("want failure due to timeout, got %+v", out)
	}
	if out.Error != domain.TimeoutMessage || out.ErrorKind != domain.ProbeTimeout {
		t.Fatalf("want Timeout, got %q (%s)", out.Error, out.ErrorKind)
	}
	if out.StatusCode != nil {
		t.Fatalf("want no status on transport error, got %d", *out.StatusCode)
	}
	if time.Since(start) > 2*time.Second {
		t.Fatalf("probe exceeded its timeout")
	}
}

func TestHTTPProber_TransportError(t *testing.T) {
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := s.URL
	s.Close()

	out := NewHTTPProber(time.Second).Probe(context.Background(), httpTarget(url))
	if out.OK || out.Error == "" || out.ErrorKind != domain.ProbeTransportError {
		t.Fatalf("want transport error, got %+v", out)
	}
}
