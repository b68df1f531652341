package probe

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/hamed0406/uptimemonitor/internal/domain"
)

// HTTPProber issues a GET (following redirects) and treats any status below
// 500 as reachable. 4xx answers count as UP.
type HTTPProber struct {
	Client    *http.Client
	Timeout   time.Duration
	UserAgent string
}

func NewHTTPProber(timeout time.Duration) *HTTPProber {
	if timeout <= 0 {
		timeout = DefaultHTTPTimeout
	}
	return &HTTPProber{
		// the deadline lives on the request context so it also covers the body drain
		Client:    &http.Client{},
		Timeout:   timeout,
		UserAgent: "uptime-monitor",
	}
}

func (h *HTTPProber) Probe(ctx context.Context, t domain.Target) domain.Outcome {
	ctx, cancel := context.WithTimeout(ctx, h.Timeout)
	defer cancel()

	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.Address, nil)
	if err != nil {
		return failed(ctx, t.ID, start, err)
	}
	if h.UserAgent != "" {
		req.Header.Set("User-Agent", h.UserAgent)
	}

	resp, err := h.Client.Do(req)
	if err != nil {
		return failed(ctx, t.ID, start, err)
	}
	_, drainErr := io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
	if drainErr != nil {
		return failed(ctx, t.ID, start, drainErr)
	}

	code := resp.StatusCode
	out := domain.Outcome{
		TargetID:   t.ID,
		OK:         code < http.StatusInternalServerError,
		LatencyMS:  elapsedMS(start),
		StatusCode: &code,
		CheckedAt:  time.Now().UTC(),
	}
	if !out.OK {
		out.ErrorKind = domain.ProbeServerError
	}
	return out
}
