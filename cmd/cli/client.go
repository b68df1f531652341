package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hamed0406/uptimemonitor/internal/domain"
)

type apiClient struct {
	base string
	key  string
	http *http.Client
}

func newAPIClient(base, key string) *apiClient {
	return &apiClient{
		base: strings.TrimRight(base, "/"),
		key:  key,
		http: &http.Client{Timeout: 2 * time.Minute},
	}
}

// snapshot calls method on path and returns the decoded snapshot together
// with the raw body for --json output.
func (c *apiClient) snapshot(ctx context.Context, method, path string) (domain.CycleSnapshot, []byte, error) {
	var snap domain.CycleSnapshot
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, nil)
	if err != nil {
		return snap, nil, err
	}
	if c.key != "" {
		req.Header.Set("X-API-Key", c.key)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return snap, nil, fmt.Errorf("contacting API: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return snap, nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var e struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(body, &e) == nil && e.Error != "" {
			return snap, body, fmt.Errorf("API returned %s: %s", resp.Status, e.Error)
		}
		return snap, body, fmt.Errorf("API returned %s", resp.Status)
	}
	if err := json.Unmarshal(body, &snap); err != nil {
		return snap, body, fmt.Errorf("decode snapshot: %w", err)
	}
	return snap, body, nil
}
