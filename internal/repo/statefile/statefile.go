// Package statefile reads and writes the last-known-state document used to
// detect transitions across process runs:
//
//	{"lastRunUtc": "...", "targets": [{"type","name","target","ok","status","ms","error"}]}
package statefile

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tidwall/pretty"

	"github.com/hamed0406/uptimemonitor/internal/domain"
	"github.com/hamed0406/uptimemonitor/internal/repo"
)

var _ repo.StateStore = (*Store)(nil)

type Document struct {
	LastRunUTC string  `json:"lastRunUtc"`
	Targets    []Entry `json:"targets"`
}

type Entry struct {
	ID     string `json:"id,omitempty"`
	Type   string `json:"type"`
	Name   string `json:"name"`
	Target string `json:"target"`
	OK     bool   `json:"ok"`
	Status *int   `json:"status,omitempty"`
	MS     int64  `json:"ms"`
	Error  string `json:"error,omitempty"`
}

// rawDocument mirrors Document with every field optional so Parse can tell
// missing values from zero values.
type rawDocument struct {
	LastRunUTC *string    `json:"lastRunUtc"`
	Targets    []rawEntry `json:"targets"`
}

type rawEntry struct {
	ID     *string  `json:"id"`
	Type   *string  `json:"type"`
	Name   *string  `json:"name"`
	Target *string  `json:"target"`
	OK     *bool    `json:"ok"`
	Status *int     `json:"status"`
	MS     *float64 `json:"ms"`
	Error  *string  `json:"error"`
}

// Parse decodes a state document and fills every field with a default.
// Entries without an ok flag or without any identity are dropped, since they
// cannot seed a transition. An unparsable lastRunUtc is cleared.
func Parse(data []byte) (Document, error) {
	doc := Document{Targets: []Entry{}}
	if len(bytes.TrimSpace(data)) == 0 {
		return doc, nil
	}
	var raw rawDocument
	if err := json.Unmarshal(data, &raw); err != nil {
		return doc, fmt.Errorf("statefile: decode: %w", err)
	}
	if raw.LastRunUTC != nil {
		if _, err := time.Parse(time.RFC3339Nano, *raw.LastRunUTC); err == nil {
			doc.LastRunUTC = *raw.LastRunUTC
		}
	}
	for _, r := range raw.Targets {
		e := Entry{
			ID:     str(r.ID),
			Type:   normalizeType(str(r.Type)),
			Name:   str(r.Name),
			Target: strings.TrimSpace(str(r.Target)),
			Error:  str(r.Error),
		}
		if r.OK == nil || (e.ID == "" && e.Target == "") {
			continue
		}
		e.OK = *r.OK
		if r.Status != nil {
			code := *r.Status
			e.Status = &code
		}
		if r.MS != nil && *r.MS > 0 {
			e.MS = int64(*r.MS)
		}
		if e.Name == "" {
			e.Name = e.Target
		}
		doc.Targets = append(doc.Targets, e)
	}
	return doc, nil
}

// FromSnapshot builds the document written after a cycle.
func FromSnapshot(s domain.CycleSnapshot) Document {
	doc := Document{Targets: make([]Entry, 0, len(s.Targets))}
	if s.LastRunAt != nil {
		doc.LastRunUTC = s.LastRunAt.UTC().Format(time.RFC3339Nano)
	}
	for _, v := range s.Targets {
		e := Entry{
			ID:     string(v.Target.ID),
			Type:   TypeName(v.Kind),
			Name:   v.Name,
			Target: v.Address,
			OK:     v.OK,
			MS:     v.LatencyMS,
			Error:  v.Error,
		}
		if v.StatusCode != nil {
			code := *v.StatusCode
			e.Status = &code
		}
		doc.Targets = append(doc.Targets, e)
	}
	return doc
}

// TypeName is the document's spelling of a target kind.
func TypeName(k domain.Kind) string {
	if k == domain.KindHTTP {
		return "url"
	}
	return string(k)
}

func normalizeType(t string) string {
	switch strings.ToLower(strings.TrimSpace(t)) {
	case "url", "http", "https", "website":
		return "url"
	case "tcp", "server":
		return "tcp"
	case "icmp", "ping":
		return "icmp"
	default:
		return ""
	}
}

func str(p *string) string {
	if p == nil {
		return ""
	}
	return strings.TrimSpace(*p)
}

// Store persists the document at Path. Previous states are matched to the
// registry by id, falling back to the target address.
type Store struct {
	Path     string
	Registry *domain.Registry
}

func New(path string, reg *domain.Registry) *Store {
	return &Store{Path: path, Registry: reg}
}

func (s *Store) Read() (Document, error) {
	data, err := os.ReadFile(s.Path)
	if errors.Is(err, os.ErrNotExist) {
		return Document{Targets: []Entry{}}, nil
	}
	if err != nil {
		return Document{}, fmt.Errorf("statefile: read %s: %w", s.Path, err)
	}
	return Parse(data)
}

func (s *Store) LoadStates(_ context.Context) (map[domain.TargetID]bool, error) {
	doc, err := s.Read()
	if err != nil {
		return nil, err
	}
	out := make(map[domain.TargetID]bool, len(doc.Targets))
	for _, e := range doc.Targets {
		if e.ID != "" {
			if _, ok := s.Registry.Get(domain.TargetID(e.ID)); ok {
				out[domain.TargetID(e.ID)] = e.OK
				continue
			}
		}
		if t, ok := s.Registry.ByAddress(e.Target); ok {
			out[t.ID] = e.OK
		}
	}
	return out, nil
}

// Record writes the document for s through a temp file and rename.
func (s *Store) Record(_ context.Context, snap domain.CycleSnapshot) error {
	b, err := json.Marshal(FromSnapshot(snap))
	if err != nil {
		return fmt.Errorf("statefile: encode: %w", err)
	}
	b = pretty.Pretty(b)

	dir := filepath.Dir(s.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("statefile: mkdir %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".state-*.json")
	if err != nil {
		return fmt.Errorf("statefile: temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(b); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("statefile: write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("statefile: close: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.Path); err != nil {
		return fmt.Errorf("statefile: rename: %w", err)
	}
	return nil
}
