// Package sqlite stores cycle history and last target states in a local
// SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/hamed0406/uptimemonitor/internal/domain"
	"github.com/hamed0406/uptimemonitor/internal/repo"
)

//go:embed schema.sql
var schema string

var _ repo.StateStore = (*Store)(nil)

// timeLayout is fixed width so text comparison in SQL orders by time.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string { return t.UTC().Format(timeLayout) }

type Config struct {
	// DSN is the database connection string, usually a file path.
	DSN string

	// RetentionAge deletes results older than this duration on every
	// record (0 = keep everything).
	RetentionAge time.Duration
}

type Store struct {
	db  *sql.DB
	cfg Config
}

// Open opens (or creates) the database and applies the schema.
func Open(cfg Config) (*Store, error) {
	db, err := sql.Open("sqlite", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("sqlitestore: open: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlitestore: set WAL mode: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlitestore: create schema: %w", err)
	}
	return &Store{db: db, cfg: cfg}, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) Record(ctx context.Context, snap domain.CycleSnapshot) error {
	finished := time.Now().UTC()
	if snap.LastRunAt != nil {
		finished = *snap.LastRunAt
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlitestore: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO cycles (id, reason, total_cycles_run, duration_ms, total_up, total_down, uptime_pct, finished_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		snap.CycleID, snap.Reason, snap.TotalCyclesRun, snap.CycleDurationMS,
		snap.Summary.TotalUp, snap.Summary.TotalDown, snap.AggregateUptimePercentage,
		formatTime(finished),
	); err != nil {
		return fmt.Errorf("sqlitestore: insert cycle: %w", err)
	}

	for _, v := range snap.Targets {
		if v.CheckedAt.IsZero() {
			continue
		}
		at := formatTime(v.CheckedAt)
		var status sql.NullInt64
		if v.StatusCode != nil {
			status = sql.NullInt64{Int64: int64(*v.StatusCode), Valid: true}
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO results (cycle_id, target_id, ok, http_status, latency_ms, error, error_kind, checked_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			snap.CycleID, string(v.Target.ID), v.OK, status, v.LatencyMS, v.Error, string(v.ErrorKind), at,
		); err != nil {
			return fmt.Errorf("sqlitestore: insert result %s: %w", v.Target.ID, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO target_state (target_id, last_ok, updated_at) VALUES (?, ?, ?)
			 ON CONFLICT(target_id) DO UPDATE SET last_ok = excluded.last_ok, updated_at = excluded.updated_at`,
			string(v.Target.ID), v.OK, at,
		); err != nil {
			return fmt.Errorf("sqlitestore: upsert state %s: %w", v.Target.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlitestore: commit: %w", err)
	}
	return s.Prune(ctx)
}

// Prune deletes results older than the retention age.
func (s *Store) Prune(ctx context.Context) error {
	if s.cfg.RetentionAge <= 0 {
		return nil
	}
	cutoff := formatTime(time.Now().Add(-s.cfg.RetentionAge))
	if _, err := s.db.ExecContext(ctx, `DELETE FROM results WHERE checked_at < ?`, cutoff); err != nil {
		return fmt.Errorf("sqlitestore: prune: %w", err)
	}
	return nil
}

func (s *Store) LoadStates(ctx context.Context) (map[domain.TargetID]bool, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT target_id, last_ok FROM target_state`)
	if err != nil {
		return nil, fmt.Errorf("sqlitestore: load states: %w", err)
	}
	defer rows.Close()

	out := map[domain.TargetID]bool{}
	for rows.Next() {
		var (
			id string
			ok bool
		)
		if err := rows.Scan(&id, &ok); err != nil {
			return nil, fmt.Errorf("sqlitestore: scan state: %w", err)
		}
		out[domain.TargetID(id)] = ok
	}
	return out, rows.Err()
}

// History returns up to limit outcomes for one target, newest first.
func (s *Store) History(ctx context.Context, id domain.TargetID, limit int) ([]domain.Outcome, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT ok, http_status, latency_ms, error, error_kind, checked_at
		   FROM results WHERE target_id = ? ORDER BY checked_at DESC, id DESC LIMIT ?`,
		string(id), limit)
	if err != nil {
		return nil, fmt.Errorf("sqlitestore: history: %w", err)
	}
	defer rows.Close()

	var out []domain.Outcome
	for rows.Next() {
		var (
			o       domain.Outcome
			status  sql.NullInt64
			kind    string
			checked string
		)
		if err := rows.Scan(&o.OK, &status, &o.LatencyMS, &o.Error, &kind, &checked); err != nil {
			return nil, fmt.Errorf("sqlitestore: scan history: %w", err)
		}
		o.TargetID = id
		o.ErrorKind = domain.ErrorKind(kind)
		if status.Valid {
			code := int(status.Int64)
			o.StatusCode = &code
		}
		if o.CheckedAt, err = time.Parse(timeLayout, checked); err != nil {
			return nil, fmt.Errorf("sqlitestore: parse checked_at: %w", err)
		}
		out = append(out, o)
	}
	return out, rows.Err()
}
