package postgres

import (
	"context"
	"fmt"
)

// Schema is applied by Migrate. Statements are idempotent.
const Schema = `
CREATE TABLE IF NOT EXISTS cycles (
  id               TEXT PRIMARY KEY,
  reason           TEXT NOT NULL,
  total_cycles_run BIGINT NOT NULL,
  duration_ms      BIGINT NOT NULL,
  total_up         INTEGER NOT NULL,
  total_down       INTEGER NOT NULL,
  uptime_pct       DOUBLE PRECISION NOT NULL,
  finished_at      TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS results (
  id          BIGSERIAL PRIMARY KEY,
  cycle_id    TEXT NOT NULL REFERENCES cycles(id) ON DELETE CASCADE,
  target_id   TEXT NOT NULL,
  ok          BOOLEAN NOT NULL,
  http_status INTEGER NULL,
  latency_ms  BIGINT NOT NULL,
  error       TEXT NOT NULL DEFAULT '',
  error_kind  TEXT NOT NULL DEFAULT '',
  checked_at  TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_results_target_time ON results (target_id, checked_at DESC);

CREATE TABLE IF NOT EXISTS target_state (
  target_id  TEXT PRIMARY KEY,
  last_ok    BOOLEAN NOT NULL,
  changed_at TIMESTAMPTZ NOT NULL,
  updated_at TIMESTAMPTZ NOT NULL
);
`

func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
