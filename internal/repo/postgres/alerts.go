package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/hamed0406/uptimemonitor/internal/domain"
)

// LoadStates returns the last ok flag recorded per target.
func (s *Store) LoadStates(ctx context.Context) (map[domain.TargetID]bool, error) {
	rows, err := s.pool.Query(ctx, `SELECT target_id, last_ok FROM target_state`)
	if err != nil {
		return nil, fmt.Errorf("load states: %w", err)
	}
	defer rows.Close()

	out := map[domain.TargetID]bool{}
	for rows.Next() {
		var (
			id string
			ok bool
		)
		if err := rows.Scan(&id, &ok); err != nil {
			return nil, fmt.Errorf("scan state: %w", err)
		}
		out[domain.TargetID(id)] = ok
	}
	return out, rows.Err()
}

// queueState upserts the state row. changed_at only moves when the flag flips.
func queueState(b *pgx.Batch, id domain.TargetID, ok bool, at time.Time) {
	b.Queue(`
		INSERT INTO target_state (target_id, last_ok, changed_at, updated_at)
		VALUES ($1, $2, $3, $3)
		ON CONFLICT (target_id)
		DO UPDATE SET
		  changed_at = CASE WHEN target_state.last_ok = EXCLUDED.last_ok
		                    THEN target_state.changed_at ELSE EXCLUDED.changed_at END,
		  last_ok    = EXCLUDED.last_ok,
		  updated_at = EXCLUDED.updated_at`,
		string(id), ok, at)
}
