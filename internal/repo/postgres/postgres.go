package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/hamed0406/uptimemonitor/internal/domain"
	"github.com/hamed0406/uptimemonitor/internal/repo"
)

var _ repo.StateStore = (*Store)(nil)

// Store writes cycle history to Postgres and keeps the last ok flag per
// target in target_state.
type Store struct {
	pool *pgxpool.Pool
	log  *zap.Logger
}

func New(ctx context.Context, dsn string, log *zap.Logger) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.New: %w", err)
	}
	ctxPing, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctxPing); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{pool: pool, log: log}, nil
}

func (s *Store) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}

// Record stores one cycle, its checked outcomes and the resulting states in
// a single transaction.
func (s *Store) Record(ctx context.Context, snap domain.CycleSnapshot) error {
	finished := time.Now().UTC()
	if snap.LastRunAt != nil {
		finished = snap.LastRunAt.UTC()
	}
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx,
			`INSERT INTO cycles
			   (id, reason, total_cycles_run, duration_ms, total_up, total_down, uptime_pct, finished_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			 ON CONFLICT (id) DO NOTHING`,
			snap.CycleID, snap.Reason, snap.TotalCyclesRun, snap.CycleDurationMS,
			snap.Summary.TotalUp, snap.Summary.TotalDown, snap.AggregateUptimePercentage, finished,
		)
		if err != nil {
			return fmt.Errorf("insert cycle: %w", err)
		}

		batch := &pgx.Batch{}
		for _, v := range snap.Targets {
			if v.CheckedAt.IsZero() {
				continue
			}
			batch.Queue(
				`INSERT INTO results
				   (cycle_id, target_id, ok, http_status, latency_ms, error, error_kind, checked_at)
				 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
				snap.CycleID, string(v.Target.ID), v.OK, v.StatusCode, v.LatencyMS,
				v.Error, string(v.ErrorKind), v.CheckedAt,
			)
			queueState(batch, v.Target.ID, v.OK, v.CheckedAt)
		}
		if batch.Len() == 0 {
			return nil
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("insert results: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.log.Debug("pg_cycle_recorded",
		zap.String("cycle_id", snap.CycleID),
		zap.Int("targets", len(snap.Targets)),
	)
	return nil
}

// History returns up to limit outcomes for one target, newest first.
func (s *Store) History(ctx context.Context, id domain.TargetID, limit int) ([]domain.Outcome, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx,
		`SELECT ok, http_status, latency_ms, error, error_kind, checked_at
		   FROM results
		  WHERE target_id = $1
		  ORDER BY checked_at DESC
		  LIMIT $2`, string(id), limit)
	if err != nil {
		return nil, fmt.Errorf("history: %w", err)
	}
	defer rows.Close()

	var out []domain.Outcome
	for rows.Next() {
		var (
			o    domain.Outcome
			kind string
		)
		if err := rows.Scan(&o.OK, &o.StatusCode, &o.LatencyMS, &o.Error, &kind, &o.CheckedAt); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		o.TargetID = id
		o.ErrorKind = domain.ErrorKind(kind)
		out = append(out, o)
	}
	return out, rows.Err()
}
