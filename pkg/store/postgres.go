package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/WALEDAMN/Dynamic-market-structure-and-stock-behavior-revealed-by-stock-correlation-networks/pkg/report"
)

// PGStore handles run persistence using PostgreSQL
type PGStore struct {
	pool *pgxpool.Pool
}

// NewPGStore connects, verifies and migrates the database
func NewPGStore(ctx context.Context, databaseURL string) (*PGStore, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	// Runs are written once at the end; a small pool is enough
	config.MaxConns = 4
	config.MinConns = 1
	config.MaxConnLifetime = 5 * time.Minute
	config.MaxConnIdleTime = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("database unreachable: %w", err)
	}

	s := &PGStore{pool: pool}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migration failed: %w", err)
	}
	return s, nil
}

func (s *PGStore) migrate(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		producer TEXT NOT NULL,
		k INTEGER NOT NULL,
		started_at TIMESTAMPTZ NOT NULL,
		finished_at TIMESTAMPTZ NOT NULL,
		slices INTEGER NOT NULL,
		valid_slices INTEGER NOT NULL,
		mean_modularity DOUBLE PRECISION
	);

	CREATE TABLE IF NOT EXISTS slices (
		run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		idx INTEGER NOT NULL,
		window_label TEXT NOT NULL,
		modularity DOUBLE PRECISION,
		degraded BOOLEAN NOT NULL,
		failure TEXT NOT NULL DEFAULT '',
		communities INTEGER NOT NULL,
		overlap INTEGER NOT NULL,
		partial_match BOOLEAN NOT NULL,
		PRIMARY KEY (run_id, idx)
	);

	CREATE TABLE IF NOT EXISTS memberships (
		run_id TEXT NOT NULL,
		idx INTEGER NOT NULL,
		node TEXT NOT NULL,
		community INTEGER NOT NULL,
		change TEXT NOT NULL DEFAULT '',
		previous INTEGER,
		PRIMARY KEY (run_id, idx, node),
		FOREIGN KEY (run_id, idx) REFERENCES slices(run_id, idx) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_memberships_node ON memberships(node);
	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);
	`

	_, err := s.pool.Exec(ctx, schema)
	return err
}

// SaveRun writes the run in one transaction, replacing an earlier copy
func (s *PGStore) SaveRun(ctx context.Context, run *report.Run) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM runs WHERE id = $1`, run.ID); err != nil {
		return fmt.Errorf("failed to replace run: %w", err)
	}

	r := toRunRow(run)
	_, err = tx.Exec(ctx, `
		INSERT INTO runs (id, producer, k, started_at, finished_at, slices, valid_slices, mean_modularity)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, r.id, r.producer, r.k, r.started, r.finished, r.slices, r.valid, r.mean)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	batch := &pgx.Batch{}
	for _, sl := range toSliceRows(run) {
		batch.Queue(`
			INSERT INTO slices (run_id, idx, window_label, modularity, degraded, failure, communities, overlap, partial_match)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`, run.ID, sl.index, sl.window, sl.modularity, sl.degraded, sl.failure, sl.communities, sl.overlap, sl.partialMatch)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to insert slices: %w", err)
	}

	members := toMembershipRows(run)
	_, err = tx.CopyFrom(ctx,
		pgx.Identifier{"memberships"},
		[]string{"run_id", "idx", "node", "community", "change", "previous"},
		pgx.CopyFromSlice(len(members), func(i int) ([]any, error) {
			m := members[i]
			return []any{run.ID, m.index, m.node, m.community, m.change, m.previous}, nil
		}),
	)
	if err != nil {
		return fmt.Errorf("failed to copy memberships: %w", err)
	}

	return tx.Commit(ctx)
}

// ListRuns returns stored runs, newest first
func (s *PGStore) ListRuns(ctx context.Context) ([]RunInfo, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, producer, k, started_at, finished_at, slices, valid_slices, mean_modularity
		FROM runs ORDER BY started_at DESC, id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var out []RunInfo
	for rows.Next() {
		var info RunInfo
		if err := rows.Scan(&info.ID, &info.Producer, &info.K, &info.Started, &info.Finished,
			&info.Slices, &info.ValidSlices, &info.MeanModularity); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		out = append(out, info)
	}
	return out, rows.Err()
}

// Ping checks database connectivity
func (s *PGStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close closes the database connection pool
func (s *PGStore) Close() error {
	s.pool.Close()
	return nil
}
