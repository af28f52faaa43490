package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/WALEDAMN/Dynamic-market-structure-and-stock-behavior-revealed-by-stock-correlation-networks/pkg/report"
)

// timeLayout has a fixed width so stored timestamps sort as text
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// SQLiteStore handles run persistence in a local SQLite file
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (creating if needed) and migrates the database at
// path. ":memory:" gives a private in-memory database.
func NewSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	dsn := path
	if path != ":memory:" {
		dsn = "file:" + path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection keeps ":memory:" a single database and serialises writers
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) migrate(ctx context.Context) error {
	schema := `
	PRAGMA foreign_keys = ON;

	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		producer TEXT NOT NULL,
		k INTEGER NOT NULL,
		started_at TEXT NOT NULL,
		finished_at TEXT NOT NULL,
		slices INTEGER NOT NULL,
		valid_slices INTEGER NOT NULL,
		mean_modularity REAL
	);

	CREATE TABLE IF NOT EXISTS slices (
		run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		idx INTEGER NOT NULL,
		window_label TEXT NOT NULL,
		modularity REAL,
		degraded INTEGER NOT NULL,
		failure TEXT NOT NULL DEFAULT '',
		communities INTEGER NOT NULL,
		overlap INTEGER NOT NULL,
		partial_match INTEGER NOT NULL,
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

	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// SaveRun writes the run in one transaction, replacing an earlier copy
func (s *SQLiteStore) SaveRun(ctx context.Context, run *report.Run) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, run.ID); err != nil {
		return fmt.Errorf("failed to replace run: %w", err)
	}

	r := toRunRow(run)
	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, producer, k, started_at, finished_at, slices, valid_slices, mean_modularity)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, r.id, r.producer, r.k, r.started.Format(timeLayout), r.finished.Format(timeLayout),
		r.slices, r.valid, r.mean)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	sliceStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO slices (run_id, idx, window_label, modularity, degraded, failure, communities, overlap, partial_match)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer sliceStmt.Close()
	for _, sl := range toSliceRows(run) {
		if _, err := sliceStmt.ExecContext(ctx, run.ID, sl.index, sl.window, sl.modularity,
			sl.degraded, sl.failure, sl.communities, sl.overlap, sl.partialMatch); err != nil {
			return fmt.Errorf("failed to insert slice %s: %w", sl.window, err)
		}
	}

	memberStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO memberships (run_id, idx, node, community, change, previous)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer memberStmt.Close()
	for _, m := range toMembershipRows(run) {
		if _, err := memberStmt.ExecContext(ctx, run.ID, m.index, m.node, m.community, m.change, m.previous); err != nil {
			return fmt.Errorf("failed to insert membership: %w", err)
		}
	}

	return tx.Commit()
}

// ListRuns returns stored runs, newest first
func (s *SQLiteStore) ListRuns(ctx context.Context) ([]RunInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, producer, k, started_at, finished_at, slices, valid_slices, mean_modularity
		FROM runs ORDER BY started_at DESC, id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var out []RunInfo
	for rows.Next() {
		var (
			info              RunInfo
			started, finished string
			mean              sql.NullFloat64
		)
		if err := rows.Scan(&info.ID, &info.Producer, &info.K, &started, &finished,
			&info.Slices, &info.ValidSlices, &mean); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		if info.Started, err = time.Parse(timeLayout, started); err != nil {
			return nil, fmt.Errorf("bad started_at for run %s: %w", info.ID, err)
		}
		if info.Finished, err = time.Parse(timeLayout, finished); err != nil {
			return nil, fmt.Errorf("bad finished_at for run %s: %w", info.ID, err)
		}
		if mean.Valid {
			v := mean.Float64
			info.MeanModularity = &v
		}
		out = append(out, info)
	}
	return out, rows.Err()
}

// Close closes the database
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
