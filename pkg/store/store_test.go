package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/WALEDAMN/Dynamic-market-structure-and-stock-behavior-revealed-by-stock-correlation-networks/pkg/metrics"
	"github.com/WALEDAMN/Dynamic-market-structure-and-stock-behavior-revealed-by-stock-correlation-networks/pkg/report"
)

func float(v float64) *float64 { return &v }

func sampleRun(id string, started time.Time) *report.Run {
	return &report.Run{
		ID:         id,
		Producer:   "spectral",
		K:          2,
		Started:    started,
		Finished:   started.Add(time.Second),
		NodeLabels: []string{"A", "B", "C"},
		Slices: []report.Slice{
			{
				Window:      "2020_01",
				Index:       0,
				Modularity:  float(0.4),
				Communities: 2,
				Assignments: map[string]int{"A": 0, "B": 0, "C": 1},
			},
			{Window: "2020_02", Index: 1, Degraded: true, Failure: "no result"},
			{
				Window:       "2020_03",
				Index:        2,
				Modularity:   float(0.2),
				Communities:  2,
				Overlap:      1,
				PartialMatch: true,
				Assignments:  map[string]int{"A": 1, "B": 0},
				Changes: map[string]report.Change{
					"A": {Kind: "changed", Previous: 0, Current: 1},
					"B": {Kind: "unchanged", Previous: 0, Current: 0},
					"C": {Kind: "unavailable", Previous: 1, Current: -1},
				},
			},
		},
	}
}

func newSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func count(t *testing.T, s *SQLiteStore, query string, args ...any) int {
	t.Helper()
	var n int
	require.NoError(t, s.db.QueryRow(query, args...).Scan(&n))
	return n
}

func TestSQLiteStore_SaveAndList(t *testing.T) {
	s := newSQLite(t)
	ctx := context.Background()
	started := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)

	require.NoError(t, s.SaveRun(ctx, sampleRun("older", started)))
	require.NoError(t, s.SaveRun(ctx, sampleRun("newer", started.Add(time.Hour))))

	runs, err := s.ListRuns(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "newer", runs[0].ID)

	r := runs[1]
	assert.Equal(t, "spectral", r.Producer)
	assert.Equal(t, 2, r.K)
	assert.Equal(t, 3, r.Slices)
	assert.Equal(t, 2, r.ValidSlices)
	require.NotNil(t, r.MeanModularity)
	assert.InDelta(t, 0.3, *r.MeanModularity, 1e-12)
	assert.True(t, started.Equal(r.Started))

	assert.Equal(t, 3, count(t, s, `SELECT COUNT(*) FROM slices WHERE run_id = ?`, "older"))
	assert.Equal(t, 5, count(t, s, `SELECT COUNT(*) FROM memberships WHERE run_id = ?`, "older"))
	assert.Equal(t, 1, count(t, s, `SELECT COUNT(*) FROM slices WHERE run_id = ? AND modularity IS NULL`, "older"))
	assert.Equal(t, 1, count(t, s, `SELECT COUNT(*) FROM memberships WHERE run_id = ? AND change = 'changed' AND previous = 0`, "older"))
}

func TestSQLiteStore_SaveReplaces(t *testing.T) {
	s := newSQLite(t)
	ctx := context.Background()
	run := sampleRun("same", time.Now())

	require.NoError(t, s.SaveRun(ctx, run))
	run.Slices = run.Slices[:1]
	require.NoError(t, s.SaveRun(ctx, run))

	runs, err := s.ListRuns(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, 1, runs[0].Slices)
	assert.Equal(t, 1, count(t, s, `SELECT COUNT(*) FROM slices`))
	assert.Equal(t, 3, count(t, s, `SELECT COUNT(*) FROM memberships`))
}

func TestSQLiteStore_NoValidSlices(t *testing.T) {
	s := newSQLite(t)
	run := &report.Run{ID: "empty", Producer: "kmeans", K: 3, Slices: []report.Slice{{Window: "w", Degraded: true}}}

	require.NoError(t, s.SaveRun(context.Background(), run))
	runs, err := s.ListRuns(context.Background())
	require.NoError(t, err)
	assert.Nil(t, runs[0].MeanModularity)
}

func TestSQLiteStore_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.db")
	ctx := context.Background()

	s, err := Open(ctx, DriverSQLite, path)
	require.NoError(t, err)
	require.NoError(t, s.SaveRun(ctx, sampleRun("persisted", time.Now())))
	require.NoError(t, s.Close())

	reopened, err := Open(ctx, DriverSQLite, path)
	require.NoError(t, err)
	defer reopened.Close()
	runs, err := reopened.ListRuns(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "persisted", runs[0].ID)
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), "oracle", "")
	assert.ErrorIs(t, err, ErrUnknownDriver)
}

func TestWithMetrics(t *testing.T) {
	reg := metrics.NewRegistry()
	s := WithMetrics(newSQLite(t), DriverSQLite, reg)

	require.NoError(t, s.SaveRun(context.Background(), sampleRun("m", time.Now())))
	assert.Equal(t, 1.0, testutil.ToFloat64(reg.StoreWritesTotal.WithLabelValues(DriverSQLite, "success")))

	plain := newSQLite(t)
	assert.Equal(t, Store(plain), WithMetrics(plain, DriverSQLite, nil))
}

func TestToMembershipRows(t *testing.T) {
	rows := toMembershipRows(sampleRun("r", time.Now()))

	require.Len(t, rows, 5)
	assert.Equal(t, membershipRow{index: 0, node: "A", community: 0}, rows[0])
	last := rows[4]
	assert.Equal(t, "B", last.node)
	assert.Equal(t, "unchanged", last.change)
	require.NotNil(t, last.previous)
	assert.Equal(t, 0, *last.previous)
}

// TestPGStore runs against a live database when DYNCOMM_TEST_PG_DSN is set
func TestPGStore(t *testing.T) {
	dsn := os.Getenv("DYNCOMM_TEST_PG_DSN")
	if dsn == "" {
		t.Skip("DYNCOMM_TEST_PG_DSN not set")
	}
	ctx := context.Background()

	s, err := Open(ctx, DriverPostgres, dsn)
	require.NoError(t, err)
	defer s.Close()

	id := uuid.NewString()
	require.NoError(t, s.SaveRun(ctx, sampleRun(id, time.Now())))
	require.NoError(t, s.SaveRun(ctx, sampleRun(id, time.Now())))

	runs, err := s.ListRuns(ctx)
	require.NoError(t, err)
	found := 0
	for _, r := range runs {
		if r.ID == id {
			found++
			assert.Equal(t, 2, r.ValidSlices)
		}
	}
	assert.Equal(t, 1, found)
}
