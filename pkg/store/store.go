// Package store persists finished runs in a results database: PostgreSQL
// for shared deployments, SQLite for a local file.
package store

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/WALEDAMN/Dynamic-market-structure-and-stock-behavior-revealed-by-stock-correlation-networks/pkg/metrics"
	"github.com/WALEDAMN/Dynamic-market-structure-and-stock-behavior-revealed-by-stock-correlation-networks/pkg/report"
)

// Supported drivers
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// ErrUnknownDriver is returned by Open for unsupported drivers
var ErrUnknownDriver = errors.New("unknown store driver")

// Store persists runs. SaveRun replaces any run stored under the same id.
type Store interface {
	SaveRun(ctx context.Context, run *report.Run) error
	ListRuns(ctx context.Context) ([]RunInfo, error)
	Close() error
}

// RunInfo is one row of the runs table
type RunInfo struct {
	ID             string
	Producer       string
	K              int
	Started        time.Time
	Finished       time.Time
	Slices         int
	ValidSlices    int
	MeanModularity *float64
}

// Open connects to dsn with the named driver
func Open(ctx context.Context, driver, dsn string) (Store, error) {
	switch driver {
	case DriverPostgres:
		return NewPGStore(ctx, dsn)
	case DriverSQLite:
		return NewSQLiteStore(ctx, dsn)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
	}
}

type instrumented struct {
	Store
	driver  string
	metrics *metrics.Registry
}

// WithMetrics counts SaveRun outcomes under driver
func WithMetrics(s Store, driver string, reg *metrics.Registry) Store {
	if reg == nil {
		return s
	}
	return &instrumented{Store: s, driver: driver, metrics: reg}
}

func (i *instrumented) SaveRun(ctx context.Context, run *report.Run) error {
	err := i.Store.SaveRun(ctx, run)
	i.metrics.RecordStoreWrite(i.driver, err)
	return err
}

// row types shared by both drivers

type runRow struct {
	id, producer      string
	k                 int
	started, finished time.Time
	slices, valid     int
	mean              *float64
}

type sliceRow struct {
	index        int
	window       string
	modularity   *float64
	degraded     bool
	failure      string
	communities  int
	overlap      int
	partialMatch bool
}

type membershipRow struct {
	index     int
	node      string
	community int
	change    string
	previous  *int
}

func toRunRow(run *report.Run) runRow {
	row := runRow{
		id:       run.ID,
		producer: run.Producer,
		k:        run.K,
		started:  run.Started.UTC(),
		finished: run.Finished.UTC(),
		slices:   len(run.Slices),
	}
	sum, n := 0.0, 0
	for _, s := range run.Slices {
		if s.Degraded {
			continue
		}
		row.valid++
		if q := s.Quality(); !math.IsNaN(q) {
			sum += q
			n++
		}
	}
	if n > 0 {
		mean := sum / float64(n)
		row.mean = &mean
	}
	return row
}

func toSliceRows(run *report.Run) []sliceRow {
	rows := make([]sliceRow, len(run.Slices))
	for i, s := range run.Slices {
		rows[i] = sliceRow{
			index:        s.Index,
			window:       s.Window,
			modularity:   s.Modularity,
			degraded:     s.Degraded,
			failure:      s.Failure,
			communities:  s.Communities,
			overlap:      s.Overlap,
			partialMatch: s.PartialMatch,
		}
	}
	return rows
}

// toMembershipRows lists one row per assigned node, ordered by slice then label
func toMembershipRows(run *report.Run) []membershipRow {
	var rows []membershipRow
	for _, s := range run.Slices {
		labels := make([]string, 0, len(s.Assignments))
		for label := range s.Assignments {
			labels = append(labels, label)
		}
		sort.Strings(labels)
		for _, label := range labels {
			row := membershipRow{index: s.Index, node: label, community: s.Assignments[label]}
			if c, ok := s.Changes[label]; ok {
				row.change = c.Kind
				if c.Kind != "unavailable" {
					prev := c.Previous
					row.previous = &prev
				}
			}
			rows = append(rows, row)
		}
	}
	return rows
}
