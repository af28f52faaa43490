// Package baseline scores several partition producers against every
// window so their modularity can be compared side by side.
package baseline

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/WALEDAMN/Dynamic-market-structure-and-stock-behavior-revealed-by-stock-correlation-networks/pkg/algorithms"
	"github.com/WALEDAMN/Dynamic-market-structure-and-stock-behavior-revealed-by-stock-correlation-networks/pkg/graph"
	"github.com/WALEDAMN/Dynamic-market-structure-and-stock-behavior-revealed-by-stock-correlation-networks/pkg/logging"
	"github.com/WALEDAMN/Dynamic-market-structure-and-stock-behavior-revealed-by-stock-correlation-networks/pkg/metrics"
	"github.com/WALEDAMN/Dynamic-market-structure-and-stock-behavior-revealed-by-stock-correlation-networks/pkg/parallel"
	"github.com/WALEDAMN/Dynamic-market-structure-and-stock-behavior-revealed-by-stock-correlation-networks/pkg/producer"
	"github.com/WALEDAMN/Dynamic-market-structure-and-stock-behavior-revealed-by-stock-correlation-networks/pkg/tracking"
)

// DefaultMethods are the clustering methods compared by default
var DefaultMethods = []string{"spectral", "kmeans", "gmm", "meanshift"}

// ErrNoMethods is returned when Config carries no producers
var ErrNoMethods = errors.New("baseline needs at least one method")

// errIncomplete marks a cell whose task never reported, e.g. after a panic
var errIncomplete = fmt.Errorf("%w: task did not complete", producer.ErrProducerFailure)

// Config configures Run
type Config struct {
	Producers []producer.Producer
	K         int
	// Workers bounds concurrent producer calls; defaults to NumCPU
	Workers int
	Logger  logging.Logger
	Metrics *metrics.Registry
	// OnWindow is called after every cell of a window has been scored
	OnWindow func(done, total int, window string)
}

// Cell is the score of one method on one window
type Cell struct {
	Quality     float64 // NaN when Err is set
	Communities int
	Duration    time.Duration
	Err         error
}

// OK reports whether the cell carries a modularity value
func (c Cell) OK() bool {
	return c.Err == nil && !math.IsNaN(c.Quality)
}

// Table holds one row per window and one column per method
type Table struct {
	Methods []string
	Windows []string
	// Cells is indexed [window][method]
	Cells [][]Cell
}

// Column returns the modularity values of one method, NaN for failures
func (t *Table) Column(method string) []float64 {
	j := t.methodIndex(method)
	if j < 0 {
		return nil
	}
	out := make([]float64, len(t.Cells))
	for i, row := range t.Cells {
		out[i] = row[j].Quality
	}
	return out
}

// Mean returns the mean modularity of a method over the windows it
// succeeded on, NaN when it succeeded on none
func (t *Table) Mean(method string) float64 {
	var values []float64
	for _, q := range t.Column(method) {
		if !math.IsNaN(q) {
			values = append(values, q)
		}
	}
	if len(values) == 0 {
		return math.NaN()
	}
	return stat.Mean(values, nil)
}

// Failures counts failed cells per method
func (t *Table) Failures() map[string]int {
	out := make(map[string]int, len(t.Methods))
	for _, row := range t.Cells {
		for j, c := range row {
			if !c.OK() {
				out[t.Methods[j]]++
			}
		}
	}
	return out
}

func (t *Table) methodIndex(method string) int {
	for j, m := range t.Methods {
		if m == method {
			return j
		}
	}
	return -1
}

// Run scores every producer on every window. A failing method only
// blanks its own cell; an unreadable window blanks its whole row. On
// cancellation the partially filled table is returned with ctx.Err().
func Run(ctx context.Context, windows []tracking.Window, cfg Config) (*Table, error) {
	if len(cfg.Producers) == 0 {
		return nil, ErrNoMethods
	}
	if cfg.K < 1 {
		return nil, fmt.Errorf("%w: k must be positive, got %d", tracking.ErrInvalidPipeline, cfg.K)
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	logger := logging.OrNop(cfg.Logger).With(logging.Component("baseline"), logging.K(cfg.K))

	table := &Table{
		Methods: make([]string, len(cfg.Producers)),
		Windows: make([]string, len(windows)),
		Cells:   make([][]Cell, len(windows)),
	}
	for j, p := range cfg.Producers {
		table.Methods[j] = p.Name()
	}
	for i, w := range windows {
		table.Windows[i] = w.Label
		table.Cells[i] = make([]Cell, len(cfg.Producers))
		for j := range table.Cells[i] {
			table.Cells[i][j] = Cell{Quality: math.NaN(), Err: errIncomplete}
		}
	}

	pool, err := parallel.NewWorkerPool(cfg.Workers, logger)
	if err != nil {
		return nil, err
	}

	op := logging.StartTimer(logger, "baseline finished", logging.Count(len(windows)))
	var runErr error
	for i, w := range windows {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}

		g, err := w.Source.Load(ctx)
		if err != nil {
			logger.Warn("window unreadable", logging.Window(w.Label), logging.Error(err))
			loadErr := fmt.Errorf("%w: load window %s: %w", producer.ErrProducerFailure, w.Label, err)
			for j := range table.Cells[i] {
				table.Cells[i][j].Err = loadErr
			}
			continue
		}

		pending := make(chan struct{}, len(cfg.Producers))
		for j, p := range cfg.Producers {
			cell := &table.Cells[i][j]
			submitted := pool.Submit(func() {
				defer func() { pending <- struct{}{} }()
				*cell = score(producer.WithWindow(ctx, w.Label), p, g, cfg.K)
			})
			if !submitted {
				pending <- struct{}{}
			}
		}
		for range cfg.Producers {
			<-pending
		}

		for j, c := range table.Cells[i] {
			if !c.OK() {
				logger.Warn("method failed on window",
					logging.Window(w.Label),
					logging.Producer(table.Methods[j]),
					logging.Error(c.Err))
			}
		}
		if cfg.OnWindow != nil {
			cfg.OnWindow(i+1, len(windows), w.Label)
		}
	}
	pool.Close()

	for _, method := range table.Methods {
		if cfg.Metrics != nil {
			cfg.Metrics.SetBaselineMean(method, table.Mean(method))
		}
	}
	if runErr != nil {
		logger.Error("baseline stopped", logging.Error(runErr))
		return table, runErr
	}
	op.End(logging.Int("methods", len(table.Methods)))
	return table, nil
}

func score(ctx context.Context, p producer.Producer, g *graph.Graph, k int) Cell {
	start := time.Now()
	res, err := p.Produce(ctx, g, k)
	if err == nil {
		err = res.Validate(g.NodeCount(), k)
	}
	if err != nil {
		return Cell{Quality: math.NaN(), Duration: time.Since(start), Err: err}
	}
	q, err := algorithms.Modularity(g, res.Partition)
	return Cell{
		Quality:     q,
		Communities: res.Partition.CommunityCount(),
		Duration:    time.Since(start),
		Err:         err,
	}
}
