package tracking

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/WALEDAMN/Dynamic-market-structure-and-stock-behavior-revealed-by-stock-correlation-networks/pkg/gml"
	"github.com/WALEDAMN/Dynamic-market-structure-and-stock-behavior-revealed-by-stock-correlation-networks/pkg/graph"
	"github.com/WALEDAMN/Dynamic-market-structure-and-stock-behavior-revealed-by-stock-correlation-networks/pkg/logging"
	"github.com/WALEDAMN/Dynamic-market-structure-and-stock-behavior-revealed-by-stock-correlation-networks/pkg/metrics"
	"github.com/WALEDAMN/Dynamic-market-structure-and-stock-behavior-revealed-by-stock-correlation-networks/pkg/producer"
)

// ErrInvalidPipeline is returned by NewPipeline for unusable settings
var ErrInvalidPipeline = errors.New("invalid pipeline configuration")

// GraphSource loads the graph of one window
type GraphSource interface {
	Load(ctx context.Context) (*graph.Graph, error)
}

// StaticSource serves an already built graph
type StaticSource struct {
	Graph *graph.Graph
}

func (s StaticSource) Load(ctx context.Context) (*graph.Graph, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.Graph, nil
}

// Window is one time slice to process
type Window struct {
	Label  string
	Source GraphSource
}

// FromGML converts directory listings into pipeline windows
func FromGML(windows []gml.Window) []Window {
	out := make([]Window, len(windows))
	for i, w := range windows {
		out[i] = Window{Label: w.Label, Source: w}
	}
	return out
}

// PipelineConfig configures a Pipeline
type PipelineConfig struct {
	Producer producer.Producer
	K        int
	// Workers bounds concurrent load+produce jobs; defaults to NumCPU
	Workers  int
	Logger   logging.Logger
	Metrics  *metrics.Registry
	Observer Observer
	// OnSlice is called after each record, in time order
	OnSlice func(done, total int, rec *Record)
}

// Pipeline loads windows and produces partitions ahead in parallel while
// a Tracker records them strictly in time order.
type Pipeline struct {
	cfg    PipelineConfig
	logger logging.Logger
}

// Run is the outcome of one pipeline execution
type Run struct {
	ID       string
	Producer string
	K        int
	Records  []*Record
	Started  time.Time
	Finished time.Time
}

// Valid returns the non-degraded records
func (r *Run) Valid() []*Record {
	var out []*Record
	for _, rec := range r.Records {
		if !rec.Degraded {
			out = append(out, rec)
		}
	}
	return out
}

// MeanQuality averages modularity over valid slices; NaN when none
func (r *Run) MeanQuality() float64 {
	return meanQuality(r.Records)
}

// NewPipeline validates cfg
func NewPipeline(cfg PipelineConfig) (*Pipeline, error) {
	if cfg.Producer == nil {
		return nil, fmt.Errorf("%w: producer is required", ErrInvalidPipeline)
	}
	if cfg.K < 1 {
		return nil, fmt.Errorf("%w: k must be positive, got %d", ErrInvalidPipeline, cfg.K)
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	logger := logging.OrNop(cfg.Logger).With(
		logging.Component("pipeline"),
		logging.Producer(cfg.Producer.Name()),
		logging.K(cfg.K),
	)
	return &Pipeline{cfg: cfg, logger: logger}, nil
}

type produced struct {
	graph  *graph.Graph
	result *producer.Result
	err    error
}

// Run processes windows in order. Producer failures and unreadable
// graphs become degraded slices; scoring or alignment errors abort the
// run. On cancellation the slices recorded so far are returned together
// with ctx.Err().
func (p *Pipeline) Run(ctx context.Context, windows []Window) (*Run, error) {
	run := &Run{
		ID:       uuid.NewString(),
		Producer: p.cfg.Producer.Name(),
		K:        p.cfg.K,
		Started:  time.Now(),
	}
	logger := p.logger.With(logging.RunID(run.ID))
	tracker := NewTracker(TrackerConfig{
		RunID:    run.ID,
		Logger:   p.cfg.Logger,
		Metrics:  p.cfg.Metrics,
		Observer: p.cfg.Observer,
	})

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	slots := make([]chan produced, len(windows))
	for i := range slots {
		slots[i] = make(chan produced, 1)
	}
	// ahead caps how far producers may run in front of the tracker
	ahead := make(chan struct{}, 2*p.cfg.Workers)

	eg, egCtx := errgroup.WithContext(runCtx)
	eg.SetLimit(p.cfg.Workers)
	dispatched := make(chan struct{})
	go func() {
		defer close(dispatched)
		for i, w := range windows {
			select {
			case ahead <- struct{}{}:
			case <-egCtx.Done():
				return
			}
			eg.Go(func() error {
				slots[i] <- p.produce(egCtx, w)
				return nil
			})
		}
	}()

	op := logging.StartTimer(logger, "run finished", logging.Count(len(windows)))
	var runErr error
consume:
	for i, w := range windows {
		var out produced
		select {
		case out = <-slots[i]:
		case <-ctx.Done():
			runErr = ctx.Err()
			break consume
		}
		<-ahead

		// A cancelled context also fails loads and producers; do not
		// record those as degraded slices
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}

		var rec *Record
		var err error
		if out.err != nil {
			rec, err = tracker.SkipSlice(w.Label, out.err)
		} else {
			rec, err = tracker.ProcessSlice(w.Label, out.graph, out.result.Partition, out.result.Embedding)
		}
		if err != nil {
			runErr = err
			break
		}
		if p.cfg.OnSlice != nil {
			p.cfg.OnSlice(i+1, len(windows), rec)
		}
	}

	cancel()
	<-dispatched
	_ = eg.Wait()

	run.Records = tracker.Finalize()
	run.Finished = time.Now()
	if runErr != nil {
		logger.Error("run stopped", logging.Count(len(run.Records)), logging.Error(runErr))
		return run, runErr
	}
	op.End(logging.Float64("mean_modularity", run.MeanQuality()))
	return run, nil
}

func (p *Pipeline) produce(ctx context.Context, w Window) produced {
	g, err := w.Source.Load(ctx)
	if err != nil {
		return produced{err: fmt.Errorf("%w: load window %s: %w", producer.ErrProducerFailure, w.Label, err)}
	}
	p.logger.Debug("window loaded",
		logging.Window(w.Label),
		logging.Nodes(g.NodeCount()),
		logging.Edges(g.EdgeCount()),
		logging.Bool("self_loops", g.SelfLoopCount() > 0),
	)

	res, err := p.cfg.Producer.Produce(producer.WithWindow(ctx, w.Label), g, p.cfg.K)
	if err == nil {
		err = res.Validate(g.NodeCount(), p.cfg.K)
	}
	if err != nil {
		return produced{graph: g, err: err}
	}
	return produced{graph: g, result: res}
}
