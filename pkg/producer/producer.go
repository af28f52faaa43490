// Package producer turns a window's graph into a partition with at most
// k communities. Producers are registered by name and looked up by the
// tracking pipeline and the baseline benchmark.
package producer

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/WALEDAMN/Dynamic-market-structure-and-stock-behavior-revealed-by-stock-correlation-networks/pkg/algorithms"
	"github.com/WALEDAMN/Dynamic-market-structure-and-stock-behavior-revealed-by-stock-correlation-networks/pkg/graph"
	"github.com/WALEDAMN/Dynamic-market-structure-and-stock-behavior-revealed-by-stock-correlation-networks/pkg/logging"
	"github.com/WALEDAMN/Dynamic-market-structure-and-stock-behavior-revealed-by-stock-correlation-networks/pkg/metrics"
)

// ErrProducerFailure is matched by every error a producer returns when
// it cannot supply a partition for a slice.
var ErrProducerFailure = errors.New("partition producer failure")

// ErrUnknownProducer is returned by Registry.Get for unregistered names
var ErrUnknownProducer = errors.New("unknown producer")

// Failure describes why a producer gave up on a slice
type Failure struct {
	Producer string
	Reason   string
	Cause    error
}

func (f *Failure) Error() string {
	msg := fmt.Sprintf("producer %s: %s", f.Producer, f.Reason)
	if f.Cause != nil {
		msg += ": " + f.Cause.Error()
	}
	return msg
}

// Is makes every Failure match ErrProducerFailure
func (f *Failure) Is(target error) bool {
	return target == ErrProducerFailure
}

func (f *Failure) Unwrap() error {
	return f.Cause
}

func fail(name, reason string, cause error) error {
	return &Failure{Producer: name, Reason: reason, Cause: cause}
}

// Producer computes a partition of g into at most k communities
type Producer interface {
	// Name returns the registry name, e.g. "kmeans"
	Name() string

	// Produce partitions g. It either returns a total partition or an
	// error wrapping ErrProducerFailure, never a partial result.
	Produce(ctx context.Context, g *graph.Graph, k int) (*Result, error)
}

// Result is a producer's output for one slice
type Result struct {
	Partition algorithms.Partition
	// Embedding holds one feature row per node, or nil
	Embedding [][]float64
}

// Validate checks the result covers all n nodes with at most k ids
func (r *Result) Validate(n, k int) error {
	if r == nil {
		return fmt.Errorf("%w: nil result", ErrProducerFailure)
	}
	if err := r.Partition.Validate(n); err != nil {
		return fmt.Errorf("%w: %w", ErrProducerFailure, err)
	}
	if c := r.Partition.CommunityCount(); c > k {
		return fmt.Errorf("%w: %d communities exceed k=%d", ErrProducerFailure, c, k)
	}
	if r.Embedding != nil && len(r.Embedding) != n {
		return fmt.Errorf("%w: embedding has %d rows for %d nodes", ErrProducerFailure, len(r.Embedding), n)
	}
	return nil
}

type windowKey struct{}

// WithWindow attaches the window label of the graph being produced
func WithWindow(ctx context.Context, label string) context.Context {
	return context.WithValue(ctx, windowKey{}, label)
}

// WindowFrom returns the label set by WithWindow
func WindowFrom(ctx context.Context) (string, bool) {
	label, ok := ctx.Value(windowKey{}).(string)
	return label, ok && label != ""
}

// Registry maps names to producers
type Registry struct {
	producers map[string]Producer
	mu        sync.RWMutex
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{producers: make(map[string]Producer)}
}

// Register adds p under p.Name(), replacing any previous entry
func (r *Registry) Register(p Producer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.producers[p.Name()] = p
}

// Get looks up a producer by name
func (r *Registry) Get(name string) (Producer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.producers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProducer, name)
	}
	return p, nil
}

// Names returns the registered names in sorted order
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.producers))
	for name := range r.producers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Builtin returns a registry with every built-in producer configured
// from opts. The file producer is only registered when
// opts.AssignmentsDir is set.
func Builtin(opts Options) *Registry {
	r := NewRegistry()
	r.Register(NewKMeans(opts))
	r.Register(NewSpectral(opts))
	r.Register(NewGMM(opts))
	r.Register(NewMeanShift(opts))
	r.Register(NewModularityEmbedding(opts))
	r.Register(NewLabelPropagation(opts))
	if opts.AssignmentsDir != "" {
		r.Register(NewFile(opts.AssignmentsDir))
	}
	return r
}

// Options tunes the built-in producers
type Options struct {
	// Seed makes every randomised producer deterministic
	Seed int64
	// Restarts is the number of k-means initialisations kept best-of
	Restarts int
	// MaxIterations bounds k-means, EM and mean-shift loops
	MaxIterations int
	// Tolerance is the convergence threshold on centroid movement
	Tolerance float64
	// Quantile of nearest-neighbour distances used as mean-shift bandwidth
	Quantile float64
	// AssignmentsDir holds <window>.csv files for the file producer
	AssignmentsDir string
}

// DefaultOptions mirrors the settings of the research scripts
func DefaultOptions() Options {
	return Options{
		Seed:          42,
		Restarts:      10,
		MaxIterations: 300,
		Tolerance:     1e-4,
		Quantile:      0.3,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Restarts <= 0 {
		o.Restarts = d.Restarts
	}
	if o.MaxIterations <= 0 {
		o.MaxIterations = d.MaxIterations
	}
	if o.Tolerance <= 0 {
		o.Tolerance = d.Tolerance
	}
	if o.Quantile <= 0 || o.Quantile > 1 {
		o.Quantile = d.Quantile
	}
	return o
}

type instrumented struct {
	inner   Producer
	metrics *metrics.Registry
	logger  logging.Logger
}

// Instrument wraps p so every call is timed into reg and logged.
// Results are validated against the graph before being returned.
func Instrument(p Producer, reg *metrics.Registry, logger logging.Logger) Producer {
	return &instrumented{inner: p, metrics: reg, logger: logging.OrNop(logger)}
}

func (i *instrumented) Name() string { return i.inner.Name() }

func (i *instrumented) Produce(ctx context.Context, g *graph.Graph, k int) (*Result, error) {
	start := time.Now()
	res, err := i.inner.Produce(ctx, g, k)
	if err == nil {
		err = res.Validate(g.NodeCount(), k)
		if err != nil {
			err = fail(i.inner.Name(), "invalid result", err)
			res = nil
		}
	}
	elapsed := time.Since(start)

	if i.metrics != nil {
		i.metrics.RecordProducer(i.inner.Name(), err, elapsed)
	}

	fields := []logging.Field{logging.Producer(i.inner.Name()), logging.K(k), logging.Latency(elapsed)}
	if window, ok := WindowFrom(ctx); ok {
		fields = append(fields, logging.Window(window))
	}
	if err != nil {
		i.logger.Warn("producer failed", append(fields, logging.Error(err))...)
		return nil, err
	}
	i.logger.Debug("partition produced", append(fields, logging.Communities(res.Partition.CommunityCount()))...)
	return res, nil
}

func checkK(name string, g *graph.Graph, k int) error {
	if k < 1 {
		return fail(name, fmt.Sprintf("k must be positive, got %d", k), nil)
	}
	if g.NodeCount() == 0 {
		return fail(name, "graph has no nodes", nil)
	}
	if g.NodeCount() < k {
		return fail(name, fmt.Sprintf("%d nodes cannot form %d communities", g.NodeCount(), k), nil)
	}
	return nil
}
