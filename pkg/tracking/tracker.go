// Package tracking follows communities through a sequence of time
// windows: each window's partition is aligned to the previous valid one,
// scored by modularity and compared node by node.
package tracking

import (
	"fmt"
	"math"
	"slices"
	"sync"

	"github.com/WALEDAMN/Dynamic-market-structure-and-stock-behavior-revealed-by-stock-correlation-networks/pkg/algorithms"
	"github.com/WALEDAMN/Dynamic-market-structure-and-stock-behavior-revealed-by-stock-correlation-networks/pkg/graph"
	"github.com/WALEDAMN/Dynamic-market-structure-and-stock-behavior-revealed-by-stock-correlation-networks/pkg/logging"
	"github.com/WALEDAMN/Dynamic-market-structure-and-stock-behavior-revealed-by-stock-correlation-networks/pkg/metrics"
)

// TrackerConfig wires optional collaborators into a Tracker
type TrackerConfig struct {
	RunID    string
	Logger   logging.Logger
	Metrics  *metrics.Registry
	Observer Observer
}

// Tracker accumulates slice records. It is safe for concurrent use but
// slices are recorded in call order.
type Tracker struct {
	cfg      TrackerConfig
	logger   logging.Logger
	records  []*Record
	baseline *Record // last non-degraded record
	issued   []int   // every community id recorded so far, ascending
	closed   bool
	mu       sync.Mutex
}

// NewTracker creates an empty tracker
func NewTracker(cfg TrackerConfig) *Tracker {
	logger := logging.OrNop(cfg.Logger).With(logging.Component("tracker"))
	if cfg.RunID != "" {
		logger = logger.With(logging.RunID(cfg.RunID))
	}
	return &Tracker{cfg: cfg, logger: logger}
}

// ProcessSlice aligns raw against the last valid slice, scores it on g
// and records the per-node changes. On error the tracker is unchanged.
func (t *Tracker) ProcessSlice(label string, g *graph.Graph, raw algorithms.Partition, embedding [][]float64) (*Record, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil, fmt.Errorf("process slice %s: %w", label, ErrTrackerClosed)
	}
	if err := raw.Validate(g.NodeCount()); err != nil {
		return nil, fmt.Errorf("process slice %s: %w", label, err)
	}

	labels := g.Labels()
	rec := &Record{
		Label:      label,
		Index:      len(t.records),
		NodeLabels: labels,
		Embedding:  embedding,
		Graph:      g,
		Changes:    map[string]Change{},
	}

	hadBaseline := t.baseline != nil
	if !hadBaseline {
		rec.Partition = raw.Clone()
	} else {
		a, aligned, err := algorithms.MatchByLabel(t.baseline.NodeLabels, t.baseline.Partition, labels, raw, t.issued...)
		if err != nil {
			return nil, fmt.Errorf("align slice %s: %w", label, err)
		}
		rec.Partition = aligned
		rec.Overlap = a.Overlap
		rec.PartialMatch = a.PartialMatch
		rec.Common, rec.Changes = compare(t.baseline, labels, aligned)
	}

	q, err := algorithms.Modularity(g, rec.Partition)
	if err != nil {
		return nil, fmt.Errorf("score slice %s: %w", label, err)
	}
	rec.Quality = q
	rec.Communities = rec.Partition.CommunityCount()
	rec.Leaders, err = algorithms.CommunityLeaders(g, rec.Partition, algorithms.PageRank(g, algorithms.DefaultPageRankOptions()))
	if err != nil {
		return nil, fmt.Errorf("rank slice %s: %w", label, err)
	}
	summary, err := algorithms.Describe(g, rec.Partition)
	if err != nil {
		return nil, fmt.Errorf("describe slice %s: %w", label, err)
	}
	rec.Densities = make(map[int]float64, len(summary))
	for _, c := range summary {
		rec.Densities[c.ID] = c.Density
	}
	rec.Components = algorithms.ConnectedComponents(g).CommunityCount()
	rec.Clustering = algorithms.AverageClusteringCoefficient(g)

	t.records = append(t.records, rec)
	t.baseline = rec
	t.issue(rec.Partition.IDs())
	t.publish(rec)

	changed, unchanged, unavailable := rec.ChangeCounts()
	t.logger.Info("slice recorded",
		logging.Window(label),
		logging.Quality(q),
		logging.Communities(rec.Communities),
		logging.Int("overlap", rec.Overlap),
		logging.Int("changed", changed),
		logging.Int("unchanged", unchanged),
		logging.Int("unavailable", unavailable),
		logging.Int("components", rec.Components),
		logging.Float64("clustering", rec.Clustering),
	)
	if rec.PartialMatch {
		t.logger.Warn("alignment left communities unmatched", logging.Window(label))
	}
	if m := t.cfg.Metrics; m != nil {
		m.RecordSlice(label, false, q, rec.Communities)
		if hadBaseline {
			m.RecordAlignment(rec.Overlap, rec.Common, rec.PartialMatch)
			m.RecordChanges(changed, unchanged, unavailable)
		}
	}
	return rec, nil
}

// SkipSlice records a slice whose partition could not be produced. The
// baseline for the next alignment stays the last valid slice.
func (t *Tracker) SkipSlice(label string, cause error) (*Record, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil, fmt.Errorf("skip slice %s: %w", label, ErrTrackerClosed)
	}

	rec := &Record{
		Label:    label,
		Index:    len(t.records),
		Quality:  math.NaN(),
		Degraded: true,
		Failure:  cause,
		Changes:  map[string]Change{},
	}
	t.records = append(t.records, rec)
	t.publish(rec)

	t.logger.Warn("slice degraded", logging.Window(label), logging.Error(cause))
	if m := t.cfg.Metrics; m != nil {
		m.RecordSlice(label, true, rec.Quality, 0)
	}
	return rec, nil
}

// Finalize closes the tracker and returns all records in order.
// Calling it again returns the same records.
func (t *Tracker) Finalize() []*Record {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.closed {
		t.closed = true
		t.logger.Debug("tracker finalized", logging.Count(len(t.records)))
	}
	out := make([]*Record, len(t.records))
	copy(out, t.records)
	return out
}

// Records returns a snapshot of the records so far
func (t *Tracker) Records() []*Record {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]*Record, len(t.records))
	copy(out, t.records)
	return out
}

// Baseline returns the last valid record, or nil
func (t *Tracker) Baseline() *Record {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.baseline
}

// Closed reports whether Finalize has been called
func (t *Tracker) Closed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closed
}

func (t *Tracker) publish(rec *Record) {
	if t.cfg.Observer != nil {
		t.cfg.Observer.Observe(t.cfg.RunID, rec)
	}
}

// compare classifies every node of the union of both slices, returning
// the number of common nodes too.
func compare(prev *Record, labels []string, aligned algorithms.Partition) (int, map[string]Change) {
	before := prev.Assignments()
	changes := make(map[string]Change, len(labels)+len(before))
	common := 0

	for i, label := range labels {
		cur := aligned[i]
		old, ok := before[label]
		switch {
		case !ok:
			changes[label] = Change{Kind: Unavailable, Previous: algorithms.Unassigned, Current: cur}
		case old == cur:
			common++
			changes[label] = Change{Kind: Unchanged, Previous: old, Current: cur}
		default:
			common++
			changes[label] = Change{Kind: Changed, Previous: old, Current: cur}
		}
	}
	for label, old := range before {
		if _, ok := changes[label]; !ok {
			changes[label] = Change{Kind: Unavailable, Previous: old, Current: algorithms.Unassigned}
		}
	}
	return common, changes
}

// issue adds ids to the set a new community may not take
func (t *Tracker) issue(ids []int) {
	for _, id := range ids {
		if i, found := slices.BinarySearch(t.issued, id); !found {
			t.issued = slices.Insert(t.issued, i, id)
		}
	}
}
