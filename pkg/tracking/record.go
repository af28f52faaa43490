package tracking

import (
	"errors"
	"math"

	"github.com/WALEDAMN/Dynamic-market-structure-and-stock-behavior-revealed-by-stock-correlation-networks/pkg/algorithms"
	"github.com/WALEDAMN/Dynamic-market-structure-and-stock-behavior-revealed-by-stock-correlation-networks/pkg/graph"
)

// ErrTrackerClosed is returned by slice operations after Finalize
var ErrTrackerClosed = errors.New("tracker is finalized")

// ChangeKind classifies a node between two consecutive valid slices
type ChangeKind int

const (
	// Unchanged: same aligned community in both slices
	Unchanged ChangeKind = iota
	// Changed: aligned community differs
	Changed
	// Unavailable: the node is missing from one of the slices
	Unavailable
)

func (k ChangeKind) String() string {
	switch k {
	case Unchanged:
		return "unchanged"
	case Changed:
		return "changed"
	case Unavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

// Change is a node's community movement. Previous and Current are
// algorithms.Unassigned when the node is absent from that slice.
type Change struct {
	Kind     ChangeKind
	Previous int
	Current  int
}

// Record is the immutable result of one time slice
type Record struct {
	// Label is the time-window label, Index its 0-based position
	Label string
	Index int

	NodeLabels []string
	// Partition is the aligned partition, nil for a degraded slice
	Partition algorithms.Partition
	Embedding [][]float64
	// Graph is the window graph the partition was scored on
	Graph *graph.Graph

	// Quality is the modularity of Partition, NaN when degraded
	Quality  float64
	Degraded bool
	Failure  error

	// Changes is keyed by node label; empty for the first valid slice
	// and for degraded slices
	Changes      map[string]Change
	Overlap      int
	Common       int
	PartialMatch bool
	Communities  int
	// Leaders maps community id to its highest-PageRank node label
	Leaders map[int]string
	// Densities maps community id to its internal edge density
	Densities map[int]float64

	// Components and Clustering describe the window graph itself
	Components int
	Clustering float64
}

// HasQuality reports whether the slice carries a defined modularity
func (r *Record) HasQuality() bool {
	return !r.Degraded && !math.IsNaN(r.Quality)
}

// Assignments maps node label to aligned community id
func (r *Record) Assignments() map[string]int {
	out := make(map[string]int, len(r.NodeLabels))
	for i, label := range r.NodeLabels {
		if i < len(r.Partition) {
			out[label] = r.Partition[i]
		}
	}
	return out
}

// ChangeCounts tallies Changes by kind
func (r *Record) ChangeCounts() (changed, unchanged, unavailable int) {
	for _, c := range r.Changes {
		switch c.Kind {
		case Changed:
			changed++
		case Unchanged:
			unchanged++
		case Unavailable:
			unavailable++
		}
	}
	return changed, unchanged, unavailable
}

// FailureReason returns the failure message of a degraded slice
func (r *Record) FailureReason() string {
	if r.Failure == nil {
		return ""
	}
	return r.Failure.Error()
}

// Observer receives every record as soon as it is appended
type Observer interface {
	Observe(runID string, rec *Record)
}

// ObserverFunc adapts a function to Observer
type ObserverFunc func(runID string, rec *Record)

func (f ObserverFunc) Observe(runID string, rec *Record) { f(runID, rec) }
