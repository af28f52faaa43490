// Package report turns finished tracking runs into the exported tables,
// summaries and archives, and delivers them to a local directory or an
// S3 bucket.
package report

import (
	"math"
	"sort"
	"time"

	"github.com/WALEDAMN/Dynamic-market-structure-and-stock-behavior-revealed-by-stock-correlation-networks/pkg/graph"
	"github.com/WALEDAMN/Dynamic-market-structure-and-stock-behavior-revealed-by-stock-correlation-networks/pkg/tracking"
)

// Run is the serialisable snapshot of a finished tracking run
type Run struct {
	ID       string    `json:"id" yaml:"id"`
	Producer string    `json:"producer" yaml:"producer"`
	K        int       `json:"k" yaml:"k"`
	Started  time.Time `json:"started" yaml:"started"`
	Finished time.Time `json:"finished" yaml:"finished"`
	// NodeLabels lists every node label in first-seen order
	NodeLabels []string `json:"node_labels" yaml:"-"`
	Slices     []Slice  `json:"slices" yaml:"-"`
}

// Slice is one exported time slice
type Slice struct {
	Window       string            `json:"window"`
	Index        int               `json:"index"`
	Modularity   *float64          `json:"modularity,omitempty"`
	Degraded     bool              `json:"degraded"`
	Failure      string            `json:"failure,omitempty"`
	Communities  int               `json:"communities"`
	Overlap      int               `json:"overlap"`
	Common       int               `json:"common"`
	PartialMatch bool              `json:"partial_match"`
	Assignments  map[string]int    `json:"assignments,omitempty"`
	Leaders      map[int]string    `json:"leaders,omitempty"`
	Densities    map[int]float64   `json:"densities,omitempty"`
	Components   int               `json:"components,omitempty"`
	Clustering   float64           `json:"clustering,omitempty"`
	Changes      map[string]Change `json:"changes,omitempty"`

	// Graph is kept in memory only; archives do not carry it
	Graph *graph.Graph `json:"-"`
}

// Change is the exported form of tracking.Change
type Change struct {
	Kind     string `json:"kind"`
	Previous int    `json:"previous"`
	Current  int    `json:"current"`
}

// Quality returns the slice modularity or NaN
func (s Slice) Quality() float64 {
	if s.Modularity == nil {
		return math.NaN()
	}
	return *s.Modularity
}

// FromTracking snapshots a tracking run
func FromTracking(run *tracking.Run) *Run {
	out := &Run{
		ID:       run.ID,
		Producer: run.Producer,
		K:        run.K,
		Started:  run.Started,
		Finished: run.Finished,
		Slices:   make([]Slice, 0, len(run.Records)),
	}
	seen := make(map[string]bool)
	for _, rec := range run.Records {
		for _, label := range rec.NodeLabels {
			if !seen[label] {
				seen[label] = true
				out.NodeLabels = append(out.NodeLabels, label)
			}
		}
		out.Slices = append(out.Slices, fromRecord(rec))
	}
	return out
}

func fromRecord(rec *tracking.Record) Slice {
	s := Slice{
		Window:       rec.Label,
		Index:        rec.Index,
		Degraded:     rec.Degraded,
		Failure:      rec.FailureReason(),
		Communities:  rec.Communities,
		Overlap:      rec.Overlap,
		Common:       rec.Common,
		PartialMatch: rec.PartialMatch,
	}
	if rec.HasQuality() {
		q := rec.Quality
		s.Modularity = &q
	}
	if !rec.Degraded {
		s.Assignments = rec.Assignments()
		s.Graph = rec.Graph
		s.Leaders = rec.Leaders
		s.Densities = rec.Densities
		s.Components = rec.Components
		s.Clustering = rec.Clustering
	}
	if len(rec.Changes) > 0 {
		s.Changes = make(map[string]Change, len(rec.Changes))
		for label, c := range rec.Changes {
			s.Changes[label] = Change{Kind: c.Kind.String(), Previous: c.Previous, Current: c.Current}
		}
	}
	return s
}

// Valid returns the non-degraded slices
func (r *Run) Valid() []Slice {
	var out []Slice
	for _, s := range r.Slices {
		if !s.Degraded {
			out = append(out, s)
		}
	}
	return out
}

// Groups maps community id to its member labels. Members follow order,
// which is normally Run.NodeLabels; ids are ascending.
func (s Slice) Groups(order []string) (ids []int, members map[int][]string) {
	members = make(map[int][]string)
	for _, label := range order {
		if id, ok := s.Assignments[label]; ok {
			members[id] = append(members[id], label)
		}
	}
	for id := range members {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids, members
}
