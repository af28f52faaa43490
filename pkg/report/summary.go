package report

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/golang/snappy"
	"gonum.org/v1/gonum/stat"
	"gopkg.in/yaml.v3"
)

// Summary is the human-readable digest written as summary.yaml
type Summary struct {
	RunID          string         `yaml:"run_id"`
	Producer       string         `yaml:"producer"`
	K              int            `yaml:"k"`
	Started        time.Time      `yaml:"started"`
	Duration       string         `yaml:"duration"`
	Slices         int            `yaml:"slices"`
	ValidSlices    int            `yaml:"valid_slices"`
	DegradedSlices []string       `yaml:"degraded_slices,omitempty"`
	Nodes          int            `yaml:"nodes"`
	Modularity     QualitySummary `yaml:"modularity"`
	PartialMatches []string       `yaml:"partial_matches,omitempty"`
	TotalChanges   int            `yaml:"total_changes"`
}

// QualitySummary describes modularity over the valid slices. Fields are
// omitted when no slice is valid.
type QualitySummary struct {
	Mean   *float64 `yaml:"mean,omitempty"`
	StdDev *float64 `yaml:"stddev,omitempty"`
	Min    *float64 `yaml:"min,omitempty"`
	Max    *float64 `yaml:"max,omitempty"`
	Best   string   `yaml:"best_window,omitempty"`
}

// Summarize digests run
func Summarize(run *Run) Summary {
	s := Summary{
		RunID:    run.ID,
		Producer: run.Producer,
		K:        run.K,
		Started:  run.Started,
		Duration: run.Finished.Sub(run.Started).Round(time.Millisecond).String(),
		Slices:   len(run.Slices),
		Nodes:    len(run.NodeLabels),
	}

	var values []float64
	best := math.Inf(-1)
	for _, sl := range run.Slices {
		if sl.Degraded {
			s.DegradedSlices = append(s.DegradedSlices, sl.Window)
			continue
		}
		s.ValidSlices++
		if sl.PartialMatch {
			s.PartialMatches = append(s.PartialMatches, sl.Window)
		}
		for _, c := range sl.Changes {
			if c.Kind == "changed" {
				s.TotalChanges++
			}
		}
		q := sl.Quality()
		if math.IsNaN(q) {
			continue
		}
		values = append(values, q)
		if q > best {
			best = q
			s.Modularity.Best = sl.Window
		}
	}

	if len(values) > 0 {
		mean, std := stat.MeanStdDev(values, nil)
		if len(values) == 1 {
			std = 0
		}
		lo, hi := values[0], values[0]
		for _, v := range values[1:] {
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
		s.Modularity.Mean = &mean
		s.Modularity.StdDev = &std
		s.Modularity.Min = &lo
		s.Modularity.Max = &hi
	}
	return s
}

// WriteSummary writes the YAML digest of run
func WriteSummary(w io.Writer, run *Run) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(Summarize(run)); err != nil {
		return fmt.Errorf("failed to encode summary: %w", err)
	}
	return enc.Close()
}

// WriteArchive writes the full run as snappy-framed JSON
func WriteArchive(w io.Writer, run *Run) error {
	sw := snappy.NewBufferedWriter(w)
	if err := json.NewEncoder(sw).Encode(run); err != nil {
		sw.Close()
		return fmt.Errorf("failed to encode run archive: %w", err)
	}
	return sw.Close()
}

// ReadArchive decodes an archive written by WriteArchive
func ReadArchive(r io.Reader) (*Run, error) {
	var run Run
	if err := json.NewDecoder(snappy.NewReader(r)).Decode(&run); err != nil {
		return nil, fmt.Errorf("failed to decode run archive: %w", err)
	}
	return &run, nil
}
