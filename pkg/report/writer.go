package report

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/WALEDAMN/Dynamic-market-structure-and-stock-behavior-revealed-by-stock-correlation-networks/pkg/baseline"
	"github.com/WALEDAMN/Dynamic-market-structure-and-stock-behavior-revealed-by-stock-correlation-networks/pkg/gml"
	"github.com/WALEDAMN/Dynamic-market-structure-and-stock-behavior-revealed-by-stock-correlation-networks/pkg/logging"
	"github.com/WALEDAMN/Dynamic-market-structure-and-stock-behavior-revealed-by-stock-correlation-networks/pkg/metrics"
	"github.com/WALEDAMN/Dynamic-market-structure-and-stock-behavior-revealed-by-stock-correlation-networks/pkg/tracking"
)

// Object names written by Writer
const (
	QValuesFile  = "q_values.csv"
	ChangesFile  = "community_changes.csv"
	SummaryFile  = "summary.yaml"
	ArchiveFile  = "run.json.sz"
	SweepFile    = "sweep.csv"
	BaselineFile = "baseline.csv"
)

// GraphFile names the community-annotated GML graph of one window
func GraphFile(window string) string {
	return "community_graph_" + safeName(window) + ".gml"
}

// AssignmentsFile names the membership table of one window
func AssignmentsFile(window string) string {
	return "community_assignments_" + safeName(window) + ".csv"
}

func safeName(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', ' ':
			return '_'
		}
		return r
	}, s)
}

// Writer renders reports into a Sink
type Writer struct {
	Sink Sink
	// LabelWidth shortens node labels in tables; 0 keeps them whole
	LabelWidth int
	// Graphs also writes each window graph with its community ids
	Graphs  bool
	Logger  logging.Logger
	Metrics *metrics.Registry
}

func (w *Writer) put(ctx context.Context, name string, render func(io.Writer) error) error {
	var buf bytes.Buffer
	if err := render(&buf); err != nil {
		return fmt.Errorf("render %s: %w", name, err)
	}
	err := w.Sink.Put(ctx, name, buf.Bytes())
	if w.Metrics != nil {
		w.Metrics.RecordReportWrite(w.Sink.Name(), buf.Len(), err)
	}
	logger := logging.OrNop(w.Logger)
	if err != nil {
		logger.Error("report write failed", logging.Path(w.Sink.Location(name)), logging.Error(err))
		return err
	}
	logger.Debug("report written", logging.Path(w.Sink.Location(name)), logging.Int("bytes", buf.Len()))
	return nil
}

type step struct {
	name   string
	render func(io.Writer) error
}

// WriteRun writes the q-value, change and per-window assignment tables,
// the YAML summary and the compressed archive. Degraded slices get no
// assignment table.
func (w *Writer) WriteRun(ctx context.Context, run *Run) error {
	steps := []step{
		{QValuesFile, func(out io.Writer) error { return WriteQValues(out, run) }},
		{ChangesFile, func(out io.Writer) error { return WriteChanges(out, run, w.LabelWidth) }},
	}
	for _, s := range run.Slices {
		if s.Degraded {
			continue
		}
		steps = append(steps, step{AssignmentsFile(s.Window), func(out io.Writer) error {
			return WriteAssignments(out, s, run.NodeLabels, w.LabelWidth)
		}})
		if w.Graphs && s.Graph != nil {
			steps = append(steps, step{GraphFile(s.Window), func(out io.Writer) error {
				return writeGraph(out, s)
			}})
		}
	}
	steps = append(steps,
		step{SummaryFile, func(out io.Writer) error { return WriteSummary(out, run) }},
		step{ArchiveFile, func(out io.Writer) error { return WriteArchive(out, run) }},
	)

	for _, step := range steps {
		if err := w.put(ctx, step.name, step.render); err != nil {
			return err
		}
	}
	logging.OrNop(w.Logger).Info("run report written",
		logging.RunID(run.ID),
		logging.Path(w.Sink.Location("")),
		logging.Count(len(steps)))
	return nil
}

// WriteSweep writes sweep.csv
func (w *Writer) WriteSweep(ctx context.Context, results []tracking.SweepResult) error {
	return w.put(ctx, SweepFile, func(out io.Writer) error { return WriteSweep(out, results) })
}

// WriteBaseline writes baseline.csv
func (w *Writer) WriteBaseline(ctx context.Context, table *baseline.Table) error {
	return w.put(ctx, BaselineFile, func(out io.Writer) error { return WriteBaseline(out, table) })
}

func writeGraph(out io.Writer, s Slice) error {
	communities := make([]int, s.Graph.NodeCount())
	for i := range communities {
		id, ok := s.Assignments[s.Graph.Label(i)]
		if !ok {
			return fmt.Errorf("window %s: node %s has no community", s.Window, s.Graph.Label(i))
		}
		communities[i] = id
	}
	return gml.WriteCommunities(out, s.Graph, communities)
}
