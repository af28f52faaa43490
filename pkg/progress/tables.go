package progress

import (
	"math"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/WALEDAMN/Dynamic-market-structure-and-stock-behavior-revealed-by-stock-correlation-networks/pkg/baseline"
	"github.com/WALEDAMN/Dynamic-market-structure-and-stock-behavior-revealed-by-stock-correlation-networks/pkg/report"
	"github.com/WALEDAMN/Dynamic-market-structure-and-stock-behavior-revealed-by-stock-correlation-networks/pkg/store"
	"github.com/WALEDAMN/Dynamic-market-structure-and-stock-behavior-revealed-by-stock-correlation-networks/pkg/tracking"
)

var (
	headerCell = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00FFFF")).Padding(0, 1)
	cell       = lipgloss.NewStyle().Padding(0, 1)
	bestCell   = cell.Foreground(lipgloss.Color("#00FF00")).Bold(true)
	border     = lipgloss.NewStyle().Foreground(lipgloss.Color("#666666"))
)

func quality(v float64) string {
	if math.IsNaN(v) {
		return "N/A"
	}
	return strconv.FormatFloat(v, 'f', 4, 64)
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(border).
		Headers(headers...)
}

// RenderSweep tabulates mean modularity per community count and
// highlights the best one
func RenderSweep(results []tracking.SweepResult) string {
	best, ok := tracking.Best(results)
	bestRow := -1

	t := newTable("k", "Mean Q", "Valid", "Slices")
	for i, r := range results {
		if ok && r.K == best.K {
			bestRow = i
		}
		t.Row(strconv.Itoa(r.K), quality(r.MeanQuality), strconv.Itoa(r.ValidSlices), strconv.Itoa(r.TotalSlices))
	}
	t.StyleFunc(func(row, col int) lipgloss.Style {
		switch {
		case row == table.HeaderRow:
			return headerCell
		case row == bestRow:
			return bestCell
		default:
			return cell
		}
	})
	return t.Render()
}

// RenderBaseline tabulates window x method modularity with a mean row
func RenderBaseline(tbl *baseline.Table) string {
	t := newTable(append([]string{"Window"}, tbl.Methods...)...)
	for i, window := range tbl.Windows {
		row := []string{window}
		for _, c := range tbl.Cells[i] {
			row = append(row, quality(c.Quality))
		}
		t.Row(row...)
	}
	mean := []string{"mean"}
	for _, method := range tbl.Methods {
		mean = append(mean, quality(tbl.Mean(method)))
	}
	t.Row(mean...)

	last := len(tbl.Windows)
	t.StyleFunc(func(row, col int) lipgloss.Style {
		switch row {
		case table.HeaderRow:
			return headerCell
		case last:
			return cell.Bold(true)
		default:
			return cell
		}
	})
	return t.Render()
}

// RenderSummary tabulates the digest of a finished run
func RenderSummary(s report.Summary) string {
	mean := "N/A"
	if s.Modularity.Mean != nil {
		mean = quality(*s.Modularity.Mean)
	}
	best := s.Modularity.Best
	if best == "" {
		best = "N/A"
	}

	t := newTable("Run", s.RunID).
		Row("Producer", s.Producer).
		Row("k", strconv.Itoa(s.K)).
		Row("Slices", strconv.Itoa(s.Slices)).
		Row("Valid", strconv.Itoa(s.ValidSlices)).
		Row("Mean Q", mean).
		Row("Best window", best).
		Row("Changes", strconv.Itoa(s.TotalChanges)).
		Row("Duration", s.Duration)
	t.StyleFunc(func(row, col int) lipgloss.Style {
		if row == table.HeaderRow {
			return headerCell
		}
		return cell
	})
	return t.Render()
}

// RenderRuns lists stored runs, newest first as the store returns them
func RenderRuns(runs []store.RunInfo) string {
	t := newTable("Run", "Producer", "k", "Started", "Valid", "Mean Q")
	for _, r := range runs {
		mean := math.NaN()
		if r.MeanModularity != nil {
			mean = *r.MeanModularity
		}
		t.Row(
			r.ID,
			r.Producer,
			strconv.Itoa(r.K),
			r.Started.Local().Format(time.DateTime),
			strconv.Itoa(r.ValidSlices)+"/"+strconv.Itoa(r.Slices),
			quality(mean),
		)
	}
	t.StyleFunc(func(row, col int) lipgloss.Style {
		if row == table.HeaderRow {
			return headerCell
		}
		return cell
	})
	return t.Render()
}
