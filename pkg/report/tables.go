package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/WALEDAMN/Dynamic-market-structure-and-stock-behavior-revealed-by-stock-correlation-networks/pkg/baseline"
	"github.com/WALEDAMN/Dynamic-market-structure-and-stock-behavior-revealed-by-stock-correlation-networks/pkg/tracking"
)

const (
	cellUnavailable = "unavailable"
	notAvailable    = "N/A"
)

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// ShortLabels cuts every label to its first width runes, the way stock
// codes are shortened to "600000" from "600000.SH". Labels whose short
// form would collide keep their full text. width <= 0 disables shortening.
func ShortLabels(labels []string, width int) map[string]string {
	out := make(map[string]string, len(labels))
	if width <= 0 {
		for _, l := range labels {
			out[l] = l
		}
		return out
	}

	owners := make(map[string]int)
	short := make(map[string]string, len(labels))
	for _, l := range labels {
		s := l
		if r := []rune(l); len(r) > width {
			s = string(r[:width])
		}
		short[l] = s
		owners[s]++
	}
	for _, l := range labels {
		if owners[short[l]] > 1 {
			out[l] = l
		} else {
			out[l] = short[l]
		}
	}
	return out
}

// WriteQValues writes one "window,modularity" row per slice; degraded
// slices carry NaN
func WriteQValues(w io.Writer, run *Run) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Time Window", "Q Value"}); err != nil {
		return err
	}
	for _, s := range run.Slices {
		if err := cw.Write([]string{s.Window, formatFloat(s.Quality())}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ChangeCell renders a node's movement: "prev->cur", "cur" or "unavailable"
func ChangeCell(c Change) string {
	switch c.Kind {
	case tracking.Changed.String():
		return fmt.Sprintf("%d->%d", c.Previous, c.Current)
	case tracking.Unchanged.String():
		return strconv.Itoa(c.Current)
	default:
		return cellUnavailable
	}
}

// WriteChanges writes the per-node change table. Columns are node labels
// in first-seen order; there is one row per slice that carries changes,
// so the first valid slice and degraded slices have no row.
func WriteChanges(w io.Writer, run *Run, labelWidth int) error {
	names := ShortLabels(run.NodeLabels, labelWidth)
	header := make([]string, 0, len(run.NodeLabels)+1)
	header = append(header, "Time Window")
	for _, label := range run.NodeLabels {
		header = append(header, names[label])
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, s := range run.Slices {
		if len(s.Changes) == 0 {
			continue
		}
		row := make([]string, 0, len(header))
		row = append(row, s.Window)
		for _, label := range run.NodeLabels {
			c, ok := s.Changes[label]
			if !ok {
				row = append(row, "")
				continue
			}
			row = append(row, ChangeCell(c))
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteAssignments writes one column per community id, ascending, with
// member labels listed down each column
func WriteAssignments(w io.Writer, s Slice, order []string, labelWidth int) error {
	names := ShortLabels(order, labelWidth)
	ids, members := s.Groups(order)

	cw := csv.NewWriter(w)
	header := make([]string, len(ids))
	depth := 0
	for j, id := range ids {
		header[j] = strconv.Itoa(id)
		depth = max(depth, len(members[id]))
	}
	if err := cw.Write(header); err != nil {
		return err
	}
	for i := 0; i < depth; i++ {
		row := make([]string, len(ids))
		for j, id := range ids {
			if i < len(members[id]) {
				row[j] = names[members[id][i]]
			}
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteSweep writes "k,mean modularity" rows; counts without a valid
// slice show N/A
func WriteSweep(w io.Writer, results []tracking.SweepResult) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"k", "mean_modularity", "valid_slices", "total_slices"}); err != nil {
		return err
	}
	for _, r := range results {
		mean := notAvailable
		if !math.IsNaN(r.MeanQuality) {
			mean = formatFloat(r.MeanQuality)
		}
		row := []string{strconv.Itoa(r.K), mean, strconv.Itoa(r.ValidSlices), strconv.Itoa(r.TotalSlices)}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteBaseline writes the window x method modularity table
func WriteBaseline(w io.Writer, table *baseline.Table) error {
	cw := csv.NewWriter(w)
	header := append([]string{"time_window"}, table.Methods...)
	if err := cw.Write(header); err != nil {
		return err
	}
	for i, window := range table.Windows {
		row := make([]string, 0, len(header))
		row = append(row, window)
		for _, c := range table.Cells[i] {
			row = append(row, formatFloat(c.Quality))
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
