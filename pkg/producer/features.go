package producer

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/WALEDAMN/Dynamic-market-structure-and-stock-behavior-revealed-by-stock-correlation-networks/pkg/graph"
)

// standardize centres every column of rows to zero mean and unit
// population variance. Constant columns are centred only.
func standardize(rows [][]float64) [][]float64 {
	n := len(rows)
	if n == 0 {
		return nil
	}
	dim := len(rows[0])
	out := make([][]float64, n)
	for i := range out {
		out[i] = make([]float64, dim)
	}

	col := make([]float64, n)
	for j := 0; j < dim; j++ {
		for i := 0; i < n; i++ {
			col[i] = rows[i][j]
		}
		mean, std := stat.PopMeanStdDev(col, nil)
		for i := 0; i < n; i++ {
			v := rows[i][j] - mean
			if std > 0 {
				v /= std
			}
			out[i][j] = v
		}
	}
	return out
}

// adjacencyFeatures returns the standardised adjacency rows of g
func adjacencyFeatures(g *graph.Graph) [][]float64 {
	return standardize(g.Adjacency())
}

func distance(a, b []float64) float64 {
	return floats.Distance(a, b, 2)
}

func squaredDistance(a, b []float64) float64 {
	d := 0.0
	for i := range a {
		diff := a[i] - b[i]
		d += diff * diff
	}
	return d
}

// nearest returns the index of the centre closest to x
func nearest(x []float64, centres [][]float64) int {
	best, bestDist := 0, squaredDistance(x, centres[0])
	for c := 1; c < len(centres); c++ {
		if d := squaredDistance(x, centres[c]); d < bestDist {
			best, bestDist = c, d
		}
	}
	return best
}

func cloneRows(rows [][]float64) [][]float64 {
	out := make([][]float64, len(rows))
	for i, r := range rows {
		out[i] = append([]float64(nil), r...)
	}
	return out
}
