package producer

import (
	"context"
	"errors"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/WALEDAMN/Dynamic-market-structure-and-stock-behavior-revealed-by-stock-correlation-networks/pkg/graph"
)

// Spectral embeds nodes with the leading eigenvectors of the normalised
// affinity D^-1/2 A D^-1/2 and clusters the row-normalised embedding.
type Spectral struct {
	opts Options
}

// NewSpectral creates the "spectral" producer
func NewSpectral(opts Options) *Spectral {
	return &Spectral{opts: opts.withDefaults()}
}

func (p *Spectral) Name() string { return "spectral" }

func (p *Spectral) Produce(ctx context.Context, g *graph.Graph, k int) (*Result, error) {
	if err := checkK(p.Name(), g, k); err != nil {
		return nil, err
	}

	embedding, err := spectralEmbedding(g, k)
	if err != nil {
		return nil, fail(p.Name(), "eigendecomposition failed", err)
	}

	fit, err := kmeans(ctx, embedding, k, p.opts)
	if err != nil {
		return nil, fail(p.Name(), "clustering interrupted", err)
	}
	return &Result{Partition: fit.labels.Canonical(), Embedding: embedding}, nil
}

var errEigen = errors.New("symmetric eigendecomposition did not converge")

// spectralEmbedding returns the k eigenvectors of the normalised
// affinity with the largest eigenvalues as unit-length node rows.
// Isolated nodes get a zero row.
func spectralEmbedding(g *graph.Graph, k int) ([][]float64, error) {
	n := g.NodeCount()
	scale := make([]float64, n)
	for i := 0; i < n; i++ {
		if d := g.Degree(i); d > 0 {
			scale[i] = 1 / math.Sqrt(d)
		}
	}

	affinity := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		row := g.Row(i)
		for j := i; j < n; j++ {
			if row[j] != 0 {
				affinity.SetSym(i, j, scale[i]*row[j]*scale[j])
			}
		}
	}

	var eig mat.EigenSym
	if !eig.Factorize(affinity, true) {
		return nil, errEigen
	}
	var vectors mat.Dense
	eig.VectorsTo(&vectors)

	// Eigenvalues come back ascending; keep the last k columns
	embedding := make([][]float64, n)
	for i := 0; i < n; i++ {
		row := make([]float64, k)
		for c := 0; c < k; c++ {
			row[c] = vectors.At(i, n-1-c)
		}
		if norm := floats.Norm(row, 2); norm > 0 {
			floats.Scale(1/norm, row)
		}
		embedding[i] = row
	}
	return embedding, nil
}
