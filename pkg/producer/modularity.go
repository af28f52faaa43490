package producer

import (
	"context"

	"github.com/WALEDAMN/Dynamic-market-structure-and-stock-behavior-revealed-by-stock-correlation-networks/pkg/graph"
)

// ModularityEmbedding clusters the rows of the modularity matrix
// B = A - d d^T / 2m, the input features of the graph autoencoder model.
type ModularityEmbedding struct {
	opts Options
}

// NewModularityEmbedding creates the "modularity" producer
func NewModularityEmbedding(opts Options) *ModularityEmbedding {
	return &ModularityEmbedding{opts: opts.withDefaults()}
}

func (p *ModularityEmbedding) Name() string { return "modularity" }

func (p *ModularityEmbedding) Produce(ctx context.Context, g *graph.Graph, k int) (*Result, error) {
	if err := checkK(p.Name(), g, k); err != nil {
		return nil, err
	}

	b, ok := ModularityMatrix(g)
	if !ok {
		return nil, fail(p.Name(), "graph has no edge weight", nil)
	}

	fit, err := kmeans(ctx, b, k, p.opts)
	if err != nil {
		return nil, fail(p.Name(), "clustering interrupted", err)
	}
	return &Result{Partition: fit.labels.Canonical(), Embedding: b}, nil
}

// ModularityMatrix returns B with B[i][j] = A[i][j] - d_i d_j / 2m.
// It reports false for a graph without edge weight.
func ModularityMatrix(g *graph.Graph) ([][]float64, bool) {
	n := g.NodeCount()
	twoM := 0.0
	for i := 0; i < n; i++ {
		twoM += g.Degree(i)
	}
	if twoM == 0 {
		return nil, false
	}

	b := make([][]float64, n)
	for i := 0; i < n; i++ {
		row := make([]float64, n)
		a := g.Row(i)
		di := g.Degree(i)
		for j := 0; j < n; j++ {
			row[j] = a[j] - di*g.Degree(j)/twoM
		}
		b[i] = row
	}
	return b, true
}
