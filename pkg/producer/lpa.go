package producer

import (
	"context"
	"fmt"
	"sort"

	"github.com/WALEDAMN/Dynamic-market-structure-and-stock-behavior-revealed-by-stock-correlation-networks/pkg/algorithms"
	"github.com/WALEDAMN/Dynamic-market-structure-and-stock-behavior-revealed-by-stock-correlation-networks/pkg/graph"
)

// LabelPropagation runs weighted label propagation and coarsens the
// result to at most k communities.
type LabelPropagation struct {
	opts Options
}

// NewLabelPropagation creates the "lpa" producer
func NewLabelPropagation(opts Options) *LabelPropagation {
	return &LabelPropagation{opts: opts.withDefaults()}
}

func (p *LabelPropagation) Name() string { return "lpa" }

func (p *LabelPropagation) Produce(ctx context.Context, g *graph.Graph, k int) (*Result, error) {
	if k < 1 {
		return nil, fail(p.Name(), fmt.Sprintf("k must be positive, got %d", k), nil)
	}
	if g.NodeCount() == 0 {
		return nil, fail(p.Name(), "graph has no nodes", nil)
	}
	if err := ctx.Err(); err != nil {
		return nil, fail(p.Name(), "interrupted", err)
	}

	labels := algorithms.LabelPropagation(g, p.opts.MaxIterations)
	return &Result{Partition: Coarsen(g, labels, k).Canonical()}, nil
}

// Coarsen keeps the k largest communities of p (ties to the smaller id)
// and moves every node of the others to the kept community it has the
// most edge weight to, or to the largest kept community when it has
// none.
func Coarsen(g *graph.Graph, p algorithms.Partition, k int) algorithms.Partition {
	groups := p.Members()
	if len(groups) <= k {
		return p.Clone()
	}

	ids := p.IDs()
	sort.SliceStable(ids, func(a, b int) bool {
		return len(groups[ids[a]]) > len(groups[ids[b]])
	})
	kept := make(map[int]bool, k)
	for _, id := range ids[:k] {
		kept[id] = true
	}
	largest := ids[0]

	out := p.Clone()
	for i, id := range p {
		if kept[id] {
			continue
		}
		weights := make(map[int]float64)
		for _, j := range g.Neighbors(i) {
			if kept[p[j]] {
				weights[p[j]] += g.Weight(i, j)
			}
		}
		target, best := largest, 0.0
		for _, cand := range ids[:k] {
			if w := weights[cand]; w > best {
				target, best = cand, w
			}
		}
		out[i] = target
	}
	return out
}
