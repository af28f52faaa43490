package producer

import (
	"context"
	"fmt"
	"sort"

	"github.com/WALEDAMN/Dynamic-market-structure-and-stock-behavior-revealed-by-stock-correlation-networks/pkg/algorithms"
	"github.com/WALEDAMN/Dynamic-market-structure-and-stock-behavior-revealed-by-stock-correlation-networks/pkg/graph"
)

// MeanShift runs flat-kernel mean shift on the standardised adjacency
// rows. Mean shift picks its own cluster count; modes beyond the k most
// populated are folded into the nearest kept mode.
type MeanShift struct {
	opts Options
}

// NewMeanShift creates the "meanshift" producer
func NewMeanShift(opts Options) *MeanShift {
	return &MeanShift{opts: opts.withDefaults()}
}

func (p *MeanShift) Name() string { return "meanshift" }

func (p *MeanShift) Produce(ctx context.Context, g *graph.Graph, k int) (*Result, error) {
	if k < 1 {
		return nil, fail(p.Name(), fmt.Sprintf("k must be positive, got %d", k), nil)
	}
	if g.NodeCount() == 0 {
		return nil, fail(p.Name(), "graph has no nodes", nil)
	}

	features := adjacencyFeatures(g)
	bandwidth := estimateBandwidth(features, p.opts.Quantile)
	if bandwidth <= 0 {
		return nil, fail(p.Name(), "estimated bandwidth is zero", nil)
	}

	modes, err := shiftModes(ctx, features, bandwidth, p.opts)
	if err != nil {
		return nil, fail(p.Name(), "mode seeking interrupted", err)
	}

	labels := make(algorithms.Partition, len(features))
	for i, x := range features {
		labels[i] = nearest(x, modes)
	}
	if len(modes) > k {
		labels = foldModes(features, labels, modes, k)
	}
	return &Result{Partition: labels.Canonical(), Embedding: features}, nil
}

// estimateBandwidth averages, over all points, the distance to the
// neighbour at the given quantile (the point itself included).
func estimateBandwidth(x [][]float64, quantile float64) float64 {
	n := len(x)
	neighbours := int(float64(n) * quantile)
	if neighbours < 1 {
		neighbours = 1
	}

	dists := make([]float64, n)
	total := 0.0
	for i := range x {
		for j := range x {
			dists[j] = distance(x[i], x[j])
		}
		sort.Float64s(dists)
		total += dists[neighbours-1]
	}
	return total / float64(n)
}

type mode struct {
	centre  []float64
	support int
}

// shiftModes moves a seed from every point to its local density mode,
// then merges modes closer than the bandwidth keeping the best supported.
func shiftModes(ctx context.Context, x [][]float64, bandwidth float64, opts Options) ([][]float64, error) {
	threshold := 1e-3 * bandwidth
	found := make([]mode, 0, len(x))

	for _, seed := range x {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		centre := append([]float64(nil), seed...)
		next := make([]float64, len(centre))
		support := 0
		for iter := 0; iter < opts.MaxIterations; iter++ {
			clear(next)
			support = 0
			for _, p := range x {
				if distance(p, centre) <= bandwidth {
					support++
					for j, v := range p {
						next[j] += v
					}
				}
			}
			if support == 0 {
				break
			}
			for j := range next {
				next[j] /= float64(support)
			}
			shift := distance(next, centre)
			copy(centre, next)
			if shift < threshold {
				break
			}
		}
		if support > 0 {
			found = append(found, mode{centre: centre, support: support})
		}
	}

	sort.SliceStable(found, func(a, b int) bool {
		return found[a].support > found[b].support
	})

	var kept [][]float64
	for _, m := range found {
		duplicate := false
		for _, c := range kept {
			if distance(m.centre, c) < bandwidth {
				duplicate = true
				break
			}
		}
		if !duplicate {
			kept = append(kept, m.centre)
		}
	}
	return kept, nil
}

// foldModes keeps the k most populated modes and reassigns every other
// point to its nearest kept mode.
func foldModes(x [][]float64, labels algorithms.Partition, modes [][]float64, k int) algorithms.Partition {
	sizes := make([]int, len(modes))
	for _, l := range labels {
		sizes[l]++
	}
	order := make([]int, len(modes))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return sizes[order[a]] > sizes[order[b]]
	})

	kept := make([][]float64, k)
	for i := 0; i < k; i++ {
		kept[i] = modes[order[i]]
	}

	out := make(algorithms.Partition, len(x))
	for i, p := range x {
		out[i] = nearest(p, kept)
	}
	return out
}
