package producer

import (
	"context"
	"math"
	"math/rand"

	"github.com/WALEDAMN/Dynamic-market-structure-and-stock-behavior-revealed-by-stock-correlation-networks/pkg/algorithms"
	"github.com/WALEDAMN/Dynamic-market-structure-and-stock-behavior-revealed-by-stock-correlation-networks/pkg/graph"
)

// KMeans clusters the standardised adjacency rows of a graph
type KMeans struct {
	opts Options
}

// NewKMeans creates the "kmeans" producer
func NewKMeans(opts Options) *KMeans {
	return &KMeans{opts: opts.withDefaults()}
}

func (p *KMeans) Name() string { return "kmeans" }

func (p *KMeans) Produce(ctx context.Context, g *graph.Graph, k int) (*Result, error) {
	if err := checkK(p.Name(), g, k); err != nil {
		return nil, err
	}
	features := adjacencyFeatures(g)
	fit, err := kmeans(ctx, features, k, p.opts)
	if err != nil {
		return nil, fail(p.Name(), "clustering interrupted", err)
	}
	return &Result{Partition: fit.labels.Canonical(), Embedding: features}, nil
}

type kmeansFit struct {
	labels    algorithms.Partition
	centroids [][]float64
	inertia   float64
}

// kmeans runs Lloyd's algorithm from opts.Restarts k-means++ seeds and
// keeps the lowest-inertia fit. Callers guarantee len(points) >= k >= 1.
func kmeans(ctx context.Context, points [][]float64, k int, opts Options) (*kmeansFit, error) {
	rng := rand.New(rand.NewSource(opts.Seed))

	var best *kmeansFit
	for run := 0; run < opts.Restarts; run++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		fit, err := lloyd(ctx, points, seedPlusPlus(points, k, rng), opts)
		if err != nil {
			return nil, err
		}
		if best == nil || fit.inertia < best.inertia {
			best = fit
		}
	}
	return best, nil
}

// seedPlusPlus picks k initial centroids with D^2 weighting
func seedPlusPlus(points [][]float64, k int, rng *rand.Rand) [][]float64 {
	n := len(points)
	centres := make([][]float64, 0, k)
	centres = append(centres, append([]float64(nil), points[rng.Intn(n)]...))

	closest := make([]float64, n)
	for i := range points {
		closest[i] = squaredDistance(points[i], centres[0])
	}

	for len(centres) < k {
		total := 0.0
		for _, d := range closest {
			total += d
		}

		next := 0
		if total == 0 {
			// All remaining points coincide with a centre
			next = rng.Intn(n)
		} else {
			target := rng.Float64() * total
			for i, d := range closest {
				target -= d
				if target <= 0 {
					next = i
					break
				}
				next = i
			}
		}

		c := append([]float64(nil), points[next]...)
		centres = append(centres, c)
		for i := range points {
			if d := squaredDistance(points[i], c); d < closest[i] {
				closest[i] = d
			}
		}
	}
	return centres
}

func lloyd(ctx context.Context, points, centres [][]float64, opts Options) (*kmeansFit, error) {
	n, k := len(points), len(centres)
	dim := len(points[0])
	labels := make(algorithms.Partition, n)
	sums := make([][]float64, k)
	for c := range sums {
		sums[c] = make([]float64, dim)
	}
	counts := make([]int, k)

	for iter := 0; iter < opts.MaxIterations; iter++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		for i, x := range points {
			labels[i] = nearest(x, centres)
		}

		for c := range sums {
			clear(sums[c])
			counts[c] = 0
		}
		for i, x := range points {
			c := labels[i]
			counts[c]++
			for j, v := range x {
				sums[c][j] += v
			}
		}

		shift := 0.0
		for c := range centres {
			if counts[c] == 0 {
				// Re-seed an empty cluster at the worst-served point
				far := farthestPoint(points, labels, centres)
				shift += squaredDistance(centres[c], points[far])
				copy(centres[c], points[far])
				labels[far] = c
				continue
			}
			moved := 0.0
			for j := range centres[c] {
				v := sums[c][j] / float64(counts[c])
				diff := v - centres[c][j]
				moved += diff * diff
				centres[c][j] = v
			}
			shift += moved
		}

		if shift <= opts.Tolerance*opts.Tolerance {
			break
		}
	}

	inertia := 0.0
	for i, x := range points {
		labels[i] = nearest(x, centres)
		inertia += squaredDistance(x, centres[labels[i]])
	}
	return &kmeansFit{labels: labels, centroids: centres, inertia: inertia}, nil
}

func farthestPoint(points [][]float64, labels algorithms.Partition, centres [][]float64) int {
	far, farDist := 0, math.Inf(-1)
	for i, x := range points {
		if d := squaredDistance(x, centres[labels[i]]); d > farDist {
			far, farDist = i, d
		}
	}
	return far
}
