package algorithms

import (
	"container/heap"
	"math"

	"github.com/WALEDAMN/Dynamic-market-structure-and-stock-behavior-revealed-by-stock-correlation-networks/pkg/graph"
)

// PageRankOptions configures PageRank algorithm
type PageRankOptions struct {
	DampingFactor float64 // Usually 0.85
	MaxIterations int
	Tolerance     float64 // Convergence threshold
}

// DefaultPageRankOptions returns default PageRank configuration
func DefaultPageRankOptions() PageRankOptions {
	return PageRankOptions{
		DampingFactor: 0.85,
		MaxIterations: 100,
		Tolerance:     1e-6,
	}
}

// PageRankResult contains PageRank scores for all nodes
type PageRankResult struct {
	Scores     []float64 // indexed like the graph's nodes, summing to 1
	Iterations int
	Converged  bool
}

// RankedNode represents a node with its rank
type RankedNode struct {
	Index int
	Label string
	Score float64
}

// PageRank computes weighted PageRank on an undirected graph: a walker
// leaves node i along edge (i, j) with probability w_ij / degree(i).
// Isolated nodes spread their score uniformly.
func PageRank(g *graph.Graph, opts PageRankOptions) *PageRankResult {
	n := g.NodeCount()
	if n == 0 {
		return &PageRankResult{Converged: true}
	}

	strength := make([]float64, n)
	for i := 0; i < n; i++ {
		for _, w := range g.Row(i) {
			strength[i] += w
		}
	}

	scores := make([]float64, n)
	next := make([]float64, n)
	for i := range scores {
		scores[i] = 1.0 / float64(n)
	}

	result := &PageRankResult{}
	for result.Iterations < opts.MaxIterations {
		result.Iterations++

		dangling := 0.0
		for i, s := range strength {
			if s == 0 {
				dangling += scores[i]
			}
		}
		base := (1.0-opts.DampingFactor)/float64(n) + opts.DampingFactor*dangling/float64(n)
		for j := range next {
			next[j] = base
		}
		for i := 0; i < n; i++ {
			if strength[i] == 0 {
				continue
			}
			share := opts.DampingFactor * scores[i] / strength[i]
			for j, w := range g.Row(i) {
				if w != 0 {
					next[j] += share * w
				}
			}
		}

		maxDiff := 0.0
		for i := range scores {
			maxDiff = math.Max(maxDiff, math.Abs(next[i]-scores[i]))
		}
		scores, next = next, scores
		if maxDiff < opts.Tolerance {
			result.Converged = true
			break
		}
	}

	// Normalize scores to sum to 1
	sum := 0.0
	for _, s := range scores {
		sum += s
	}
	if sum > 0 {
		for i := range scores {
			scores[i] /= sum
		}
	}
	result.Scores = scores
	return result
}

// rankedNodeHeap is a min-heap by score, ties broken so that the larger
// index is evicted first
type rankedNodeHeap []RankedNode

func (h rankedNodeHeap) Len() int { return len(h) }
func (h rankedNodeHeap) Less(i, j int) bool {
	if h[i].Score != h[j].Score {
		return h[i].Score < h[j].Score
	}
	return h[i].Index > h[j].Index
}
func (h rankedNodeHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *rankedNodeHeap) Push(x any) {
	*h = append(*h, x.(RankedNode))
}

func (h *rankedNodeHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[0 : n-1]
	return x
}

// TopNodes returns the n highest-scoring nodes, best first, in
// O(len(scores) log n)
func (pr *PageRankResult) TopNodes(g *graph.Graph, n int) []RankedNode {
	if n <= 0 {
		return nil
	}

	h := make(rankedNodeHeap, 0, n)
	for i, score := range pr.Scores {
		rn := RankedNode{Index: i, Label: g.Label(i), Score: score}
		if h.Len() < n {
			heap.Push(&h, rn)
		} else if score > h[0].Score {
			heap.Pop(&h)
			heap.Push(&h, rn)
		}
	}

	// Pops come out in ascending order
	result := make([]RankedNode, h.Len())
	for i := h.Len() - 1; i >= 0; i-- {
		result[i] = heap.Pop(&h).(RankedNode)
	}
	return result
}

// CommunityLeaders names the highest-PageRank node of every community of
// p, keyed by community id. Ties go to the earlier node.
func CommunityLeaders(g *graph.Graph, p Partition, pr *PageRankResult) (map[int]string, error) {
	if err := p.Validate(g.NodeCount()); err != nil {
		return nil, err
	}
	best := make(map[int]int)
	for i, id := range p {
		if j, ok := best[id]; !ok || pr.Scores[i] > pr.Scores[j] {
			best[id] = i
		}
	}
	leaders := make(map[int]string, len(best))
	for id, i := range best {
		leaders[id] = g.Label(i)
	}
	return leaders, nil
}
