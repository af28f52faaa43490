package algorithms

import (
	"fmt"
	"math/rand"

	"github.com/WALEDAMN/Dynamic-market-structure-and-stock-behavior-revealed-by-stock-correlation-networks/pkg/graph"
)

// randomGraph builds a weighted Erdos-Renyi graph with edge (0,1) always present
func randomGraph(seed int64, n int, density float64) *graph.Graph {
	rng := rand.New(rand.NewSource(seed))
	b := graph.NewBuilder()
	for i := 0; i < n; i++ {
		b.AddNode(fmt.Sprintf("s%03d", i))
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if rng.Float64() < density {
				b.AddEdge(i, j, 0.1+rng.Float64())
			}
		}
	}
	if n > 1 {
		b.AddEdge(0, 1, 1.0)
	}
	return b.Build()
}

// randomPartition assigns each of n nodes one of k ids
func randomPartition(seed int64, n, k int) Partition {
	rng := rand.New(rand.NewSource(seed))
	p := make(Partition, n)
	for i := range p {
		p[i] = rng.Intn(k)
	}
	return p
}

// bestOverlapBruteForce enumerates every injective relabelling of current's
// ids onto previous's ids (or onto nothing) and returns the best overlap.
func bestOverlapBruteForce(previous, current Partition) int {
	prevIDs := previous.IDs()
	curIDs := current.IDs()

	counts := make(map[[2]int]int)
	for i := range current {
		counts[[2]int{previous[i], current[i]}]++
	}

	used := make(map[int]bool)
	var search func(idx int) int
	search = func(idx int) int {
		if idx == len(curIDs) {
			return 0
		}
		// Leave this id unmatched
		best := search(idx + 1)
		for _, p := range prevIDs {
			if used[p] {
				continue
			}
			used[p] = true
			if v := counts[[2]int{p, curIDs[idx]}] + search(idx+1); v > best {
				best = v
			}
			used[p] = false
		}
		return best
	}
	return search(0)
}

// agreement counts nodes carrying the same id in both partitions
func agreement(a, b Partition) int {
	n := 0
	for i := range a {
		if a[i] == b[i] {
			n++
		}
	}
	return n
}
