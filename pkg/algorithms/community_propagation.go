package algorithms

import "github.com/WALEDAMN/Dynamic-market-structure-and-stock-behavior-revealed-by-stock-correlation-networks/pkg/graph"

// LabelPropagation performs weighted label propagation for community detection.
// Nodes are visited in index order and ties between equally weighted
// labels go to the smallest label, so the result is deterministic.
func LabelPropagation(g *graph.Graph, maxIterations int) Partition {
	n := g.NodeCount()

	// Initialize: each node in its own community
	labels := make(Partition, n)
	for i := range labels {
		labels[i] = i
	}

	weightByLabel := make(map[int]float64)

	// Iterate until convergence or max iterations
	for iter := 0; iter < maxIterations; iter++ {
		changed := false

		for node := 0; node < n; node++ {
			clear(weightByLabel)

			row := g.Row(node)
			for neighbor, w := range row {
				if w == 0 || neighbor == node {
					continue
				}
				weightByLabel[labels[neighbor]] += w
			}
			if len(weightByLabel) == 0 {
				continue // Isolated node keeps its label
			}

			// Find heaviest label
			bestLabel := labels[node]
			bestWeight := weightByLabel[bestLabel]
			for label, w := range weightByLabel {
				if w > bestWeight || (w == bestWeight && label < bestLabel) {
					bestWeight = w
					bestLabel = label
				}
			}

			if bestLabel != labels[node] {
				labels[node] = bestLabel
				changed = true
			}
		}

		if !changed {
			break // Converged
		}
	}

	return labels.Canonical()
}
