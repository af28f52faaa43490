package algorithms

import "github.com/WALEDAMN/Dynamic-market-structure-and-stock-behavior-revealed-by-stock-correlation-networks/pkg/graph"

// ClusteringCoefficient computes local clustering coefficient for all nodes
// Measures how close a node's neighbors are to being a complete graph
func ClusteringCoefficient(g *graph.Graph) []float64 {
	n := g.NodeCount()
	coefficients := make([]float64, n)

	for node := 0; node < n; node++ {
		neighbors := make([]int, 0)
		for _, neighbor := range g.Neighbors(node) {
			if neighbor != node {
				neighbors = append(neighbors, neighbor)
			}
		}

		k := len(neighbors)
		if k < 2 {
			continue
		}

		// Count triangles through the dense weight matrix
		triangles := 0
		for i := 0; i < k; i++ {
			row := g.Row(neighbors[i])
			for j := i + 1; j < k; j++ {
				if row[neighbors[j]] != 0 {
					triangles++
				}
			}
		}

		// Clustering coefficient = actual triangles / possible triangles
		possibleTriangles := k * (k - 1) / 2
		coefficients[node] = float64(triangles) / float64(possibleTriangles)
	}

	return coefficients
}

// AverageClusteringCoefficient computes the average clustering coefficient
func AverageClusteringCoefficient(g *graph.Graph) float64 {
	coefficients := ClusteringCoefficient(g)
	if len(coefficients) == 0 {
		return 0.0
	}

	sum := 0.0
	for _, coef := range coefficients {
		sum += coef
	}

	return sum / float64(len(coefficients))
}
