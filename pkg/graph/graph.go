package graph

import (
	"math"
)

// symmetryTolerance bounds |w(i,j) - w(j,i)| for an adjacency to count as symmetric.
const symmetryTolerance = 1e-9

// Graph is an immutable undirected weighted graph over a stably ordered
// set of labelled nodes. Weights live in a dense symmetric matrix; the
// stock networks this package serves have a few hundred nodes.
type Graph struct {
	labels      []string
	index       map[string]int
	weights     [][]float64
	degrees     []float64
	totalWeight float64
	edgeCount   int
	selfLoops   int
}

// NodeCount returns the number of nodes
func (g *Graph) NodeCount() int {
	return len(g.labels)
}

// EdgeCount returns the number of undirected edges with non-zero weight,
// self-loops included.
func (g *Graph) EdgeCount() int {
	return g.edgeCount
}

// SelfLoopCount returns the number of nodes carrying a self-loop.
func (g *Graph) SelfLoopCount() int {
	return g.selfLoops
}

// Label returns the label of node i
func (g *Graph) Label(i int) string {
	return g.labels[i]
}

// Labels returns a copy of the node labels in node order.
func (g *Graph) Labels() []string {
	out := make([]string, len(g.labels))
	copy(out, g.labels)
	return out
}

// Index returns the node index for a label.
func (g *Graph) Index(label string) (int, bool) {
	i, ok := g.index[label]
	return i, ok
}

// Weight returns the weight of edge (i, j), zero when absent.
func (g *Graph) Weight(i, j int) float64 {
	return g.weights[i][j]
}

// Degree returns the weighted degree of node i. A self-loop contributes
// twice its weight, so the degrees sum to 2 * TotalWeight.
func (g *Graph) Degree(i int) float64 {
	return g.degrees[i]
}

// TotalWeight returns m, the sum of edge weights with each undirected
// edge (and each self-loop) counted once.
func (g *Graph) TotalWeight() float64 {
	return g.totalWeight
}

// Neighbors returns the indices adjacent to node i in ascending order.
// A self-loop lists i itself.
func (g *Graph) Neighbors(i int) []int {
	row := g.weights[i]
	out := make([]int, 0)
	for j, w := range row {
		if w != 0 {
			out = append(out, j)
		}
	}
	return out
}

// Adjacency returns a copy of the dense weight matrix.
func (g *Graph) Adjacency() [][]float64 {
	n := len(g.weights)
	out := make([][]float64, n)
	for i, row := range g.weights {
		out[i] = make([]float64, n)
		copy(out[i], row)
	}
	return out
}

// Row returns node i's weight row. The slice is shared and must not be modified.
func (g *Graph) Row(i int) []float64 {
	return g.weights[i]
}

// FromAdjacency builds a graph from node labels and a square adjacency
// matrix. The matrix must be symmetric, finite and non-negative.
func FromAdjacency(labels []string, adjacency [][]float64) (*Graph, error) {
	const op = "FromAdjacency"
	n := len(labels)
	if len(adjacency) != n {
		return nil, opError(op, ErrInvalidGraph, "adjacency rows do not match node count")
	}

	index := make(map[string]int, n)
	for i, label := range labels {
		if _, dup := index[label]; dup {
			return nil, nodeError(op, label, ErrDuplicateNode)
		}
		index[label] = i
	}

	weights := make([][]float64, n)
	for i, row := range adjacency {
		if len(row) != n {
			return nil, cellError(op, i, len(row), ErrInvalidGraph, "adjacency is not square")
		}
		weights[i] = make([]float64, n)
		for j, w := range row {
			if math.IsNaN(w) || math.IsInf(w, 0) {
				return nil, cellError(op, i, j, ErrInvalidGraph, "non-finite weight")
			}
			if w < 0 {
				return nil, cellError(op, i, j, ErrInvalidGraph, "negative weight")
			}
			weights[i][j] = w
		}
	}

	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if math.Abs(weights[i][j]-weights[j][i]) > symmetryTolerance {
				return nil, cellError(op, i, j, ErrInvalidGraph, "adjacency is not symmetric")
			}
			weights[j][i] = weights[i][j]
		}
	}

	return newGraph(labels, index, weights), nil
}

func newGraph(labels []string, index map[string]int, weights [][]float64) *Graph {
	n := len(labels)
	g := &Graph{
		labels:  append([]string(nil), labels...),
		index:   index,
		weights: weights,
		degrees: make([]float64, n),
	}

	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			w := weights[i][j]
			if w == 0 {
				continue
			}
			g.edgeCount++
			g.totalWeight += w
			if i == j {
				g.selfLoops++
				g.degrees[i] += 2 * w
				continue
			}
			g.degrees[i] += w
			g.degrees[j] += w
		}
	}

	return g
}
