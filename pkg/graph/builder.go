package graph

import (
	"fmt"
	"math"
)

// Builder accumulates nodes and edges and produces an immutable Graph.
// Adding an edge twice keeps the last weight, matching how a simple
// graph treats repeated edges.
type Builder struct {
	labels []string
	index  map[string]int
	edges  map[[2]int]float64
}

// NewBuilder creates an empty builder
func NewBuilder() *Builder {
	return &Builder{
		index: make(map[string]int),
		edges: make(map[[2]int]float64),
	}
}

// AddNode appends a node and returns its index.
func (b *Builder) AddNode(label string) (int, error) {
	if _, dup := b.index[label]; dup {
		return -1, nodeError("AddNode", label, ErrDuplicateNode)
	}
	i := len(b.labels)
	b.labels = append(b.labels, label)
	b.index[label] = i
	return i, nil
}

// NodeCount returns the number of nodes added so far
func (b *Builder) NodeCount() int {
	return len(b.labels)
}

// Index looks up a node by label
func (b *Builder) Index(label string) (int, bool) {
	i, ok := b.index[label]
	return i, ok
}

// AddEdge sets the weight of the undirected edge (u, v).
func (b *Builder) AddEdge(u, v int, weight float64) error {
	const op = "AddEdge"
	n := len(b.labels)
	if u < 0 || u >= n || v < 0 || v >= n {
		return cellError(op, u, v, ErrNodeOutOfRange, fmt.Sprintf("%d nodes", n))
	}
	if math.IsNaN(weight) || math.IsInf(weight, 0) {
		return cellError(op, u, v, ErrInvalidGraph, "non-finite weight")
	}
	if weight < 0 {
		return cellError(op, u, v, ErrInvalidGraph, "negative weight")
	}
	if u > v {
		u, v = v, u
	}
	b.edges[[2]int{u, v}] = weight
	return nil
}

// AddEdgeByLabel sets the weight of the edge between two labelled nodes.
func (b *Builder) AddEdgeByLabel(from, to string, weight float64) error {
	u, ok := b.index[from]
	if !ok {
		return nodeError("AddEdgeByLabel", from, ErrNodeOutOfRange)
	}
	v, ok := b.index[to]
	if !ok {
		return nodeError("AddEdgeByLabel", to, ErrNodeOutOfRange)
	}
	return b.AddEdge(u, v, weight)
}

// Build produces the graph. The builder may keep being used afterwards;
// the returned graph does not share state with it.
func (b *Builder) Build() *Graph {
	n := len(b.labels)
	weights := make([][]float64, n)
	for i := range weights {
		weights[i] = make([]float64, n)
	}
	for key, w := range b.edges {
		weights[key[0]][key[1]] = w
		weights[key[1]][key[0]] = w
	}

	index := make(map[string]int, n)
	for label, i := range b.index {
		index[label] = i
	}

	return newGraph(b.labels, index, weights)
}
