package algorithms

import (
	"math"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gonumgraph "gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/community"
	"gonum.org/v1/gonum/graph/simple"

	"github.com/WALEDAMN/Dynamic-market-structure-and-stock-behavior-revealed-by-stock-correlation-networks/pkg/graph"
)

func TestModularity_TwoCliques(t *testing.T) {
	// {0,1} and {2,3}, fully connected within groups, nothing between
	g := buildTestGraph(t, 4, [][2]int{{0, 1}, {2, 3}})

	q, err := Modularity(g, Partition{0, 0, 1, 1})
	require.NoError(t, err)
	assert.InDelta(t, 0.5, q, 1e-12)
}

func TestModularity_SingleCommunityIsZero(t *testing.T) {
	g := buildTestGraph(t, 4, [][2]int{{0, 1}, {1, 2}, {2, 3}, {3, 0}})

	q, err := Modularity(g, Partition{3, 3, 3, 3})
	require.NoError(t, err)
	assert.InDelta(t, 0.0, q, 1e-12)
}

func TestModularity_SingletonsAreNegative(t *testing.T) {
	g := buildTestGraph(t, 3, [][2]int{{0, 1}, {1, 2}, {0, 2}})

	q, err := Modularity(g, Partition{0, 1, 2})
	require.NoError(t, err)
	// Each node: e_c = 0, d_c = 2, 2m = 6
	assert.InDelta(t, -3.0*(2.0/6.0)*(2.0/6.0), q, 1e-12)
}

func TestModularity_SelfLoopConvention(t *testing.T) {
	b := graph.NewBuilder()
	b.AddNode("a")
	b.AddNode("b")
	b.AddNode("c")
	b.AddEdge(0, 0, 1)
	b.AddEdge(0, 1, 1)
	b.AddEdge(1, 2, 1)
	g := b.Build()

	// m = 3, degrees a=3 b=2 c=1; {a,b}: e = 2, d = 5; {c}: e = 0, d = 1
	q, err := Modularity(g, Partition{0, 0, 1})
	require.NoError(t, err)
	expected := (2.0/3.0 - (5.0/6.0)*(5.0/6.0)) + (0 - (1.0/6.0)*(1.0/6.0))
	assert.InDelta(t, expected, q, 1e-12)
}

func TestModularity_ZeroEdges(t *testing.T) {
	g := buildTestGraph(t, 3, nil)

	q, err := Modularity(g, Partition{0, 1, 2})
	require.ErrorIs(t, err, ErrInvalidGraph)
	assert.True(t, math.IsNaN(q), "expected NaN, got %v", q)
}

func TestModularity_Coverage(t *testing.T) {
	g := buildTestGraph(t, 3, [][2]int{{0, 1}})

	tests := []struct {
		name string
		p    Partition
	}{
		{"too short", Partition{0, 0}},
		{"too long", Partition{0, 0, 1, 1}},
		{"unassigned", Partition{0, Unassigned, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := Modularity(g, tt.p)
			assert.ErrorIs(t, err, ErrPartitionCoverage)
			assert.True(t, math.IsNaN(q))
		})
	}
}

func TestModularity_MatchesGonum(t *testing.T) {
	for seed := int64(1); seed <= 20; seed++ {
		g := randomGraph(seed, 25, 0.15)
		p := randomPartition(seed*31, 25, 4)

		q, err := Modularity(g, p)
		require.NoError(t, err)
		assert.InDelta(t, gonumModularity(g, p), q, 1e-9, "seed %d", seed)
	}
}

// gonumModularity scores p with gonum's independent implementation
func gonumModularity(g *graph.Graph, p Partition) float64 {
	ug := simple.NewWeightedUndirectedGraph(0, 0)
	n := g.NodeCount()
	for i := 0; i < n; i++ {
		ug.AddNode(simple.Node(i))
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if w := g.Weight(i, j); w != 0 {
				ug.SetWeightedEdge(simple.WeightedEdge{F: simple.Node(i), T: simple.Node(j), W: w})
			}
		}
	}

	var communities [][]gonumgraph.Node
	for _, group := range p.Groups() {
		nodes := make([]gonumgraph.Node, len(group))
		for k, idx := range group {
			nodes[k] = simple.Node(idx)
		}
		communities = append(communities, nodes)
	}
	return community.Q(ug, communities, 1)
}

func TestModularityProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50

	properties := gopter.NewProperties(parameters)

	// Property 1: one community never scores above zero
	properties.Property("single community has Q <= 0", prop.ForAll(
		func(seed int64, n int) bool {
			g := randomGraph(seed, n, 0.3)
			p := make(Partition, n)

			q, err := Modularity(g, p)
			return err == nil && q <= 1e-12
		},
		gen.Int64(),
		gen.IntRange(2, 30),
	))

	// Property 2: scoring is a pure function of its inputs
	properties.Property("score is deterministic", prop.ForAll(
		func(seed int64, k int) bool {
			g := randomGraph(seed, 20, 0.25)
			p := randomPartition(seed, 20, k)

			q1, err1 := Modularity(g, p)
			q2, err2 := Modularity(g, p)
			return err1 == nil && err2 == nil && q1 == q2
		},
		gen.Int64(),
		gen.IntRange(1, 6),
	))

	// Property 3: renaming communities does not change the grouping
	properties.Property("score invariant under id permutation", prop.ForAll(
		func(seed int64, k int, offset int) bool {
			g := randomGraph(seed, 20, 0.25)
			p := randomPartition(seed+1, 20, k)

			// Reverse the id order and shift it
			mapping := make(map[int]int, k)
			for id := 0; id < k; id++ {
				mapping[id] = (k-1-id)*3 + offset
			}
			relabelled := p.Relabel(mapping)

			q1, err1 := Modularity(g, p)
			q2, err2 := Modularity(g, relabelled)
			return err1 == nil && err2 == nil && math.Abs(q1-q2) < 1e-12
		},
		gen.Int64(),
		gen.IntRange(1, 6),
		gen.IntRange(0, 50),
	))

	properties.TestingRun(t)
}
