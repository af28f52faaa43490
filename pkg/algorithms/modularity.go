package algorithms

import (
	"fmt"
	"math"

	"github.com/WALEDAMN/Dynamic-market-structure-and-stock-behavior-revealed-by-stock-correlation-networks/pkg/graph"
)

// Modularity computes Newman's modularity of partition p on g:
//
//	Q = sum_c [ e_c/m - (d_c/2m)^2 ]
//
// e_c is the weight of edges inside c (self-loops once), d_c the summed
// degree of c's nodes (self-loops twice) and m half the degree sum.
// A graph without edge weight has no defined modularity: NaN is
// returned together with an ErrInvalidGraph error.
func Modularity(g *graph.Graph, p Partition) (float64, error) {
	n := g.NodeCount()
	if err := p.Validate(n); err != nil {
		return math.NaN(), err
	}

	degreeSum := 0.0
	for i := 0; i < n; i++ {
		degreeSum += g.Degree(i)
	}
	if degreeSum == 0 {
		return math.NaN(), fmt.Errorf("modularity: %w: graph has no edge weight", ErrInvalidGraph)
	}
	m := degreeSum / 2

	ids := p.IDs()
	slot := make(map[int]int, len(ids))
	for i, id := range ids {
		slot[id] = i
	}

	internal := make([]float64, len(ids))
	degrees := make([]float64, len(ids))
	for i := 0; i < n; i++ {
		c := slot[p[i]]
		degrees[c] += g.Degree(i)

		row := g.Row(i)
		for j := i; j < n; j++ {
			if row[j] != 0 && p[j] == p[i] {
				internal[c] += row[j]
			}
		}
	}

	q := 0.0
	for c := range ids {
		share := degrees[c] / degreeSum
		q += internal[c]/m - share*share
	}
	return q, nil
}

// Describe summarises each community of p on g, ordered by ascending id.
func Describe(g *graph.Graph, p Partition) ([]*Community, error) {
	if err := p.Validate(g.NodeCount()); err != nil {
		return nil, err
	}

	members := p.Members()
	communities := make([]*Community, 0, len(members))
	for _, id := range p.IDs() {
		nodes := members[id]
		c := &Community{ID: id, Members: nodes, Size: len(nodes)}

		if len(nodes) > 1 {
			edges := 0
			for a := 0; a < len(nodes); a++ {
				for b := a + 1; b < len(nodes); b++ {
					if g.Weight(nodes[a], nodes[b]) != 0 {
						edges++
					}
				}
			}
			possible := len(nodes) * (len(nodes) - 1) / 2
			c.Density = float64(edges) / float64(possible)
		}

		communities = append(communities, c)
	}
	return communities, nil
}

// Communities returns the node indices of each community of p, ordered
// by ascending community id.
func Communities(p Partition) [][]int {
	return p.Groups()
}
