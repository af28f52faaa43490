package algorithms

import (
	"container/list"

	"github.com/WALEDAMN/Dynamic-market-structure-and-stock-behavior-revealed-by-stock-correlation-networks/pkg/graph"
)

// ConnectedComponents labels each node with the index of its connected
// component. Components are numbered in order of their lowest node.
func ConnectedComponents(g *graph.Graph) Partition {
	n := g.NodeCount()
	component := make(Partition, n)
	for i := range component {
		component[i] = Unassigned
	}

	next := 0

	// BFS to find each component
	for start := 0; start < n; start++ {
		if component[start] != Unassigned {
			continue
		}

		queue := list.New()
		queue.PushBack(start)
		component[start] = next

		for queue.Len() > 0 {
			node, ok := queue.Remove(queue.Front()).(int)
			if !ok {
				continue
			}
			for _, neighbor := range g.Neighbors(node) {
				if component[neighbor] == Unassigned {
					component[neighbor] = next
					queue.PushBack(neighbor)
				}
			}
		}

		next++
	}

	return component
}
