package gml

import (
	"bufio"
	"fmt"
	"html"
	"io"
	"strconv"

	"github.com/WALEDAMN/Dynamic-market-structure-and-stock-behavior-revealed-by-stock-correlation-networks/pkg/graph"
)

// CommunityKey is the node attribute written by WriteCommunities
const CommunityKey = "community"

// Write encodes g as an undirected GML document readable by Read and by
// networkx.read_gml(label="label").
func Write(w io.Writer, g *graph.Graph) error {
	return write(w, g, nil)
}

// WriteCommunities is Write with each node's community id stored under
// CommunityKey, ready for colouring in Gephi or networkx.
func WriteCommunities(w io.Writer, g *graph.Graph, communities []int) error {
	if len(communities) != g.NodeCount() {
		return fmt.Errorf("%d community ids for %d nodes", len(communities), g.NodeCount())
	}
	return write(w, g, communities)
}

func write(w io.Writer, g *graph.Graph, communities []int) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintln(bw, "graph [")
	fmt.Fprintln(bw, "  directed 0")
	n := g.NodeCount()
	for i := 0; i < n; i++ {
		fmt.Fprintf(bw, "  node [\n    id %d\n    label \"%s\"\n", i, html.EscapeString(g.Label(i)))
		if communities != nil {
			fmt.Fprintf(bw, "    %s %d\n", CommunityKey, communities[i])
		}
		fmt.Fprintln(bw, "  ]")
	}
	for i := 0; i < n; i++ {
		row := g.Row(i)
		for j := i; j < n; j++ {
			if row[j] == 0 {
				continue
			}
			fmt.Fprintf(bw, "  edge [\n    source %d\n    target %d\n    weight %s\n  ]\n",
				i, j, strconv.FormatFloat(row[j], 'g', -1, 64))
		}
	}
	fmt.Fprintln(bw, "]")
	return bw.Flush()
}
