// Package gml loads the per-window correlation networks stored as GML
// documents, one file per time window.
package gml

import (
	"errors"
	"fmt"
	"math"

	"golang.org/x/exp/mmap"

	"github.com/WALEDAMN/Dynamic-market-structure-and-stock-behavior-revealed-by-stock-correlation-networks/pkg/graph"
)

// Options controls how GML attributes map onto the graph
type Options struct {
	// LabelKey names the node attribute used as the node label
	LabelKey string
	// WeightKey names the edge attribute holding the weight
	WeightKey string
	// Binary ignores weights and loads every edge with weight 1
	Binary bool
}

// DefaultOptions reads "label" and "weight" attributes
func DefaultOptions() Options {
	return Options{LabelKey: "label", WeightKey: "weight"}
}

func (o Options) withDefaults() Options {
	if o.LabelKey == "" {
		o.LabelKey = "label"
	}
	if o.WeightKey == "" {
		o.WeightKey = "weight"
	}
	return o
}

// ReadFile memory-maps path and decodes its graph
func ReadFile(path string, opts Options) (*graph.Graph, error) {
	r, err := mmap.Open(path)
	if err != nil {
		return nil, fmt.Errorf("gml: open %s: %w", path, err)
	}
	defer r.Close()

	doc, err := parse(r)
	if err != nil {
		var se *SyntaxError
		if errors.As(err, &se) {
			se.Path = path
		}
		return nil, err
	}

	g, err := Decode(doc, opts)
	if err != nil {
		return nil, fmt.Errorf("gml: %s: %w", path, err)
	}
	return g, nil
}

// Read decodes a graph from an in-memory document
func Read(data []byte, opts Options) (*graph.Graph, error) {
	doc, err := Parse(data)
	if err != nil {
		return nil, err
	}
	return Decode(doc, opts)
}

// Decode builds a graph from a parsed document. Nodes keep document
// order. Directed graphs, multigraphs and repeated edges are rejected.
func Decode(doc List, opts Options) (*graph.Graph, error) {
	opts = opts.withDefaults()

	v, ok := doc.Get("graph")
	if !ok {
		return nil, fmt.Errorf("%w: no graph list", graph.ErrInvalidGraph)
	}
	body, ok := v.(List)
	if !ok {
		return nil, fmt.Errorf("%w: graph is not a list", graph.ErrInvalidGraph)
	}

	for _, flag := range []string{"directed", "multigraph"} {
		if v, ok := body.Get(flag); ok {
			if n, isInt := v.(int64); isInt && n != 0 {
				return nil, fmt.Errorf("%w: %s graphs are not supported", graph.ErrInvalidGraph, flag)
			}
		}
	}

	b := graph.NewBuilder()
	byID := make(map[int64]int)
	for i, nv := range body.All("node") {
		node, ok := nv.(List)
		if !ok {
			return nil, fmt.Errorf("%w: node #%d is not a list", graph.ErrInvalidGraph, i)
		}
		id, ok := intAttr(node, "id")
		if !ok {
			return nil, fmt.Errorf("%w: node #%d has no integer id", graph.ErrInvalidGraph, i)
		}
		if _, dup := byID[id]; dup {
			return nil, fmt.Errorf("%w: node id %d is duplicated", graph.ErrInvalidGraph, id)
		}
		label, ok := labelAttr(node, opts.LabelKey)
		if !ok {
			return nil, fmt.Errorf("%w: node %d has no %q attribute", graph.ErrInvalidGraph, id, opts.LabelKey)
		}
		idx, err := b.AddNode(label)
		if err != nil {
			return nil, err
		}
		byID[id] = idx
	}

	seen := make(map[[2]int]bool)
	for i, ev := range body.All("edge") {
		edge, ok := ev.(List)
		if !ok {
			return nil, fmt.Errorf("%w: edge #%d is not a list", graph.ErrInvalidGraph, i)
		}
		src, okS := intAttr(edge, "source")
		dst, okT := intAttr(edge, "target")
		if !okS || !okT {
			return nil, fmt.Errorf("%w: edge #%d needs integer source and target", graph.ErrInvalidGraph, i)
		}
		u, okU := byID[src]
		w, okW := byID[dst]
		if !okU || !okW {
			return nil, fmt.Errorf("%w: edge #%d references unknown node", graph.ErrInvalidGraph, i)
		}

		key := [2]int{min(u, w), max(u, w)}
		if seen[key] {
			return nil, fmt.Errorf("%w: edge %d-%d is duplicated", graph.ErrInvalidGraph, src, dst)
		}
		seen[key] = true

		weight := 1.0
		if !opts.Binary {
			if v, ok := edge.Get(opts.WeightKey); ok {
				f, isNum := number(v)
				if !isNum {
					return nil, fmt.Errorf("%w: edge %d-%d has non-numeric %s", graph.ErrInvalidGraph, src, dst, opts.WeightKey)
				}
				weight = f
			}
		}
		if weight == 0 {
			continue
		}
		if err := b.AddEdge(u, w, weight); err != nil {
			return nil, err
		}
	}
	return b.Build(), nil
}

func intAttr(l List, key string) (int64, bool) {
	v, ok := l.Get(key)
	if !ok {
		return 0, false
	}
	n, ok := v.(int64)
	return n, ok
}

// labelAttr accepts string labels and stringifies numeric ones
func labelAttr(l List, key string) (string, bool) {
	v, ok := l.Get(key)
	if !ok {
		return "", false
	}
	switch x := v.(type) {
	case string:
		return x, true
	case int64:
		return fmt.Sprintf("%d", x), true
	case float64:
		return fmt.Sprintf("%g", x), true
	default:
		return "", false
	}
}

func number(v any) (float64, bool) {
	switch x := v.(type) {
	case int64:
		return float64(x), true
	case float64:
		return x, !math.IsNaN(x)
	default:
		return 0, false
	}
}
