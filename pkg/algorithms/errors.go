package algorithms

import (
	"errors"

	"github.com/WALEDAMN/Dynamic-market-structure-and-stock-behavior-revealed-by-stock-correlation-networks/pkg/graph"
)

var (
	// ErrInvalidGraph is returned when a graph cannot be scored, e.g. it has no edge weight.
	ErrInvalidGraph = graph.ErrInvalidGraph

	// ErrPartitionCoverage is returned when a partition omits nodes or
	// does not match the graph's node count.
	ErrPartitionCoverage = errors.New("partition does not cover every node exactly once")

	// ErrPartitionSizeMismatch is returned when two partitions that must
	// be compared node by node have different lengths.
	ErrPartitionSizeMismatch = errors.New("partition sizes differ")
)
