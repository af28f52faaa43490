package graph

import (
	"errors"
	"fmt"
)

// Sentinel errors
var (
	// ErrInvalidGraph marks a graph that cannot be scored or built:
	// zero total edge weight, non-symmetric or negative adjacency.
	ErrInvalidGraph   = errors.New("invalid graph")
	ErrDuplicateNode  = errors.New("duplicate node label")
	ErrNodeOutOfRange = errors.New("node index out of range")
)

// Error provides structured error information for graph operations.
type Error struct {
	Op      string // Operation that failed (e.g., "AddEdge", "FromAdjacency")
	Node    string // Node label (if applicable)
	Row     int    // Adjacency row (-1 if not applicable)
	Col     int    // Adjacency column (-1 if not applicable)
	Cause   error  // Underlying error
	Context string // Additional context
}

// Error implements the error interface.
func (e *Error) Error() string {
	switch {
	case e.Row >= 0 && e.Col >= 0:
		if e.Context != "" {
			return fmt.Sprintf("%s [%d,%d] (%s): %v", e.Op, e.Row, e.Col, e.Context, e.Cause)
		}
		return fmt.Sprintf("%s [%d,%d]: %v", e.Op, e.Row, e.Col, e.Cause)
	case e.Node != "":
		return fmt.Sprintf("%s node %q: %v", e.Op, e.Node, e.Cause)
	case e.Context != "":
		return fmt.Sprintf("%s (%s): %v", e.Op, e.Context, e.Cause)
	default:
		return fmt.Sprintf("%s: %v", e.Op, e.Cause)
	}
}

// Unwrap returns the underlying cause for error chain support.
func (e *Error) Unwrap() error {
	return e.Cause
}

func cellError(op string, row, col int, cause error, context string) error {
	return &Error{Op: op, Row: row, Col: col, Cause: cause, Context: context}
}

func nodeError(op, label string, cause error) error {
	return &Error{Op: op, Node: label, Row: -1, Col: -1, Cause: cause}
}

func opError(op string, cause error, context string) error {
	return &Error{Op: op, Row: -1, Col: -1, Cause: cause, Context: context}
}

// IsInvalid returns true if the error marks an unusable graph.
func IsInvalid(err error) bool {
	return errors.Is(err, ErrInvalidGraph)
}
