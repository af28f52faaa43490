package gml

import (
	"errors"
	"fmt"
)

// ErrSyntax is matched by every malformed-document error
var ErrSyntax = errors.New("gml syntax error")

// SyntaxError locates a problem in a GML document
type SyntaxError struct {
	Path string
	Line int
	Msg  string
}

func (e *SyntaxError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("gml: %s:%d: %s", e.Path, e.Line, e.Msg)
	}
	return fmt.Sprintf("gml: line %d: %s", e.Line, e.Msg)
}

func (e *SyntaxError) Is(target error) bool {
	return target == ErrSyntax
}
