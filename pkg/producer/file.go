package producer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/WALEDAMN/Dynamic-market-structure-and-stock-behavior-revealed-by-stock-correlation-networks/pkg/algorithms"
	"github.com/WALEDAMN/Dynamic-market-structure-and-stock-behavior-revealed-by-stock-correlation-networks/pkg/graph"
)

// File reads partitions computed outside this process, one
// "<window>.csv" file of label,community rows per window. The window
// label comes from the context (see WithWindow).
type File struct {
	dir string
}

// NewFile creates the "file" producer reading from dir
func NewFile(dir string) *File {
	return &File{dir: dir}
}

func (p *File) Name() string { return "file" }

func (p *File) Produce(ctx context.Context, g *graph.Graph, k int) (*Result, error) {
	window, ok := WindowFrom(ctx)
	if !ok {
		return nil, fail(p.Name(), "no window label in context", nil)
	}

	path := filepath.Join(p.dir, window+".csv")
	assignments, err := readAssignments(path)
	if err != nil {
		return nil, fail(p.Name(), "cannot read "+path, err)
	}

	partition, err := algorithms.FromAssignments(g.Labels(), assignments)
	if err != nil {
		return nil, fail(p.Name(), "assignments do not cover window "+window, err)
	}

	res := &Result{Partition: partition}
	if err := res.Validate(g.NodeCount(), k); err != nil {
		return nil, fail(p.Name(), "assignments rejected", err)
	}
	return res, nil
}

// readAssignments parses label,community rows. A first row whose second
// column is not an integer is treated as a header.
func readAssignments(path string) (map[string]int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = 2
	r.TrimLeadingSpace = true

	out := make(map[string]int)
	for line := 1; ; line++ {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		id, convErr := strconv.Atoi(strings.TrimSpace(rec[1]))
		if convErr != nil {
			if line == 1 {
				continue
			}
			return nil, fmt.Errorf("line %d: community %q is not an integer", line, rec[1])
		}
		label := strings.TrimSpace(rec[0])
		if _, dup := out[label]; dup {
			return nil, fmt.Errorf("line %d: duplicate label %q", line, label)
		}
		out[label] = id
	}
	return out, nil
}
