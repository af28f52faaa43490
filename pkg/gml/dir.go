package gml

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/WALEDAMN/Dynamic-market-structure-and-stock-behavior-revealed-by-stock-correlation-networks/pkg/graph"
)

// labelToken is the position of the date token in window file names,
// e.g. "csi300_corr_net_pmfg_w60_20190131.gml" -> "20190131"
const labelToken = 5

// Window is one GML file of a directory, in time order
type Window struct {
	// Label is the date token of the file name plus a two-digit index
	Label string
	// Index is 1-based in sorted file name order
	Index int
	Path  string
	Opts  Options
}

// Load reads the window's graph
func (w Window) Load(ctx context.Context) (*graph.Graph, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return ReadFile(w.Path, w.Opts)
}

// Dir lists the *.gml files of dir sorted by file name
func Dir(dir string, opts Options) ([]Window, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("gml: list %s: %w", dir, err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".gml") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	windows := make([]Window, len(names))
	for i, name := range names {
		windows[i] = Window{
			Label: WindowLabel(name, i+1),
			Index: i + 1,
			Path:  filepath.Join(dir, name),
			Opts:  opts,
		}
	}
	return windows, nil
}

// WindowLabel derives "<token>_<NN>" from the sixth underscore-separated
// token of the file name (extension removed). Shorter names fall back
// to the bare name.
func WindowLabel(name string, index int) string {
	base := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	tokens := strings.Split(base, "_")
	token := base
	if len(tokens) > labelToken {
		token = tokens[labelToken]
	}
	return fmt.Sprintf("%s_%02d", token, index)
}
