package tracking

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/WALEDAMN/Dynamic-market-structure-and-stock-behavior-revealed-by-stock-correlation-networks/pkg/algorithms"
	"github.com/WALEDAMN/Dynamic-market-structure-and-stock-behavior-revealed-by-stock-correlation-networks/pkg/graph"
	"github.com/WALEDAMN/Dynamic-market-structure-and-stock-behavior-revealed-by-stock-correlation-networks/pkg/producer"
)

// cliqueGraph joins consecutive groups of labels into unit-weight cliques
func cliqueGraph(t *testing.T, groups ...[]string) *graph.Graph {
	t.Helper()
	b := graph.NewBuilder()
	for _, group := range groups {
		for _, label := range group {
			_, err := b.AddNode(label)
			require.NoError(t, err)
		}
	}
	for _, group := range groups {
		for i := range group {
			for j := i + 1; j < len(group); j++ {
				require.NoError(t, b.AddEdgeByLabel(group[i], group[j], 1))
			}
		}
	}
	return b.Build()
}

func edgelessGraph(t *testing.T, labels ...string) *graph.Graph {
	t.Helper()
	b := graph.NewBuilder()
	for _, label := range labels {
		_, err := b.AddNode(label)
		require.NoError(t, err)
	}
	return b.Build()
}

var errScripted = errors.New("scripted failure")

// scriptedProducer returns a fixed partition per window label
type scriptedProducer struct {
	partitions map[string]algorithms.Partition
	failing    map[string]bool
	delays     map[string]time.Duration
	block      map[string]bool

	mu    sync.Mutex
	calls []string
}

func (s *scriptedProducer) Name() string { return "scripted" }

func (s *scriptedProducer) Produce(ctx context.Context, g *graph.Graph, k int) (*producer.Result, error) {
	window, _ := producer.WindowFrom(ctx)
	s.mu.Lock()
	s.calls = append(s.calls, window)
	s.mu.Unlock()

	if s.block[window] {
		<-ctx.Done()
		return nil, &producer.Failure{Producer: s.Name(), Reason: "interrupted", Cause: ctx.Err()}
	}
	if d := s.delays[window]; d > 0 {
		select {
		case <-time.After(d):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if s.failing[window] {
		return nil, &producer.Failure{Producer: s.Name(), Reason: "no result", Cause: errScripted}
	}
	p, ok := s.partitions[window]
	if !ok {
		return nil, fmt.Errorf("%w: no script for %q", producer.ErrProducerFailure, window)
	}
	return &producer.Result{Partition: p.Clone()}, nil
}

type failingSource struct{}

func (failingSource) Load(context.Context) (*graph.Graph, error) {
	return nil, errors.New("file truncated")
}
