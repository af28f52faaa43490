package producer

import (
	"context"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/WALEDAMN/Dynamic-market-structure-and-stock-behavior-revealed-by-stock-correlation-networks/pkg/algorithms"
	"github.com/WALEDAMN/Dynamic-market-structure-and-stock-behavior-revealed-by-stock-correlation-networks/pkg/graph"
)

const gmmVarianceFloor = 1e-6

// GMM fits a diagonal-covariance Gaussian mixture to the standardised
// adjacency rows by expectation maximisation, starting from k-means.
type GMM struct {
	opts Options
}

// NewGMM creates the "gmm" producer
func NewGMM(opts Options) *GMM {
	return &GMM{opts: opts.withDefaults()}
}

func (p *GMM) Name() string { return "gmm" }

func (p *GMM) Produce(ctx context.Context, g *graph.Graph, k int) (*Result, error) {
	if err := checkK(p.Name(), g, k); err != nil {
		return nil, err
	}

	features := adjacencyFeatures(g)
	seed, err := kmeans(ctx, features, k, p.opts)
	if err != nil {
		return nil, fail(p.Name(), "initialisation interrupted", err)
	}

	labels, err := fitMixture(ctx, features, seed, p.opts)
	if err != nil {
		return nil, fail(p.Name(), "expectation maximisation interrupted", err)
	}
	return &Result{Partition: labels.Canonical(), Embedding: features}, nil
}

type mixture struct {
	logWeights []float64
	means      [][]float64
	variances  [][]float64
}

func fitMixture(ctx context.Context, x [][]float64, seed *kmeansFit, opts Options) (algorithms.Partition, error) {
	n, k, dim := len(x), len(seed.centroids), len(x[0])

	// Hard responsibilities from k-means seed the first M step
	resp := make([][]float64, n)
	for i := range resp {
		resp[i] = make([]float64, k)
		resp[i][seed.labels[i]] = 1
	}

	m := &mixture{
		logWeights: make([]float64, k),
		means:      make([][]float64, k),
		variances:  make([][]float64, k),
	}
	for c := 0; c < k; c++ {
		m.means[c] = make([]float64, dim)
		m.variances[c] = make([]float64, dim)
	}

	logLik := math.Inf(-1)
	logp := make([]float64, k)
	for iter := 0; iter < opts.MaxIterations; iter++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		m.maximise(x, resp)

		// E step
		total := 0.0
		for i, row := range x {
			for c := 0; c < k; c++ {
				logp[c] = m.logWeights[c] + m.logDensity(c, row)
			}
			norm := floats.LogSumExp(logp)
			total += norm
			for c := 0; c < k; c++ {
				resp[i][c] = math.Exp(logp[c] - norm)
			}
		}
		total /= float64(n)

		if math.Abs(total-logLik) < opts.Tolerance {
			break
		}
		logLik = total
	}

	labels := make(algorithms.Partition, n)
	for i := range resp {
		labels[i] = floats.MaxIdx(resp[i])
	}
	return labels, nil
}

func (m *mixture) maximise(x [][]float64, resp [][]float64) {
	n := float64(len(x))
	for c := range m.means {
		weight := 0.0
		for i := range x {
			weight += resp[i][c]
		}
		// Keep an emptied component alive with negligible weight
		if weight < 1e-10 {
			weight = 1e-10
		}
		m.logWeights[c] = math.Log(weight / n)

		mean := m.means[c]
		clear(mean)
		for i, row := range x {
			floats.AddScaled(mean, resp[i][c], row)
		}
		floats.Scale(1/weight, mean)

		variance := m.variances[c]
		clear(variance)
		for i, row := range x {
			r := resp[i][c]
			for j, v := range row {
				d := v - mean[j]
				variance[j] += r * d * d
			}
		}
		for j := range variance {
			variance[j] = variance[j]/weight + gmmVarianceFloor
		}
	}
}

func (m *mixture) logDensity(c int, row []float64) float64 {
	mean, variance := m.means[c], m.variances[c]
	s := 0.0
	for j, v := range row {
		d := v - mean[j]
		s += math.Log(2*math.Pi*variance[j]) + d*d/variance[j]
	}
	return -0.5 * s
}
