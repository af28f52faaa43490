package tracking

import (
	"context"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/WALEDAMN/Dynamic-market-structure-and-stock-behavior-revealed-by-stock-correlation-networks/pkg/logging"
)

// SweepResult summarises one community count of a sweep
type SweepResult struct {
	K           int
	MeanQuality float64 // NaN when no slice succeeded
	ValidSlices int
	TotalSlices int
	Run         *Run
}

// SweepConfig configures Sweep. Base.K is ignored.
type SweepConfig struct {
	Base PipelineConfig
	KMin int
	KMax int
	// OnK is called after each community count completes
	OnK func(res SweepResult)
}

// Sweep runs a fresh pipeline for every k in [KMin, KMax] over the same
// windows and reports the mean modularity of each.
func Sweep(ctx context.Context, windows []Window, cfg SweepConfig) ([]SweepResult, error) {
	if cfg.KMin < 1 || cfg.KMax < cfg.KMin {
		return nil, fmt.Errorf("%w: sweep range [%d, %d]", ErrInvalidPipeline, cfg.KMin, cfg.KMax)
	}
	logger := logging.OrNop(cfg.Base.Logger).With(logging.Component("sweep"))

	results := make([]SweepResult, 0, cfg.KMax-cfg.KMin+1)
	for k := cfg.KMin; k <= cfg.KMax; k++ {
		pcfg := cfg.Base
		pcfg.K = k
		p, err := NewPipeline(pcfg)
		if err != nil {
			return results, err
		}

		run, err := p.Run(ctx, windows)
		if err != nil {
			return results, fmt.Errorf("sweep k=%d: %w", k, err)
		}

		res := SweepResult{
			K:           k,
			MeanQuality: run.MeanQuality(),
			ValidSlices: len(run.Valid()),
			TotalSlices: len(run.Records),
			Run:         run,
		}
		if math.IsNaN(res.MeanQuality) {
			logger.Warn("no valid slice for community count", logging.K(k))
		} else {
			logger.Info("community count scored", logging.K(k), logging.Quality(res.MeanQuality))
		}
		if m := cfg.Base.Metrics; m != nil {
			m.SetSweepMean(k, res.MeanQuality)
		}
		results = append(results, res)
		if cfg.OnK != nil {
			cfg.OnK(res)
		}
	}
	return results, nil
}

// Best returns the result with the highest mean modularity, ignoring
// counts without valid slices. ok is false when none qualifies.
func Best(results []SweepResult) (best SweepResult, ok bool) {
	for _, r := range results {
		if math.IsNaN(r.MeanQuality) {
			continue
		}
		if !ok || r.MeanQuality > best.MeanQuality {
			best, ok = r, true
		}
	}
	return best, ok
}

func meanQuality(records []*Record) float64 {
	var values []float64
	for _, r := range records {
		if r.HasQuality() {
			values = append(values, r.Quality)
		}
	}
	if len(values) == 0 {
		return math.NaN()
	}
	return stat.Mean(values, nil)
}
