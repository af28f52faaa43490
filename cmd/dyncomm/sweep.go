package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/WALEDAMN/Dynamic-market-structure-and-stock-behavior-revealed-by-stock-correlation-networks/pkg/logging"
	"github.com/WALEDAMN/Dynamic-market-structure-and-stock-behavior-revealed-by-stock-correlation-networks/pkg/progress"
	"github.com/WALEDAMN/Dynamic-market-structure-and-stock-behavior-revealed-by-stock-correlation-networks/pkg/report"
	"github.com/WALEDAMN/Dynamic-market-structure-and-stock-behavior-revealed-by-stock-correlation-networks/pkg/tracking"
)

func newSweepCmd(a *app, v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Track with every community count in [kmin, kmax] and compare mean modularity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.sweep(cmd.Context())
		},
	}
	cmd.Flags().Int("kmin", 0, "smallest community count (default 3)")
	cmd.Flags().Int("kmax", 0, "largest community count (default 10)")
	bindFlags(v, cmd, map[string]string{"kmin": "sweep.kmin", "kmax": "sweep.kmax"})
	return cmd
}

func (a *app) sweep(ctx context.Context) error {
	windows, err := a.windows()
	if err != nil {
		return err
	}
	prods, err := a.producers(a.cfg.Producer.Name)
	if err != nil {
		return err
	}
	w, err := a.writer(ctx)
	if err != nil {
		return err
	}
	stopMetrics, err := a.serveMetrics()
	if err != nil {
		return err
	}
	defer stopMetrics()

	_, observer, release, err := a.observers()
	if err != nil {
		return err
	}
	defer release()

	total := a.cfg.Sweep.KMax - a.cfg.Sweep.KMin + 1
	results, sweepErr := tracking.Sweep(ctx, windows, tracking.SweepConfig{
		Base: tracking.PipelineConfig{
			Producer: prods[0],
			Workers:  a.cfg.EffectiveWorkers(),
			Logger:   a.logger,
			Metrics:  a.metrics,
			Observer: observer,
		},
		KMin: a.cfg.Sweep.KMin,
		KMax: a.cfg.Sweep.KMax,
		OnK: func(res tracking.SweepResult) {
			a.logger.Info("sweep progress",
				logging.K(res.K),
				logging.Int("done", res.K-a.cfg.Sweep.KMin+1),
				logging.Int("total", total),
			)
		},
	})
	if len(results) == 0 {
		return sweepErr
	}

	writeCtx := ctx
	if sweepErr != nil {
		var stop context.CancelFunc
		writeCtx, stop = context.WithTimeout(context.WithoutCancel(ctx), flushTimeout)
		defer stop()
	}

	if err := w.WriteSweep(writeCtx, results); err != nil {
		return errors.Join(sweepErr, err)
	}
	runs := make([]*report.Run, len(results))
	for i, res := range results {
		runs[i] = report.FromTracking(res.Run)
	}
	if err := a.saveRuns(writeCtx, runs...); err != nil {
		return errors.Join(sweepErr, err)
	}

	fmt.Fprintln(a.stdout, progress.RenderSweep(results))
	if best, ok := tracking.Best(results); ok {
		a.logger.Info("best community count", logging.K(best.K), logging.Quality(best.MeanQuality))
	}
	return sweepErr
}
