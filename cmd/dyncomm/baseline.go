package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/WALEDAMN/Dynamic-market-structure-and-stock-behavior-revealed-by-stock-correlation-networks/pkg/baseline"
	"github.com/WALEDAMN/Dynamic-market-structure-and-stock-behavior-revealed-by-stock-correlation-networks/pkg/logging"
	"github.com/WALEDAMN/Dynamic-market-structure-and-stock-behavior-revealed-by-stock-correlation-networks/pkg/progress"
)

func newBaselineCmd(a *app, v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "baseline",
		Short: "Score several producers on every window without tracking",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.baseline(cmd.Context())
		},
	}
	cmd.Flags().StringSlice("methods", nil, "producers to compare (default spectral,kmeans,gmm,meanshift)")
	bindFlags(v, cmd, map[string]string{"methods": "baseline.methods"})
	return cmd
}

func (a *app) baseline(ctx context.Context) error {
	windows, err := a.windows()
	if err != nil {
		return err
	}
	prods, err := a.producers(a.cfg.Baseline.Methods...)
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

	table, runErr := baseline.Run(ctx, windows, baseline.Config{
		Producers: prods,
		K:         a.cfg.K,
		Workers:   a.cfg.EffectiveWorkers(),
		Logger:    a.logger,
		Metrics:   a.metrics,
		OnWindow: func(done, total int, window string) {
			a.logger.Info("baseline progress",
				logging.Window(window),
				logging.Int("done", done),
				logging.Int("total", total),
			)
		},
	})
	if table == nil {
		return runErr
	}

	writeCtx := ctx
	if runErr != nil {
		var stop context.CancelFunc
		writeCtx, stop = context.WithTimeout(context.WithoutCancel(ctx), flushTimeout)
		defer stop()
	}
	if err := w.WriteBaseline(writeCtx, table); err != nil {
		return errors.Join(runErr, err)
	}

	fmt.Fprintln(a.stdout, progress.RenderBaseline(table))
	for method, n := range table.Failures() {
		if n > 0 {
			a.logger.Warn("method failed on some windows", logging.Producer(method), logging.Count(n))
		}
	}
	return runErr
}
