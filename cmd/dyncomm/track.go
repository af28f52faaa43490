package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/WALEDAMN/Dynamic-market-structure-and-stock-behavior-revealed-by-stock-correlation-networks/pkg/logging"
	"github.com/WALEDAMN/Dynamic-market-structure-and-stock-behavior-revealed-by-stock-correlation-networks/pkg/progress"
	"github.com/WALEDAMN/Dynamic-market-structure-and-stock-behavior-revealed-by-stock-correlation-networks/pkg/pubsub"
	"github.com/WALEDAMN/Dynamic-market-structure-and-stock-behavior-revealed-by-stock-correlation-networks/pkg/report"
	"github.com/WALEDAMN/Dynamic-market-structure-and-stock-behavior-revealed-by-stock-correlation-networks/pkg/tracking"
)

// flushTimeout bounds report writes of a run that was interrupted
const flushTimeout = 30 * time.Second

func newTrackCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "track",
		Short: "Partition every window and track community membership over time",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.track(cmd.Context())
		},
	}
}

func (a *app) track(ctx context.Context) error {
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

	broker, observer, release, err := a.observers()
	if err != nil {
		return err
	}
	defer release()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	pipeline, err := tracking.NewPipeline(tracking.PipelineConfig{
		Producer: prods[0],
		K:        a.cfg.K,
		Workers:  a.cfg.EffectiveWorkers(),
		Logger:   a.logger,
		Metrics:  a.metrics,
		Observer: observer,
	})
	if err != nil {
		return err
	}

	var run *tracking.Run
	var runErr error
	if a.cfg.Progress {
		run, runErr = a.trackWithProgress(runCtx, cancel, pipeline, broker, windows)
	} else {
		run, runErr = pipeline.Run(runCtx, windows)
	}
	if run == nil || len(run.Records) == 0 {
		return runErr
	}

	// An interrupted run still reports the slices it finished
	writeCtx := ctx
	if runErr != nil {
		var stop context.CancelFunc
		writeCtx, stop = context.WithTimeout(context.WithoutCancel(ctx), flushTimeout)
		defer stop()
	}

	result := report.FromTracking(run)
	if err := w.WriteRun(writeCtx, result); err != nil {
		return errors.Join(runErr, err)
	}
	if err := a.saveRuns(writeCtx, result); err != nil {
		return errors.Join(runErr, err)
	}

	fmt.Fprintln(a.stdout, progress.RenderSummary(report.Summarize(result)))
	if dropped := broker.Dropped(); dropped > 0 {
		a.logger.Warn("slice events dropped by slow subscribers", logging.Int64("dropped", int64(dropped)))
	}
	return runErr
}

// trackWithProgress runs the pipeline behind a live terminal view. The
// view quits once every window reported or the subscription closes.
func (a *app) trackWithProgress(ctx context.Context, cancel context.CancelFunc, p *tracking.Pipeline, broker *pubsub.Broker, windows []tracking.Window) (*tracking.Run, error) {
	// The subscription outlives ctx so a cancelled run never races the
	// channel close against a publish
	sub, err := broker.Subscribe(context.Background(), pubsub.TopicAll)
	if err != nil {
		return nil, err
	}

	type outcome struct {
		run *tracking.Run
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		run, err := p.Run(ctx, windows)
		sub.Unsubscribe()
		done <- outcome{run, err}
	}()

	title := fmt.Sprintf("dyncomm track: %s, k=%d", a.cfg.Producer.Name, a.cfg.K)
	model := progress.NewModel(title, len(windows), sub.Events(), cancel)
	if _, err := tea.NewProgram(model, tea.WithOutput(a.stdout)).Run(); err != nil {
		cancel()
		a.logger.Warn("progress view failed", logging.Error(err))
	}

	out := <-done
	return out.run, out.err
}
