package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/WALEDAMN/Dynamic-market-structure-and-stock-behavior-revealed-by-stock-correlation-networks/pkg/config"
	"github.com/WALEDAMN/Dynamic-market-structure-and-stock-behavior-revealed-by-stock-correlation-networks/pkg/gml"
	"github.com/WALEDAMN/Dynamic-market-structure-and-stock-behavior-revealed-by-stock-correlation-networks/pkg/logging"
	"github.com/WALEDAMN/Dynamic-market-structure-and-stock-behavior-revealed-by-stock-correlation-networks/pkg/metrics"
	"github.com/WALEDAMN/Dynamic-market-structure-and-stock-behavior-revealed-by-stock-correlation-networks/pkg/producer"
	"github.com/WALEDAMN/Dynamic-market-structure-and-stock-behavior-revealed-by-stock-correlation-networks/pkg/pubsub"
	"github.com/WALEDAMN/Dynamic-market-structure-and-stock-behavior-revealed-by-stock-correlation-networks/pkg/report"
	"github.com/WALEDAMN/Dynamic-market-structure-and-stock-behavior-revealed-by-stock-correlation-networks/pkg/store"
	"github.com/WALEDAMN/Dynamic-market-structure-and-stock-behavior-revealed-by-stock-correlation-networks/pkg/tracking"
)

// errNoWindows is returned when the input directory holds no GML file
var errNoWindows = errors.New("no .gml files found")

// app holds the resources shared by every subcommand
type app struct {
	stdout io.Writer
	stderr io.Writer

	cfg     *config.Config
	logger  logging.Logger
	metrics *metrics.Registry
}

func (a *app) init(cfg *config.Config) {
	a.cfg = cfg
	a.logger = cfg.Logger(a.stderr)
	a.metrics = metrics.NewRegistry()
}

func (a *app) windows() ([]tracking.Window, error) {
	list, err := gml.Dir(a.cfg.Input.Dir, a.cfg.GMLOptions())
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, fmt.Errorf("%w in %s", errNoWindows, a.cfg.Input.Dir)
	}
	a.logger.Info("windows found", logging.Count(len(list)), logging.Path(a.cfg.Input.Dir))
	return tracking.FromGML(list), nil
}

// producers resolves names against the built-in registry, instrumented
func (a *app) producers(names ...string) ([]producer.Producer, error) {
	reg := producer.Builtin(a.cfg.ProducerOptions())
	out := make([]producer.Producer, 0, len(names))
	for _, name := range names {
		p, err := reg.Get(name)
		if err != nil {
			return nil, err
		}
		out = append(out, producer.Instrument(p, a.metrics, a.logger))
	}
	return out, nil
}

func (a *app) writer(ctx context.Context) (*report.Writer, error) {
	var sink report.Sink = &report.LocalSink{Dir: a.cfg.Output.Dir}
	if s3cfg, ok := a.cfg.S3(); ok {
		s3sink, err := report.NewS3Sink(ctx, s3cfg)
		if err != nil {
			return nil, err
		}
		sink = s3sink
	}
	return &report.Writer{
		Sink:       sink,
		LabelWidth: a.cfg.Output.LabelWidth,
		Graphs:     a.cfg.Output.Graphs,
		Logger:     a.logger.With(logging.Component("report")),
		Metrics:    a.metrics,
	}, nil
}

// openStore returns nil when no results database is configured
func (a *app) openStore(ctx context.Context) (store.Store, error) {
	if a.cfg.Store.Driver == "" {
		return nil, nil
	}
	s, err := store.Open(ctx, a.cfg.Store.Driver, a.cfg.Store.DSN)
	if err != nil {
		return nil, err
	}
	return store.WithMetrics(s, a.cfg.Store.Driver, a.metrics), nil
}

// serveMetrics starts the scrape endpoint when configured. The returned
// stop function is always safe to call.
func (a *app) serveMetrics() (func(), error) {
	if a.cfg.Metrics.Addr == "" {
		return func() {}, nil
	}
	srv := metrics.NewServer(a.cfg.Metrics.Addr, a.metrics)
	if err := srv.Start(); err != nil {
		return nil, err
	}
	a.logger.Info("metrics server listening", logging.String("addr", srv.Addr()))
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Stop(ctx); err != nil {
			a.logger.Warn("metrics server stop failed", logging.Error(err))
		}
	}, nil
}

// observers returns the in-process broker plus, when configured, the
// mangos publisher. release shuts both down.
func (a *app) observers() (broker *pubsub.Broker, obs tracking.Observer, release func(), err error) {
	broker = pubsub.NewBroker(0, a.metrics)
	list := []tracking.Observer{broker}
	var pub *pubsub.SocketPublisher
	if a.cfg.Events.Addr != "" {
		pub, err = pubsub.ListenPublisher(a.cfg.Events.Addr, a.logger, a.metrics)
		if err != nil {
			broker.Shutdown()
			return nil, nil, nil, err
		}
		a.logger.Info("publishing slice events", logging.String("addr", pub.Addr()))
		list = append(list, pub)
	}
	release = func() {
		broker.Shutdown()
		if pub != nil {
			_ = pub.Close()
		}
	}
	return broker, pubsub.Fanout(list...), release, nil
}

// saveRuns persists runs when a store is configured
func (a *app) saveRuns(ctx context.Context, runs ...*report.Run) error {
	s, err := a.openStore(ctx)
	if err != nil || s == nil {
		return err
	}
	defer s.Close()

	for _, run := range runs {
		if err := s.SaveRun(ctx, run); err != nil {
			return fmt.Errorf("failed to save run %s: %w", run.ID, err)
		}
	}
	a.logger.Info("runs saved", logging.Count(len(runs)), logging.String("driver", a.cfg.Store.Driver))
	return nil
}
