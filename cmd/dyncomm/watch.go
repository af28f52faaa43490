package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/WALEDAMN/Dynamic-market-structure-and-stock-behavior-revealed-by-stock-correlation-networks/pkg/logging"
	"github.com/WALEDAMN/Dynamic-market-structure-and-stock-behavior-revealed-by-stock-correlation-networks/pkg/pubsub"
)

// watchPoll bounds each receive so cancellation is noticed
const watchPoll = 200 * time.Millisecond

// errNoEvents is returned by watch without a PUB socket to dial
var errNoEvents = errors.New("no event socket configured (set --events-addr)")

func newWatchCmd(a *app) *cobra.Command {
	var count int
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Print slice events published by a running track or sweep",
		Long: `watch dials the PUB socket given by --events-addr and prints one line
per recorded slice until interrupted or until --count events arrived.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.watch(cmd.Context(), count)
		},
	}
	cmd.Flags().IntVar(&count, "count", 0, "stop after this many events, 0 to run until interrupted")
	return cmd
}

func (a *app) watch(ctx context.Context, count int) error {
	addr := a.cfg.Events.Addr
	if addr == "" {
		return errNoEvents
	}
	sub, err := pubsub.DialSubscriber(addr, watchPoll)
	if err != nil {
		return err
	}
	defer sub.Close()
	a.logger.Info("watching slice events", logging.String("addr", addr))

	for seen := 0; count == 0 || seen < count; {
		if ctx.Err() != nil {
			return nil
		}
		ev, err := sub.Recv()
		if errors.Is(err, pubsub.ErrRecvTimeout) {
			continue
		}
		if err != nil {
			return err
		}
		writeEvent(a.stdout, ev)
		seen++
	}
	return nil
}

func writeEvent(w io.Writer, ev pubsub.SliceEvent) {
	if ev.Degraded {
		fmt.Fprintf(w, "%s %s degraded: %s\n", ev.RunID, ev.Window, ev.Failure)
		return
	}
	q := "N/A"
	if ev.Modularity != nil {
		q = fmt.Sprintf("%.4f", *ev.Modularity)
	}
	fmt.Fprintf(w, "%s %s Q=%s communities=%d changed=%d unchanged=%d unavailable=%d\n",
		ev.RunID, ev.Window, q, ev.Communities, ev.Changed, ev.Unchanged, ev.Unavailable)
}
