package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/WALEDAMN/Dynamic-market-structure-and-stock-behavior-revealed-by-stock-correlation-networks/pkg/progress"
)

// errNoStore is returned by commands that need a results database
var errNoStore = errors.New("no results database configured (set --store-driver and --store-dsn)")

func newRunsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "runs",
		Short: "List the runs saved in the results database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.listRuns(cmd.Context())
		},
	}
}

func (a *app) listRuns(ctx context.Context) error {
	s, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if s == nil {
		return errNoStore
	}
	defer s.Close()

	runs, err := s.ListRuns(ctx)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(a.stdout, "no runs stored")
		return nil
	}
	fmt.Fprintln(a.stdout, progress.RenderRuns(runs))
	return nil
}
