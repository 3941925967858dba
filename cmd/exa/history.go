// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/exa/internal/ledger"
	"github.com/pdiddy/exa/pkg/types"
)

const defaultHistoryLimit = 20

func newHistoryCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List past validation runs",
		Long: `History lists validate runs recorded in the local ledger, newest first.
With --run it prints the verdicts of a single run.`,
		Args: exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, _ := cmd.Flags().GetInt("limit")
			runID, _ := cmd.Flags().GetInt64("run")
			return a.runHistory(cmd.Context(), limit, runID)
		},
	}
	cmd.Flags().Int("limit", defaultHistoryLimit, "maximum number of runs to list")
	cmd.Flags().Int64("run", 0, "show the verdicts of this run")
	return cmd
}

func (a *app) runHistory(ctx context.Context, limit int, runID int64) error {
	store, err := ledger.Open(a.cfg.DBPath)
	if err != nil {
		return err
	}
	defer store.Close()

	if runID > 0 {
		verdicts, err := store.Verdicts(ctx, runID)
		if err != nil {
			return err
		}
		if len(verdicts) == 0 {
			fmt.Fprintf(a.stdout, "No verdicts recorded for run %d.\n", runID)
			return nil
		}
		for _, v := range verdicts {
			fmt.Fprintf(a.stdout, "%-9s %s  %s\n", v.Status, v.ID, v.Reason)
		}
		return nil
	}

	runs, err := store.Runs(ctx, limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(a.stdout, "No runs recorded.")
		return nil
	}
	for _, r := range runs {
		fmt.Fprintf(a.stdout, "%4d  %s  tol=%g  passed=%d failed=%d unchecked=%d error=%d  %s\n",
			r.ID,
			r.StartedAt.Local().Format("2006-01-02 15:04:05"),
			r.Tolerance,
			r.Summary[types.StatusPassed],
			r.Summary[types.StatusFailed],
			r.Summary[types.StatusUnchecked],
			r.Summary[types.StatusError],
			r.Input,
		)
	}
	return nil
}
