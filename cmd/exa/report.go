// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/exa/internal/artifact"
	"github.com/pdiddy/exa/pkg/types"
)

func newReportCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Show summary for the last validation",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runReport(a.outdirFlag(cmd))
		},
	}
	cmd.Flags().String("outdir", types.DefaultOutDir, "directory holding verification_report.json")
	return cmd
}

func (a *app) runReport(outdir string) error {
	summary, err := artifact.ReadSummary(outdir)
	if errors.Is(err, artifact.ErrNoReport) {
		fmt.Fprintln(a.stderr, "No verification_report.json found. Run exa validate first.")
		return errReported
	}
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding summary: %w", err)
	}
	fmt.Fprintln(a.stdout, string(data))
	return nil
}
