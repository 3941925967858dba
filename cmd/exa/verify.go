// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pdiddy/exa/internal/artifact"
	"github.com/pdiddy/exa/internal/verify"
	"github.com/pdiddy/exa/pkg/types"
)

func newVerifyCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Re-verify an existing claim graph",
		Long: `Verify re-checks the claims in claimgraph.json, which may have been edited
by hand, and rewrites verification_report.json. Claims whose numeric fields
cannot be read are reported with status error.`,
		Args: exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runVerify(a.outdirFlag(cmd), a.toleranceFlag(cmd))
		},
	}
	cmd.Flags().String("outdir", types.DefaultOutDir, "directory holding claimgraph.json")
	cmd.Flags().Float64("tolerance", types.DefaultTolerance, "allowed difference in percentage points")
	return cmd
}

func (a *app) runVerify(outdir string, tolerance float64) error {
	if err := verify.ValidateTolerance(tolerance); err != nil {
		return err
	}

	claims, err := artifact.ReadClaimGraph(outdir)
	if err != nil {
		return err
	}
	report := verify.Claims(claims, tolerance)

	paths := []string{filepath.Join(outdir, artifact.ReportFile)}
	if err := artifact.WriteJSON(paths[0], report); err != nil {
		return err
	}
	if a.cfg.Markdown {
		path := filepath.Join(outdir, artifact.MarkdownFile)
		if err := artifact.WriteMarkdown(path, report, claims); err != nil {
			return err
		}
		paths = append(paths, path)
	}
	for _, p := range paths {
		fmt.Fprintf(a.stdout, "Wrote %s\n", p)
	}
	return nil
}
