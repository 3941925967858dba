// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pdiddy/exa/internal/artifact"
	"github.com/pdiddy/exa/internal/extract"
	"github.com/pdiddy/exa/internal/ledger"
	"github.com/pdiddy/exa/internal/sources"
	"github.com/pdiddy/exa/internal/verify"
	"github.com/pdiddy/exa/pkg/types"
)

func newValidateCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <input-file>",
		Short: "Validate claims in an answer file",
		Long: `Validate extracts numeric growth claims and DOIs from an answer file
(plain text, Markdown, or HTML), checks each claim's percentage against its
figures, and writes claimgraph.json, verification_report.json, and
sources.json into the output directory.`,
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runValidate(cmd.Context(), args[0], a.outdirFlag(cmd), a.toleranceFlag(cmd))
		},
	}
	cmd.Flags().String("outdir", types.DefaultOutDir, "directory for output artifacts")
	cmd.Flags().Float64("tolerance", types.DefaultTolerance, "allowed difference in percentage points")
	return cmd
}

func (a *app) runValidate(ctx context.Context, input, outdir string, tolerance float64) error {
	if err := verify.ValidateTolerance(tolerance); err != nil {
		return err
	}

	text, err := extract.ReadFile(input)
	if err != nil {
		return err
	}

	claims := extract.GrowthClaims(text)
	report := verify.Claims(claims, tolerance)
	dois := sources.ExtractDOIs(text)

	paths, err := artifact.WriteAll(outdir, claims, report, dois)
	if err != nil {
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

	if a.cfg.History {
		a.recordRun(ctx, input, tolerance, report)
	}
	return nil
}

// recordRun appends the run to the ledger. Failures are warnings; the
// artifacts are already written.
func (a *app) recordRun(ctx context.Context, input string, tolerance float64, report types.Report) {
	store, err := ledger.Open(a.cfg.DBPath)
	if err != nil {
		fmt.Fprintf(a.stderr, "warning: run history disabled: %v\n", err)
		return
	}
	defer store.Close()

	if abs, err := filepath.Abs(input); err == nil {
		input = abs
	}
	if _, err := store.RecordRun(ctx, input, tolerance, report); err != nil {
		fmt.Fprintf(a.stderr, "warning: recording run: %v\n", err)
	}
}
