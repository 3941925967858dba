// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/exa/internal/artifact"
	"github.com/pdiddy/exa/internal/ledger"
	"github.com/pdiddy/exa/internal/sources"
	"github.com/pdiddy/exa/pkg/types"
)

func newResolveCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Resolve collected DOIs against Crossref",
		Long: `Resolve reads sources.json from the output directory, looks up each DOI
on Crossref, and writes the returned records to works.json. DOIs that cannot
be resolved are recorded as null. Resolved records are cached in the local
ledger and reused until crossref.cache_ttl expires.`,
		Args: exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := a.cfg.Crossref
			if cmd.Flags().Changed("timeout") {
				cfg.Timeout, _ = cmd.Flags().GetDuration("timeout")
			}
			return a.runResolve(cmd.Context(), a.outdirFlag(cmd), cfg)
		},
	}
	cmd.Flags().String("outdir", types.DefaultOutDir, "directory holding sources.json")
	cmd.Flags().Duration("timeout", types.DefaultCrossrefTimeout, "per-DOI lookup timeout")
	return cmd
}

func (a *app) runResolve(ctx context.Context, outdir string, cfg types.CrossrefConfig) error {
	dois, err := artifact.ReadSources(outdir)
	if err != nil {
		return err
	}

	opts := []sources.Option{sources.WithWarnings(a.stderr)}
	if a.cfg.DBPath != "" {
		store, err := ledger.Open(a.cfg.DBPath)
		if err != nil {
			fmt.Fprintf(a.stderr, "warning: work cache disabled: %v\n", err)
		} else {
			defer store.Close()
			opts = append(opts, sources.WithStore(store))
		}
	}

	works := sources.NewResolver(cfg, opts...).ResolveAll(ctx, dois)

	resolved := 0
	for i, w := range works {
		if w == nil {
			fmt.Fprintf(a.stdout, "unresolved %s\n", dois[i])
			continue
		}
		resolved++
		fmt.Fprintf(a.stdout, "resolved   %s %s\n", dois[i], w.Title)
	}

	path, err := artifact.WriteWorks(outdir, dois, works)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "Resolved %d of %d DOIs\n", resolved, len(dois))
	fmt.Fprintf(a.stdout, "Wrote %s\n", path)
	return nil
}
