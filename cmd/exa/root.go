// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/adrg/xdg"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/exa/internal/secrets"
	"github.com/pdiddy/exa/pkg/types"
)

const (
	envPrefix      = "EXA"
	localConfig    = "exa.yaml"
	userConfigPath = "exa/config.yaml"
	dataDBPath     = "exa/exa.db"
)

// app carries the state shared by every subcommand.
type app struct {
	v          *viper.Viper
	cfg        types.Config
	stdout     io.Writer
	stderr     io.Writer
	secretsDir string
}

func newApp(stdout, stderr io.Writer) *app {
	return &app{
		v:          viper.New(),
		cfg:        types.DefaultConfig(),
		stdout:     stdout,
		stderr:     stderr,
		secretsDir: secrets.DefaultDir,
	}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "exa",
		Short: "Check the arithmetic of growth claims in generated answers",
		Long: `exa reads an answer document, extracts numeric growth claims such as
"revenue grew from $100 to $112" or "users increased 8% YoY", recomputes each
percentage, and records which claims are consistent. DOIs cited in the answer
are collected and can be resolved against Crossref.

validate writes claimgraph.json, verification_report.json, and sources.json
into the output directory; report prints the summary of the last run.`,
		Args:          cobra.ArbitraryArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			_ = cmd.Help()
			if len(args) > 0 {
				return &usageError{fmt.Errorf("unknown command %q", args[0])}
			}
			return &usageError{fmt.Errorf("no command given")}
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd == cmd.Root() {
				return nil
			}
			return a.loadConfig(cmd)
		},
	}

	root.SetOut(a.stdout)
	root.SetErr(a.stderr)
	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		fmt.Fprintf(a.stderr, "Error: %v\n", err)
		fmt.Fprint(a.stderr, cmd.UsageString())
		return &usageError{err}
	})
	root.CompletionOptions.DisableDefaultCmd = true
	root.PersistentFlags().String("config", "", "config file (default: ./exa.yaml or $XDG_CONFIG_HOME/exa/config.yaml)")

	root.AddCommand(
		newValidateCmd(a),
		newReportCmd(a),
		newResolveCmd(a),
		newVerifyCmd(a),
		newHistoryCmd(a),
		newConfigCmd(a),
		newVersionCmd(a),
	)
	return root
}

// loadConfig layers defaults, the config file, EXA_* environment variables,
// and the secrets directory into a.cfg. Command flags are applied by each
// command on top of the result.
func (a *app) loadConfig(cmd *cobra.Command) error {
	v := a.v
	setDefaults(v, types.DefaultConfig())

	cfgFile, _ := cmd.Flags().GetString("config")
	if cfgFile == "" {
		cfgFile = findConfigFile()
	}
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("reading config %s: %w", cfgFile, err)
		}
		fmt.Fprintln(a.stderr, "Using config file:", v.ConfigFileUsed())
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := types.DefaultConfig()
	if err := v.Unmarshal(&cfg); err != nil {
		return fmt.Errorf("decoding config: %w", err)
	}
	if cfg.DBPath == "" {
		cfg.DBPath = filepath.Join(xdg.DataHome, dataDBPath)
	}

	s, err := secrets.Load(a.secretsDir, a.stderr)
	if err != nil {
		return err
	}
	if len(s) > 0 {
		keys := make([]string, 0, len(s))
		for k := range s {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		fmt.Fprintf(a.stderr, "Loaded secrets: %v\n", keys)
	}
	secrets.Apply(&cfg, s)

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	a.cfg = cfg
	return nil
}

// findConfigFile returns ./exa.yaml if present, otherwise the user config
// under the XDG config directories, otherwise "".
func findConfigFile() string {
	if _, err := os.Stat(localConfig); err == nil {
		return localConfig
	}
	if path, err := xdg.SearchConfigFile(userConfigPath); err == nil {
		return path
	}
	return ""
}

// setDefaults registers every config key with viper so that environment
// variables are picked up by Unmarshal.
func setDefaults(v *viper.Viper, cfg types.Config) {
	v.SetDefault("tolerance", cfg.Tolerance)
	v.SetDefault("outdir", cfg.OutDir)
	v.SetDefault("markdown", cfg.Markdown)
	v.SetDefault("history", cfg.History)
	v.SetDefault("db_path", cfg.DBPath)
	v.SetDefault("crossref.base_url", cfg.Crossref.BaseURL)
	v.SetDefault("crossref.user_agent", cfg.Crossref.UserAgent)
	v.SetDefault("crossref.mailto", cfg.Crossref.Mailto)
	v.SetDefault("crossref.timeout", cfg.Crossref.Timeout)
	v.SetDefault("crossref.rate", cfg.Crossref.Rate)
	v.SetDefault("crossref.workers", cfg.Crossref.Workers)
	v.SetDefault("crossref.cache_ttl", cfg.Crossref.CacheTTL)
}

// outdirFlag returns the --outdir flag when given, else the configured value.
func (a *app) outdirFlag(cmd *cobra.Command) string {
	if cmd.Flags().Changed("outdir") {
		dir, _ := cmd.Flags().GetString("outdir")
		return dir
	}
	return a.cfg.OutDir
}

// toleranceFlag returns the --tolerance flag when given, else the configured
// value.
func (a *app) toleranceFlag(cmd *cobra.Command) float64 {
	if cmd.Flags().Changed("tolerance") {
		tol, _ := cmd.Flags().GetFloat64("tolerance")
		return tol
	}
	return a.cfg.Tolerance
}

// exactArgs wraps cobra.ExactArgs so that a wrong argument count exits with
// the usage code.
func exactArgs(n int) cobra.PositionalArgs {
	check := cobra.ExactArgs(n)
	return func(cmd *cobra.Command, args []string) error {
		if err := check(cmd, args); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
			fmt.Fprint(cmd.ErrOrStderr(), cmd.UsageString())
			return &usageError{err}
		}
		return nil
	}
}
