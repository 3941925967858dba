package types

import (
	"fmt"
	"math"
	"time"
)

// Defaults for the validate stage and the Crossref resolver.
const (
	DefaultTolerance        = 0.1
	DefaultOutDir           = "out"
	DefaultCrossrefBaseURL  = "https://api.crossref.org/works/"
	DefaultCrossrefAgent    = "exa/0.1 (Executable Answers)"
	DefaultCrossrefTimeout  = 10 * time.Second
	DefaultCrossrefRate     = 5.0
	DefaultCrossrefWorkers  = 4
	DefaultCrossrefCacheTTL = 24 * time.Hour
)

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the per-request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests.
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`
}

// CrossrefConfig holds settings for DOI metadata resolution.
type CrossrefConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// BaseURL is the works endpoint; the DOI is appended to it.
	BaseURL string `json:"base_url" yaml:"base_url" mapstructure:"base_url"`

	// Mailto is an optional contact address appended to the User-Agent,
	// which places requests in Crossref's polite pool.
	Mailto string `json:"mailto,omitempty" yaml:"mailto,omitempty" mapstructure:"mailto"`

	// Rate is the maximum number of requests per second.
	Rate float64 `json:"rate" yaml:"rate" mapstructure:"rate"`

	// Workers bounds the number of concurrent lookups.
	Workers int `json:"workers" yaml:"workers" mapstructure:"workers"`

	// CacheTTL is how long a resolved work is reused before refetching.
	CacheTTL time.Duration `json:"cache_ttl" yaml:"cache_ttl" mapstructure:"cache_ttl"`
}

// AgentString returns the User-Agent header value, including the contact
// address when one is configured.
func (c CrossrefConfig) AgentString() string {
	ua := c.UserAgent
	if ua == "" {
		ua = DefaultCrossrefAgent
	}
	if c.Mailto != "" {
		ua += " mailto:" + c.Mailto
	}
	return ua
}

// Config is the complete exa configuration, loaded from flags, EXA_*
// environment variables, and an optional YAML file.
type Config struct {
	// Tolerance is the verification tolerance in percentage points.
	Tolerance float64 `json:"tolerance" yaml:"tolerance" mapstructure:"tolerance"`

	// OutDir is where artifacts are written and read.
	OutDir string `json:"outdir" yaml:"outdir" mapstructure:"outdir"`

	// Markdown additionally renders verification_report.md.
	Markdown bool `json:"markdown" yaml:"markdown" mapstructure:"markdown"`

	// History records each validate run in the SQLite ledger.
	History bool `json:"history" yaml:"history" mapstructure:"history"`

	// DBPath is the location of the SQLite ledger.
	DBPath string `json:"db_path" yaml:"db_path" mapstructure:"db_path"`

	Crossref CrossrefConfig `json:"crossref" yaml:"crossref" mapstructure:"crossref"`
}

// DefaultConfig returns the built-in defaults. DBPath is left empty; the CLI
// fills it from the XDG data directory.
func DefaultConfig() Config {
	return Config{
		Tolerance: DefaultTolerance,
		OutDir:    DefaultOutDir,
		History:   true,
		Crossref: CrossrefConfig{
			HTTPConfig: HTTPConfig{
				Timeout:   DefaultCrossrefTimeout,
				UserAgent: DefaultCrossrefAgent,
			},
			BaseURL:  DefaultCrossrefBaseURL,
			Rate:     DefaultCrossrefRate,
			Workers:  DefaultCrossrefWorkers,
			CacheTTL: DefaultCrossrefCacheTTL,
		},
	}
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if math.IsNaN(c.Tolerance) || c.Tolerance < 0 {
		return fmt.Errorf("tolerance must be a non-negative number of percentage points, got %v", c.Tolerance)
	}
	if c.OutDir == "" {
		return fmt.Errorf("outdir must not be empty")
	}
	if c.Crossref.Rate <= 0 {
		return fmt.Errorf("crossref.rate must be positive, got %v", c.Crossref.Rate)
	}
	if c.Crossref.Workers <= 0 {
		return fmt.Errorf("crossref.workers must be positive, got %d", c.Crossref.Workers)
	}
	if c.Crossref.Timeout <= 0 {
		return fmt.Errorf("crossref.timeout must be positive, got %v", c.Crossref.Timeout)
	}
	return nil
}
