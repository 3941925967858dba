// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads credentials and contact details from a directory of
// plain-text files. Each file is one secret: the filename is the key and the
// trimmed contents are the value.
//
// Recognized keys: crossref-mailto.
package secrets

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdiddy/exa/pkg/types"
)

// DefaultDir is where the CLI looks for secret files.
const DefaultDir = ".secrets"

// CrossrefMailto holds the contact address sent to Crossref.
const CrossrefMailto = "crossref-mailto"

// Load reads all files in dir and returns a map of filename to trimmed
// contents. A missing directory is not an error; Load returns an empty map.
// Unreadable files are reported on warn and skipped.
func Load(dir string, warn io.Writer) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	secrets := make(map[string]string)
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			fmt.Fprintf(warn, "warning: could not read secret %s: %v\n", name, err)
			continue
		}

		if value := strings.TrimSpace(string(data)); value != "" {
			secrets[name] = value
		}
	}

	return secrets, nil
}

// Apply copies recognized secrets into cfg. Values already set in cfg, from
// flags, environment, or the config file, take precedence.
func Apply(cfg *types.Config, secrets map[string]string) {
	if cfg.Crossref.Mailto == "" {
		cfg.Crossref.Mailto = secrets[CrossrefMailto]
	}
}
