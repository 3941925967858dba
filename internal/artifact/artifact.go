// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package artifact reads and writes the JSON files a validate run leaves in
// its output directory.
package artifact

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pdiddy/exa/pkg/types"
)

// Artifact file names within an output directory.
const (
	ClaimGraphFile = "claimgraph.json"
	ReportFile     = "verification_report.json"
	SourcesFile    = "sources.json"
	WorksFile      = "works.json"
	MarkdownFile   = "verification_report.md"
)

// ErrNoReport is returned by ReadSummary when the output directory holds no
// verification report.
var ErrNoReport = errors.New("no verification report found")

// WriteJSON writes v to path as 2-space indented UTF-8 JSON with a trailing
// newline. The file is written to a temporary sibling and renamed into place
// so readers never observe a partial artifact.
func WriteJSON(path string, v any) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding %s: %w", filepath.Base(path), err)
	}
	return writeAtomic(path, buf.Bytes())
}

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("creating temp file for %s: %w", path, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return fmt.Errorf("setting mode on %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("renaming into %s: %w", path, err)
	}
	return nil
}

// WriteAll writes the claim graph, verification report, and DOI list into
// outdir, creating it if needed. It returns the written paths in that order.
func WriteAll(outdir string, claims []types.Claim, report types.Report, dois []string) ([]string, error) {
	if claims == nil {
		claims = []types.Claim{}
	}
	if dois == nil {
		dois = []string{}
	}

	files := []struct {
		name string
		v    any
	}{
		{ClaimGraphFile, types.ClaimGraph{Claims: claims}},
		{ReportFile, report},
		{SourcesFile, types.SourceList{DOIs: dois}},
	}

	paths := make([]string, 0, len(files))
	for _, f := range files {
		path := filepath.Join(outdir, f.name)
		if err := WriteJSON(path, f.v); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// ReadSummary returns the summary object of outdir's verification report.
// A report without a summary yields an empty Summary.
func ReadSummary(outdir string) (types.Summary, error) {
	var doc struct {
		Summary types.Summary `json:"summary"`
	}
	if err := readJSON(filepath.Join(outdir, ReportFile), &doc); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNoReport
		}
		return nil, err
	}
	if doc.Summary == nil {
		doc.Summary = types.Summary{}
	}
	return doc.Summary, nil
}

// ReadReport returns the full verification report in outdir.
func ReadReport(outdir string) (types.Report, error) {
	var report types.Report
	if err := readJSON(filepath.Join(outdir, ReportFile), &report); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return types.Report{}, ErrNoReport
		}
		return types.Report{}, err
	}
	return report, nil
}

// ReadClaimGraph returns the claims recorded in outdir. Numeric fields that
// do not decode are kept on each claim's Calc rather than failing the read.
func ReadClaimGraph(outdir string) ([]types.Claim, error) {
	var graph types.ClaimGraph
	if err := readJSON(filepath.Join(outdir, ClaimGraphFile), &graph); err != nil {
		return nil, err
	}
	if graph.Claims == nil {
		graph.Claims = []types.Claim{}
	}
	return graph.Claims, nil
}

// ReadSources returns the DOI list recorded in outdir.
func ReadSources(outdir string) ([]string, error) {
	var list types.SourceList
	if err := readJSON(filepath.Join(outdir, SourcesFile), &list); err != nil {
		return nil, err
	}
	if list.DOIs == nil {
		list.DOIs = []string{}
	}
	return list.DOIs, nil
}

// WriteWorks writes the resolve results to outdir/works.json. Unresolved
// DOIs are recorded as null.
func WriteWorks(outdir string, dois []string, works []*types.Work) (string, error) {
	set := types.WorkSet{Works: make(map[string]json.RawMessage, len(dois))}
	for i, doi := range dois {
		var w *types.Work
		if i < len(works) {
			w = works[i]
		}
		if w == nil || len(w.Message) == 0 {
			set.Works[doi] = json.RawMessage("null")
			continue
		}
		set.Works[doi] = w.Message
	}

	path := filepath.Join(outdir, WorksFile)
	if err := WriteJSON(path, set); err != nil {
		return "", err
	}
	return path, nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	return nil
}
