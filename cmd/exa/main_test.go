// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/exa/internal/artifact"
	"github.com/pdiddy/exa/pkg/types"
)

const sampleAnswer = `# Q3 update

Revenue grew from $100 to $112 over the year. Users increased by 8% YoY.
Costs rose from 200 to 250, then rose 30% in Q4 (see 10.1000/xyz123).
`

type cliEnv struct {
	dir    string
	config string
}

// newEnv creates a temp directory with a config file that keeps the ledger
// inside it, plus any extra YAML lines.
func newEnv(t *testing.T, extra ...string) cliEnv {
	t.Helper()
	dir := t.TempDir()
	lines := append([]string{"db_path: " + filepath.Join(dir, "exa.db")}, extra...)
	cfg := filepath.Join(dir, "exa.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte(strings.Join(lines, "\n")+"\n"), 0o644))
	return cliEnv{dir: dir, config: cfg}
}

func (e cliEnv) path(name string) string {
	return filepath.Join(e.dir, name)
}

func (e cliEnv) writeInput(t *testing.T, name, content string) string {
	t.Helper()
	p := e.path(name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func (e cliEnv) run(args ...string) (int, string, string) {
	var stdout, stderr bytes.Buffer
	full := append([]string{"--config", e.config}, args...)
	code := run(full, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestValidateThenReport(t *testing.T) {
	env := newEnv(t)
	input := env.writeInput(t, "answer.md", sampleAnswer)
	outdir := env.path("out")

	code, stdout, stderr := env.run("validate", input, "--outdir", outdir)
	require.Equal(t, exitOK, code, stderr)
	assert.Equal(t,
		"Wrote "+filepath.Join(outdir, artifact.ClaimGraphFile)+"\n"+
			"Wrote "+filepath.Join(outdir, artifact.ReportFile)+"\n"+
			"Wrote "+filepath.Join(outdir, artifact.SourcesFile)+"\n",
		stdout)

	dois, err := artifact.ReadSources(outdir)
	require.NoError(t, err)
	assert.Equal(t, []string{"10.1000/xyz123"}, dois)

	code, stdout, stderr = env.run("report", "--outdir", outdir)
	require.Equal(t, exitOK, code, stderr)

	var summary map[string]int
	require.NoError(t, json.Unmarshal([]byte(stdout), &summary))
	// Both from/to claims pass; the two bare percentages are unchecked.
	assert.Equal(t, map[string]int{"passed": 2, "failed": 0, "unchecked": 2, "error": 0}, summary)
	assert.True(t, strings.HasPrefix(stdout, "{\n  \"passed\": 2,"))
}

func TestReport_Missing(t *testing.T) {
	env := newEnv(t)

	code, stdout, stderr := env.run("report", "--outdir", env.path("nothing"))
	assert.Equal(t, exitError, code)
	assert.Empty(t, stdout)
	assert.Contains(t, stderr, "No verification_report.json found. Run exa validate first.\n")
	assert.NotContains(t, stderr, "Error:")
}

func TestUsageErrors(t *testing.T) {
	env := newEnv(t)

	tests := []struct {
		name       string
		args       []string
		wantStdout string
	}{
		{"no command", nil, "Usage:"},
		{"unknown command", []string{"frobnicate"}, "Available Commands:"},
		{"validate without input", []string{"validate"}, ""},
		{"unknown flag", []string{"report", "--bogus"}, ""},
		{"bad tolerance value", []string{"validate", "x.txt", "--tolerance", "abc"}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, stdout, _ := env.run(tt.args...)
			assert.Equal(t, exitUsage, code)
			if tt.wantStdout != "" {
				assert.Contains(t, stdout, tt.wantStdout)
			}
		})
	}
}

func TestValidate_NegativeTolerance(t *testing.T) {
	env := newEnv(t)
	input := env.writeInput(t, "answer.txt", sampleAnswer)

	code, _, stderr := env.run("validate", input, "--outdir", env.path("out"), "--tolerance", "-1")
	assert.Equal(t, exitError, code)
	assert.Contains(t, stderr, "tolerance")
	assert.NoFileExists(t, filepath.Join(env.path("out"), artifact.ReportFile))
}

func TestValidate_MissingInput(t *testing.T) {
	env := newEnv(t)

	code, _, stderr := env.run("validate", env.path("absent.txt"), "--outdir", env.path("out"))
	assert.Equal(t, exitError, code)
	assert.Contains(t, stderr, "Error:")
}

func TestValidate_ZeroTolerance(t *testing.T) {
	env := newEnv(t)
	input := env.writeInput(t, "answer.txt", "Sales grew from 3 to 4 and rose 33.3% YoY.")
	outdir := env.path("out")

	code, _, stderr := env.run("validate", input, "--outdir", outdir, "--tolerance", "0")
	require.Equal(t, exitOK, code, stderr)

	report, err := artifact.ReadReport(outdir)
	require.NoError(t, err)
	require.Len(t, report.Results, 2)
	assert.Equal(t, types.StatusPassed, report.Results[0].Status)
	assert.True(t, strings.HasPrefix(report.Results[0].Reason, "pct matches within 0 pp (est=33.3333,"), report.Results[0].Reason)
	assert.Equal(t, types.StatusUnchecked, report.Results[1].Status)
}

func TestValidate_ConfigAndEnv(t *testing.T) {
	env := newEnv(t, "markdown: true")
	input := env.writeInput(t, "answer.html",
		`<html><head><script>var x = "grew from 1 to 2";</script></head>
<body><p>Revenue grew from $100 to $112.</p></body></html>`)
	outdir := env.path("from-env")
	t.Setenv("EXA_OUTDIR", outdir)

	code, stdout, stderr := env.run("validate", input)
	require.Equal(t, exitOK, code, stderr)
	assert.Contains(t, stdout, "Wrote "+filepath.Join(outdir, artifact.MarkdownFile))
	assert.FileExists(t, filepath.Join(outdir, artifact.MarkdownFile))

	claims, err := artifact.ReadClaimGraph(outdir)
	require.NoError(t, err)
	require.Len(t, claims, 1, "script content is not extracted")
	assert.Equal(t, "grew from $100 to $112", claims[0].Text)
}

func TestHistory(t *testing.T) {
	env := newEnv(t)
	input := env.writeInput(t, "answer.txt", sampleAnswer)

	code, stdout, _ := env.run("history")
	require.Equal(t, exitOK, code)
	assert.Equal(t, "No runs recorded.\n", stdout)

	for range 2 {
		code, _, stderr := env.run("validate", input, "--outdir", env.path("out"))
		require.Equal(t, exitOK, code, stderr)
	}

	code, stdout, _ = env.run("history", "--limit", "1")
	require.Equal(t, exitOK, code)
	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], "passed=2 failed=0 unchecked=2 error=0")
	assert.Contains(t, lines[0], input)

	code, stdout, _ = env.run("history", "--run", "1")
	require.Equal(t, exitOK, code)
	assert.Contains(t, stdout, "c_fromto_")
	assert.Contains(t, stdout, "unchecked")
}

func TestValidate_HistoryDisabled(t *testing.T) {
	env := newEnv(t, "history: false")
	input := env.writeInput(t, "answer.txt", sampleAnswer)

	code, _, stderr := env.run("validate", input, "--outdir", env.path("out"))
	require.Equal(t, exitOK, code, stderr)
	assert.NoFileExists(t, env.path("exa.db"))
}

func TestVerify_EditedClaimGraph(t *testing.T) {
	env := newEnv(t)
	outdir := env.path("out")
	require.NoError(t, os.MkdirAll(outdir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(outdir, artifact.ClaimGraphFile), []byte(`{"claims": [
		{"id": "a", "type": "numeric_growth", "text": "", "evidence": [], "calc": {"base": 100, "current": 112, "pct": 12}, "status": "unchecked"},
		{"id": "b", "type": "numeric_growth", "text": "", "evidence": [], "calc": {"base": "abc", "current": 112}, "status": "unchecked"}
	]}`), 0o644))

	code, stdout, stderr := env.run("verify", "--outdir", outdir)
	require.Equal(t, exitOK, code, stderr)
	assert.Equal(t, "Wrote "+filepath.Join(outdir, artifact.ReportFile)+"\n", stdout)

	report, err := artifact.ReadReport(outdir)
	require.NoError(t, err)
	require.Len(t, report.Results, 2)
	assert.Equal(t, types.StatusPassed, report.Results[0].Status)
	assert.Equal(t, types.StatusError, report.Results[1].Status)
}

func TestResolve(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/10.1000/xyz123") {
			w.Write([]byte(`{"message": {"title": ["A Study"]}}`))
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer ts.Close()

	env := newEnv(t, "crossref:", "  base_url: "+ts.URL+"/works/", "  rate: 100")
	outdir := env.path("out")
	_, err := artifact.WriteAll(outdir, nil, types.Report{Results: []types.Verdict{}, Summary: types.NewSummary()},
		[]string{"10.1000/xyz123", "10.9999/missing"})
	require.NoError(t, err)

	code, stdout, stderr := env.run("resolve", "--outdir", outdir)
	require.Equal(t, exitOK, code, stderr)
	assert.Contains(t, stdout, "resolved   10.1000/xyz123 A Study")
	assert.Contains(t, stdout, "unresolved 10.9999/missing")
	assert.Contains(t, stdout, "Resolved 1 of 2 DOIs")

	data, err := os.ReadFile(filepath.Join(outdir, artifact.WorksFile))
	require.NoError(t, err)
	assert.JSONEq(t, `{"works": {"10.1000/xyz123": {"title": ["A Study"]}, "10.9999/missing": null}}`, string(data))
}

func TestConfigCmd(t *testing.T) {
	env := newEnv(t, "tolerance: 0.5")
	t.Setenv("EXA_CROSSREF_WORKERS", "7")

	code, stdout, stderr := env.run("config")
	require.Equal(t, exitOK, code, stderr)
	assert.Contains(t, stdout, "tolerance: 0.5")
	assert.Contains(t, stdout, "workers: 7")
	assert.Contains(t, stdout, "timeout: 10s")
	assert.Contains(t, stdout, "base_url: https://api.crossref.org/works/")
}

func TestConfig_Invalid(t *testing.T) {
	env := newEnv(t, "crossref:", "  workers: 0")

	code, _, stderr := env.run("version")
	assert.Equal(t, exitError, code)
	assert.Contains(t, stderr, "crossref.workers")
}

func TestVersion(t *testing.T) {
	env := newEnv(t)

	code, stdout, _ := env.run("version")
	assert.Equal(t, exitOK, code)
	assert.Equal(t, "exa dev\n", stdout)
}
