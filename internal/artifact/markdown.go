// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package artifact

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/pdiddy/exa/pkg/types"
)

// WriteMarkdown renders report as a Markdown document at path. Claim text
// is looked up from claims by ID; verdicts without a matching claim show an
// empty text column.
func WriteMarkdown(path string, report types.Report, claims []types.Claim) error {
	var buf bytes.Buffer
	if err := RenderMarkdown(&buf, report, claims); err != nil {
		return fmt.Errorf("rendering %s: %w", path, err)
	}
	return writeAtomic(path, buf.Bytes())
}

// RenderMarkdown writes the Markdown form of report to w.
func RenderMarkdown(w io.Writer, report types.Report, claims []types.Claim) error {
	text := make(map[string]string, len(claims))
	for _, c := range claims {
		text[c.ID] = c.Text
	}

	md := markdown.NewMarkdown(w)
	md.H1("Verification Report")
	md.PlainText("")

	writeSummary(md, report.Summary)
	writeVerdicts(md, report.Results, text)

	return md.Build()
}

func writeSummary(md *markdown.Markdown, summary types.Summary) {
	md.H2("Summary")
	md.PlainText("")

	rows := make([][]string, 0, len(types.Statuses)+1)
	for _, st := range types.Statuses {
		rows = append(rows, []string{string(st), strconv.Itoa(summary[st])})
	}
	rows = append(rows, []string{"**total**", "**" + strconv.Itoa(summary.Total()) + "**"})
	md.Table(markdown.TableSet{
		Header: []string{"Status", "Count"},
		Rows:   rows,
	})
	md.PlainText("")

	if summary.Total() > 0 {
		chart := piechart.NewPieChart(
			io.Discard,
			piechart.WithTitle("Verdicts"),
			piechart.WithShowData(true),
		)
		for _, st := range types.Statuses {
			if n := summary[st]; n > 0 {
				chart.LabelAndIntValue(string(st), uint64(n))
			}
		}
		md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
		md.PlainText("")
	}

	switch {
	case summary[types.StatusError] > 0:
		md.Cautionf("%d claim(s) could not be evaluated.", summary[types.StatusError])
	case summary[types.StatusFailed] > 0:
		md.Warningf("%d claim(s) are numerically inconsistent.", summary[types.StatusFailed])
	case summary.Total() == 0:
		md.Note("No numeric growth claims were found.")
	default:
		md.Tip("No inconsistent claims detected.")
	}
	md.PlainText("")
}

func writeVerdicts(md *markdown.Markdown, results []types.Verdict, text map[string]string) {
	md.H2("Claims")
	md.PlainText("")

	if len(results) == 0 {
		md.PlainText("No claims to report.")
		md.PlainText("")
		return
	}

	rows := make([][]string, 0, len(results))
	for _, v := range results {
		rows = append(rows, []string{
			"`" + v.ID + "`",
			cell(text[v.ID]),
			string(v.Status),
			cell(v.Reason),
		})
	}
	md.Table(markdown.TableSet{
		Header: []string{"ID", "Text", "Status", "Reason"},
		Rows:   rows,
	})
	md.PlainText("")
}

// cell flattens s onto one line and escapes pipes so it fits a table cell.
func cell(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	return strings.ReplaceAll(s, "|", `\|`)
}
