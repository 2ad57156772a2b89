package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
	"github.com/nao1215/sitelint/internal/model"
)

// MarkdownWriter outputs reports in Markdown format.
// The output is meant to be posted as a pull request comment or a CI job
// summary.
type MarkdownWriter struct {
	baseWriter

	// maxRows limits the violation rows listed per category.
	// Zero means no limit.
	maxRows int
}

// MarkdownWriterOption configures a MarkdownWriter.
type MarkdownWriterOption func(*MarkdownWriter)

// WithMaxRows limits the number of violations listed per category.
func WithMaxRows(n int) MarkdownWriterOption {
	return func(w *MarkdownWriter) {
		if n >= 0 {
			w.maxRows = n
		}
	}
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer, opts ...MarkdownWriterOption) *MarkdownWriter {
	w := &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs the report in Markdown format.
func (w *MarkdownWriter) Write(report *model.ScanReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, report)
	w.writeSummary(md, report)
	w.writeTopOffenders(md, report)
	w.writeViolations(md, report)
	w.writeFileErrors(md, report)
	w.writeCoverage(md, report)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeHeader writes the report header with scan information.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, report *model.ScanReport) {
	md.H1("Site Metadata Report")
	md.PlainText("")

	mode := "default"
	if report.Strict {
		mode = "strict"
	}

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Directory", "`" + report.Root + "`"},
			{"Origin", report.Origin},
			{"Generated", report.GeneratedAt.Format("2006-01-02 15:04:05 MST")},
			{"Mode", mode},
		},
	})
	md.PlainText("")

	for _, warning := range report.ConfigWarnings {
		md.Warningf("%s", warning)
		md.PlainText("")
	}
}

// writeSummary writes the file and violation counts.
func (w *MarkdownWriter) writeSummary(md *markdown.Markdown, report *model.ScanReport) {
	md.H2("Summary")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Metric", "Count"},
		Rows: [][]string{
			{"HTML files", strconv.Itoa(report.Total)},
			{"✅ Valid", strconv.Itoa(report.Valid)},
			{"❌ Invalid", strconv.Itoa(report.Invalid)},
			{"⚠️ Unreadable", strconv.Itoa(report.FileErrors)},
			{"🔴 Errors", strconv.Itoa(report.Errors)},
			{"🟡 Warnings", strconv.Itoa(report.Warnings)},
			{"🔧 Fixed", strconv.Itoa(report.Fixed)},
		},
	})
	md.PlainText("")

	if report.Errors+report.Warnings > 0 {
		w.writePieChart(md, report)
	}
	w.writeAlert(md, report)
}

// writePieChart writes a mermaid pie chart of violations by category.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, report *model.ScanReport) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Violations by Category"),
		piechart.WithShowData(true),
	)

	for _, c := range model.AllCategories() {
		if n := report.PerCategoryCounts[c]; n > 0 {
			chart.LabelAndIntValue(string(c), uint64(n))
		}
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeAlert writes an alert matching the outcome of the scan.
func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, report *model.ScanReport) {
	switch {
	case report.Errors > 0:
		md.Cautionf(
			"%d error(s) in %d file(s) must be fixed before deployment.",
			report.Errors, report.Invalid,
		)
	case report.FileErrors > 0:
		md.Warningf("%d file(s) could not be read.", report.FileErrors)
	case report.Warnings > 0:
		md.Note("Only warnings were found.")
	default:
		md.Tip("All pages passed.")
	}
	md.PlainText("")
}

// writeTopOffenders writes the files with the most violations.
func (w *MarkdownWriter) writeTopOffenders(md *markdown.Markdown, report *model.ScanReport) {
	if len(report.TopOffenders) == 0 {
		return
	}

	md.H2("Top Offending Files")
	md.PlainText("")

	rows := make([][]string, len(report.TopOffenders))
	for i, o := range report.TopOffenders {
		rows[i] = []string{"`" + o.File + "`", strconv.Itoa(o.Errors), strconv.Itoa(o.Warnings)}
	}
	md.Table(markdown.TableSet{
		Header: []string{"File", "Errors", "Warnings"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeViolations writes all violations grouped by category.
func (w *MarkdownWriter) writeViolations(md *markdown.Markdown, report *model.ScanReport) {
	md.H2("Violations")
	md.PlainText("")

	if report.Errors+report.Warnings == 0 {
		md.PlainText("No violations found.")
		md.PlainText("")
		return
	}

	for _, c := range model.AllCategories() {
		violations := report.ViolationsByCategory(c)
		if len(violations) == 0 {
			continue
		}
		info := model.GetCategoryInfo(c)

		md.PlainText(fmt.Sprintf("### %s %s (%d)", severityEmoji(model.GetSeverity(c)), info.Title, len(violations)))
		md.PlainText("")

		shown := violations
		if w.maxRows > 0 && len(shown) > w.maxRows {
			shown = shown[:w.maxRows]
		}
		rows := make([][]string, len(shown))
		for i, v := range shown {
			detail := v.Detail
			if detail == "" {
				detail = "-"
			}
			rows[i] = []string{"`" + v.File + "`", truncateString(detail, 80), v.Severity.String()}
		}
		md.Table(markdown.TableSet{
			Header: []string{"File", "Detail", "Severity"},
			Rows:   rows,
		})
		md.PlainText("")

		if len(shown) < len(violations) {
			md.PlainTextf("*%d more not shown*", len(violations)-len(shown))
			md.PlainText("")
		}
		md.Details("Recommendation", info.Recommendation)
		md.PlainText("")
	}
}

// writeFileErrors writes the files that could not be read.
func (w *MarkdownWriter) writeFileErrors(md *markdown.Markdown, report *model.ScanReport) {
	failed := report.FailedFiles()
	if len(failed) == 0 {
		return
	}

	md.H2("Unreadable Files")
	md.PlainText("")

	items := make([]string, len(failed))
	for i, r := range failed {
		items[i] = fmt.Sprintf("`%s`: %s", r.File, r.Error)
	}
	md.BulletList(items...)
	md.PlainText("")
}

// writeCoverage writes the page config coverage audit.
func (w *MarkdownWriter) writeCoverage(md *markdown.Markdown, report *model.ScanReport) {
	c := report.Coverage
	if len(c.Configured)+len(c.Unconfigured)+len(c.UnusedEntries) == 0 {
		return
	}

	md.H2("Page Config Coverage")
	md.PlainText("")
	md.PlainTextf("%d of %d pages configured (%.0f%%).",
		len(c.Configured), len(c.Configured)+len(c.Unconfigured), c.Ratio()*100)
	md.PlainText("")

	if len(c.Unconfigured) > 0 {
		md.Details("Pages without configuration", joinCode(c.Unconfigured))
		md.PlainText("")
	}
	if len(c.UnusedEntries) > 0 {
		md.Details("Config entries matching no page", joinCode(c.UnusedEntries))
		md.PlainText("")
	}
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [sitelint](https://github.com/nao1215/sitelint)*")
}

// severityEmoji returns the marker used in section headers.
func severityEmoji(s model.Severity) string {
	if s == model.SeverityError {
		return "🔴"
	}
	return "🟡"
}

// joinCode formats ids as a comma separated list of code spans.
func joinCode(ids []string) string {
	out := ""
	for i, id := range ids {
		if i > 0 {
			out += ", "
		}
		out += "`" + id + "`"
	}
	return out
}

// truncateString truncates a string to maxLen characters with ellipsis.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
