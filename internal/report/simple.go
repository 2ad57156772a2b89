package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/sitelint/internal/model"
)

// SimpleWriter outputs human-readable text reports for terminal display.
type SimpleWriter struct {
	baseWriter

	// showEmpty controls whether sections with nothing to list are shown.
	showEmpty bool

	// verbose adds the recommendation of each category and the coverage
	// lists to the output.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithShowEmpty configures the writer to show empty sections.
func WithShowEmpty(show bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.showEmpty = show
	}
}

// WithVerbose enables verbose output with additional details.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs the report in human-readable format.
func (w *SimpleWriter) Write(report *model.ScanReport) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, report)
	w.writeSummary(&sb, report)
	w.writeViolations(&sb, report)
	w.writeFileErrors(&sb, report)
	w.writeTopOffenders(&sb, report)
	w.writeCoverage(&sb, report)
	w.writeFooter(&sb)

	return w.output.Write([]byte(sb.String()))
}

// section writes a section title framed by rules.
func section(sb *strings.Builder, title string) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString(title)
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")
}

// writeHeader writes the report header with scan information.
func (w *SimpleWriter) writeHeader(sb *strings.Builder, report *model.ScanReport) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                      SITE METADATA REPORT\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	fmt.Fprintf(sb, "Directory:  %s\n", report.Root)
	fmt.Fprintf(sb, "Origin:     %s\n", report.Origin)
	fmt.Fprintf(sb, "Generated:  %s\n", report.GeneratedAt.Format("2006-01-02 15:04:05 MST"))
	if report.Strict {
		sb.WriteString("Mode:       strict\n")
	}
	for _, warning := range report.ConfigWarnings {
		fmt.Fprintf(sb, "Warning:    %s\n", warning)
	}
	sb.WriteString("\n")
}

// writeSummary writes the counts section.
func (w *SimpleWriter) writeSummary(sb *strings.Builder, report *model.ScanReport) {
	section(sb, "SUMMARY")

	fmt.Fprintf(sb, "  FILES:      %d\n", report.Total)
	fmt.Fprintf(sb, "  VALID:      %d\n", report.Valid)
	fmt.Fprintf(sb, "  INVALID:    %d\n", report.Invalid)
	if report.FileErrors > 0 || w.showEmpty {
		fmt.Fprintf(sb, "  UNREADABLE: %d\n", report.FileErrors)
	}
	sb.WriteString("\n")
	fmt.Fprintf(sb, "  ERRORS:     %d\n", report.Errors)
	fmt.Fprintf(sb, "  WARNINGS:   %d\n", report.Warnings)
	if report.Fixed > 0 || w.showEmpty {
		fmt.Fprintf(sb, "  FIXED:      %d\n", report.Fixed)
	}
	sb.WriteString("\n")
}

// writeViolations writes all violations grouped by category.
func (w *SimpleWriter) writeViolations(sb *strings.Builder, report *model.ScanReport) {
	if report.Errors+report.Warnings == 0 && !w.showEmpty {
		return
	}

	section(sb, "VIOLATIONS")

	for _, c := range model.AllCategories() {
		violations := report.ViolationsByCategory(c)
		if len(violations) == 0 && !w.showEmpty {
			continue
		}
		w.writeCategory(sb, c, violations)
	}
}

// writeCategory writes the violations of one category.
func (w *SimpleWriter) writeCategory(sb *strings.Builder, c model.Category, violations []model.Violation) {
	info := model.GetCategoryInfo(c)
	fmt.Fprintf(sb, "[%s] %s (%d)\n", c, info.Title, len(violations))

	if len(violations) == 0 {
		sb.WriteString("  None\n\n")
		return
	}

	for _, v := range violations {
		if v.Detail != "" {
			fmt.Fprintf(sb, "  %s %s: %s\n", severityIndicator(v.Severity), v.File, v.Detail)
		} else {
			fmt.Fprintf(sb, "  %s %s\n", severityIndicator(v.Severity), v.File)
		}
	}
	if w.verbose && info.Recommendation != "" {
		fmt.Fprintf(sb, "  Recommendation: %s\n", info.Recommendation)
	}
	sb.WriteString("\n")
}

// severityIndicator returns a visual indicator for the severity level.
func severityIndicator(s model.Severity) string {
	switch s {
	case model.SeverityError:
		return "!!"
	case model.SeverityWarning:
		return " !"
	default:
		return " ?"
	}
}

// writeFileErrors writes the files that could not be read.
func (w *SimpleWriter) writeFileErrors(sb *strings.Builder, report *model.ScanReport) {
	failed := report.FailedFiles()
	if len(failed) == 0 {
		return
	}

	section(sb, "UNREADABLE FILES")
	for _, r := range failed {
		fmt.Fprintf(sb, "  [x] %s: %s\n", r.File, r.Error)
	}
	sb.WriteString("\n")
}

// writeTopOffenders writes the files with the most violations.
func (w *SimpleWriter) writeTopOffenders(sb *strings.Builder, report *model.ScanReport) {
	if len(report.TopOffenders) == 0 {
		return
	}

	section(sb, "TOP OFFENDING FILES")
	for i, o := range report.TopOffenders {
		fmt.Fprintf(sb, "  %2d. %-50s E:%d W:%d\n", i+1, o.File, o.Errors, o.Warnings)
	}
	sb.WriteString("\n")
}

// writeCoverage writes the page config coverage summary.
func (w *SimpleWriter) writeCoverage(sb *strings.Builder, report *model.ScanReport) {
	c := report.Coverage
	pages := len(c.Configured) + len(c.Unconfigured)
	if pages == 0 && len(c.UnusedEntries) == 0 {
		return
	}

	section(sb, "PAGE CONFIG COVERAGE")
	fmt.Fprintf(sb, "  %d of %d pages configured (%.0f%%)\n", len(c.Configured), pages, c.Ratio()*100)
	if len(c.UnusedEntries) > 0 {
		fmt.Fprintf(sb, "  %d config entries match no page\n", len(c.UnusedEntries))
	}
	if w.verbose {
		for _, id := range c.Unconfigured {
			fmt.Fprintf(sb, "  [ ] %s\n", id)
		}
		for _, id := range c.UnusedEntries {
			fmt.Fprintf(sb, "  [?] %s\n", id)
		}
	}
	sb.WriteString("\n")
}

// writeFooter writes the report footer.
func (w *SimpleWriter) writeFooter(sb *strings.Builder) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("Report generated by sitelint\n")
	sb.WriteString("https://github.com/nao1215/sitelint\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
}
