package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/nao1215/markdown"
	"github.com/nao1215/sitelint/internal/config"
	"github.com/nao1215/sitelint/internal/database"
	"github.com/nao1215/sitelint/internal/model"
	"github.com/spf13/cobra"
)

// Constants for the direction of a comparison.
const (
	directionWorsened  = "worsened"
	directionImproved  = "improved"
	directionUnchanged = "unchanged"
	noViolationsText   = "No violations"
)

// NewCompareCmd creates the compare command.
// This command compares runs stored in the history database.
func NewCompareCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare [dir]",
		Short: "Compare scan runs of a site directory",
		Long: `Compare displays the differences between two scan runs of the same directory.

This command reads the run history written by 'sitelint scan' and shows:
- Violations introduced since the previous run
- Violations resolved since the previous run
- HTML files added, removed or changed between the runs

The directory defaults to ./public. Runs are grouped by the absolute path
of the scanned directory.

Examples:
  # Compare the latest two runs of ./public
  sitelint compare

  # List the run history of a directory
  sitelint compare --list dist

  # Compare the latest run with a specific run by ID
  sitelint compare --with-run-id 5

  # Output the comparison as JSON
  sitelint compare --json

  # List every directory with stored runs
  sitelint compare --list-roots`,
		Args: cobra.MaximumNArgs(1),
		RunE: runCompareCmd,
	}

	// History listing flags
	cmd.Flags().BoolP("list", "l", false,
		"List the run history of the directory")
	cmd.Flags().BoolP("list-roots", "L", false,
		"List every directory with stored runs")

	// Comparison target flags
	cmd.Flags().Int64P("with-run-id", "i", 0,
		"Compare the latest run with a specific run by ID (use --list to see available IDs)")

	// Output format flags
	cmd.Flags().BoolP("json", "j", false,
		"Output comparison result in JSON format")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output comparison result in Markdown format")

	cmd.Flags().String("db-dir", "",
		"Directory of the run history database (default: XDG data directory)")

	return cmd
}

// runCompareCmd executes the compare command.
func runCompareCmd(cmd *cobra.Command, args []string) error {
	listRoots, err := cmd.Flags().GetBool("list-roots")
	if err != nil {
		return err
	}
	jsonOutput, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}
	markdownOutput, err := cmd.Flags().GetBool("markdown")
	if err != nil {
		return err
	}
	if jsonOutput && markdownOutput {
		return config.ErrConflictingReportFormats
	}

	dir := config.DefaultDir
	if len(args) > 0 {
		dir = args[0]
	}
	root, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("invalid directory: %w", err)
	}

	dbDir, err := cmd.Flags().GetString("db-dir")
	if err != nil {
		return err
	}
	if dbDir == "" {
		dbDir = config.XDGDataDir()
	}

	db, err := database.Open(dbDir, database.Options{EnableWAL: true})
	if errors.Is(err, database.ErrDatabaseNotFound) {
		return errors.New("no run history found (use 'sitelint scan' to record runs)")
	}
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	ctx := commandContext(cmd)
	out := cmd.OutOrStdout()

	if listRoots {
		return listScannedRoots(ctx, out, db)
	}

	listHistory, err := cmd.Flags().GetBool("list")
	if err != nil {
		return err
	}
	if listHistory {
		return listRunHistory(ctx, out, db, root)
	}

	withRunID, err := cmd.Flags().GetInt64("with-run-id")
	if err != nil {
		return err
	}

	result, err := runComparison(ctx, db, root, withRunID)
	if err != nil {
		return err
	}

	switch {
	case jsonOutput:
		return outputComparisonJSON(out, result)
	case markdownOutput:
		return outputComparisonMarkdown(out, result)
	default:
		return outputComparisonText(out, result)
	}
}

// listScannedRoots lists all directories that have runs in the database.
func listScannedRoots(ctx context.Context, out io.Writer, db *database.HistoryDB) error {
	roots, err := db.ListRoots(ctx)
	if err != nil {
		return fmt.Errorf("failed to list roots: %w", err)
	}

	if len(roots) == 0 {
		fmt.Fprintln(out, "No scanned directories found in the database.")
		fmt.Fprintln(out, "\nUse 'sitelint scan' to scan a site.")
		return nil
	}

	fmt.Fprintf(out, "Scanned directories (%d):\n\n", len(roots))
	for _, root := range roots {
		fmt.Fprintf(out, "  • %s\n", root)
	}
	fmt.Fprintln(out, "\nUse 'sitelint compare --list <dir>' to see the run history of a directory.")

	return nil
}

// listRunHistory lists all runs of a directory.
func listRunHistory(ctx context.Context, out io.Writer, db *database.HistoryDB, root string) error {
	runs, err := db.ListRuns(ctx, root)
	if err != nil {
		return fmt.Errorf("failed to get run history: %w", err)
	}

	if len(runs) == 0 {
		fmt.Fprintf(out, "No run history found for %s\n", root)
		fmt.Fprintln(out, "\nUse 'sitelint scan' to scan this directory.")
		return nil
	}

	fmt.Fprintf(out, "Run history for %s (%d runs):\n\n", root, len(runs))
	fmt.Fprintf(out, "  %-6s  %-20s  %-6s  %s\n", "ID", "Date", "Files", "Violations")
	fmt.Fprintln(out, "  "+strings.Repeat("-", 60))

	for _, meta := range runs {
		fmt.Fprintf(out, "  %-6d  %-20s  %-6d  %s\n",
			meta.ID,
			meta.Timestamp.Local().Format("2006-01-02 15:04:05"),
			meta.Summary.Total,
			formatSummary(meta.Summary),
		)
	}

	fmt.Fprintln(out, "\nUse 'sitelint compare <dir>' to compare the latest two runs.")
	fmt.Fprintln(out, "Use 'sitelint compare --with-run-id <id> <dir>' to compare with a specific run.")

	return nil
}

// formatSummary formats the counts of a run into a short string.
func formatSummary(s database.Summary) string {
	var parts []string
	if s.Errors > 0 {
		parts = append(parts, fmt.Sprintf("E:%d", s.Errors))
	}
	if s.Warnings > 0 {
		parts = append(parts, fmt.Sprintf("W:%d", s.Warnings))
	}
	if s.FileErrors > 0 {
		parts = append(parts, fmt.Sprintf("X:%d", s.FileErrors))
	}
	if s.Fixed > 0 {
		parts = append(parts, fmt.Sprintf("F:%d", s.Fixed))
	}

	if len(parts) == 0 {
		return noViolationsText
	}
	return strings.Join(parts, " ")
}

// runComparison loads the runs to compare and diffs them.
func runComparison(ctx context.Context, db *database.HistoryDB, root string, withRunID int64) (*ComparisonResult, error) {
	runs, err := db.LatestRuns(ctx, root, 2)
	if err != nil {
		return nil, fmt.Errorf("failed to get run history: %w", err)
	}

	if len(runs) == 0 {
		return nil, fmt.Errorf("no run history found for %s", root)
	}

	current := runs[0]
	var previous *database.Run

	if withRunID > 0 {
		previous, err = db.GetRun(ctx, withRunID)
		if err != nil {
			return nil, fmt.Errorf("failed to get run with ID %d: %w", withRunID, err)
		}
		if previous == nil {
			return nil, fmt.Errorf("run with ID %d not found", withRunID)
		}
		if previous.Root != root {
			return nil, fmt.Errorf("run ID %d belongs to %s, not %s", withRunID, previous.Root, root)
		}
	} else {
		if len(runs) < 2 {
			return nil, fmt.Errorf("at least 2 runs are required for comparison (found %d)", len(runs))
		}
		previous = runs[1]
	}

	previousHashes, err := db.FileHashes(ctx, previous.ID)
	if err != nil {
		return nil, err
	}
	currentHashes, err := db.FileHashes(ctx, current.ID)
	if err != nil {
		return nil, err
	}

	return compareRuns(previous, current, previousHashes, currentHashes), nil
}

// ComparisonResult holds the result of comparing two runs.
type ComparisonResult struct {
	// Root is the scanned directory.
	Root string `json:"root"`

	// PreviousRun contains metadata about the previous run.
	PreviousRun RunMetadata `json:"previous_run"`

	// CurrentRun contains metadata about the current run.
	CurrentRun RunMetadata `json:"current_run"`

	// NewViolations are violations that are new in the current run.
	NewViolations []model.Violation `json:"new_violations,omitempty"`

	// ResolvedViolations were in the previous run but not in the current one.
	ResolvedViolations []model.Violation `json:"resolved_violations,omitempty"`

	// UnchangedCount is the number of violations present in both runs.
	UnchangedCount int `json:"unchanged_count"`

	// AddedFiles, RemovedFiles and ChangedFiles compare the content hashes.
	AddedFiles   []string `json:"added_files,omitempty"`
	RemovedFiles []string `json:"removed_files,omitempty"`
	ChangedFiles []string `json:"changed_files,omitempty"`

	// Direction is "improved", "worsened", or "unchanged".
	Direction string `json:"direction"`
}

// RunMetadata contains metadata about a run for comparison display.
type RunMetadata struct {
	ID          int64     `json:"id"`
	GeneratedAt time.Time `json:"generated_at"`
	Files       int       `json:"files"`
	Errors      int       `json:"errors"`
	Warnings    int       `json:"warnings"`
	FileErrors  int       `json:"file_errors"`
}

// newRunMetadata extracts the comparison metadata of a run.
func newRunMetadata(run *database.Run) RunMetadata {
	return RunMetadata{
		ID:          run.ID,
		GeneratedAt: run.Report.GeneratedAt,
		Files:       run.Report.Total,
		Errors:      run.Report.Errors,
		Warnings:    run.Report.Warnings,
		FileErrors:  run.Report.FileErrors,
	}
}

// compareRuns diffs the violations and file hashes of two runs.
// Violations are matched by file, category and detail.
func compareRuns(previous, current *database.Run, previousHashes, currentHashes map[string]string) *ComparisonResult {
	result := &ComparisonResult{
		Root:        current.Root,
		PreviousRun: newRunMetadata(previous),
		CurrentRun:  newRunMetadata(current),
	}

	previousViolations := violationsByKey(previous.Report)
	currentViolations := violationsByKey(current.Report)

	for key, v := range currentViolations {
		if _, exists := previousViolations[key]; !exists {
			result.NewViolations = append(result.NewViolations, v)
		}
	}
	for key, v := range previousViolations {
		if _, exists := currentViolations[key]; !exists {
			result.ResolvedViolations = append(result.ResolvedViolations, v)
		} else {
			result.UnchangedCount++
		}
	}
	sortViolations(result.NewViolations)
	sortViolations(result.ResolvedViolations)

	for file, hash := range currentHashes {
		prev, ok := previousHashes[file]
		switch {
		case !ok:
			result.AddedFiles = append(result.AddedFiles, file)
		case prev != hash:
			result.ChangedFiles = append(result.ChangedFiles, file)
		}
	}
	for file := range previousHashes {
		if _, ok := currentHashes[file]; !ok {
			result.RemovedFiles = append(result.RemovedFiles, file)
		}
	}
	sort.Strings(result.AddedFiles)
	sort.Strings(result.RemovedFiles)
	sort.Strings(result.ChangedFiles)

	result.Direction = direction(result.PreviousRun, result.CurrentRun)
	return result
}

// violationsByKey indexes the violations of a report by Violation.Key.
func violationsByKey(r *model.ScanReport) map[string]model.Violation {
	out := make(map[string]model.Violation)
	for _, v := range r.Violations() {
		out[v.Key()] = v
	}
	return out
}

// sortViolations orders violations by file, category and detail.
func sortViolations(vs []model.Violation) {
	sort.Slice(vs, func(i, j int) bool {
		return vs[i].Key() < vs[j].Key()
	})
}

// direction weighs errors over warnings to decide whether the site got
// better or worse.
func direction(previous, current RunMetadata) string {
	previousScore := previous.Errors*10 + previous.Warnings + previous.FileErrors*10
	currentScore := current.Errors*10 + current.Warnings + current.FileErrors*10

	switch {
	case currentScore < previousScore:
		return directionImproved
	case currentScore > previousScore:
		return directionWorsened
	default:
		return directionUnchanged
	}
}

// outputComparisonJSON outputs the comparison result in JSON format.
func outputComparisonJSON(out io.Writer, result *ComparisonResult) error {
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

// outputComparisonMarkdown outputs the comparison result in Markdown format.
func outputComparisonMarkdown(out io.Writer, result *ComparisonResult) error {
	md := markdown.NewMarkdown(out)

	md.H1("Run Comparison: " + result.Root)
	md.PlainText("")
	md.H2("Summary")
	md.PlainText("")
	md.PlainTextf("**Status:** %s", formatDirection(result.Direction))
	md.PlainText("")

	prev, cur := result.PreviousRun, result.CurrentRun
	md.Table(markdown.TableSet{
		Header: []string{"Metric", "Previous", "Current", "Change"},
		Rows: [][]string{
			{"Run", "#" + strconv.FormatInt(prev.ID, 10), "#" + strconv.FormatInt(cur.ID, 10), "-"},
			{"Date", prev.GeneratedAt.Format("2006-01-02 15:04"), cur.GeneratedAt.Format("2006-01-02 15:04"), "-"},
			{"Files", strconv.Itoa(prev.Files), strconv.Itoa(cur.Files), formatDelta(cur.Files - prev.Files)},
			{"Errors", strconv.Itoa(prev.Errors), strconv.Itoa(cur.Errors), formatDelta(cur.Errors - prev.Errors)},
			{"Warnings", strconv.Itoa(prev.Warnings), strconv.Itoa(cur.Warnings), formatDelta(cur.Warnings - prev.Warnings)},
			{"Unreadable", strconv.Itoa(prev.FileErrors), strconv.Itoa(cur.FileErrors), formatDelta(cur.FileErrors - prev.FileErrors)},
		},
	})
	md.PlainText("")

	if len(result.NewViolations) > 0 {
		md.H2(fmt.Sprintf("New Violations (%d)", len(result.NewViolations)))
		md.PlainText("")
		md.BulletList(violationLines(result.NewViolations, "**[%s]** %s: `%s` %s")...)
		md.PlainText("")
	}

	if len(result.ResolvedViolations) > 0 {
		md.H2(fmt.Sprintf("Resolved Violations (%d)", len(result.ResolvedViolations)))
		md.PlainText("")
		md.BulletList(violationLines(result.ResolvedViolations, "~~**[%s]** %s: `%s` %s~~")...)
		md.PlainText("")
	}

	if n := len(result.AddedFiles) + len(result.RemovedFiles) + len(result.ChangedFiles); n > 0 {
		md.H2(fmt.Sprintf("File Changes (%d)", n))
		md.PlainText("")
		var items []string
		for _, f := range result.AddedFiles {
			items = append(items, "added `"+f+"`")
		}
		for _, f := range result.RemovedFiles {
			items = append(items, "removed `"+f+"`")
		}
		for _, f := range result.ChangedFiles {
			items = append(items, "changed `"+f+"`")
		}
		md.BulletList(items...)
		md.PlainText("")
	}

	if result.UnchangedCount > 0 {
		md.HorizontalRule()
		md.PlainText("")
		md.PlainTextf("*%d violations unchanged*", result.UnchangedCount)
	}

	return md.Build()
}

// violationLines formats violations with a format taking severity, title,
// file and detail.
func violationLines(vs []model.Violation, format string) []string {
	lines := make([]string, len(vs))
	for i, v := range vs {
		lines[i] = strings.TrimSpace(fmt.Sprintf(format, v.Severity, v.Title(), v.File, v.Detail))
	}
	return lines
}

// outputComparisonText outputs the comparison result in human-readable text format.
func outputComparisonText(out io.Writer, result *ComparisonResult) error {
	fmt.Fprintf(out, "Run Comparison: %s\n", result.Root)
	fmt.Fprintln(out, strings.Repeat("=", 60))

	fmt.Fprintf(out, "\nStatus: %s\n", formatDirection(result.Direction))

	prev, cur := result.PreviousRun, result.CurrentRun
	fmt.Fprintf(out, "\nPrevious run: #%d %s\n", prev.ID, prev.GeneratedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(out, "Current run:  #%d %s\n", cur.ID, cur.GeneratedAt.Format("2006-01-02 15:04:05"))

	fmt.Fprintln(out, "\nSummary:")
	fmt.Fprintf(out, "  %-12s  %-10s  %-10s  %-10s\n", "Metric", "Previous", "Current", "Change")
	fmt.Fprintln(out, "  "+strings.Repeat("-", 47))
	for _, row := range []struct {
		name      string
		prev, cur int
	}{
		{"Files", prev.Files, cur.Files},
		{"Errors", prev.Errors, cur.Errors},
		{"Warnings", prev.Warnings, cur.Warnings},
		{"Unreadable", prev.FileErrors, cur.FileErrors},
	} {
		fmt.Fprintf(out, "  %-12s  %-10d  %-10d  %-10s\n", row.name, row.prev, row.cur, formatDelta(row.cur-row.prev))
	}

	if len(result.NewViolations) > 0 {
		fmt.Fprintf(out, "\nNew Violations (%d):\n", len(result.NewViolations))
		for _, line := range violationLines(result.NewViolations, "[%s] %s: %s %s") {
			fmt.Fprintf(out, "  [+] %s\n", line)
		}
	}

	if len(result.ResolvedViolations) > 0 {
		fmt.Fprintf(out, "\nResolved Violations (%d):\n", len(result.ResolvedViolations))
		for _, line := range violationLines(result.ResolvedViolations, "[%s] %s: %s %s") {
			fmt.Fprintf(out, "  [-] %s\n", line)
		}
	}

	if n := len(result.AddedFiles) + len(result.RemovedFiles) + len(result.ChangedFiles); n > 0 {
		fmt.Fprintf(out, "\nFile Changes (%d):\n", n)
		for _, f := range result.AddedFiles {
			fmt.Fprintf(out, "  [A] %s\n", f)
		}
		for _, f := range result.RemovedFiles {
			fmt.Fprintf(out, "  [D] %s\n", f)
		}
		for _, f := range result.ChangedFiles {
			fmt.Fprintf(out, "  [M] %s\n", f)
		}
	}

	if result.UnchangedCount > 0 {
		fmt.Fprintf(out, "\nUnchanged: %d violations\n", result.UnchangedCount)
	}

	return nil
}

// formatDirection formats the direction for display.
func formatDirection(d string) string {
	switch d {
	case directionImproved:
		return "IMPROVED (fewer violations)"
	case directionWorsened:
		return "WORSENED (more violations)"
	default:
		return "UNCHANGED"
	}
}

// formatDelta formats a numeric delta with sign for display.
func formatDelta(delta int) string {
	if delta > 0 {
		return "+" + strconv.Itoa(delta)
	}
	return strconv.Itoa(delta)
}
