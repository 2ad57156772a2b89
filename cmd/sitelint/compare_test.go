package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/sitelint/internal/database"
	"github.com/nao1215/sitelint/internal/model"
)

func TestNewCompareCmd(t *testing.T) {
	t.Parallel()

	cmd := NewCompareCmd()

	if cmd.Use != "compare [dir]" {
		t.Errorf("unexpected Use: got %q", cmd.Use)
	}

	flagsWithShort := map[string]string{
		"list":        "l",
		"list-roots":  "L",
		"with-run-id": "i",
		"json":        "j",
		"markdown":    "m",
		"db-dir":      "",
	}
	for flag, shorthand := range flagsWithShort {
		f := cmd.Flags().Lookup(flag)
		if f == nil {
			t.Errorf("expected flag %q to exist", flag)
			continue
		}
		if f.Shorthand != shorthand {
			t.Errorf("flag %q: expected shorthand %q, got %q", flag, shorthand, f.Shorthand)
		}
	}
}

func newRun(id int64, at time.Time, violations ...model.Violation) *database.Run {
	result := model.NewFileResult("faq.html", "")
	result.Violations = violations
	result.Classify()

	errs, warns := model.CountBySeverity(violations)
	return &database.Run{
		ID:   id,
		Root: "/site",
		Report: &model.ScanReport{
			GeneratedAt: at,
			Total:       1,
			Errors:      errs,
			Warnings:    warns,
			Results:     []*model.FileResult{result},
		},
	}
}

func TestCompareRuns(t *testing.T) {
	t.Parallel()

	base := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	dup := model.NewViolation("faq.html", model.CategoryDuplicateH1, "Two")
	insecure := model.NewViolation("faq.html", model.CategoryInsecureCanonical, "http://example.com/faq")
	missing := model.NewViolation("faq.html", model.CategoryMissingCanonical, "")

	previous := newRun(1, base, dup, insecure)
	current := newRun(2, base.Add(time.Hour), insecure, missing)

	result := compareRuns(previous, current,
		map[string]string{"faq.html": "a", "old.html": "b", "same.html": "c"},
		map[string]string{"faq.html": "x", "new.html": "y", "same.html": "c"},
	)

	if result.Root != "/site" {
		t.Errorf("unexpected root %q", result.Root)
	}
	if len(result.NewViolations) != 1 || result.NewViolations[0].Category != model.CategoryMissingCanonical {
		t.Errorf("unexpected new violations %+v", result.NewViolations)
	}
	if len(result.ResolvedViolations) != 1 || result.ResolvedViolations[0].Category != model.CategoryDuplicateH1 {
		t.Errorf("unexpected resolved violations %+v", result.ResolvedViolations)
	}
	if result.UnchangedCount != 1 {
		t.Errorf("expected 1 unchanged, got %d", result.UnchangedCount)
	}
	if strings.Join(result.AddedFiles, ",") != "new.html" ||
		strings.Join(result.RemovedFiles, ",") != "old.html" ||
		strings.Join(result.ChangedFiles, ",") != "faq.html" {
		t.Errorf("unexpected file changes +%v -%v ~%v", result.AddedFiles, result.RemovedFiles, result.ChangedFiles)
	}
	// One error became a warning.
	if result.Direction != directionImproved {
		t.Errorf("expected improved, got %s", result.Direction)
	}
	if result.PreviousRun.ID != 1 || result.CurrentRun.ID != 2 {
		t.Errorf("unexpected run ids %d %d", result.PreviousRun.ID, result.CurrentRun.ID)
	}
}

func TestDirection(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		prev, cur RunMetadata
		want      string
	}{
		{"fewer errors", RunMetadata{Errors: 2}, RunMetadata{Errors: 1}, directionImproved},
		{"more warnings", RunMetadata{Warnings: 1}, RunMetadata{Warnings: 2}, directionWorsened},
		{"error outweighs warnings", RunMetadata{Warnings: 5}, RunMetadata{Errors: 1}, directionWorsened},
		{"same", RunMetadata{Errors: 1, Warnings: 1}, RunMetadata{Errors: 1, Warnings: 1}, directionUnchanged},
		{"unreadable file", RunMetadata{}, RunMetadata{FileErrors: 1}, directionWorsened},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := direction(tt.prev, tt.cur); got != tt.want {
				t.Errorf("direction() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestFormatHelpers(t *testing.T) {
	t.Parallel()

	t.Run("formatDelta", func(t *testing.T) {
		t.Parallel()
		for delta, want := range map[int]string{3: "+3", 0: "0", -2: "-2"} {
			if got := formatDelta(delta); got != want {
				t.Errorf("formatDelta(%d) = %q, want %q", delta, got, want)
			}
		}
	})

	t.Run("formatSummary", func(t *testing.T) {
		t.Parallel()
		if got := formatSummary(database.Summary{}); got != noViolationsText {
			t.Errorf("expected %q, got %q", noViolationsText, got)
		}
		got := formatSummary(database.Summary{Errors: 2, Warnings: 1, FileErrors: 3, Fixed: 1})
		if got != "E:2 W:1 X:3 F:1" {
			t.Errorf("unexpected summary %q", got)
		}
	})

	t.Run("formatDirection", func(t *testing.T) {
		t.Parallel()
		if !strings.HasPrefix(formatDirection(directionImproved), "IMPROVED") ||
			!strings.HasPrefix(formatDirection(directionWorsened), "WORSENED") ||
			formatDirection("") != "UNCHANGED" {
			t.Error("unexpected direction text")
		}
	})
}

func TestComparisonOutput(t *testing.T) {
	t.Parallel()

	base := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	result := compareRuns(
		newRun(1, base, model.NewViolation("faq.html", model.CategoryDuplicateH1, "Two")),
		newRun(2, base.Add(time.Hour), model.NewViolation("faq.html", model.CategoryMissingCanonical, "")),
		map[string]string{"faq.html": "a"},
		map[string]string{"faq.html": "b"},
	)

	t.Run("text", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		if err := outputComparisonText(&buf, result); err != nil {
			t.Fatal(err)
		}
		out := buf.String()
		for _, want := range []string{"Run Comparison: /site", "IMPROVED", "New Violations (1)", "[+] [WARNING] Missing canonical link: faq.html", "Resolved Violations (1)", "[M] faq.html"} {
			if !strings.Contains(out, want) {
				t.Errorf("expected %q in output:\n%s", want, out)
			}
		}
	})

	t.Run("markdown", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		if err := outputComparisonMarkdown(&buf, result); err != nil {
			t.Fatal(err)
		}
		out := buf.String()
		for _, want := range []string{"# Run Comparison: /site", "## New Violations (1)", "## Resolved Violations (1)", "~~", "changed `faq.html`"} {
			if !strings.Contains(out, want) {
				t.Errorf("expected %q in output:\n%s", want, out)
			}
		}
	})

	t.Run("json", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		if err := outputComparisonJSON(&buf, result); err != nil {
			t.Fatal(err)
		}
		var decoded ComparisonResult
		if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if decoded.Direction != directionImproved || len(decoded.NewViolations) != 1 {
			t.Errorf("unexpected decoded result %+v", decoded)
		}
	})
}

// TestCompareWithHistory scans a site twice and compares the runs.
func TestCompareWithHistory(t *testing.T) {
	t.Parallel()

	site, pageConfig := writeSite(t, map[string]string{"faq.html": fixablePage})
	dbDir := filepath.Join(t.TempDir(), "db")
	output := filepath.Join(filepath.Dir(site), "report.json")

	scan := func(extra ...string) {
		t.Helper()
		args := append([]string{"scan", "-d", site, "-p", pageConfig, "-o", output, "--db-dir", dbDir, "--warn-only"}, extra...)
		if _, _, err := executeCmd(t, args...); err != nil {
			t.Fatalf("scan failed: %v", err)
		}
	}

	_, _, err := executeCmd(t, "compare", site, "--db-dir", dbDir)
	if err == nil || !strings.Contains(err.Error(), "no run history") {
		t.Fatalf("expected missing history error, got %v", err)
	}

	scan()
	_, _, err = executeCmd(t, "compare", site, "--db-dir", dbDir)
	if err == nil || !strings.Contains(err.Error(), "at least 2 runs") {
		t.Fatalf("expected at least 2 runs error, got %v", err)
	}

	scan("--fix")

	stdout, _, err := executeCmd(t, "compare", site, "--db-dir", dbDir)
	if err != nil {
		t.Fatalf("compare failed: %v", err)
	}
	for _, want := range []string{"IMPROVED", "Resolved Violations", "[M] faq.html"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("expected %q in output:\n%s", want, stdout)
		}
	}

	stdout, _, err = executeCmd(t, "compare", site, "--db-dir", dbDir, "--list")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if !strings.Contains(stdout, "(2 runs)") {
		t.Errorf("expected two runs in history:\n%s", stdout)
	}

	stdout, _, err = executeCmd(t, "compare", "--db-dir", dbDir, "--list-roots")
	if err != nil {
		t.Fatalf("list roots failed: %v", err)
	}
	abs, err := filepath.Abs(site)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(stdout, abs) {
		t.Errorf("expected %s in roots:\n%s", abs, stdout)
	}

	t.Run("unknown run id", func(t *testing.T) {
		_, _, err := executeCmd(t, "compare", site, "--db-dir", dbDir, "--with-run-id", "999")
		if err == nil || !strings.Contains(err.Error(), "not found") {
			t.Errorf("expected not found error, got %v", err)
		}
	})

	t.Run("run of another root", func(t *testing.T) {
		other, otherConfig := writeSite(t, map[string]string{"faq.html": faqPage})
		args := []string{"scan", "-d", other, "-p", otherConfig, "-o", filepath.Join(t.TempDir(), "r.json"), "--db-dir", dbDir}
		if _, _, err := executeCmd(t, args...); err != nil {
			t.Fatalf("scan failed: %v", err)
		}
		// The other root's run is the third run in the database.
		_, _, err := executeCmd(t, "compare", site, "--db-dir", dbDir, "--with-run-id", "3")
		if err == nil || !strings.Contains(err.Error(), "belongs to") {
			t.Errorf("expected belongs to error, got %v", err)
		}
	})

	t.Run("conflicting formats", func(t *testing.T) {
		_, _, err := executeCmd(t, "compare", site, "--db-dir", dbDir, "--json", "--markdown")
		if err == nil {
			t.Error("expected error for --json with --markdown")
		}
	})
}

func TestCompareEmptyDatabase(t *testing.T) {
	t.Parallel()

	dbDir := t.TempDir()
	hdb, err := database.Open(dbDir, database.DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	_ = hdb.Close()

	stdout, _, err := executeCmd(t, "compare", "--db-dir", dbDir, "--list-roots")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(stdout, "No scanned directories") {
		t.Errorf("unexpected output %q", stdout)
	}

	dir := filepath.Join(t.TempDir(), "site")
	if err := os.MkdirAll(dir, 0o750); err != nil {
		t.Fatal(err)
	}
	stdout, _, err = executeCmd(t, "compare", dir, "--db-dir", dbDir, "--list")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(stdout, "No run history found") {
		t.Errorf("unexpected output %q", stdout)
	}
}
