package database

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/nao1215/sitelint/internal/model"
)

func newReport(root string, at time.Time, errs int) *model.ScanReport {
	result := model.NewFileResult("index.html", filepath.Join(root, "index.html"))
	result.Hash = "abc123"
	for i := 0; i < errs; i++ {
		result.Violations = append(result.Violations,
			model.NewViolation("index.html", model.CategoryMissingSchema, "FAQPage"))
	}
	result.Classify()

	unreadable := model.NewFileResult("broken.html", filepath.Join(root, "broken.html"))
	unreadable.SetError(errors.New("permission denied"))

	return &model.ScanReport{
		Root:        root,
		GeneratedAt: at,
		Total:       2,
		Errors:      errs,
		FileErrors:  1,
		Results:     []*model.FileResult{unreadable, result},
	}
}

func openTestDB(t *testing.T) *HistoryDB {
	t.Helper()

	hdb, err := Open(t.TempDir(), DefaultOptions())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { _ = hdb.Close() })
	return hdb
}

func TestOpen(t *testing.T) {
	t.Parallel()

	t.Run("creates the database file", func(t *testing.T) {
		t.Parallel()

		dir := filepath.Join(t.TempDir(), "nested", "data")
		hdb, err := Open(dir, DefaultOptions())
		if err != nil {
			t.Fatalf("Open failed: %v", err)
		}
		defer hdb.Close()

		if hdb.Path() != filepath.Join(dir, FileName) {
			t.Errorf("unexpected path %q", hdb.Path())
		}
	})

	t.Run("missing database without create", func(t *testing.T) {
		t.Parallel()

		_, err := Open(t.TempDir(), Options{CreateIfNotExists: false})
		if !errors.Is(err, ErrDatabaseNotFound) {
			t.Errorf("expected ErrDatabaseNotFound, got %v", err)
		}
	})

	t.Run("reopens an existing database", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		hdb, err := Open(dir, DefaultOptions())
		if err != nil {
			t.Fatalf("Open failed: %v", err)
		}
		if _, err := hdb.SaveRun(context.Background(), "/site", newReport("/site", time.Now(), 0)); err != nil {
			t.Fatalf("SaveRun failed: %v", err)
		}
		_ = hdb.Close()

		reopened, err := Open(dir, Options{EnableWAL: true})
		if err != nil {
			t.Fatalf("reopen failed: %v", err)
		}
		defer reopened.Close()

		roots, err := reopened.ListRoots(context.Background())
		if err != nil {
			t.Fatalf("ListRoots failed: %v", err)
		}
		if len(roots) != 1 || roots[0] != "/site" {
			t.Errorf("expected [/site], got %v", roots)
		}
	})
}

func TestSaveAndGetRun(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	hdb := openTestDB(t)

	at := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	id, err := hdb.SaveRun(ctx, "/site", newReport("/site", at, 2))
	if err != nil {
		t.Fatalf("SaveRun failed: %v", err)
	}
	if id <= 0 {
		t.Fatalf("expected positive id, got %d", id)
	}

	run, err := hdb.GetRun(ctx, id)
	if err != nil {
		t.Fatalf("GetRun failed: %v", err)
	}
	if run == nil {
		t.Fatal("expected a run")
	}
	if run.Root != "/site" || run.ID != id {
		t.Errorf("unexpected run identity %d %q", run.ID, run.Root)
	}
	if run.Report.Errors != 2 || len(run.Report.Results) != 2 {
		t.Errorf("report not restored: %+v", run.Report)
	}
	if !run.Report.GeneratedAt.Equal(at) {
		t.Errorf("expected %v, got %v", at, run.Report.GeneratedAt)
	}
	if got := run.Report.Results[1].Violations[0].Severity; got != model.SeverityError {
		t.Errorf("severity not restored, got %v", got)
	}

	t.Run("unknown id", func(t *testing.T) {
		t.Parallel()

		run, err := hdb.GetRun(ctx, id+100)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if run != nil {
			t.Errorf("expected nil run, got %+v", run)
		}
	})

	t.Run("file hashes skip unreadable files", func(t *testing.T) {
		t.Parallel()

		hashes, err := hdb.FileHashes(ctx, id)
		if err != nil {
			t.Fatalf("FileHashes failed: %v", err)
		}
		if len(hashes) != 1 || hashes["index.html"] != "abc123" {
			t.Errorf("unexpected hashes %v", hashes)
		}
	})
}

func TestHistoryOrdering(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	hdb := openTestDB(t)

	base := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	var ids []int64
	for i := 0; i < 3; i++ {
		id, err := hdb.SaveRun(ctx, "/site", newReport("/site", base.Add(time.Duration(i)*time.Hour), i))
		if err != nil {
			t.Fatalf("SaveRun failed: %v", err)
		}
		ids = append(ids, id)
	}
	if _, err := hdb.SaveRun(ctx, "/other", newReport("/other", base, 5)); err != nil {
		t.Fatalf("SaveRun failed: %v", err)
	}

	t.Run("ListRuns is newest first and per root", func(t *testing.T) {
		t.Parallel()

		runs, err := hdb.ListRuns(ctx, "/site")
		if err != nil {
			t.Fatalf("ListRuns failed: %v", err)
		}
		if len(runs) != 3 {
			t.Fatalf("expected 3 runs, got %d", len(runs))
		}
		if runs[0].ID != ids[2] || runs[2].ID != ids[0] {
			t.Errorf("unexpected order %+v", runs)
		}
		if runs[0].Summary.Errors != 2 || runs[0].Summary.FileErrors != 1 {
			t.Errorf("unexpected summary %+v", runs[0].Summary)
		}
		if !runs[0].Timestamp.Equal(base.Add(2 * time.Hour)) {
			t.Errorf("unexpected timestamp %v", runs[0].Timestamp)
		}
	})

	t.Run("LatestRuns limits the result", func(t *testing.T) {
		t.Parallel()

		runs, err := hdb.LatestRuns(ctx, "/site", 2)
		if err != nil {
			t.Fatalf("LatestRuns failed: %v", err)
		}
		if len(runs) != 2 {
			t.Fatalf("expected 2 runs, got %d", len(runs))
		}
		if runs[0].ID != ids[2] || runs[1].ID != ids[1] {
			t.Errorf("unexpected runs %d %d", runs[0].ID, runs[1].ID)
		}
	})

	t.Run("unknown root", func(t *testing.T) {
		t.Parallel()

		runs, err := hdb.ListRuns(ctx, "/missing")
		if err != nil {
			t.Fatalf("ListRuns failed: %v", err)
		}
		if len(runs) != 0 {
			t.Errorf("expected no runs, got %d", len(runs))
		}
	})

	t.Run("ListRoots is sorted", func(t *testing.T) {
		t.Parallel()

		roots, err := hdb.ListRoots(ctx)
		if err != nil {
			t.Fatalf("ListRoots failed: %v", err)
		}
		if len(roots) != 2 || roots[0] != "/other" || roots[1] != "/site" {
			t.Errorf("unexpected roots %v", roots)
		}
	})
}

func TestParseTimestamp(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		zero  bool
	}{
		{"RFC3339Nano", "2026-10-01T12:00:00.123456789Z", false},
		{"RFC3339", "2026-10-01T12:00:00Z", false},
		{"SQLite datetime", "2026-10-01 12:00:00", false},
		{"ISO without zone", "2026-10-01T12:00:00", false},
		{"garbage", "yesterday", true},
		{"empty", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := parseTimestamp(tt.input); got.IsZero() != tt.zero {
				t.Errorf("parseTimestamp(%q) = %v, zero=%v", tt.input, got, tt.zero)
			}
		})
	}
}
