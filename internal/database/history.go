package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/sitelint/internal/model"
)

// FileName is the name of the database file inside the database directory.
const FileName = "sitelint.db"

// HistoryDB provides SQLite-based storage for scan runs.
type HistoryDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures HistoryDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent performance.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// ErrDatabaseNotFound is returned by Open when the database does not exist
// and CreateIfNotExists is false.
var ErrDatabaseNotFound = errors.New("history database not found")

// Open opens or creates a HistoryDB in dbDir.
// If CreateIfNotExists is true, the directory and database file are created.
// If CreateIfNotExists is false and the database doesn't exist,
// ErrDatabaseNotFound is returned.
func Open(dbDir string, opts Options) (*HistoryDB, error) {
	dbPath := filepath.Join(dbDir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("%w at %s", ErrDatabaseNotFound, dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// mode=rw refuses to create a new file; mode=rwc allows it.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	hdb := &HistoryDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := hdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return hdb, nil
}

// Path returns the path of the database file.
func (hdb *HistoryDB) Path() string {
	return hdb.dbPath
}

// Close closes the database connection.
func (hdb *HistoryDB) Close() error {
	return hdb.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (hdb *HistoryDB) createTables() error {
	schema := `
	-- Runs store complete scan reports as JSON
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		root TEXT NOT NULL,
		timestamp TEXT NOT NULL,
		report_json TEXT NOT NULL,
		summary TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_runs_root ON runs(root);
	CREATE INDEX IF NOT EXISTS idx_runs_timestamp ON runs(timestamp);

	-- File hashes record the content of every scanned file per run
	CREATE TABLE IF NOT EXISTS file_hashes (
		run_id INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		file TEXT NOT NULL,
		hash TEXT NOT NULL,
		status TEXT NOT NULL,
		UNIQUE(run_id, file)
	);

	CREATE INDEX IF NOT EXISTS idx_hashes_file ON file_hashes(file);
	`

	_, err := hdb.db.ExecContext(context.Background(), schema)
	return err
}

// Summary holds the counts shown when listing runs.
type Summary struct {
	Total      int `json:"total"`
	Invalid    int `json:"invalid"`
	FileErrors int `json:"file_errors"`
	Errors     int `json:"errors"`
	Warnings   int `json:"warnings"`
	Fixed      int `json:"fixed"`
}

// summarize extracts the Summary of a report.
func summarize(report *model.ScanReport) Summary {
	return Summary{
		Total:      report.Total,
		Invalid:    report.Invalid,
		FileErrors: report.FileErrors,
		Errors:     report.Errors,
		Warnings:   report.Warnings,
		Fixed:      report.Fixed,
	}
}

// SaveRun stores the report under root together with the content hash of
// every file. root should be an absolute path so that runs started from
// different working directories are grouped together.
func (hdb *HistoryDB) SaveRun(ctx context.Context, root string, report *model.ScanReport) (int64, error) {
	reportJSON, err := json.Marshal(report)
	if err != nil {
		return 0, fmt.Errorf("failed to serialize report: %w", err)
	}
	summaryJSON, err := json.Marshal(summarize(report))
	if err != nil {
		return 0, fmt.Errorf("failed to serialize summary: %w", err)
	}

	timestamp := report.GeneratedAt
	if timestamp.IsZero() {
		timestamp = time.Now()
	}

	tx, err := hdb.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	result, err := tx.ExecContext(ctx,
		`INSERT INTO runs (root, timestamp, report_json, summary) VALUES (?, ?, ?, ?)`,
		root,
		timestamp.UTC().Format(time.RFC3339Nano),
		string(reportJSON),
		string(summaryJSON),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w", err)
	}
	runID, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get run id: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO file_hashes (run_id, file, hash, status) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare hash insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range report.Results {
		if r.Hash == "" {
			continue
		}
		if _, err := stmt.ExecContext(ctx, runID, r.File, r.Hash, string(r.Status)); err != nil {
			return 0, fmt.Errorf("failed to insert hash of %s: %w", r.File, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit run: %w", err)
	}
	return runID, nil
}

// RunMetadata contains summary information about a stored run.
// It is used for listing history without loading full reports.
type RunMetadata struct {
	// ID is the unique identifier of the run in the database.
	ID int64

	// Root is the scanned directory.
	Root string

	// Timestamp is when the report was generated.
	Timestamp time.Time

	// Summary contains the counts of the run.
	Summary Summary
}

// ListRoots returns every scan root that has stored runs.
func (hdb *HistoryDB) ListRoots(ctx context.Context) ([]string, error) {
	rows, err := hdb.db.QueryContext(ctx, `SELECT DISTINCT root FROM runs ORDER BY root`)
	if err != nil {
		return nil, fmt.Errorf("failed to list roots: %w", err)
	}
	defer rows.Close()

	var roots []string
	for rows.Next() {
		var root string
		if err := rows.Scan(&root); err != nil {
			return nil, fmt.Errorf("failed to scan root: %w", err)
		}
		roots = append(roots, root)
	}
	return roots, rows.Err()
}

// ListRuns returns the metadata of all runs for root, newest first.
func (hdb *HistoryDB) ListRuns(ctx context.Context, root string) ([]RunMetadata, error) {
	rows, err := hdb.db.QueryContext(ctx, `
	SELECT id, root, timestamp, summary
	FROM runs
	WHERE root = ?
	ORDER BY timestamp DESC, id DESC
	`, root)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []RunMetadata
	for rows.Next() {
		var meta RunMetadata
		var timestamp string
		var summaryJSON sql.NullString

		if err := rows.Scan(&meta.ID, &meta.Root, &timestamp, &summaryJSON); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		meta.Timestamp = parseTimestamp(timestamp)
		if summaryJSON.Valid && summaryJSON.String != "" {
			// A broken summary only affects the listing.
			_ = json.Unmarshal([]byte(summaryJSON.String), &meta.Summary) //nolint:errcheck
		}
		runs = append(runs, meta)
	}
	return runs, rows.Err()
}

// Run is a stored report together with its identity.
type Run struct {
	ID     int64
	Root   string
	Report *model.ScanReport
}

// GetRun retrieves a run by its database ID. It returns nil without an
// error when no run has that ID.
func (hdb *HistoryDB) GetRun(ctx context.Context, id int64) (*Run, error) {
	var run Run
	var reportJSON string
	err := hdb.db.QueryRowContext(ctx,
		`SELECT id, root, report_json FROM runs WHERE id = ?`, id,
	).Scan(&run.ID, &run.Root, &reportJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	var report model.ScanReport
	if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
		return nil, fmt.Errorf("failed to parse report of run %d: %w", id, err)
	}
	run.Report = &report
	return &run, nil
}

// LatestRuns returns up to limit runs for root, newest first. Runs whose
// report cannot be parsed are skipped.
func (hdb *HistoryDB) LatestRuns(ctx context.Context, root string, limit int) ([]*Run, error) {
	rows, err := hdb.db.QueryContext(ctx, `
	SELECT id, root, report_json
	FROM runs
	WHERE root = ?
	ORDER BY timestamp DESC, id DESC
	LIMIT ?
	`, root, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get run history: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		var run Run
		var reportJSON string
		if err := rows.Scan(&run.ID, &run.Root, &reportJSON); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		var report model.ScanReport
		if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
			continue // Skip malformed reports
		}
		run.Report = &report
		runs = append(runs, &run)
	}
	return runs, rows.Err()
}

// FileHashes returns the content hash of every file of a run, keyed by
// relative path.
func (hdb *HistoryDB) FileHashes(ctx context.Context, runID int64) (map[string]string, error) {
	rows, err := hdb.db.QueryContext(ctx,
		`SELECT file, hash FROM file_hashes WHERE run_id = ?`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get file hashes: %w", err)
	}
	defer rows.Close()

	hashes := make(map[string]string)
	for rows.Next() {
		var file, hash string
		if err := rows.Scan(&file, &hash); err != nil {
			return nil, fmt.Errorf("failed to scan file hash: %w", err)
		}
		hashes[file] = hash
	}
	return hashes, rows.Err()
}

// timestampFormats contains the timestamp formats that may be stored.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05", // SQLite default datetime format
	"2006-01-02T15:04:05",
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
