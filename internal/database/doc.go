// Package database provides SQLite-based run history for sitelint.
//
// Every scan can be recorded in the HistoryDB, which stores:
//   - The complete ScanReport of the run as JSON
//   - A per-severity summary for listing runs without loading reports
//   - The content hash of every scanned file, for change detection
//
// The compare command reads the history to show which violations a change
// introduced or resolved. SQLite is accessed through modernc.org/sqlite,
// so no CGO toolchain is needed.
package database
