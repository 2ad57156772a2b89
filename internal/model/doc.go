// Package model defines the core data structures used throughout sitelint.
//
// This package contains the following main types:
//   - PageDocument: One on-disk HTML file and everything extracted from it
//   - PageConfigEntry: The declared expectation for one logical page
//   - Violation: A single rule failure found on a page
//   - FileResult: The per-file outcome of one pipeline run
//   - ScanReport: The aggregate result of a scan over a directory
//
// Models live in their own package so that extract, rules, fix, report and
// database can share them without import cycles. All report types are
// serializable to JSON for the report file and the run history database.
package model
