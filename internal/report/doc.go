// Package report aggregates per-file results into a ScanReport and writes
// it out.
//
// Build is the only place where results are ordered: it sorts them by
// path, so parallel processing never changes the report.
//
// Writers implement the Writer interface:
//   - JSONWriter: the report file and machine readable stdout
//   - MarkdownWriter: a summary for pull requests and CI job pages
//   - SimpleWriter: human-readable text for terminal display
package report
