// Package pipeline runs the per-file scan stages over a set of HTML files.
//
// Each file is processed by its own Pipeline: read, extract, evaluate and
// optionally fix. A Step records its outcome on the file's
// model.FileResult. A step that fails with an error marks that file as
// errored and stops its pipeline; other files are never affected.
//
// BatchProcessor runs one pipeline per file with bounded concurrency using
// errgroup. Results are returned in input order, and the report builder
// sorts them by path, so the degree of parallelism never changes the
// report.
package pipeline
