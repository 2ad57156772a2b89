// Package log provides the sitelint loggers, built on top of the standard
// slog package.
//
// The RootHandler rewrites absolute file paths in log attributes so they
// are relative to the scan root. Log lines then match the paths used in
// the report and stay stable across machines, which keeps CI logs diffable.
//
// # Usage
//
//	logger := log.NewLogger(os.Stderr, verbose, "/home/ci/site/public")
//	logger.Warn("step failed", "path", "/home/ci/site/public/blog/post.html")
//	// level=WARN msg="step failed" path=blog/post.html
//
//	slog.SetDefault(logger)
package log
