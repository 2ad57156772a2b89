package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() so that callers can use
// errors.Is() while still getting a human-readable message.
var (
	// ErrNoDir is returned when the scan directory is empty.
	ErrNoDir = errors.New("no directory specified: use --dir")

	// ErrNoOutput is returned when the report path is empty.
	ErrNoOutput = errors.New("no report path specified: use --output")

	// ErrInvalidBatchSize is returned when the batch size is not positive.
	ErrInvalidBatchSize = errors.New("invalid batch size: must be positive")

	// ErrConflictingReportFormats is returned when both --json and --markdown
	// are specified. Only one output format can be used at a time.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")

	// ErrInvalidTopOffenders is returned when the ranking length is negative.
	ErrInvalidTopOffenders = errors.New("invalid top offenders: must be non-negative")

	// ErrInvalidMaxFileSize is returned when the file size limit is not positive.
	ErrInvalidMaxFileSize = errors.New("invalid max file size: must be positive")

	// ErrInvalidLogFormat is returned when --log-format is neither text nor json.
	ErrInvalidLogFormat = errors.New("invalid log format: must be text or json")

	// ErrInvalidOrigin is returned when the origin is not an http(s) origin
	// without a path.
	ErrInvalidOrigin = errors.New("invalid origin: expected a host such as https://www.example.com")
)
