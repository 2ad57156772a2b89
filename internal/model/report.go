package model

import "time"

// FileStatus is the classification of a single file in a scan.
type FileStatus string

const (
	// FileStatusValid means the file has no ERROR-severity violations.
	FileStatusValid FileStatus = "valid"

	// FileStatusInvalid means the file has at least one ERROR-severity violation.
	FileStatusInvalid FileStatus = "invalid"

	// FileStatusError means the file could not be read. Such files are
	// excluded from the valid/invalid counts.
	FileStatusError FileStatus = "error"
)

// CanonicalStatus describes the state of a page's canonical link relative
// to the normalizer output for its path.
type CanonicalStatus string

const (
	CanonicalAlreadyCorrect CanonicalStatus = "alreadyCorrect"
	CanonicalFixed          CanonicalStatus = "fixed"
	CanonicalMissing        CanonicalStatus = "missing"
	CanonicalMismatch       CanonicalStatus = "mismatch"
)

// FileResult is the outcome of running the pipeline over one file.
// Each file gets its own FileResult; a failure recorded here never
// affects any other file.
type FileResult struct {
	// File is the path relative to the scan root.
	File string `json:"file"`

	// AbsPath is the path on disk. It is not serialized.
	AbsPath string `json:"-"`

	// URL is the canonical URL the normalizer derives for File.
	URL string `json:"url"`

	// Status is valid, invalid or error.
	Status FileStatus `json:"status"`

	// Violations found on the page in evaluation order.
	Violations []Violation `json:"violations,omitempty"`

	// SchemaParseErrors mirrors Document.SchemaParseErrors for report consumers.
	SchemaParseErrors []SchemaParseError `json:"schema_parse_errors,omitempty"`

	// DeclaredSchemaTypes mirrors Document.DeclaredSchemaTypes.
	DeclaredSchemaTypes []string `json:"declared_schema_types,omitempty"`

	// Configured is true when a page config entry exists for the page.
	Configured bool `json:"configured"`

	// PageID is the page config key derived from File.
	PageID string `json:"page_id"`

	// CanonicalStatus is set by the fix step.
	CanonicalStatus CanonicalStatus `json:"canonical_status,omitempty"`

	// Fixed is true when fixes changed the content.
	Fixed bool `json:"fixed"`

	// FixesApplied lists the categories the fixer rewrote.
	FixesApplied []Category `json:"fixes_applied,omitempty"`

	// Encoding is the charset the file is stored in when it is not UTF-8.
	// Fixed content is written back in this encoding.
	Encoding string `json:"encoding,omitempty"`

	// Hash is the SHA3-256 digest of the content on disk after the run,
	// so a written fix changes it.
	Hash string `json:"hash,omitempty"`

	// Error contains the I/O error message when Status is error.
	Error string `json:"error,omitempty"`

	// Document is the parsed page. It is not serialized.
	Document *PageDocument `json:"-"`

	// Config is the page config entry used for evaluation, if any.
	Config *PageConfigEntry `json:"-"`

	// FixedContent holds the content the fixer produced, written or not.
	FixedContent string `json:"-"`
}

// NewFileResult creates a FileResult for a file found by the walker.
func NewFileResult(relPath, absPath string) *FileResult {
	return &FileResult{
		File:    relPath,
		AbsPath: absPath,
		Status:  FileStatusValid,
	}
}

// SetError records an I/O failure for the file.
func (r *FileResult) SetError(err error) {
	r.Status = FileStatusError
	r.Error = err.Error()
}

// Classify sets Status from the current violations unless the file
// already failed with an I/O error.
func (r *FileResult) Classify() {
	if r.Status == FileStatusError {
		return
	}
	errs, _ := CountBySeverity(r.Violations)
	if errs > 0 {
		r.Status = FileStatusInvalid
		return
	}
	r.Status = FileStatusValid
}

// Offender is an entry in the "top offending files" ranking.
type Offender struct {
	File     string `json:"file"`
	Errors   int    `json:"errors"`
	Warnings int    `json:"warnings"`
}

// Coverage is the page-config coverage audit. Missing configuration is
// surfaced here, never as a per-file violation.
type Coverage struct {
	// Configured lists pages that have a page config entry.
	Configured []string `json:"configured"`

	// Unconfigured lists pages without a page config entry.
	Unconfigured []string `json:"unconfigured"`

	// UnusedEntries lists page config entries that matched no page.
	UnusedEntries []string `json:"unused_entries"`
}

// Ratio returns the share of pages that have a config entry.
func (c Coverage) Ratio() float64 {
	total := len(c.Configured) + len(c.Unconfigured)
	if total == 0 {
		return 0
	}
	return float64(len(c.Configured)) / float64(total)
}

// ScanReport is the aggregate result of one scan invocation. It is
// written to the report file (overwriting the previous run) and stored in
// the run history database.
type ScanReport struct {
	// Root is the scanned directory.
	Root string `json:"root"`

	// Origin is the canonical origin used for normalization.
	Origin string `json:"origin"`

	// Strict reports whether strict mode was on.
	Strict bool `json:"strict"`

	// GeneratedAt is when the report was built.
	GeneratedAt time.Time `json:"generated_at"`

	// Total is the number of HTML files found.
	Total int `json:"total"`

	// Valid and Invalid count readable files by status.
	Valid   int `json:"valid"`
	Invalid int `json:"invalid"`

	// FileErrors counts files that could not be read.
	FileErrors int `json:"file_errors"`

	// Errors and Warnings count violations by severity.
	Errors   int `json:"errors"`
	Warnings int `json:"warnings"`

	// Fixed counts files whose content was rewritten.
	Fixed int `json:"fixed"`

	// PerCategoryCounts counts violations by category.
	PerCategoryCounts map[Category]int `json:"per_category_counts"`

	// TopOffenders ranks the files with the most violations.
	TopOffenders []Offender `json:"top_offenders,omitempty"`

	// ConfigWarnings holds top-level warnings such as an unreadable page config.
	ConfigWarnings []string `json:"config_warnings,omitempty"`

	// Coverage is the page-config coverage audit.
	Coverage Coverage `json:"coverage"`

	// Results holds per-file results sorted by path.
	Results []*FileResult `json:"results"`
}

// HasErrors reports whether any ERROR-severity violation was found.
func (r *ScanReport) HasErrors() bool {
	return r.Errors > 0
}

// Violations returns all violations of the report in result order.
func (r *ScanReport) Violations() []Violation {
	var out []Violation
	for _, res := range r.Results {
		out = append(out, res.Violations...)
	}
	return out
}

// ViolationsByCategory returns all violations of the given category.
func (r *ScanReport) ViolationsByCategory(category Category) []Violation {
	var out []Violation
	for _, res := range r.Results {
		for _, v := range res.Violations {
			if v.Category == category {
				out = append(out, v)
			}
		}
	}
	return out
}

// FailedFiles returns the results that could not be read.
func (r *ScanReport) FailedFiles() []*FileResult {
	var out []*FileResult
	for _, res := range r.Results {
		if res.Status == FileStatusError {
			out = append(out, res)
		}
	}
	return out
}
