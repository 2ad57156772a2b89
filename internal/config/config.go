package config

import (
	"net/url"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
)

// Default configuration values.
const (
	// DefaultDir is the static site output directory that is scanned.
	DefaultDir = "public"

	// DefaultOutput is where the JSON report is written. The file is
	// overwritten on every run.
	DefaultOutput = "reports/sitelint-report.json"

	// DefaultPageConfig is the page config file mapping page ids to their
	// content type and required structured data.
	DefaultPageConfig = "page-config.json"

	// DefaultOrigin is the canonical origin. The normalizer forces https
	// and the www subdomain on whatever origin is configured.
	DefaultOrigin = "https://www.example.com"

	// DefaultBatchSize is the number of files processed concurrently.
	DefaultBatchSize = 8

	// DefaultTopOffenders is the length of the top offending files ranking.
	DefaultTopOffenders = 10

	// DefaultMaxFileSize is the largest HTML file that is read.
	DefaultMaxFileSize = 10 * 1024 * 1024 // 10MB

	// AppName is the application name used for XDG directory paths.
	AppName = "sitelint"
)

// Log output formats.
const (
	LogFormatText = "text"
	LogFormatJSON = "json"
)

// Config holds all configuration options for sitelint.
// It is populated from CLI flags and the optional .sitelint file and
// passed through the application rather than kept in global state.
type Config struct {
	// Dir is the root directory of the generated site.
	Dir string

	// Fix rewrites fixable violations in place. Without it the scan is
	// read only.
	Fix bool

	// Strict turns a missing canonical link into an ERROR and makes
	// unreadable files fail the run.
	Strict bool

	// Output is the path of the JSON report file.
	Output string

	// PageConfig is the path of the page config JSON file. A missing or
	// invalid file is reported once and disables the required schema rule.
	PageConfig string

	// Origin is the canonical origin, e.g. "https://www.example.com".
	Origin string

	// AMPIndexPage is the relative path of the page that is allowed to
	// declare an AMP canonical URL. Empty means no page is.
	AMPIndexPage string

	// BatchSize is the number of files processed concurrently.
	BatchSize int

	// WarnOnly reports violations but always exits with status 0.
	WarnOnly bool

	// JSONReport prints the report to stdout as JSON instead of text.
	// Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport prints the report to stdout as Markdown instead of text.
	// Mutually exclusive with JSONReport.
	MarkdownReport bool

	// ConfigFilePath is the path to the configuration file.
	// If empty, the tool searches for .sitelint in the current directory,
	// the user's home directory and the XDG config directory.
	ConfigFilePath string

	// DBDir is the directory of the run history database.
	// Defaults to XDG data directory (~/.local/share/sitelint on Linux).
	DBDir string

	// SaveToDB records each run in the history database so that runs can
	// be compared later.
	SaveToDB bool

	// Verbose enables detailed log output using slog.LevelDebug.
	Verbose bool

	// LogFormat is LogFormatText or LogFormatJSON.
	LogFormat string

	// ExcludeDirs are directory names skipped during the walk.
	// They are skipped in addition to the walker's default deny-list.
	ExcludeDirs []string

	// TopOffenders is the length of the top offending files ranking.
	// Zero disables the ranking.
	TopOffenders int

	// MaxFileSize is the largest HTML file in bytes that is read.
	MaxFileSize int64
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		Dir:          DefaultDir,
		Output:       DefaultOutput,
		PageConfig:   DefaultPageConfig,
		Origin:       DefaultOrigin,
		BatchSize:    DefaultBatchSize,
		DBDir:        XDGDataDir(),
		SaveToDB:     true,
		TopOffenders: DefaultTopOffenders,
		MaxFileSize:  DefaultMaxFileSize,
		LogFormat:    LogFormatText,
	}
}

// XDGDataDir returns the XDG data directory for sitelint.
// On Linux: ~/.local/share/sitelint
// On macOS: ~/Library/Application Support/sitelint
// On Windows: %LOCALAPPDATA%\sitelint
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for sitelint.
// On Linux: ~/.config/sitelint
// On macOS: ~/Library/Application Support/sitelint
// On Windows: %APPDATA%\sitelint
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks if the configuration is valid.
// It returns the first problem found as one of the sentinel errors.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Dir) == "" {
		return ErrNoDir
	}

	if strings.TrimSpace(c.Output) == "" {
		return ErrNoOutput
	}

	if c.BatchSize <= 0 {
		return ErrInvalidBatchSize
	}

	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}

	if c.TopOffenders < 0 {
		return ErrInvalidTopOffenders
	}

	if c.MaxFileSize <= 0 {
		return ErrInvalidMaxFileSize
	}

	if c.LogFormat != LogFormatText && c.LogFormat != LogFormatJSON {
		return ErrInvalidLogFormat
	}

	if err := validateOrigin(c.Origin); err != nil {
		return err
	}

	return nil
}

// validateOrigin accepts a bare host or an http(s) URL without a path.
func validateOrigin(origin string) error {
	origin = strings.TrimSpace(origin)
	if origin == "" {
		return nil
	}
	if !strings.Contains(origin, "://") {
		origin = "https://" + origin
	}
	u, err := url.Parse(origin)
	if err != nil || u.Host == "" {
		return ErrInvalidOrigin
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ErrInvalidOrigin
	}
	if u.Path != "" && u.Path != "/" {
		return ErrInvalidOrigin
	}
	return nil
}
