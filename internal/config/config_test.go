package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// TestNewConfig verifies that NewConfig returns a Config with all expected
// default values.
func TestNewConfig(t *testing.T) {
	t.Parallel()

	cfg := NewConfig()

	t.Run("default Dir is public", func(t *testing.T) {
		t.Parallel()
		if cfg.Dir != "public" {
			t.Errorf("expected Dir to be 'public', got '%s'", cfg.Dir)
		}
	})

	t.Run("default Output is under reports", func(t *testing.T) {
		t.Parallel()
		if cfg.Output != "reports/sitelint-report.json" {
			t.Errorf("unexpected Output %q", cfg.Output)
		}
	})

	t.Run("default PageConfig", func(t *testing.T) {
		t.Parallel()
		if cfg.PageConfig != "page-config.json" {
			t.Errorf("unexpected PageConfig %q", cfg.PageConfig)
		}
	})

	t.Run("default Origin", func(t *testing.T) {
		t.Parallel()
		if cfg.Origin != "https://www.example.com" {
			t.Errorf("unexpected Origin %q", cfg.Origin)
		}
	})

	t.Run("default BatchSize is 8", func(t *testing.T) {
		t.Parallel()
		if cfg.BatchSize != 8 {
			t.Errorf("expected BatchSize to be 8, got %d", cfg.BatchSize)
		}
	})

	t.Run("history is saved to the XDG data dir", func(t *testing.T) {
		t.Parallel()
		if !cfg.SaveToDB {
			t.Error("expected SaveToDB to be true")
		}
		if cfg.DBDir != XDGDataDir() {
			t.Errorf("expected DBDir %q, got %q", XDGDataDir(), cfg.DBDir)
		}
	})

	t.Run("logs as text", func(t *testing.T) {
		t.Parallel()
		if cfg.LogFormat != LogFormatText {
			t.Errorf("expected text log format, got %q", cfg.LogFormat)
		}
	})

	t.Run("modes are off", func(t *testing.T) {
		t.Parallel()
		if cfg.Fix || cfg.Strict || cfg.WarnOnly || cfg.JSONReport || cfg.MarkdownReport {
			t.Error("expected all modes to be off by default")
		}
	})

	t.Run("defaults are valid", func(t *testing.T) {
		t.Parallel()
		if err := cfg.Validate(); err != nil {
			t.Errorf("default config should be valid: %v", err)
		}
	})
}

// TestConfigValidate tests the validation logic.
func TestConfigValidate(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name   string
		modify func(*Config)
		want   error
	}{
		{"empty dir", func(c *Config) { c.Dir = " " }, ErrNoDir},
		{"empty output", func(c *Config) { c.Output = "" }, ErrNoOutput},
		{"zero batch", func(c *Config) { c.BatchSize = 0 }, ErrInvalidBatchSize},
		{"negative batch", func(c *Config) { c.BatchSize = -1 }, ErrInvalidBatchSize},
		{"json and markdown", func(c *Config) { c.JSONReport = true; c.MarkdownReport = true }, ErrConflictingReportFormats},
		{"negative top offenders", func(c *Config) { c.TopOffenders = -1 }, ErrInvalidTopOffenders},
		{"zero top offenders", func(c *Config) { c.TopOffenders = 0 }, nil},
		{"zero max file size", func(c *Config) { c.MaxFileSize = 0 }, ErrInvalidMaxFileSize},
		{"json log format", func(c *Config) { c.LogFormat = LogFormatJSON }, nil},
		{"unknown log format", func(c *Config) { c.LogFormat = "xml" }, ErrInvalidLogFormat},
		{"origin with path", func(c *Config) { c.Origin = "https://www.example.com/blog" }, ErrInvalidOrigin},
		{"origin with ftp scheme", func(c *Config) { c.Origin = "ftp://example.com" }, ErrInvalidOrigin},
		{"origin without host", func(c *Config) { c.Origin = "https://" }, ErrInvalidOrigin},
		{"bare host origin", func(c *Config) { c.Origin = "example.org" }, nil},
		{"origin with trailing slash", func(c *Config) { c.Origin = "http://example.org/" }, nil},
		{"empty origin uses default", func(c *Config) { c.Origin = "" }, nil},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			cfg := NewConfig()
			tc.modify(cfg)
			err := cfg.Validate()
			if tc.want == nil {
				if err != nil {
					t.Errorf("expected no error, got %v", err)
				}
				return
			}
			if !errors.Is(err, tc.want) {
				t.Errorf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

// TestFileApply tests merging the config file into a Config.
func TestFileApply(t *testing.T) {
	t.Parallel()

	strict := true
	top := 0
	file := &File{
		Origin:       "https://www.nao1215.dev",
		Dir:          "dist",
		PageConfig:   "config/pages.json",
		Output:       "out/report.json",
		Strict:       &strict,
		AMPIndexPage: "amp/index.html",
		ExcludeDirs:  []string{"drafts"},
		TopOffenders: &top,
		Batch:        4,
	}

	t.Run("applies all values without flags", func(t *testing.T) {
		t.Parallel()

		cfg := NewConfig()
		file.Apply(cfg, nil)

		if cfg.Origin != file.Origin || cfg.Dir != "dist" || cfg.PageConfig != "config/pages.json" ||
			cfg.Output != "out/report.json" || cfg.AMPIndexPage != "amp/index.html" {
			t.Errorf("string values not applied: %+v", cfg)
		}
		if !cfg.Strict || cfg.BatchSize != 4 || cfg.TopOffenders != 0 {
			t.Errorf("typed values not applied: %+v", cfg)
		}
		if len(cfg.ExcludeDirs) != 1 || cfg.ExcludeDirs[0] != "drafts" {
			t.Errorf("unexpected exclude dirs %v", cfg.ExcludeDirs)
		}
	})

	t.Run("explicit flags win", func(t *testing.T) {
		t.Parallel()

		cfg := NewConfig()
		cfg.Dir = "site"
		cfg.BatchSize = 2
		changed := map[string]bool{FlagDir: true, FlagBatch: true, FlagStrict: true}
		file.Apply(cfg, func(name string) bool { return changed[name] })

		if cfg.Dir != "site" {
			t.Errorf("--dir should win, got %q", cfg.Dir)
		}
		if cfg.BatchSize != 2 {
			t.Errorf("--batch should win, got %d", cfg.BatchSize)
		}
		if cfg.Strict {
			t.Error("--strict=false should win over the file")
		}
		if cfg.Output != "out/report.json" {
			t.Errorf("unchanged flags take the file value, got %q", cfg.Output)
		}
	})

	t.Run("empty file changes nothing", func(t *testing.T) {
		t.Parallel()

		cfg := NewConfig()
		(&File{}).Apply(cfg, nil)
		want := NewConfig()
		if cfg.Dir != want.Dir || cfg.Origin != want.Origin || cfg.TopOffenders != want.TopOffenders || cfg.Strict {
			t.Errorf("empty file changed the config: %+v", cfg)
		}
	})

	t.Run("nil file", func(t *testing.T) {
		t.Parallel()

		cfg := NewConfig()
		var f *File
		f.Apply(cfg, nil)
		if cfg.Dir != DefaultDir {
			t.Error("nil file should be a no-op")
		}
	})
}

// TestLoadConfigFile tests loading configuration from YAML files.
func TestLoadConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("loads valid config", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), ".sitelint")
		content := `origin: https://www.example.org
dir: dist
pageConfig: pages.json
strict: false
excludeDirs:
  - drafts
  - node_modules
topOffenders: 5
batch: 16
`
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		cf, err := LoadConfigFile(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cf.Origin != "https://www.example.org" || cf.Dir != "dist" || cf.PageConfig != "pages.json" {
			t.Errorf("unexpected values %+v", cf)
		}
		if cf.Strict == nil || *cf.Strict {
			t.Error("expected strict to be set to false")
		}
		if cf.TopOffenders == nil || *cf.TopOffenders != 5 || cf.Batch != 16 {
			t.Errorf("unexpected numbers %+v", cf)
		}
		if len(cf.ExcludeDirs) != 2 {
			t.Errorf("expected 2 exclude dirs, got %v", cf.ExcludeDirs)
		}
	})

	t.Run("returns ErrConfigNotFound for missing file", func(t *testing.T) {
		t.Parallel()

		_, err := LoadConfigFile(filepath.Join(t.TempDir(), "missing"))
		if !errors.Is(err, ErrConfigNotFound) {
			t.Errorf("expected ErrConfigNotFound, got %v", err)
		}
	})

	t.Run("returns error for invalid YAML", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), ".sitelint")
		if err := os.WriteFile(path, []byte("dir: [unclosed"), 0o600); err != nil {
			t.Fatal(err)
		}
		_, err := LoadConfigFile(path)
		if err == nil || !strings.Contains(err.Error(), path) {
			t.Errorf("expected parse error naming the file, got %v", err)
		}
	})

	t.Run("empty file", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), ".sitelint")
		if err := os.WriteFile(path, nil, 0o600); err != nil {
			t.Fatal(err)
		}
		cf, err := LoadConfigFile(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cf.Dir != "" || cf.Strict != nil {
			t.Errorf("expected zero File, got %+v", cf)
		}
	})
}

// TestFindConfigFile tests the FindConfigFile function.
func TestFindConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("returns explicit path if exists", func(t *testing.T) {
		t.Parallel()

		configPath := filepath.Join(t.TempDir(), "custom.yaml")
		if err := os.WriteFile(configPath, []byte("dir: public"), 0o600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}
		if got := FindConfigFile(configPath); got != configPath {
			t.Errorf("expected %q, got %q", configPath, got)
		}
	})

	t.Run("returns empty for non-existent explicit path", func(t *testing.T) {
		t.Parallel()

		if got := FindConfigFile("/nonexistent/path/config.yaml"); got != "" {
			t.Errorf("expected empty string, got %q", got)
		}
	})

	t.Run("search order", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		first := filepath.Join(dir, "a", DefaultConfigFile)
		second := filepath.Join(dir, "b", DefaultConfigFile)
		if err := os.MkdirAll(filepath.Dir(second), 0o750); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(second, nil, 0o600); err != nil {
			t.Fatal(err)
		}

		if got := firstExisting(first, second); got != second {
			t.Errorf("expected fallback to %q, got %q", second, got)
		}
		if got := firstExisting(dir); got != "" {
			t.Errorf("directories must not match, got %q", got)
		}
	})
}

// TestXDGDirs tests XDG directory functions.
func TestXDGDirs(t *testing.T) {
	t.Parallel()

	for name, dir := range map[string]string{
		"data":   XDGDataDir(),
		"config": XDGConfigDir(),
	} {
		if dir == "" {
			t.Errorf("expected non-empty XDG %s dir", name)
		}
		if filepath.Base(dir) != AppName {
			t.Errorf("XDG %s dir %q should end with %s", name, dir, AppName)
		}
	}
}
