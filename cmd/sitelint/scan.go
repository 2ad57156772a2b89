package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/nao1215/sitelint/internal/canonical"
	"github.com/nao1215/sitelint/internal/config"
	"github.com/nao1215/sitelint/internal/database"
	"github.com/nao1215/sitelint/internal/fix"
	sitelog "github.com/nao1215/sitelint/internal/log"
	"github.com/nao1215/sitelint/internal/model"
	"github.com/nao1215/sitelint/internal/pageconfig"
	"github.com/nao1215/sitelint/internal/pipeline"
	"github.com/nao1215/sitelint/internal/report"
	"github.com/nao1215/sitelint/internal/rules"
	"github.com/nao1215/sitelint/internal/walker"
	"github.com/spf13/cobra"
)

// markdownMaxRows limits the violations listed per category in Markdown
// output, which is usually posted as a pull request comment.
const markdownMaxRows = 50

var (
	// ErrViolationsFound is returned when the scan found ERROR violations
	// and --warn-only is not set.
	ErrViolationsFound = errors.New("violations found")

	// ErrUnreadableFiles is returned in strict mode when files could not
	// be read.
	ErrUnreadableFiles = errors.New("unreadable files")
)

// NewScanCmd creates the scan command.
func NewScanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Check the metadata of every page of a built site",
		Long: `Scan walks the site directory and checks every HTML page for:
- Structured data (JSON-LD @type) required by the page config
- Duplicate H1, skipped heading levels and orphaned headings
- Canonical links pointing to another host, http, .html or AMP paths
- Missing canonical links and malformed JSON-LD blocks

The JSON report is always written to --output. With --fix, canonical links
and duplicate H1 headings are rewritten in place; running --fix again
changes nothing.

Examples:
  # Scan the default ./public directory
  sitelint scan

  # Scan another directory with a custom origin
  sitelint scan -d dist --origin https://www.example.org

  # Fix what can be fixed and fail on a missing canonical link
  sitelint scan --fix --strict

  # Report violations without failing the build
  sitelint scan --warn-only

  # Print a Markdown report for a pull request comment
  sitelint scan --markdown`,
		Args: cobra.NoArgs,
		RunE: runScanCmd,
	}

	// Input flags
	cmd.Flags().StringP(config.FlagDir, "d", config.DefaultDir,
		"Directory with the generated HTML")
	cmd.Flags().StringP(config.FlagPageConfig, "p", config.DefaultPageConfig,
		"Page config JSON with the required structured data per page")
	cmd.Flags().String(config.FlagOrigin, config.DefaultOrigin,
		"Canonical origin of the site")
	cmd.Flags().String(config.FlagAMPIndexPage, "",
		"Relative path of the only page allowed to declare an AMP canonical URL")

	// Behavior flags
	cmd.Flags().Bool("fix", false,
		"Rewrite fixable violations in place")
	cmd.Flags().Bool(config.FlagStrict, false,
		"Treat a missing canonical link as an error and fail on unreadable files")
	cmd.Flags().Bool("warn-only", false,
		"Report violations but always exit with status 0")
	cmd.Flags().IntP(config.FlagBatch, "b", config.DefaultBatchSize,
		"Number of files processed concurrently")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .sitelint in current or home directory)")

	// Report flags
	cmd.Flags().StringP(config.FlagOutput, "o", config.DefaultOutput,
		"Path of the JSON report file (overwritten on every run)")
	cmd.Flags().BoolP("json", "j", false,
		"Print the report as JSON (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Print the report as Markdown (mutually exclusive with --json)")

	// History flags
	cmd.Flags().String("db-dir", "",
		"Directory of the run history database (default: XDG data directory)")
	cmd.Flags().Bool("no-history", false,
		"Do not record this run in the history database")

	// Logging flags
	cmd.Flags().String("log-format", config.LogFormatText,
		"Log format on stderr: text or json")

	return cmd
}

// runScanCmd executes the scan command.
func runScanCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := newLogger(cmd.ErrOrStderr(), cfg)
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(commandContext(cmd))
	defer cancel()

	// Handle interrupt signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			logger.Info("received shutdown signal, cancelling...")
			cancel()
		case <-ctx.Done():
		}
	}()

	scanReport, scanErr := runScan(ctx, cfg, logger)
	if scanReport == nil {
		return scanErr
	}

	if err := writeReport(cmd.OutOrStdout(), cfg, scanReport); err != nil {
		return err
	}
	printNotes(cmd.ErrOrStderr(), cfg, scanReport)
	if scanErr != nil {
		return scanErr
	}

	if err := saveRun(ctx, cfg, scanReport, logger); err != nil {
		logger.Error("failed to save run history", "error", err)
	}

	return checkResult(cfg, scanReport)
}

// newLogger creates the logger selected by --log-format. Paths in log
// records are relative to the scanned directory.
func newLogger(w io.Writer, cfg *config.Config) *slog.Logger {
	if cfg.LogFormat == config.LogFormatJSON {
		return sitelog.NewJSONLogger(w, cfg.Verbose, cfg.Dir)
	}
	return sitelog.NewLogger(w, cfg.Verbose, cfg.Dir)
}

// commandContext returns the command's context, or Background when the
// command is executed without one.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// buildConfig creates a Config from cobra command flags and the optional
// configuration file. Flags given explicitly win over the file.
func buildConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.NewConfig()
	flags := cmd.Flags()

	var err error
	if cfg.Dir, err = flags.GetString(config.FlagDir); err != nil {
		return nil, err
	}
	if cfg.PageConfig, err = flags.GetString(config.FlagPageConfig); err != nil {
		return nil, err
	}
	if cfg.Origin, err = flags.GetString(config.FlagOrigin); err != nil {
		return nil, err
	}
	if cfg.AMPIndexPage, err = flags.GetString(config.FlagAMPIndexPage); err != nil {
		return nil, err
	}
	if cfg.Fix, err = flags.GetBool("fix"); err != nil {
		return nil, err
	}
	if cfg.Strict, err = flags.GetBool(config.FlagStrict); err != nil {
		return nil, err
	}
	if cfg.WarnOnly, err = flags.GetBool("warn-only"); err != nil {
		return nil, err
	}
	if cfg.BatchSize, err = flags.GetInt(config.FlagBatch); err != nil {
		return nil, err
	}
	if cfg.Output, err = flags.GetString(config.FlagOutput); err != nil {
		return nil, err
	}
	if cfg.JSONReport, err = flags.GetBool("json"); err != nil {
		return nil, err
	}
	if cfg.MarkdownReport, err = flags.GetBool("markdown"); err != nil {
		return nil, err
	}
	if cfg.ConfigFilePath, err = flags.GetString("config"); err != nil {
		return nil, err
	}

	dbDir, err := flags.GetString("db-dir")
	if err != nil {
		return nil, err
	}
	if dbDir != "" {
		cfg.DBDir = dbDir
	}
	noHistory, err := flags.GetBool("no-history")
	if err != nil {
		return nil, err
	}
	cfg.SaveToDB = !noHistory
	cfg.Verbose = getVerboseFlag(cmd)
	if cfg.LogFormat, err = flags.GetString("log-format"); err != nil {
		return nil, err
	}

	if err := applyConfigFile(cfg, flags.Changed); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyConfigFile merges the configuration file into cfg. An explicitly
// named file must exist; otherwise a missing file is fine and cfg is left
// as it is.
func applyConfigFile(cfg *config.Config, flagChanged func(string) bool) error {
	configPath := config.FindConfigFile(cfg.ConfigFilePath)
	if configPath == "" {
		if cfg.ConfigFilePath != "" {
			return fmt.Errorf("configuration file not found: %s", cfg.ConfigFilePath)
		}
		return nil
	}

	file, err := config.LoadConfigFile(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config file %s: %w", configPath, err)
	}
	file.Apply(cfg, flagChanged)
	return nil
}

// runScan walks the site and runs the pipeline over every page.
//
// When the site directory cannot be walked, runScan returns the walk
// error together with an empty report that carries it as a warning, so
// the report file is still written. A nil report means the scan was
// interrupted.
func runScan(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*model.ScanReport, error) {
	logger.Info("starting scan",
		"dir", cfg.Dir,
		"origin", cfg.Origin,
		"fix", cfg.Fix,
		"strict", cfg.Strict,
		"batchSize", cfg.BatchSize,
	)
	startTime := time.Now()

	w := walker.New(
		walker.WithExcludeDirs(cfg.ExcludeDirs...),
		walker.WithLogger(logger),
	)
	normalizer := canonical.NewNormalizer(cfg.Origin)

	files, err := w.Walk(ctx, cfg.Dir)
	if err != nil {
		logger.Error("failed to walk site directory", "dir", cfg.Dir, "error", err)
		return report.Build(nil,
			report.WithRoot(cfg.Dir),
			report.WithOrigin(normalizer.Origin()),
			report.WithStrict(cfg.Strict),
			report.WithConfigWarnings(fmt.Sprintf("site directory could not be scanned: %v", err)),
		), err
	}
	logger.Debug("html files found", "count", len(files))

	index, warning := pageconfig.LoadOrEmpty(cfg.PageConfig, logger)

	evaluator := rules.NewEvaluator(normalizer,
		rules.WithStrict(cfg.Strict),
		rules.WithAMPIndexPage(cfg.AMPIndexPage),
	)
	logger.Debug("rules enabled", "rules", evaluator.Rules(), "strict", evaluator.Strict())

	components := &pipeline.Components{
		Normalizer:  normalizer,
		Evaluator:   evaluator,
		Index:       index,
		Fixer:       fix.NewFixer(normalizer),
		WriteFixes:  cfg.Fix,
		MaxFileSize: cfg.MaxFileSize,
		Logger:      logger,
	}

	bp := pipeline.NewBatchProcessor(
		func() *pipeline.Pipeline {
			return pipeline.DefaultPipeline(components)
		},
		pipeline.WithConcurrency(cfg.BatchSize),
		pipeline.WithBatchLogger(logger),
	)

	results, err := bp.ProcessBatch(ctx, files)
	if err != nil {
		return nil, fmt.Errorf("scan interrupted: %w", err)
	}

	scanReport := report.Build(results,
		report.WithRoot(cfg.Dir),
		report.WithOrigin(normalizer.Origin()),
		report.WithStrict(evaluator.Strict()),
		report.WithTopOffenders(cfg.TopOffenders),
		report.WithConfigWarnings(warning),
		report.WithCoverage(index.Coverage(coveragePages(normalizer, results))),
	)

	logger.Info("scan completed",
		"files", scanReport.Total,
		"errors", scanReport.Errors,
		"warnings", scanReport.Warnings,
		"elapsed", time.Since(startTime).Round(time.Millisecond),
	)
	return scanReport, nil
}

// coveragePages returns the readable pages with their page config keys.
func coveragePages(n *canonical.Normalizer, results []*model.FileResult) []pageconfig.Page {
	pages := make([]pageconfig.Page, 0, len(results))
	for _, r := range results {
		if r.Status == model.FileStatusError {
			continue
		}
		pages = append(pages, pageconfig.Page{
			File: r.File,
			Keys: n.PageKeys(r.File),
		})
	}
	return pages
}

// writeReport saves the JSON report file and prints the report to stdout
// in the requested format.
func writeReport(stdout io.Writer, cfg *config.Config, scanReport *model.ScanReport) error {
	f, err := report.CreateFile(cfg.Output)
	if err != nil {
		return err
	}

	w := report.NewMultiWriter(
		report.NewJSONWriter(f, report.WithPrettyPrint()),
		stdoutWriter(stdout, cfg),
	)
	if _, err := w.Write(scanReport); err != nil {
		_ = f.Close() //nolint:errcheck // write error takes precedence
		return fmt.Errorf("failed to write report: %w", err)
	}
	return f.Close()
}

// stdoutWriter returns the writer for the requested stdout format.
func stdoutWriter(w io.Writer, cfg *config.Config) report.Writer {
	switch {
	case cfg.JSONReport:
		return report.NewJSONWriter(w, report.WithPrettyPrint())
	case cfg.MarkdownReport:
		return report.NewMarkdownWriter(w, report.WithMaxRows(markdownMaxRows))
	default:
		return report.NewSimpleWriter(w,
			report.WithVerbose(cfg.Verbose),
			report.WithShowEmpty(cfg.Verbose),
		)
	}
}

// printNotes prints where the report went and what --fix would change.
// Notes go to stderr so that --json output stays machine readable.
func printNotes(w io.Writer, cfg *config.Config, scanReport *model.ScanReport) {
	fmt.Fprintf(w, "Report written to %s\n", cfg.Output)
	if cfg.Fix {
		return
	}

	fixable := 0
	for _, r := range scanReport.Results {
		if len(r.FixesApplied) > 0 {
			fixable++
		}
	}
	if fixable > 0 {
		fmt.Fprintf(w, "%d file(s) can be fixed with --fix\n", fixable)
	}
}

// saveRun records the run in the history database if enabled.
func saveRun(ctx context.Context, cfg *config.Config, scanReport *model.ScanReport, logger *slog.Logger) error {
	if !cfg.SaveToDB {
		return nil
	}

	root, err := filepath.Abs(cfg.Dir)
	if err != nil {
		return fmt.Errorf("failed to resolve scan root: %w", err)
	}

	db, err := database.Open(cfg.DBDir, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	id, err := db.SaveRun(ctx, root, scanReport)
	if err != nil {
		return err
	}
	logger.Info("run saved to history", "id", id, "root", root)
	return nil
}

// checkResult turns the report into the exit status of the command.
func checkResult(cfg *config.Config, scanReport *model.ScanReport) error {
	if cfg.WarnOnly {
		return nil
	}
	if scanReport.HasErrors() {
		return fmt.Errorf("%w: %d error(s) in %d file(s)",
			ErrViolationsFound, scanReport.Errors, scanReport.Invalid)
	}
	if cfg.Strict && scanReport.FileErrors > 0 {
		return fmt.Errorf("%w: %d file(s) could not be read",
			ErrUnreadableFiles, scanReport.FileErrors)
	}
	return nil
}
