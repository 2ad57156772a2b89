package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/nao1215/sitelint/internal/canonical"
	"github.com/nao1215/sitelint/internal/config"
	sitelog "github.com/nao1215/sitelint/internal/log"
	"github.com/nao1215/sitelint/internal/model"
	"github.com/nao1215/sitelint/internal/pageconfig"
	"github.com/nao1215/sitelint/internal/walker"
	"github.com/spf13/cobra"
)

// NewCoverageCmd creates the coverage command.
func NewCoverageCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "coverage",
		Short: "Show which pages have a page config entry",
		Long: `Coverage cross-references the HTML files of the site with the page config.

It lists the pages without a page config entry and the entries that match
no page. Pages are not read and no rules are evaluated, so this is a quick
way to keep the page config in sync with the site.

Examples:
  # Audit ./public against ./page-config.json
  sitelint coverage

  # Audit another directory and print JSON
  sitelint coverage -d dist -p config/pages.json --json`,
		Args: cobra.NoArgs,
		RunE: runCoverageCmd,
	}

	cmd.Flags().StringP(config.FlagDir, "d", config.DefaultDir,
		"Directory with the generated HTML")
	cmd.Flags().StringP(config.FlagPageConfig, "p", config.DefaultPageConfig,
		"Page config JSON with the required structured data per page")
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .sitelint in current or home directory)")
	cmd.Flags().BoolP("json", "j", false,
		"Output the coverage audit in JSON format")

	return cmd
}

// runCoverageCmd executes the coverage command.
func runCoverageCmd(cmd *cobra.Command, _ []string) error {
	cfg := config.NewConfig()
	flags := cmd.Flags()

	var err error
	if cfg.Dir, err = flags.GetString(config.FlagDir); err != nil {
		return err
	}
	if cfg.PageConfig, err = flags.GetString(config.FlagPageConfig); err != nil {
		return err
	}
	if cfg.ConfigFilePath, err = flags.GetString("config"); err != nil {
		return err
	}
	jsonOutput, err := flags.GetBool("json")
	if err != nil {
		return err
	}
	if err := applyConfigFile(cfg, flags.Changed); err != nil {
		return err
	}

	logger := sitelog.NewLogger(cmd.ErrOrStderr(), getVerboseFlag(cmd), cfg.Dir)

	index, err := pageconfig.Load(cfg.PageConfig)
	if err != nil {
		return err
	}

	w := walker.New(
		walker.WithExcludeDirs(cfg.ExcludeDirs...),
		walker.WithLogger(logger),
	)
	files, err := w.Walk(commandContext(cmd), cfg.Dir)
	if err != nil {
		return err
	}

	// Page keys do not depend on the origin.
	normalizer := canonical.NewNormalizer(cfg.Origin)
	pages := make([]pageconfig.Page, len(files))
	for i, f := range files {
		pages[i] = pageconfig.Page{File: f.RelPath, Keys: normalizer.PageKeys(f.RelPath)}
	}
	coverage := index.Coverage(pages)

	if jsonOutput {
		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		return encoder.Encode(coverage)
	}
	outputCoverageText(cmd.OutOrStdout(), cfg, coverage)
	return nil
}

// outputCoverageText outputs the coverage audit in human-readable format.
func outputCoverageText(out io.Writer, cfg *config.Config, c model.Coverage) {
	fmt.Fprintf(out, "Page config coverage: %s against %s\n\n", cfg.Dir, cfg.PageConfig)
	fmt.Fprintf(out, "  Configured:   %d\n", len(c.Configured))
	fmt.Fprintf(out, "  Unconfigured: %d\n", len(c.Unconfigured))
	fmt.Fprintf(out, "  Unused:       %d\n", len(c.UnusedEntries))
	fmt.Fprintf(out, "  Coverage:     %.0f%%\n", c.Ratio()*100)

	if len(c.Unconfigured) > 0 {
		fmt.Fprintln(out, "\nPages without configuration:")
		for _, f := range c.Unconfigured {
			fmt.Fprintf(out, "  [ ] %s\n", f)
		}
	}
	if len(c.UnusedEntries) > 0 {
		fmt.Fprintln(out, "\nConfig entries matching no page:")
		for _, id := range c.UnusedEntries {
			fmt.Fprintf(out, "  [?] %s\n", id)
		}
	}
}
