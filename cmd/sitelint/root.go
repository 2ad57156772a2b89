package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for sitelint.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sitelint",
		Short: "Metadata reconciler for statically generated sites",
		Long: `sitelint walks the HTML output of a static site generator and checks every page for
missing structured data, broken heading hierarchy and malformed canonical links.

Required structured data comes from a page config JSON file. Canonical links are
compared with the URL derived from each file's path, and --fix rewrites the
violations that have a mechanical fix.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Add subcommands
	cmd.AddCommand(NewScanCmd())
	cmd.AddCommand(NewCompareCmd())
	cmd.AddCommand(NewCoverageCmd())
	cmd.AddCommand(NewNormalizeCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
