package main

import (
	"fmt"
	"strings"

	"github.com/nao1215/sitelint/internal/canonical"
	"github.com/nao1215/sitelint/internal/config"
	"github.com/spf13/cobra"
)

// NewNormalizeCmd creates the normalize command.
func NewNormalizeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "normalize <path>...",
		Short: "Print the canonical URL of site paths",
		Long: `Normalize prints the canonical URL that sitelint expects for each path.

Paths are relative to the site directory. The .html extension, AMP path
segments and locale prefixes of AMP pages are removed, and index pages map
to their directory. An absolute URL is normalized by its path.

Examples:
  sitelint normalize blog/post.html amp/en/blog/post.amp.html
  sitelint normalize --origin example.org --keys docs/index.html
  sitelint normalize http://example.com/blog/post.html`,
		Args: cobra.MinimumNArgs(1),
		RunE: runNormalizeCmd,
	}

	cmd.Flags().String(config.FlagOrigin, config.DefaultOrigin,
		"Canonical origin of the site")
	cmd.Flags().BoolP("keys", "k", false,
		"Also print the page config keys, the AMP locale and whether the path is an AMP page")

	return cmd
}

// runNormalizeCmd executes the normalize command.
func runNormalizeCmd(cmd *cobra.Command, args []string) error {
	origin, err := cmd.Flags().GetString(config.FlagOrigin)
	if err != nil {
		return err
	}
	showKeys, err := cmd.Flags().GetBool("keys")
	if err != nil {
		return err
	}

	n := canonical.NewNormalizer(origin)
	out := cmd.OutOrStdout()
	for _, arg := range args {
		p := arg
		if strings.Contains(arg, "://") {
			p = n.StripOrigin(arg)
		}
		if showKeys {
			fmt.Fprintf(out, "%s\t%s\t%v\tlocale=%s\tamp=%t\n",
				arg, n.Normalize(p), n.PageKeys(p), canonical.Locale(p), canonical.IsAMP(p))
			continue
		}
		fmt.Fprintf(out, "%s\t%s\n", arg, n.Normalize(p))
	}
	return nil
}
