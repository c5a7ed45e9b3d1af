// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/plugkit/plugkit/internal/config"
	"github.com/plugkit/plugkit/internal/deps"
)

type depsParams struct {
	stdout io.Writer
	cfg    *config.Config
}

func newDepsCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "deps",
		Short: "Show the plugin dependency declarations",
		Long: `Show the plugin dependency declarations built from
platformBundledPlugins and platformPlugins.

Identifiers are listed exactly as configured, including empty ones
produced by stray delimiters.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.LoadConfig(cmd.Context())
			if err != nil {
				return app.fail(err)
			}
			runDeps(depsParams{stdout: cmd.OutOrStdout(), cfg: cfg})
			return nil
		},
	}
}

func runDeps(p depsParams) {
	set := deps.Build(p.cfg.PlatformBundledPlugins, p.cfg.PlatformPlugins)

	fmt.Fprintln(p.stdout, TitleStyle.Render("Bundled plugins"))
	writeIDs(p.stdout, set.Bundled, func(id string) string { return id })
	fmt.Fprintln(p.stdout)
	fmt.Fprintln(p.stdout, TitleStyle.Render("Marketplace plugins"))
	writeIDs(p.stdout, set.Marketplace, func(id string) string {
		c := deps.ParseCoordinate(id)
		if c.Version == "" {
			return c.ID
		}
		return c.ID + " " + SubtitleStyle.Render("("+c.Version+")")
	})
}

func writeIDs(w io.Writer, ids []string, label func(string) string) {
	if len(ids) == 0 {
		fmt.Fprintln(w, SubtitleStyle.Render("  (none)"))
		return
	}
	for _, id := range ids {
		if strings.TrimSpace(id) == "" {
			fmt.Fprintf(w, "  - %s\n", WarningStyle.Render("(empty identifier)"))
			continue
		}
		fmt.Fprintf(w, "  - %s\n", label(id))
	}
}
