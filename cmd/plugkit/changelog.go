// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/plugkit/plugkit/internal/changelog"
	"github.com/plugkit/plugkit/internal/config"
	"github.com/plugkit/plugkit/internal/markup"
)

// formatTerminal renders the markdown output through glamour.
const formatTerminal = "terminal"

type (
	changelogRenderParams struct {
		stdout        io.Writer
		cfg           *config.Config
		version       string
		format        string
		header        bool
		emptySections bool
	}

	changelogPatchParams struct {
		stdout  io.Writer
		cfg     *config.Config
		version string
		date    string
		print   bool
	}
)

func newChangelogCommand(app *App) *cobra.Command {
	clCmd := &cobra.Command{
		Use:   "changelog",
		Short: "Render and patch the project changelog",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	clCmd.AddCommand(newChangelogRenderCommand(app), newChangelogPatchCommand(app))
	return clCmd
}

func newChangelogRenderCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "render [version]",
		Short: "Render the change notes of a version",
		Long: `Render the change notes of a version.

The entry for the version is used when the changelog has one; otherwise
the Unreleased entry is rendered. Without an argument the configured
pluginVersion is used. By default the header and empty sections are
omitted, exactly as in the published change notes.`,
		Example: `  plugkit changelog render
  plugkit changelog render 1.2.0 --format terminal --header`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.LoadConfig(cmd.Context())
			if err != nil {
				return app.fail(err)
			}
			p := changelogRenderParams{stdout: cmd.OutOrStdout(), cfg: cfg, version: cfg.PluginVersion}
			if len(args) > 0 {
				p.version = args[0]
			}
			p.format, _ = cmd.Flags().GetString("format")
			p.header, _ = cmd.Flags().GetBool("header")
			p.emptySections, _ = cmd.Flags().GetBool("empty-sections")
			return app.fail(runChangelogRender(p))
		},
	}
	cmd.Flags().String("format", string(changelog.OutputHTML), "output format: html, markdown, plaintext or terminal")
	cmd.Flags().Bool("header", false, "include the version header")
	cmd.Flags().Bool("empty-sections", false, "include sections without changes")
	return cmd
}

func newChangelogPatchCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "patch [version]",
		Short: "Release the Unreleased changes under a version",
		Long: `Move the Unreleased changes under a new version header and leave an
empty Unreleased entry behind. When pluginRepositoryUrl is set the compare
links at the bottom of the changelog are maintained as well.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.LoadConfig(cmd.Context())
			if err != nil {
				return app.fail(err)
			}
			p := changelogPatchParams{stdout: cmd.OutOrStdout(), cfg: cfg, version: cfg.PluginVersion}
			if len(args) > 0 {
				p.version = args[0]
			}
			p.date, _ = cmd.Flags().GetString("date")
			p.print, _ = cmd.Flags().GetBool("print")
			return app.fail(runChangelogPatch(p))
		},
	}
	cmd.Flags().String("date", time.Now().Format(time.DateOnly), "release date written into the header")
	cmd.Flags().Bool("print", false, "print the patched changelog instead of writing it")
	return cmd
}

func runChangelogRender(p changelogRenderParams) error {
	out := changelog.OutputType(strings.ToLower(p.format))
	if out == formatTerminal {
		out = changelog.OutputMarkdown
	}

	cl, err := changelog.Load(p.cfg.Path(p.cfg.ChangelogFile))
	if err != nil {
		return err
	}
	entry, err := changelog.Select(cl, p.version)
	if err != nil {
		return fmt.Errorf("%s: %w", p.cfg.ChangelogFile, err)
	}
	rendered, err := changelog.Render(entry.WithHeader(p.header).WithEmptySections(p.emptySections), out)
	if err != nil {
		return err
	}
	if strings.EqualFold(p.format, formatTerminal) {
		if rendered, err = markup.Terminal(rendered, 0); err != nil {
			return err
		}
	}
	fmt.Fprintln(p.stdout, rendered)
	return nil
}

func runChangelogPatch(p changelogPatchParams) error {
	path := p.cfg.Path(p.cfg.ChangelogFile)
	cl, err := changelog.Load(path)
	if err != nil {
		return err
	}
	if err := cl.Patch(changelog.PatchOptions{
		Version:       p.version,
		Date:          p.date,
		RepositoryURL: p.cfg.PluginRepositoryURL,
	}); err != nil {
		return err
	}

	if p.print {
		fmt.Fprint(p.stdout, cl.String())
		return nil
	}
	if err := cl.Save(path); err != nil {
		return err
	}
	fmt.Fprintln(p.stdout, SuccessStyle.Render(fmt.Sprintf("Released %s in %s", p.version, p.cfg.ChangelogFile)))
	return nil
}
