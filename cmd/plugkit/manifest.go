// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/plugkit/plugkit/internal/config"
	"github.com/plugkit/plugkit/internal/manifest"
	"github.com/plugkit/plugkit/internal/release"
)

type manifestParams struct {
	stdout   io.Writer
	cfg      *config.Config
	format   manifest.Format
	patchXML bool
}

func newManifestCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "manifest",
		Short: "Assemble and print the release manifest",
		Long: `Assemble the release manifest: identity, version, compatibility bounds,
description and change notes rendered to HTML, release channels,
dependencies and the resolved platform target.

With --patch-xml the plugin descriptor is updated from the manifest.`,
		Example: `  plugkit manifest --format yaml
  plugkit manifest --patch-xml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatFlag, _ := cmd.Flags().GetString("format")
			format, err := manifest.ParseFormat(formatFlag)
			if err != nil {
				return app.fail(err)
			}
			cfg, err := app.LoadConfig(cmd.Context())
			if err != nil {
				return app.fail(err)
			}
			p := manifestParams{stdout: cmd.OutOrStdout(), cfg: cfg, format: format}
			p.patchXML, _ = cmd.Flags().GetBool("patch-xml")
			return app.fail(runManifest(cmd.Context(), p))
		},
	}
	cmd.Flags().String("format", string(manifest.FormatJSON), "output format: json, toml or yaml")
	cmd.Flags().Bool("patch-xml", false, "write version, compatibility, description and change notes into plugin.xml")
	return cmd
}

func runManifest(ctx context.Context, p manifestParams) error {
	m, err := release.NewAssembler(p.cfg).Assemble(ctx)
	if err != nil {
		return err
	}

	if p.patchXML {
		if err := patchDescriptor(p.cfg, m); err != nil {
			return err
		}
	}
	return m.Encode(p.stdout, p.format)
}

func patchDescriptor(cfg *config.Config, m *manifest.ExtensionManifest) error {
	path := cfg.Path(cfg.PluginXMLFile)
	doc, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading plugin descriptor: %w", err)
	}
	patched, err := manifest.PatchXML(doc, m)
	if err != nil {
		return fmt.Errorf("%s: %w", cfg.PluginXMLFile, err)
	}
	if err := os.WriteFile(path, patched, 0o644); err != nil {
		return fmt.Errorf("writing plugin descriptor: %w", err)
	}
	return nil
}
