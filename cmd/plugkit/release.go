// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/plugkit/plugkit/internal/config"
	"github.com/plugkit/plugkit/internal/manifest"
	"github.com/plugkit/plugkit/internal/platform"
	"github.com/plugkit/plugkit/internal/release"
)

type releaseParams struct {
	stdout    io.Writer
	assembler *release.Assembler
	dryRun    bool
	format    manifest.Format
}

func newReleaseCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "release",
		Short: "Package, sign and publish the plugin",
		Long: `Run the release pipeline, stopping at the first failing step:

  1. assemble the manifest
  2. patch plugin.xml
  3. package the artifact
  4. patch the changelog
  5. sign the artifact
  6. publish to the marketplace
  7. write the release record

Signing credentials are read from ` + release.EnvCertificateChain + `, ` + release.EnvPrivateKey + ` and
` + release.EnvPrivateKeyPassword + `; the marketplace token from ` + release.EnvPublishToken + `.
With no signing credentials and signingRequired=false the unsigned artifact
is published.

--dry-run stops after packaging, leaves plugin.xml and the changelog
untouched and prints the manifest.`,
		Example: `  plugkit release --dry-run
  PUBLISH_TOKEN=perm:... plugkit release`,
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
			assembler, err := newReleaseAssembler(app, cfg)
			if err != nil {
				return app.fail(err)
			}
			p := releaseParams{stdout: cmd.OutOrStdout(), assembler: assembler, format: format}
			p.dryRun, _ = cmd.Flags().GetBool("dry-run")
			return app.fail(runRelease(cmd.Context(), p))
		},
	}
	cmd.Flags().Bool("dry-run", false, "assemble and package only")
	cmd.Flags().String("format", string(manifest.FormatJSON), "manifest format for --dry-run: json, toml or yaml")
	return cmd
}

func newReleaseAssembler(app *App, cfg *config.Config) (*release.Assembler, error) {
	logger := app.Logger()
	opts := []release.Option{
		release.WithLogger(logger),
		release.WithPublisher(release.NewMarketplaceClient(
			release.WithMarketplaceURL(cfg.MarketplaceURL),
			release.WithMarketplaceLogger(logger),
		)),
	}
	if !platform.IsBlank(cfg.SignerCommand) {
		signer, err := release.NewExecSigner(cfg.SignerCommand, logger)
		if err != nil {
			return nil, err
		}
		opts = append(opts, release.WithSigner(signer))
	}
	return release.NewAssembler(cfg, opts...), nil
}

func runRelease(ctx context.Context, p releaseParams) error {
	result, err := p.assembler.Release(ctx, release.Options{DryRun: p.dryRun})
	if result != nil {
		for _, step := range result.Completed {
			fmt.Fprintf(p.stdout, "%s %s\n", SuccessStyle.Render("✓"), step)
		}
	}
	if err != nil {
		return err
	}

	if p.dryRun {
		fmt.Fprintln(p.stdout)
		return result.Manifest.Encode(p.stdout, p.format)
	}

	fmt.Fprintln(p.stdout)
	fmt.Fprintf(p.stdout, "%s %s\n", KeyStyle.Render("artifact:"), result.Published)
	fmt.Fprintf(p.stdout, "%s %t\n", KeyStyle.Render("signed:"), result.Signed)
	fmt.Fprintf(p.stdout, "%s %s\n", KeyStyle.Render("record:"), result.RecordPath)
	fmt.Fprintln(p.stdout, SuccessStyle.Render(fmt.Sprintf("Published %s %s to the %s channel",
		result.Manifest.ID, result.Manifest.Version, result.Manifest.Channel())))
	return nil
}
