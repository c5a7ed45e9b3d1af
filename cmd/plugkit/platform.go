// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/plugkit/plugkit/internal/config"
	"github.com/plugkit/plugkit/internal/hostplatform"
	"github.com/plugkit/plugkit/internal/platform"
)

type platformParams struct {
	stdout io.Writer
	cfg    *config.Config
	client *hostplatform.Client
}

func newPlatformCommand(app *App) *cobra.Command {
	platCmd := &cobra.Command{
		Use:   "platform",
		Short: "Resolve and fetch the host IDE platform",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	platCmd.AddCommand(&cobra.Command{
		Use:   "resolve",
		Short: "Show which IDE the plugin is built and tested against",
		Long: `Show which IDE the plugin is built and tested against.

A non-empty ideaLocalPath selects a local installation. Otherwise both
platformType and platformVersion must be set and select a distribution
downloaded from platformDownloadUrl.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.LoadConfig(cmd.Context())
			if err != nil {
				return app.fail(err)
			}
			client, err := newHostClient(cfg, app.Logger())
			if err != nil {
				return app.fail(err)
			}
			return app.fail(runPlatformResolve(platformParams{stdout: cmd.OutOrStdout(), cfg: cfg, client: client}))
		},
	})

	platCmd.AddCommand(&cobra.Command{
		Use:   "fetch",
		Short: "Download and unpack the configured IDE distribution",
		Long: `Download and unpack the configured IDE distribution into the platform
cache. The archive is verified against its published SHA-256 checksum and
an already unpacked distribution is reused.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.LoadConfig(cmd.Context())
			if err != nil {
				return app.fail(err)
			}
			client, err := newHostClient(cfg, app.Logger())
			if err != nil {
				return app.fail(err)
			}
			return app.fail(runPlatformFetch(cmd.Context(), platformParams{stdout: cmd.OutOrStdout(), cfg: cfg, client: client}))
		},
	})

	return platCmd
}

func newHostClient(cfg *config.Config, logger *log.Logger) (*hostplatform.Client, error) {
	opts := []hostplatform.ClientOption{
		hostplatform.WithBaseURL(cfg.PlatformDownloadURL),
		hostplatform.WithUserAgent(config.AppName + "/" + Version),
		hostplatform.WithLogger(logger),
	}
	if !platform.IsBlank(cfg.PlatformCacheDir) {
		opts = append(opts, hostplatform.WithCacheDir(cfg.Path(cfg.PlatformCacheDir)))
	}
	return hostplatform.NewClient(opts...)
}

func resolveTarget(cfg *config.Config) (platform.Target, error) {
	return platform.Resolve(cfg.IdeaLocalPath, cfg.PlatformType, cfg.PlatformVersion)
}

func runPlatformResolve(p platformParams) error {
	target, err := resolveTarget(p.cfg)
	if err != nil {
		return err
	}

	switch t := target.(type) {
	case platform.Local:
		fmt.Fprintf(p.stdout, "%s %s\n", KeyStyle.Render("local:"), p.cfg.Path(t.Path))
	case platform.Remote:
		product, err := platform.LookupProduct(t.Type)
		if err != nil {
			return err
		}
		url, err := p.client.ArchiveURL(t)
		if err != nil {
			return err
		}
		fmt.Fprintf(p.stdout, "%s %s %s\n", KeyStyle.Render("remote:"), product.Name, t.Version)
		fmt.Fprintf(p.stdout, "%s %s\n", KeyStyle.Render("archive:"), url)
		fmt.Fprintf(p.stdout, "%s %s\n", KeyStyle.Render("install:"), p.client.InstallDir(t))
	}
	return nil
}

func runPlatformFetch(ctx context.Context, p platformParams) error {
	target, err := resolveTarget(p.cfg)
	if err != nil {
		return err
	}
	remote, ok := target.(platform.Remote)
	if !ok {
		fmt.Fprintf(p.stdout, "Using %s, nothing to fetch\n", target.Describe())
		return nil
	}

	install, err := p.client.Fetch(ctx, remote)
	if err != nil {
		return err
	}
	state := "Fetched"
	if install.Cached {
		state = "Cached"
	}
	fmt.Fprintln(p.stdout, SuccessStyle.Render(fmt.Sprintf("%s %s %s", state, install.Product.Name, install.Version)))
	fmt.Fprintf(p.stdout, "%s %s\n", KeyStyle.Render("home:"), install.Home)
	return nil
}
