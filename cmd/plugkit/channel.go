// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/plugkit/plugkit/internal/version"
)

type channelParams struct {
	stdout  io.Writer
	version string
}

func newChannelCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "channel [version]",
		Short: "Print the marketplace release channel of a version",
		Long: `Print the marketplace release channel of a version.

The channel is the pre-release label of the version: 2.0.0-beta.1 is
published to "beta", 2.0.0 to "default". Without an argument the
configured pluginVersion is classified.`,
		Example: `  plugkit channel
  plugkit channel 2.0.0-eap.3`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p := channelParams{stdout: cmd.OutOrStdout()}
			if len(args) > 0 {
				p.version = args[0]
			} else {
				cfg, err := app.LoadConfig(cmd.Context())
				if err != nil {
					return app.fail(err)
				}
				p.version = cfg.PluginVersion
			}
			runChannel(p)
			return nil
		},
	}
}

func runChannel(p channelParams) {
	fmt.Fprintln(p.stdout, version.Channel(p.version))
}
