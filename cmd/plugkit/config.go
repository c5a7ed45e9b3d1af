// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"io"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"

	"github.com/plugkit/plugkit/internal/config"
)

type configShowParams struct {
	stdout io.Writer
	cfg    *config.Config
}

// newConfigCommand creates the `plugkit config` command tree.
func newConfigCommand(app *App) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the project configuration",
		Long: `Inspect the project configuration.

Configuration is read from, in increasing precedence:
  - built-in defaults
  - ` + config.CUEFileName + ` in the project directory, or else ` + config.PropertiesFileName + `
  - ` + config.EnvPrefix + `_<KEY> environment variables
  - -P key=value flags`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration as TOML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.LoadConfig(cmd.Context())
			if err != nil {
				return app.fail(err)
			}
			return app.fail(runConfigShow(configShowParams{stdout: cmd.OutOrStdout(), cfg: cfg}))
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "keys",
		Short: "List the configuration keys",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, key := range config.Keys {
				fmt.Fprintln(cmd.OutOrStdout(), key)
			}
			return nil
		},
	})

	return cfgCmd
}

func runConfigShow(p configShowParams) error {
	data, err := toml.Marshal(p.cfg)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	fmt.Fprintf(p.stdout, "# source: %s\n# project: %s\n\n", sourceLabel(p.cfg), p.cfg.ProjectDir)
	_, err = p.stdout.Write(data)
	return err
}
