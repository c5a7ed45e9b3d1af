// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/plugkit/plugkit/internal/config"
	"github.com/plugkit/plugkit/internal/docsection"
	"github.com/plugkit/plugkit/internal/markup"
)

type describeParams struct {
	stdout io.Writer
	cfg    *config.Config
	format markup.Format
}

func newDescribeCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "describe",
		Short: "Extract the plugin description from the README",
		Long: `Extract the plugin description from the description file.

The description is the text between the markers

  ` + docsection.DescriptionStart + `
  ` + docsection.DescriptionEnd + `

and is rendered as HTML for the plugin descriptor by default.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatFlag, _ := cmd.Flags().GetString("format")
			format, err := markup.ParseFormat(formatFlag)
			if err != nil {
				return app.fail(err)
			}
			cfg, err := app.LoadConfig(cmd.Context())
			if err != nil {
				return app.fail(err)
			}
			return app.fail(runDescribe(describeParams{stdout: cmd.OutOrStdout(), cfg: cfg, format: format}))
		},
	}
	cmd.Flags().String("format", string(markup.FormatHTML), "output format: html, markdown or terminal")
	return cmd
}

func runDescribe(p describeParams) error {
	md, err := readDescription(p.cfg)
	if err != nil {
		return err
	}
	out, err := markup.Render(md, p.format)
	if err != nil {
		return err
	}
	fmt.Fprintln(p.stdout, out)
	return nil
}

func readDescription(cfg *config.Config) (string, error) {
	data, err := os.ReadFile(cfg.Path(cfg.DescriptionFile))
	if err != nil {
		return "", fmt.Errorf("reading description: %w", err)
	}
	return docsection.ExtractDescription(cfg.DescriptionFile, string(data))
}
