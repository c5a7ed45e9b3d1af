// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/plugkit/plugkit/internal/artifact"
	"github.com/plugkit/plugkit/internal/config"
	"github.com/plugkit/plugkit/internal/hostplatform"
	"github.com/plugkit/plugkit/internal/launch"
	"github.com/plugkit/plugkit/internal/platform"
)

type launchParams struct {
	stdout io.Writer
	stderr io.Writer
	cfg    *config.Config
	client *hostplatform.Client
	logger *log.Logger
	// print only shows the launch command and JVM options; nothing is
	// downloaded, packaged or started.
	print bool
}

func newLaunchCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "launch",
		Short: "Start the IDE in a sandbox for manual UI testing",
		Long: `Start the IDE in a sandbox with the packaged plugin and the
robot-server plugin installed.

The IDE runs with the robot-server port, dialog and consent flags set so
UI automation can drive it. Extra JVM arguments come from runIdeJvmArgs.
A remote platform target is downloaded first.`,
		Example: `  plugkit launch
  plugkit launch --print -P robotServerPort=8090`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.LoadConfig(cmd.Context())
			if err != nil {
				return app.fail(err)
			}
			logger := app.Logger()
			client, err := newHostClient(cfg, logger)
			if err != nil {
				return app.fail(err)
			}
			p := launchParams{
				stdout: cmd.OutOrStdout(),
				stderr: cmd.ErrOrStderr(),
				cfg:    cfg,
				client: client,
				logger: logger,
			}
			p.print, _ = cmd.Flags().GetBool("print")
			return app.fail(runLaunch(cmd.Context(), p))
		},
	}
	cmd.Flags().Bool("print", false, "print the launch command and JVM options without starting the IDE")
	return cmd
}

func runLaunch(ctx context.Context, p launchParams) error {
	target, err := resolveTarget(p.cfg)
	if err != nil {
		return err
	}

	home, launcher, err := locateIDE(ctx, p, target)
	if err != nil {
		return err
	}

	opts := artifactOptions(p.cfg)
	pluginPath := filepath.Join(opts.DistributionDir, opts.BaseName+".zip")
	if !p.print {
		art, err := artifact.Package(opts)
		if err != nil {
			return err
		}
		pluginPath = art.Path
	}

	profile, err := launch.Build(p.cfg, home, launcher, pluginPath)
	if err != nil {
		return err
	}

	if p.print {
		fmt.Fprintln(p.stdout, profile.Command())
		fmt.Fprintln(p.stdout)
		fmt.Fprintln(p.stdout, SubtitleStyle.Render("# "+profile.VMOptionsFile))
		fmt.Fprint(p.stdout, profile.VMOptions())
		return nil
	}
	return launch.Run(ctx, profile, p.logger, p.stdout, p.stderr)
}

// locateIDE returns the IDE home and launcher base name for target.
func locateIDE(ctx context.Context, p launchParams, target platform.Target) (home, launcher string, err error) {
	switch t := target.(type) {
	case platform.Local:
		home = p.cfg.Path(t.Path)
		launcher, err = launch.DetectLauncher(home)
		return home, launcher, err
	case platform.Remote:
		product, err := platform.LookupProduct(t.Type)
		if err != nil {
			return "", "", err
		}
		if p.print {
			return p.client.InstallDir(t), product.Launcher, nil
		}
		install, err := p.client.Fetch(ctx, t)
		if err != nil {
			return "", "", err
		}
		return install.Home, product.Launcher, nil
	default:
		return "", "", fmt.Errorf("unsupported platform target %T", target)
	}
}

func artifactOptions(cfg *config.Config) artifact.Options {
	name := cfg.PluginName
	if name == "" {
		name = cfg.XMLID()
	}
	return artifact.Options{
		DistributionDir: cfg.Path(cfg.DistributionDir),
		PluginName:      name,
		BaseName:        cfg.ArtifactBaseName(),
	}
}
