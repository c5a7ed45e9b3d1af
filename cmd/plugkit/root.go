// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"

	"github.com/plugkit/plugkit/internal/config"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// NewRootCommand builds the plugkit command tree around app.
func NewRootCommand(app *App) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   config.AppName,
		Short: "Package, sign and publish IDE plugins",
		Long: TitleStyle.Render("plugkit") + SubtitleStyle.Render(" - IDE plugin release orchestrator") + `

plugkit assembles the release manifest of an IDE plugin from the project
files (README description, CHANGELOG notes, gradle.properties or plugkit.cue),
packages the compiled plugin, patches the changelog, signs the artifact and
publishes it to the plugin marketplace.

` + SubtitleStyle.Render("Examples:") + `
  plugkit check                      Validate the project before releasing
  plugkit manifest --format yaml     Show the assembled release manifest
  plugkit release --dry-run          Assemble and package without publishing
  plugkit release                    Run the full release pipeline
  plugkit launch                     Start an IDE sandbox for manual testing`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.SetOut(app.stdout)
	rootCmd.SetErr(app.stderr)

	flags := rootCmd.PersistentFlags()
	flags.BoolVarP(&app.verbose, "verbose", "v", false, "enable verbose output")
	flags.StringVar(&app.configFile, "config", "", "config file (default is plugkit.cue, then gradle.properties, in the project directory)")
	flags.StringVarP(&app.projectDir, "project-dir", "C", "", "project directory (default is the working directory)")
	flags.StringArrayVarP(&app.overrides, "property", "P", nil, "override a configuration key (key=value, repeatable)")

	rootCmd.AddCommand(
		newCheckCommand(app),
		newChannelCommand(app),
		newDescribeCommand(app),
		newChangelogCommand(app),
		newDepsCommand(app),
		newPlatformCommand(app),
		newManifestCommand(app),
		newReleaseCommand(app),
		newLaunchCommand(app),
		newConfigCommand(app),
	)

	return rootCmd
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute runs the root command. This is called by main.main().
func Execute() {
	app := NewApp(Dependencies{})
	rootCmd := NewRootCommand(app)

	// fang overrides rootCmd.Version, so the version goes through WithVersion.
	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
		fang.WithErrorHandler(errorHandler),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(int(exitErr.Code))
		}
		os.Exit(1)
	}
}

// errorHandler lets fang render usage errors. Command failures were already
// rendered by App.fail and arrive as *ExitError.
func errorHandler(w io.Writer, styles fang.Styles, err error) {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return
	}
	fang.DefaultErrorHandler(w, styles, err)
}
