// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"io"
	"os"

	"github.com/charmbracelet/log"

	"github.com/plugkit/plugkit/internal/config"
	"github.com/plugkit/plugkit/internal/issue"
	"github.com/plugkit/plugkit/pkg/types"
)

type (
	// App wires CLI services and the global flags. Every command handler
	// receives the App and loads its configuration through it.
	App struct {
		Config config.Provider
		stdout io.Writer
		stderr io.Writer

		verbose    bool
		configFile string
		projectDir string
		overrides  []string
	}

	// Dependencies defines the injection points for building an App. Nil
	// fields are replaced with production defaults by NewApp.
	Dependencies struct {
		Config config.Provider
		Stdout io.Writer
		Stderr io.Writer
	}
)

// NewApp creates an App from deps.
func NewApp(deps Dependencies) *App {
	if deps.Config == nil {
		deps.Config = config.NewProvider()
	}
	if deps.Stdout == nil {
		deps.Stdout = os.Stdout
	}
	if deps.Stderr == nil {
		deps.Stderr = os.Stderr
	}
	return &App{Config: deps.Config, stdout: deps.Stdout, stderr: deps.Stderr}
}

// LoadConfig builds the immutable project configuration from the global
// flags. Failures are configuration errors and exit with code 2.
func (a *App) LoadConfig(ctx context.Context) (*config.Config, error) {
	overrides := make(map[string]string, len(a.overrides))
	for _, o := range a.overrides {
		key, value, err := config.ParseOverride(o)
		if err != nil {
			return nil, &ExitError{Code: types.ExitConfig, Err: err}
		}
		overrides[key] = value
	}

	cfg, err := a.Config.Load(ctx, config.LoadOptions{
		ConfigFilePath: a.configFile,
		ProjectDir:     a.projectDir,
		Overrides:      overrides,
	})
	if err != nil {
		return nil, &ExitError{Code: types.ExitConfig, Err: err}
	}
	a.Logger().Debug("configuration loaded", "source", sourceLabel(cfg), "project", cfg.ProjectDir)
	return cfg, nil
}

// Logger returns the structured logger for components with external effects.
func (a *App) Logger() *log.Logger {
	logger := log.NewWithOptions(a.stderr, log.Options{Prefix: "plugkit"})
	if a.verbose {
		logger.SetLevel(log.DebugLevel)
	}
	return logger
}

// fail prints err to stderr and converts it into an *ExitError carrying the
// classified exit code.
func (a *App) fail(err error) error {
	if err == nil {
		return nil
	}
	code := classifyExitCode(err)
	renderError(a.stderr, err, a.verbose)
	return &ExitError{Code: code, Err: err}
}

func sourceLabel(cfg *config.Config) string {
	if cfg.Source == "" {
		return "(defaults)"
	}
	return cfg.Source
}

// formatErrorForDisplay formats an error for user display. ActionableErrors
// render their suggestions; verbose mode adds the error chain.
func formatErrorForDisplay(err error, verbose bool) string {
	if ae, ok := issue.As(err); ok {
		return ae.Format(verbose)
	}
	return err.Error()
}
