// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"io"

	"github.com/plugkit/plugkit/internal/artifact"
	"github.com/plugkit/plugkit/internal/changelog"
	"github.com/plugkit/plugkit/internal/config"
	"github.com/plugkit/plugkit/internal/docsection"
	"github.com/plugkit/plugkit/internal/issue"
	"github.com/plugkit/plugkit/internal/launch"
	"github.com/plugkit/plugkit/internal/platform"
	"github.com/plugkit/plugkit/internal/release"
	"github.com/plugkit/plugkit/pkg/types"
)

// configErrors are the failures a user fixes by editing project files or
// configuration. They exit with types.ExitConfig.
//
//nolint:gochecknoglobals // Read-only classification table.
var configErrors = []error{
	config.ErrInvalidConfig,
	config.ErrInvalidOverride,
	config.ErrFileTooLarge,
	platform.ErrMissingPlatformTarget,
	docsection.ErrSectionNotFound,
	changelog.ErrMissingUnreleased,
	launch.ErrMissingRobotServer,
	errPreflight,
}

// classifyExitCode maps an error to the process exit code.
func classifyExitCode(err error) types.ExitCode {
	if err == nil {
		return types.ExitSuccess
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}

	var cueErr *config.CUEError
	if errors.As(err, &cueErr) {
		return types.ExitConfig
	}
	for _, target := range configErrors {
		if errors.Is(err, target) {
			return types.ExitConfig
		}
	}
	return types.ExitFailure
}

// withHints attaches remediation suggestions to well-known failures. Errors
// that already carry an ActionableError are returned unchanged.
func withHints(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := issue.As(err); ok {
		return err
	}

	var stepErr *release.StepError
	op := "run plugkit"
	if errors.As(err, &stepErr) {
		op = stepErr.Step
		err = stepErr.Err
	}

	ctx := issue.NewErrorContext().WithOperation(op).Wrap(err)
	switch {
	case errors.Is(err, platform.ErrMissingPlatformTarget):
		ctx.WithSuggestion("Set ideaLocalPath to a local IDE installation").
			WithSuggestion("Or set both platformType and platformVersion, e.g. -P platformType=IC -P platformVersion=2024.1")
	case errors.Is(err, docsection.ErrSectionNotFound):
		ctx.WithSuggestion(fmt.Sprintf("Wrap the plugin description in %q and %q",
			docsection.DescriptionStart, docsection.DescriptionEnd))
	case errors.Is(err, changelog.ErrMissingUnreleased):
		ctx.WithSuggestion("Add an '## [" + changelog.UnreleasedTerm + "]' section to the changelog")
	case errors.Is(err, changelog.ErrVersionExists):
		ctx.WithSuggestion("Bump pluginVersion before releasing again")
	case errors.Is(err, artifact.ErrNoDescriptor):
		ctx.WithSuggestion("Build the plugin first; its jar must contain " + artifact.DescriptorPath)
	case errors.Is(err, release.ErrNoSigner):
		ctx.WithSuggestion("Set signerCommand to the artifact signing tool")
	case errors.Is(err, release.ErrPublishRejected):
		ctx.WithSuggestion("Check that " + release.EnvPublishToken + " is set and valid for this plugin")
	case errors.Is(err, launch.ErrMissingRobotServer):
		ctx.WithSuggestion("Set robotServerPlugin to the robot-server plugin archive")
	case errors.Is(err, launch.ErrLauncherNotFound):
		ctx.WithSuggestion("Point ideaLocalPath at the IDE home directory (the one containing bin/)")
	default:
		if stepErr == nil {
			return err
		}
	}
	return ctx.BuildError()
}

// renderError writes a styled error message to w.
func renderError(w io.Writer, err error, verbose bool) {
	var exitErr *ExitError
	if errors.As(err, &exitErr) && exitErr.Err != nil {
		err = exitErr.Err
	}
	fmt.Fprintf(w, "%s %s\n", ErrorStyle.Render("Error:"), formatErrorForDisplay(withHints(err), verbose))
}
