// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/plugkit/plugkit/internal/changelog"
	"github.com/plugkit/plugkit/internal/config"
	"github.com/plugkit/plugkit/internal/docsection"
	"github.com/plugkit/plugkit/internal/platform"
	"github.com/plugkit/plugkit/internal/release"
	"github.com/plugkit/plugkit/internal/testutil"
	"github.com/plugkit/plugkit/pkg/types"
)

func TestGetVersionString(t *testing.T) {
	// Not parallel: subtests mutate package-level Version/Commit/BuildDate vars.

	t.Run("ldflags version", func(t *testing.T) {
		origVersion, origCommit, origBuildDate := Version, Commit, BuildDate
		t.Cleanup(func() {
			Version, Commit, BuildDate = origVersion, origCommit, origBuildDate
		})

		Version = "v1.2.3"
		Commit = "abc1234"
		BuildDate = "2025-06-15T10:00:00Z"

		want := "v1.2.3 (commit: abc1234, built: 2025-06-15T10:00:00Z)"
		if got := getVersionString(); got != want {
			t.Errorf("getVersionString() = %q, want %q", got, want)
		}
	})

	t.Run("dev build", func(t *testing.T) {
		origVersion := Version
		t.Cleanup(func() { Version = origVersion })

		Version = "dev"
		if got := getVersionString(); got != "dev (built from source)" {
			t.Errorf("getVersionString() = %q", got)
		}
	})
}

func TestClassifyExitCode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want types.ExitCode
	}{
		{"nil", nil, types.ExitSuccess},
		{"missing platform target", &platform.MissingPlatformTargetError{}, types.ExitConfig},
		{"missing markers", &docsection.SectionNotFoundError{Document: "README.md"}, types.ExitConfig},
		{"reversed markers", &docsection.SectionNotFoundError{Document: "README.md", Reversed: true}, types.ExitConfig},
		{"missing unreleased", fmt.Errorf("CHANGELOG.md: %w", changelog.ErrMissingUnreleased), types.ExitConfig},
		{"invalid config", &config.InvalidConfigError{}, types.ExitConfig},
		{"cue error", &config.CUEError{File: "plugkit.cue", Message: "conflict"}, types.ExitConfig},
		{"step wrapping config error", &release.StepError{Step: release.StepAssemble, Err: platform.ErrMissingPlatformTarget}, types.ExitConfig},
		{"signer failure", &release.StepError{Step: release.StepSign, Err: errors.New("exit status 1")}, types.ExitFailure},
		{"publish rejected", &release.StepError{Step: release.StepPublish, Err: release.ErrPublishRejected}, types.ExitFailure},
		{"explicit exit error", &ExitError{Code: types.ExitConfig}, types.ExitConfig},
		{"other", errors.New("boom"), types.ExitFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := classifyExitCode(tt.err); got != tt.want {
				t.Errorf("classifyExitCode() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestRenderError_AddsSuggestions(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	err := &release.StepError{Step: release.StepAssemble, Err: &platform.MissingPlatformTargetError{
		LocalPathKey: "ideaLocalPath", TypeKey: "platformType", VersionKey: "platformVersion",
	}}
	renderError(&buf, err, false)

	out := buf.String()
	for _, want := range []string{"Error:", "failed to assemble manifest", "ideaLocalPath", "platformVersion"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestRenderError_PlainErrorPassesThrough(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	renderError(&buf, &ExitError{Code: types.ExitFailure, Err: errors.New("boom")}, false)
	if !strings.Contains(buf.String(), "boom") || strings.Contains(buf.String(), "failed to") {
		t.Errorf("unexpected output %q", buf.String())
	}
}

func executeRoot(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()

	var out, errOut bytes.Buffer
	app := NewApp(Dependencies{Stdout: &out, Stderr: &errOut})
	root := NewRootCommand(app)
	root.SetArgs(args)
	err = root.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func TestRootCommand_ChannelFromProperties(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	testutil.WriteFile(t, dir, config.PropertiesFileName, testProperties)

	stdout, _, err := executeRoot(t, "channel", "-C", dir, "-P", "pluginVersion=2.0.0-eap.3")
	if err != nil {
		t.Fatalf("channel: %v", err)
	}
	if strings.TrimSpace(stdout) != "eap" {
		t.Errorf("channel = %q, want eap", stdout)
	}
}

func TestRootCommand_ConfigErrorsExitWithTwo(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		args func(dir string) []string
	}{
		{"malformed override", func(dir string) []string { return []string{"deps", "-C", dir, "-P", "novalue"} }},
		{"unknown override", func(dir string) []string { return []string{"deps", "-C", dir, "-P", "nosuchkey=1"} }},
		{"missing config file", func(dir string) []string { return []string{"deps", "-C", dir, "--config", "missing.cue"} }},
		{"missing platform target", func(dir string) []string {
			return []string{"platform", "resolve", "-C", dir, "-P", "platformVersion="}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			dir := t.TempDir()
			testutil.WriteFile(t, dir, config.PropertiesFileName, testProperties)

			_, stderr, err := executeRoot(t, tt.args(dir)...)
			var exitErr *ExitError
			if !errors.As(err, &exitErr) {
				t.Fatalf("error = %v, want *ExitError", err)
			}
			if exitErr.Code != types.ExitConfig {
				t.Errorf("exit code = %d, want %d", exitErr.Code, types.ExitConfig)
			}
			if !strings.Contains(stderr, "Error:") {
				t.Errorf("stderr missing rendered error:\n%s", stderr)
			}
		})
	}
}

func TestCompareBuilds(t *testing.T) {
	t.Parallel()

	tests := []struct {
		since, until string
		want         int
		ok           bool
	}{
		{"232", "242.*", -1, true},
		{"242.*", "242", 0, true},
		{"242.*", "242.*", -1, true},
		{"242.100", "242.*", -1, true},
		{"243", "242.*", 1, true},
		{"242.*", "241.*", 1, true},
		{"241.14494", "241.14494", 0, true},
		{"abc", "242", 0, false},
	}
	for _, tt := range tests {
		got, ok := compareBuilds(tt.since, tt.until)
		if got != tt.want || ok != tt.ok {
			t.Errorf("compareBuilds(%q, %q) = %d, %v, want %d, %v", tt.since, tt.until, got, ok, tt.want, tt.ok)
		}
	}
}

func TestExitError(t *testing.T) {
	t.Parallel()

	cause := fmt.Errorf("README.md: %w", docsection.ErrSectionNotFound)
	err := &ExitError{Code: types.ExitConfig, Err: cause}
	if err.Error() != cause.Error() || !errors.Is(err, docsection.ErrSectionNotFound) {
		t.Errorf("ExitError = %q, want the rendered failure", err.Error())
	}
	if got := (&ExitError{Code: types.ExitFailure}).Error(); got != "plugkit exited with code 1" {
		t.Errorf("Error() = %q", got)
	}
}
