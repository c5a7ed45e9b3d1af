// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/plugkit/plugkit/internal/changelog"
	"github.com/plugkit/plugkit/internal/config"
	"github.com/plugkit/plugkit/internal/deps"
	"github.com/plugkit/plugkit/internal/platform"
	"github.com/plugkit/plugkit/internal/version"
)

// errPreflight is returned by runCheck when findings were reported.
var errPreflight = errors.New("preflight check failed")

type (
	finding struct {
		Key     string
		Message string
	}

	checkParams struct {
		stdout io.Writer
		cfg    *config.Config
	}
)

func newCheckCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Validate the project before a release",
		Long: `Validate the project before a release. Reported problems:

  - pluginVersion is not a semantic version
  - the description markers are missing from the description file
  - the changelog has no Unreleased entry
  - a dependency list contains empty identifiers
  - pluginSinceBuild is greater than pluginUntilBuild
  - no platform target is configured

Any finding exits with code 2.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.LoadConfig(cmd.Context())
			if err != nil {
				return app.fail(err)
			}
			return app.fail(runCheck(checkParams{stdout: cmd.OutOrStdout(), cfg: cfg}))
		},
	}
}

func runCheck(p checkParams) error {
	findings := collectFindings(p.cfg)
	if len(findings) == 0 {
		fmt.Fprintln(p.stdout, SuccessStyle.Render("✓ ready to release "+p.cfg.XMLID()+" "+p.cfg.PluginVersion))
		return nil
	}
	for _, f := range findings {
		fmt.Fprintf(p.stdout, "%s %s: %s\n", WarningStyle.Render("✗"), KeyStyle.Render(f.Key), f.Message)
	}
	return fmt.Errorf("%w: %d finding(s)", errPreflight, len(findings))
}

func collectFindings(cfg *config.Config) []finding {
	var out []finding
	add := func(key, format string, args ...any) {
		out = append(out, finding{Key: key, Message: fmt.Sprintf(format, args...)})
	}

	if !version.IsValid(cfg.PluginVersion) {
		add("pluginVersion", "%q is not a semantic version", cfg.PluginVersion)
	}

	if _, err := readDescription(cfg); err != nil {
		add("descriptionFile", "%v", err)
	}

	if cl, err := changelog.Load(cfg.Path(cfg.ChangelogFile)); err != nil {
		add("changelogFile", "%v", err)
	} else if _, err := cl.GetUnreleased(); err != nil {
		add("changelogFile", "%v", err)
	}

	set := deps.Build(cfg.PlatformBundledPlugins, cfg.PlatformPlugins)
	if idx := deps.EmptyTokens(set.Bundled); len(idx) > 0 {
		add("platformBundledPlugins", "empty identifier at position(s) %v", idx)
	}
	if idx := deps.EmptyTokens(set.Marketplace); len(idx) > 0 {
		add("platformPlugins", "empty identifier at position(s) %v", idx)
	}

	if cfg.PluginSinceBuild != "" && cfg.PluginUntilBuild != "" {
		if cmp, ok := compareBuilds(cfg.PluginSinceBuild, cfg.PluginUntilBuild); ok && cmp > 0 {
			add("pluginSinceBuild", "%s is after pluginUntilBuild %s", cfg.PluginSinceBuild, cfg.PluginUntilBuild)
		}
	}

	for _, v := range []struct{ key, value string }{
		{"ideaLocalPath", cfg.IdeaLocalPath},
		{"platformType", cfg.PlatformType},
		{"platformVersion", cfg.PlatformVersion},
	} {
		if v.value != "" && platform.IsBlank(v.value) {
			add(v.key, "value is whitespace only")
		}
	}
	if _, err := resolveTarget(cfg); err != nil {
		add("platform", "%v", err)
	}

	return out
}

// compareBuilds compares a since-build with an until-build, such as "232",
// "241.14494" or "242.*". A "*" component is the lowest build on the since
// side and the highest on the until side. ok is false when either value is
// not a build number.
func compareBuilds(since, until string) (cmp int, ok bool) {
	pa, ok := parseBuild(since, 0)
	if !ok {
		return 0, false
	}
	pb, ok := parseBuild(until, math.MaxInt)
	if !ok {
		return 0, false
	}
	for i := range max(len(pa), len(pb)) {
		var x, y int
		if i < len(pa) {
			x = pa[i]
		}
		if i < len(pb) {
			y = pb[i]
		}
		if x != y {
			if x < y {
				return -1, true
			}
			return 1, true
		}
	}
	return 0, true
}

func parseBuild(s string, wildcard int) ([]int, bool) {
	parts := strings.Split(s, ".")
	out := make([]int, 0, len(parts))
	for _, part := range parts {
		if part == "*" {
			out = append(out, wildcard)
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 {
			return nil, false
		}
		out = append(out, n)
	}
	return out, true
}
