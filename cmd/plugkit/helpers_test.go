// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"path/filepath"
	"testing"

	"github.com/plugkit/plugkit/internal/config"
	"github.com/plugkit/plugkit/internal/testutil"
)

const testReadme = `# Quick MyBatis

<!-- Plugin description -->
Jump between **mapper interfaces** and XML.
<!-- Plugin description end -->
`

const testChangelog = `# Changelog

## [Unreleased]

### Added

- Go to SQL statement

### Fixed

## [1.1.0] - 2024-01-10

### Added

- Initial release
`

const testPluginXML = `<idea-plugin>
    <id>com.example.quick</id>
    <version>0.0.0</version>
</idea-plugin>
`

const testProperties = `pluginGroup = com.example.quick
pluginName = quick-mybatis
pluginVersion = 1.2.0
pluginSinceBuild = 232
pluginUntilBuild = 242.*
platformType = IC
platformVersion = 2023.2.5
`

// newTestProject writes a releasable project and returns its configuration.
func newTestProject(t *testing.T) *config.Config {
	t.Helper()

	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.ProjectDir = dir
	cfg.PluginGroup = "com.example.quick"
	cfg.PluginName = "quick-mybatis"
	cfg.PluginVersion = "1.2.0"
	cfg.PluginSinceBuild = "232"
	cfg.PluginUntilBuild = "242.*"
	cfg.PlatformType = "IC"
	cfg.PlatformVersion = "2023.2.5"

	testutil.WriteTree(t, dir, map[string]string{
		"README.md":       testReadme,
		"CHANGELOG.md":    testChangelog,
		cfg.PluginXMLFile: testPluginXML,
	})
	testutil.WriteJar(t, dir, filepath.Join(cfg.DistributionDir, "quick-mybatis", "lib", "quick-mybatis.jar"), map[string]string{
		"META-INF/plugin.xml": testPluginXML,
	})
	return cfg
}
