// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/magiconair/properties"
	"github.com/spf13/viper"

	"github.com/plugkit/plugkit/internal/issue"
)

//go:embed config_schema.cue
var configSchema string

// Keys lists every recognized configuration key in canonical spelling.
var Keys = []string{
	"pluginGroup", "pluginName", "pluginId", "pluginVersion",
	"pluginSinceBuild", "pluginUntilBuild", "pluginRepositoryUrl",
	"ideaLocalPath", "platformType", "platformVersion",
	"platformBundledPlugins", "platformPlugins", "gradleVersion",
	"descriptionFile", "changelogFile", "pluginXmlFile", "distributionDir",
	"marketplaceUrl", "platformDownloadUrl", "platformCacheDir",
	"signerCommand", "signingRequired",
	"robotServerPlugin", "robotServerPort", "sandboxDir", "runIdeJvmArgs",
}

// IsKnownKey reports whether key names a configuration value. Matching is
// case-insensitive, like Viper's own key handling.
func IsKnownKey(key string) bool {
	return slices.ContainsFunc(Keys, func(k string) bool { return strings.EqualFold(k, key) })
}

// loadWithOptions performs option-driven config loading. It returns the
// loaded config and the path of the file it came from ("" when only defaults,
// environment and overrides applied).
func loadWithOptions(ctx context.Context, opts LoadOptions) (*Config, string, error) {
	select {
	case <-ctx.Done():
		return nil, "", fmt.Errorf("load config canceled: %w", ctx.Err())
	default:
	}

	projectDir := opts.ProjectDir
	if projectDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, "", fmt.Errorf("failed to get working directory: %w", err)
		}
		projectDir = wd
	}

	v := viper.New()
	setDefaults(v, DefaultConfig())

	resolvedPath, err := mergeConfigFile(v, projectDir, opts.ConfigFilePath)
	if err != nil {
		return nil, "", err
	}

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	for key, value := range opts.Overrides {
		if !IsKnownKey(key) {
			return nil, "", issue.NewErrorContext().
				WithOperation("apply property override").
				WithResource(key).
				WithSuggestion("Run 'plugkit config show' to list the recognized keys").
				Wrap(fmt.Errorf("%w: unknown key %q", ErrInvalidOverride, key)).
				BuildError()
		}
		v.Set(key, value)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, "", fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.ProjectDir = projectDir
	cfg.Source = resolvedPath

	if err := cfg.Validate(); err != nil {
		return nil, "", issue.NewErrorContext().
			WithOperation("validate configuration").
			WithResource(resolvedPath).
			WithSuggestion("Fix the listed keys in your configuration file").
			WithSuggestion("Override a single value with -P key=value to test a fix").
			Wrap(err).
			BuildError()
	}

	return &cfg, resolvedPath, nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("pluginGroup", d.PluginGroup)
	v.SetDefault("pluginName", d.PluginName)
	v.SetDefault("pluginId", d.PluginID)
	v.SetDefault("pluginVersion", d.PluginVersion)
	v.SetDefault("pluginSinceBuild", d.PluginSinceBuild)
	v.SetDefault("pluginUntilBuild", d.PluginUntilBuild)
	v.SetDefault("pluginRepositoryUrl", d.PluginRepositoryURL)
	v.SetDefault("ideaLocalPath", d.IdeaLocalPath)
	v.SetDefault("platformType", d.PlatformType)
	v.SetDefault("platformVersion", d.PlatformVersion)
	v.SetDefault("platformBundledPlugins", d.PlatformBundledPlugins)
	v.SetDefault("platformPlugins", d.PlatformPlugins)
	v.SetDefault("gradleVersion", d.GradleVersion)
	v.SetDefault("descriptionFile", d.DescriptionFile)
	v.SetDefault("changelogFile", d.ChangelogFile)
	v.SetDefault("pluginXmlFile", d.PluginXMLFile)
	v.SetDefault("distributionDir", d.DistributionDir)
	v.SetDefault("marketplaceUrl", d.MarketplaceURL)
	v.SetDefault("platformDownloadUrl", d.PlatformDownloadURL)
	v.SetDefault("platformCacheDir", d.PlatformCacheDir)
	v.SetDefault("signerCommand", d.SignerCommand)
	v.SetDefault("signingRequired", d.SigningRequired)
	v.SetDefault("robotServerPlugin", d.RobotServerPlugin)
	v.SetDefault("robotServerPort", int(d.RobotServerPort))
	v.SetDefault("sandboxDir", d.SandboxDir)
	v.SetDefault("runIdeJvmArgs", d.RunIdeJvmArgs)
}

// mergeConfigFile loads the explicit file when given, otherwise plugkit.cue
// and then gradle.properties from the project directory. A project with
// neither file uses defaults.
func mergeConfigFile(v *viper.Viper, projectDir, explicit string) (string, error) {
	if explicit != "" {
		if !fileExists(explicit) {
			return "", issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(explicit).
				WithSuggestion("Verify the file path is correct").
				WithSuggestion("Use 'plugkit config show' to see the default configuration").
				Wrap(fmt.Errorf("config file not found: %s", explicit)).
				BuildError()
		}
		return explicit, loadFile(v, explicit)
	}

	for _, name := range []string{CUEFileName, PropertiesFileName} {
		path := filepath.Join(projectDir, name)
		if fileExists(path) {
			return path, loadFile(v, path)
		}
	}
	return "", nil
}

func loadFile(v *viper.Viper, path string) error {
	var err error
	if strings.EqualFold(filepath.Ext(path), ".cue") {
		err = loadCUEIntoViper(v, path)
	} else {
		err = loadPropertiesIntoViper(v, path)
	}
	if err == nil {
		return nil
	}

	builder := issue.NewErrorContext().
		WithOperation("load configuration").
		WithResource(path)
	if strings.EqualFold(filepath.Ext(path), ".cue") {
		builder = builder.
			WithSuggestion("Check that the file contains valid CUE syntax").
			WithSuggestion("Verify the values match the documented keys and types")
	} else {
		builder = builder.WithSuggestion("Check that every line is a key=value pair")
	}
	return builder.Wrap(err).BuildError()
}

// loadPropertiesIntoViper reads a Java properties file (gradle.properties)
// without ${} expansion and merges it into v.
func loadPropertiesIntoViper(v *viper.Viper, path string) error {
	loader := properties.Loader{Encoding: properties.UTF8, DisableExpansion: true}
	props, err := loader.LoadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read properties file: %w", err)
	}

	values := make(map[string]any, props.Len())
	for key, value := range props.Map() {
		values[key] = value
	}
	if err := v.MergeConfigMap(values); err != nil {
		return fmt.Errorf("failed to merge config: %w", err)
	}
	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
