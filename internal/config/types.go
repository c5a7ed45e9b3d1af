// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/plugkit/plugkit/pkg/types"
)

const (
	// AppName is the application name.
	AppName = "plugkit"
	// CUEFileName is the preferred project configuration file.
	CUEFileName = "plugkit.cue"
	// PropertiesFileName is the Gradle-compatible fallback configuration file.
	PropertiesFileName = "gradle.properties"
	// EnvPrefix prefixes environment overrides, e.g. PLUGKIT_PLUGINVERSION.
	EnvPrefix = "PLUGKIT"
)

var (
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
	// ErrInvalidURL is the sentinel error wrapped by InvalidURLError.
	ErrInvalidURL = errors.New("invalid URL")
	// ErrInvalidOverride is returned for -P values that are not key=value.
	ErrInvalidOverride = errors.New("invalid property override")
)

type (
	// Config is the complete project configuration.
	//
	// Field names follow the Gradle property names so an existing
	// gradle.properties file works unchanged.
	Config struct {
		PluginGroup         string `mapstructure:"pluginGroup" toml:"pluginGroup"`
		PluginName          string `mapstructure:"pluginName" toml:"pluginName"`
		PluginID            string `mapstructure:"pluginId" toml:"pluginId"`
		PluginVersion       string `mapstructure:"pluginVersion" toml:"pluginVersion"`
		PluginSinceBuild    string `mapstructure:"pluginSinceBuild" toml:"pluginSinceBuild"`
		PluginUntilBuild    string `mapstructure:"pluginUntilBuild" toml:"pluginUntilBuild"`
		PluginRepositoryURL string `mapstructure:"pluginRepositoryUrl" toml:"pluginRepositoryUrl"`

		IdeaLocalPath          string `mapstructure:"ideaLocalPath" toml:"ideaLocalPath"`
		PlatformType           string `mapstructure:"platformType" toml:"platformType"`
		PlatformVersion        string `mapstructure:"platformVersion" toml:"platformVersion"`
		PlatformBundledPlugins string `mapstructure:"platformBundledPlugins" toml:"platformBundledPlugins"`
		PlatformPlugins        string `mapstructure:"platformPlugins" toml:"platformPlugins"`

		// GradleVersion pins the wrapper toolchain. plugkit only reports it.
		GradleVersion string `mapstructure:"gradleVersion" toml:"gradleVersion"`

		DescriptionFile string `mapstructure:"descriptionFile" toml:"descriptionFile"`
		ChangelogFile   string `mapstructure:"changelogFile" toml:"changelogFile"`
		PluginXMLFile   string `mapstructure:"pluginXmlFile" toml:"pluginXmlFile"`
		DistributionDir string `mapstructure:"distributionDir" toml:"distributionDir"`

		MarketplaceURL      string `mapstructure:"marketplaceUrl" toml:"marketplaceUrl"`
		PlatformDownloadURL string `mapstructure:"platformDownloadUrl" toml:"platformDownloadUrl"`
		PlatformCacheDir    string `mapstructure:"platformCacheDir" toml:"platformCacheDir"`

		// SignerCommand is a shell-quoted command line for the artifact signer.
		SignerCommand   string `mapstructure:"signerCommand" toml:"signerCommand"`
		SigningRequired bool   `mapstructure:"signingRequired" toml:"signingRequired"`

		RobotServerPlugin string           `mapstructure:"robotServerPlugin" toml:"robotServerPlugin"`
		RobotServerPort   types.ListenPort `mapstructure:"robotServerPort" toml:"robotServerPort"`
		SandboxDir        string           `mapstructure:"sandboxDir" toml:"sandboxDir"`
		// RunIdeJvmArgs holds extra shell-quoted JVM arguments for test launches.
		RunIdeJvmArgs string `mapstructure:"runIdeJvmArgs" toml:"runIdeJvmArgs"`

		// ProjectDir is the directory relative paths are resolved against.
		ProjectDir string `mapstructure:"-" toml:"-"`
		// Source is the configuration file that was loaded, if any.
		Source string `mapstructure:"-" toml:"-"`
	}

	// InvalidURLError is returned when a URL-valued key cannot be parsed as an
	// absolute http(s) URL.
	InvalidURLError struct {
		Key   string
		Value string
	}

	// InvalidConfigError is returned when a Config has invalid fields.
	// It wraps ErrInvalidConfig for errors.Is() compatibility and collects
	// field-level validation errors.
	InvalidConfigError struct {
		FieldErrors []error
	}
)

// Error implements the error interface.
func (e *InvalidURLError) Error() string {
	return fmt.Sprintf("invalid URL for %s: %q (must be an absolute http or https URL)", e.Key, e.Value)
}

// Unwrap returns ErrInvalidURL for errors.Is() compatibility.
func (e *InvalidURLError) Unwrap() error { return ErrInvalidURL }

// Error implements the error interface.
func (e *InvalidConfigError) Error() string {
	return fmt.Sprintf("invalid config: %v", errors.Join(e.FieldErrors...))
}

// Unwrap returns ErrInvalidConfig followed by the field errors.
func (e *InvalidConfigError) Unwrap() []error {
	return append([]error{ErrInvalidConfig}, e.FieldErrors...)
}

// DefaultConfig returns the defaults applied before any file is read.
func DefaultConfig() *Config {
	return &Config{
		DescriptionFile:     "README.md",
		ChangelogFile:       "CHANGELOG.md",
		PluginXMLFile:       filepath.Join("src", "main", "resources", "META-INF", "plugin.xml"),
		DistributionDir:     filepath.Join("build", "distributions"),
		MarketplaceURL:      "https://plugins.jetbrains.com",
		PlatformDownloadURL: "https://download.jetbrains.com",
		RobotServerPort:     8082,
		SandboxDir:          filepath.Join("build", "idea-sandbox"),
	}
}

// Validate checks structural constraints. Values that only matter to a single
// operation (such as the platform target) are validated by that operation.
func (c *Config) Validate() error {
	var errs []error

	if err := c.RobotServerPort.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("robotServerPort: %w", err))
	}
	for key, value := range map[string]string{
		"marketplaceUrl":      c.MarketplaceURL,
		"platformDownloadUrl": c.PlatformDownloadURL,
	} {
		if err := validateURL(key, value); err != nil {
			errs = append(errs, err)
		}
	}
	if c.PluginRepositoryURL != "" {
		if err := validateURL("pluginRepositoryUrl", c.PluginRepositoryURL); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return &InvalidConfigError{FieldErrors: errs}
	}
	return nil
}

// Path resolves a configured path against ProjectDir.
func (c *Config) Path(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.ProjectDir, p)
}

// XMLID returns the marketplace identifier of the plugin: pluginId when set,
// pluginGroup otherwise.
func (c *Config) XMLID() string {
	if c.PluginID != "" {
		return c.PluginID
	}
	return c.PluginGroup
}

// ArtifactBaseName returns the distribution file base name, e.g.
// "quick-mybatis-1.2.0".
func (c *Config) ArtifactBaseName() string {
	name := c.PluginName
	if name == "" {
		name = c.XMLID()
	}
	return name + "-" + c.PluginVersion
}

// ParseOverride splits a -P argument of the form key=value.
func ParseOverride(s string) (key, value string, err error) {
	key, value, ok := strings.Cut(s, "=")
	if !ok || strings.TrimSpace(key) == "" {
		return "", "", fmt.Errorf("%w: %q (expected key=value)", ErrInvalidOverride, s)
	}
	return strings.TrimSpace(key), value, nil
}

func validateURL(key, value string) error {
	u, err := url.Parse(value)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return &InvalidURLError{Key: key, Value: value}
	}
	return nil
}
