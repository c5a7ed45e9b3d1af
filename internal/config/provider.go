// SPDX-License-Identifier: MPL-2.0

package config

import "context"

// LoadOptions selects where the project configuration comes from.
type LoadOptions struct {
	// ConfigFilePath is the --config file. When empty, plugkit.cue and then
	// gradle.properties are looked up in ProjectDir.
	ConfigFilePath string
	// ProjectDir is the plugin project root; defaults to the working directory.
	ProjectDir string
	// Overrides are the -P key=value pairs, applied after files and PLUGKIT_*
	// environment variables.
	Overrides map[string]string
}

// Provider builds the immutable project configuration once per process.
type Provider interface {
	Load(ctx context.Context, opts LoadOptions) (*Config, error)
}

type projectProvider struct{}

// NewProvider returns the Provider that reads project files, the environment
// and overrides.
func NewProvider() Provider {
	return projectProvider{}
}

// Load builds and validates the configuration. Config.Source names the file
// that was read, if any.
func (projectProvider) Load(ctx context.Context, opts LoadOptions) (*Config, error) {
	cfg, _, err := loadWithOptions(ctx, opts)
	return cfg, err
}
