// SPDX-License-Identifier: MPL-2.0

// Package config loads the plugkit project configuration using Viper.
//
// The configuration is read once per process from the project directory:
// plugkit.cue (validated against an embedded CUE schema) or, when absent,
// gradle.properties. Values can be overridden with PLUGKIT_<KEY> environment
// variables and with explicit key=value overrides (the CLI's -P flag).
//
// The resulting *Config is treated as immutable and is handed to every
// component explicitly; no package reads configuration on its own.
package config
