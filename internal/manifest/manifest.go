// SPDX-License-Identifier: MPL-2.0

// Package manifest defines the extension manifest assembled for a release and
// its serialized forms: JSON, TOML and YAML documents, and the plugin.xml
// descriptor patch.
package manifest

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Format is a manifest serialization format.
type Format string

const (
	// FormatJSON encodes the manifest as indented JSON.
	FormatJSON Format = "json"
	// FormatTOML encodes the manifest as TOML.
	FormatTOML Format = "toml"
	// FormatYAML encodes the manifest as YAML.
	FormatYAML Format = "yaml"
)

// ExtensionManifest is the metadata describing one distributable artifact.
// It is built once per release invocation and not modified afterwards.
type ExtensionManifest struct {
	Group   string `json:"group" toml:"group" yaml:"group"`
	Name    string `json:"name" toml:"name" yaml:"name"`
	ID      string `json:"id" toml:"id" yaml:"id"`
	Version string `json:"version" toml:"version" yaml:"version"`

	SinceBuild string `json:"sinceBuild" toml:"sinceBuild" yaml:"sinceBuild"`
	// UntilBuild is empty for open-ended compatibility.
	UntilBuild string `json:"untilBuild,omitempty" toml:"untilBuild,omitempty" yaml:"untilBuild,omitempty"`

	// Description and ChangeNotes are rendered HTML.
	Description string `json:"description" toml:"description" yaml:"description"`
	ChangeNotes string `json:"changeNotes" toml:"changeNotes" yaml:"changeNotes"`

	Channels []string `json:"channels" toml:"channels" yaml:"channels"`

	BundledPlugins []string `json:"bundledPlugins" toml:"bundledPlugins" yaml:"bundledPlugins"`
	Plugins        []string `json:"plugins" toml:"plugins" yaml:"plugins"`

	// Platform describes the resolved host platform target.
	Platform string `json:"platform" toml:"platform" yaml:"platform"`
}

// ParseFormat validates a --format value.
func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case FormatJSON, FormatTOML, FormatYAML:
		return f, nil
	default:
		return "", fmt.Errorf("unknown manifest format %q (expected json, toml or yaml)", s)
	}
}

// Channel returns the primary release channel.
func (m *ExtensionManifest) Channel() string {
	if len(m.Channels) == 0 {
		return ""
	}
	return m.Channels[0]
}

// Encode writes m to w in format f.
func (m *ExtensionManifest) Encode(w io.Writer, f Format) error {
	switch f {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(m)
	case FormatTOML:
		return toml.NewEncoder(w).Encode(m)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(m); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown manifest format %q", f)
	}
}
