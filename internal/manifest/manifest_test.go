// SPDX-License-Identifier: MPL-2.0

package manifest

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

func fullManifest() *ExtensionManifest {
	return &ExtensionManifest{
		Group:          "com.example",
		Name:           "quick-mybatis",
		ID:             "com.example.quick",
		Version:        "1.2.0-beta.1",
		SinceBuild:     "232",
		Description:    "<p>desc</p>",
		ChangeNotes:    "<ul><li>x</li></ul>",
		Channels:       []string{"beta"},
		BundledPlugins: []string{"com.intellij.java"},
		Plugins:        []string{},
		Platform:       "IC 2023.2.5",
	}
}

func TestEncode(t *testing.T) {
	t.Parallel()

	m := fullManifest()

	t.Run("json", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		if err := m.Encode(&buf, FormatJSON); err != nil {
			t.Fatal(err)
		}
		var got map[string]any
		if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
			t.Fatalf("invalid JSON: %v\n%s", err, buf.String())
		}
		if got["version"] != "1.2.0-beta.1" || got["sinceBuild"] != "232" {
			t.Errorf("unexpected JSON: %s", buf.String())
		}
		if _, ok := got["untilBuild"]; ok {
			t.Error("empty untilBuild should be omitted")
		}
	})

	t.Run("toml", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		if err := m.Encode(&buf, FormatTOML); err != nil {
			t.Fatal(err)
		}
		var got ExtensionManifest
		if err := toml.Unmarshal(buf.Bytes(), &got); err != nil {
			t.Fatalf("invalid TOML: %v\n%s", err, buf.String())
		}
		if got.ID != m.ID || got.Channel() != "beta" {
			t.Errorf("decoded %+v", got)
		}
	})

	t.Run("yaml", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		if err := m.Encode(&buf, FormatYAML); err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(buf.String(), "channels:\n  - beta\n") {
			t.Errorf("unexpected YAML:\n%s", buf.String())
		}
		var got ExtensionManifest
		if err := yaml.Unmarshal(buf.Bytes(), &got); err != nil {
			t.Fatal(err)
		}
		if got.Platform != m.Platform {
			t.Errorf("Platform = %q", got.Platform)
		}
	})
}

func TestParseFormat(t *testing.T) {
	t.Parallel()

	for _, s := range []string{"json", "toml", "yaml"} {
		if _, err := ParseFormat(s); err != nil {
			t.Errorf("ParseFormat(%q) error = %v", s, err)
		}
	}
	if _, err := ParseFormat("xml"); err == nil {
		t.Error("ParseFormat(xml) should fail")
	}
}

