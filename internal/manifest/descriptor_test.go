// SPDX-License-Identifier: MPL-2.0

package manifest

import (
	"errors"
	"strings"
	"testing"
)

const descriptor = `<?xml version="1.0" encoding="UTF-8"?>
<!-- Plugin Configuration File -->
<idea-plugin>
    <id>com.example.quick</id>
    <name>Quick MyBatis</name>
    <version>0.0.1</version>
    <idea-version since-build="200" until-build="210.*"/>
    <description><![CDATA[old]]></description>
    <depends>com.intellij.modules.platform</depends>
    <extensions defaultExtensionNs="com.intellij">
        <version>nested elements are left alone</version>
    </extensions>
</idea-plugin>
`

func sampleManifest() *ExtensionManifest {
	return &ExtensionManifest{
		Version:     "1.2.0",
		SinceBuild:  "232",
		UntilBuild:  "242.*",
		Description: "<p>Navigate between mapper & XML</p>",
		ChangeNotes: "<h3>Added</h3>\n<ul>\n<li>Go to SQL</li>\n</ul>",
	}
}

func TestPatchXML_ReplacesAndInserts(t *testing.T) {
	t.Parallel()

	out, err := PatchXML([]byte(descriptor), sampleManifest())
	if err != nil {
		t.Fatalf("PatchXML() error = %v", err)
	}
	got := string(out)

	for _, want := range []string{
		"<version>1.2.0</version>",
		`<idea-version since-build="232" until-build="242.*"/>`,
		"<description><![CDATA[<p>Navigate between mapper & XML</p>]]></description>",
		"    <change-notes><![CDATA[<h3>Added</h3>",
		"<version>nested elements are left alone</version>",
		"<!-- Plugin Configuration File -->",
		"<depends>com.intellij.modules.platform</depends>",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
	if strings.Contains(got, "0.0.1") || strings.Contains(got, "old") {
		t.Errorf("old values survived:\n%s", got)
	}
	if !strings.HasSuffix(got, "</ul>]]></change-notes>\n</idea-plugin>\n") {
		t.Errorf("change-notes not inserted before the root end tag:\n%s", got)
	}
}

func TestPatchXML_OpenEndedUntilBuild(t *testing.T) {
	t.Parallel()

	m := sampleManifest()
	m.UntilBuild = ""
	out, err := PatchXML([]byte(descriptor), m)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(out), `<idea-version since-build="232"/>`) {
		t.Errorf("until-build should be removed:\n%s", out)
	}
}

func TestPatchXML_IsIdempotent(t *testing.T) {
	t.Parallel()

	once, err := PatchXML([]byte(descriptor), sampleManifest())
	if err != nil {
		t.Fatal(err)
	}
	twice, err := PatchXML(once, sampleManifest())
	if err != nil {
		t.Fatal(err)
	}
	if string(once) != string(twice) {
		t.Errorf("second patch changed the document:\n%s\n---\n%s", once, twice)
	}
}

func TestPatchXML_SingleLineRoot(t *testing.T) {
	t.Parallel()

	out, err := PatchXML([]byte(`<idea-plugin><id>x</id></idea-plugin>`), &ExtensionManifest{Version: "1.0.0"})
	if err != nil {
		t.Fatal(err)
	}
	want := "<idea-plugin><id>x</id>\n    <version>1.0.0</version>\n    <idea-version/>\n" +
		"    <description><![CDATA[]]></description>\n    <change-notes><![CDATA[]]></change-notes>\n</idea-plugin>"
	if string(out) != want {
		t.Errorf("PatchXML() =\n%s\nwant\n%s", out, want)
	}
}

func TestPatchXML_CDATATerminatorInContent(t *testing.T) {
	t.Parallel()

	m := &ExtensionManifest{Version: "1", Description: "a]]>b"}
	out, err := PatchXML([]byte("<idea-plugin>\n</idea-plugin>\n"), m)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(out), "<![CDATA[a]]]]><![CDATA[>b]]>") {
		t.Errorf("CDATA terminator not split:\n%s", out)
	}
}

func TestPatchXML_RejectsOtherDocuments(t *testing.T) {
	t.Parallel()

	_, err := PatchXML([]byte(`<project></project>`), sampleManifest())
	if !errors.Is(err, ErrNotDescriptor) {
		t.Errorf("error = %v, want ErrNotDescriptor", err)
	}
}
