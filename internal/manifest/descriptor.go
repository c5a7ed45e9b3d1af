// SPDX-License-Identifier: MPL-2.0

package manifest

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
)

const rootElement = "idea-plugin"

// ErrNotDescriptor is returned when the document root is not <idea-plugin>.
var ErrNotDescriptor = errors.New("not a plugin descriptor")

// span is a byte range of the original document.
type span struct {
	start, end int64
}

// edit replaces the bytes in span with text.
type edit struct {
	span
	text string
}

// PatchXML rewrites the <version>, <idea-version>, <description> and
// <change-notes> elements of a plugin.xml descriptor from m. Elements that are
// missing are inserted before </idea-plugin>. Everything else in the document
// is kept byte for byte.
func PatchXML(doc []byte, m *ExtensionManifest) ([]byte, error) {
	found, rootEnd, err := scanDescriptor(doc)
	if err != nil {
		return nil, err
	}

	replacements := []struct {
		name string
		text string
	}{
		{"version", "<version>" + escapeText(m.Version) + "</version>"},
		{"idea-version", ideaVersionElement(m.SinceBuild, m.UntilBuild)},
		{"description", "<description>" + cdata(m.Description) + "</description>"},
		{"change-notes", "<change-notes>" + cdata(m.ChangeNotes) + "</change-notes>"},
	}

	var edits []edit
	var inserted strings.Builder
	for _, r := range replacements {
		if s, ok := found[r.name]; ok {
			edits = append(edits, edit{span: s, text: r.text})
			continue
		}
		inserted.WriteString("    ")
		inserted.WriteString(r.text)
		inserted.WriteString("\n")
	}
	if inserted.Len() > 0 {
		edits = append(edits, edit{span: span{rootEnd, rootEnd}, text: insertionPrefix(doc, rootEnd) + inserted.String()})
	}

	slices.SortFunc(edits, func(a, b edit) int { return int(a.start - b.start) })

	var out bytes.Buffer
	var pos int64
	for _, e := range edits {
		out.Write(doc[pos:e.start])
		out.WriteString(e.text)
		pos = e.end
	}
	out.Write(doc[pos:])
	return out.Bytes(), nil
}

// scanDescriptor locates the first occurrence of each patched element among
// the direct children of the root, and the offset of the root end tag.
func scanDescriptor(doc []byte) (map[string]span, int64, error) {
	dec := xml.NewDecoder(bytes.NewReader(doc))
	dec.Strict = false

	found := make(map[string]span)
	var (
		depth     int
		rootSeen  bool
		current   string
		elemStart int64
	)
	for {
		offset := dec.InputOffset()
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return nil, 0, fmt.Errorf("%w: missing </%s>", ErrNotDescriptor, rootElement)
		}
		if err != nil {
			return nil, 0, fmt.Errorf("parsing descriptor: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			if depth == 1 {
				if t.Name.Local != rootElement {
					return nil, 0, fmt.Errorf("%w: root element is <%s>", ErrNotDescriptor, t.Name.Local)
				}
				rootSeen = true
			}
			if depth == 2 {
				current = t.Name.Local
				elemStart = offset
			}
		case xml.EndElement:
			if depth == 1 && rootSeen {
				return found, offset, nil
			}
			if depth == 2 {
				if _, dup := found[current]; !dup {
					found[current] = span{elemStart, dec.InputOffset()}
				}
			}
			depth--
		}
	}
}

// insertionPrefix returns a newline when the root end tag does not already
// start its own line.
func insertionPrefix(doc []byte, rootEnd int64) string {
	lineStart := bytes.LastIndexByte(doc[:rootEnd], '\n') + 1
	if len(bytes.TrimSpace(doc[lineStart:rootEnd])) == 0 {
		return ""
	}
	return "\n"
}

func ideaVersionElement(since, until string) string {
	var b strings.Builder
	b.WriteString("<idea-version")
	if since != "" {
		fmt.Fprintf(&b, ` since-build="%s"`, escapeText(since))
	}
	if until != "" {
		fmt.Fprintf(&b, ` until-build="%s"`, escapeText(until))
	}
	b.WriteString("/>")
	return b.String()
}

func escapeText(s string) string {
	var b strings.Builder
	_ = xml.EscapeText(&b, []byte(s)) // strings.Builder writes never fail
	return b.String()
}

// cdata wraps s in a CDATA section, splitting any "]]>" it contains.
func cdata(s string) string {
	return "<![CDATA[" + strings.ReplaceAll(s, "]]>", "]]]]><![CDATA[>") + "]]>"
}
