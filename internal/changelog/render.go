// SPDX-License-Identifier: MPL-2.0

package changelog

import (
	"fmt"
	"strings"

	"github.com/plugkit/plugkit/internal/markup"
)

// OutputType selects the markup produced by Render.
type OutputType string

const (
	// OutputMarkdown renders the entry as markdown.
	OutputMarkdown OutputType = "markdown"
	// OutputHTML renders the entry as an HTML fragment.
	OutputHTML OutputType = "html"
	// OutputPlainText renders section names and change lines without markup.
	OutputPlainText OutputType = "plaintext"
)

// Render renders an entry into the requested output type, honoring the
// entry's header and empty-section flags.
func Render(e *Entry, out OutputType) (string, error) {
	md := e.Markdown()

	switch out {
	case OutputMarkdown:
		return md, nil
	case OutputHTML:
		return markup.HTML(md)
	case OutputPlainText:
		return plainText(e), nil
	default:
		return "", fmt.Errorf("unknown changelog output type %q", out)
	}
}

// Select returns the entry for version, falling back to the Unreleased entry.
// A missing Unreleased entry is returned as ErrMissingUnreleased and is never
// masked.
func Select(src Source, version string) (*Entry, error) {
	if e := src.GetOrNull(version); e != nil {
		return e, nil
	}
	e, err := src.GetUnreleased()
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, ErrMissingUnreleased
	}
	return e, nil
}

// ChangeNotes selects the entry for version (or Unreleased) and renders it
// without its header and without empty sections.
func ChangeNotes(src Source, version string, out OutputType) (string, error) {
	e, err := Select(src, version)
	if err != nil {
		return "", err
	}
	return Render(e.WithHeader(false).WithEmptySections(false), out)
}

func plainText(e *Entry) string {
	var b strings.Builder
	if e.header {
		b.WriteString(strings.TrimPrefix(e.HeaderLine(), "## "))
		b.WriteString("\n")
	}
	if s := strings.TrimSpace(e.Summary); s != "" {
		b.WriteString(s)
		b.WriteString("\n")
	}
	for _, s := range e.Sections {
		if len(s.Items) == 0 && !e.emptySections {
			continue
		}
		b.WriteString(s.Name)
		b.WriteString(":\n")
		for _, item := range s.Items {
			b.WriteString("  - ")
			b.WriteString(item)
			b.WriteString("\n")
		}
	}
	return b.String()
}
