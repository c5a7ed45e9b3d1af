// SPDX-License-Identifier: MPL-2.0

// Package markup converts the markdown fragments plugkit extracts from project
// documents into the formats consumers need: HTML for the plugin descriptor
// and marketplace, styled text for terminal previews.
package markup

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// Format selects the output of Render.
type Format string

const (
	// FormatHTML renders to an HTML fragment.
	FormatHTML Format = "html"
	// FormatMarkdown returns the markdown unchanged.
	FormatMarkdown Format = "markdown"
	// FormatTerminal renders styled text for a terminal.
	FormatTerminal Format = "terminal"
)

// htmlConverter is shared; goldmark.Markdown is safe for concurrent use.
//
//nolint:gochecknoglobals // Immutable converter.
var htmlConverter = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithRendererOptions(html.WithUnsafe()),
)

// ParseFormat validates a user-supplied format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatHTML, FormatMarkdown, FormatTerminal:
		return f, nil
	default:
		return "", fmt.Errorf("unknown format %q (expected html, markdown or terminal)", s)
	}
}

// HTML converts markdown to an HTML fragment. Raw HTML in the source, such as
// the comment markers of a README, is passed through.
func HTML(md string) (string, error) {
	var buf bytes.Buffer
	if err := htmlConverter.Convert([]byte(md), &buf); err != nil {
		return "", fmt.Errorf("converting markdown to HTML: %w", err)
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}

// Terminal renders markdown for display in a terminal, wrapped at width
// columns. A width of zero keeps glamour's default of 80 columns.
func Terminal(md string, width int) (string, error) {
	opts := []glamour.TermRendererOption{glamour.WithAutoStyle()}
	if width > 0 {
		opts = append(opts, glamour.WithWordWrap(width))
	}

	r, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return "", fmt.Errorf("creating terminal renderer: %w", err)
	}
	out, err := r.Render(md)
	if err != nil {
		return "", fmt.Errorf("rendering markdown: %w", err)
	}
	return out, nil
}

// Render converts md to the requested format.
func Render(md string, f Format) (string, error) {
	switch f {
	case FormatHTML:
		return HTML(md)
	case FormatTerminal:
		return Terminal(md, 0)
	case FormatMarkdown, "":
		return md, nil
	default:
		return "", fmt.Errorf("unknown format %q", f)
	}
}
