// SPDX-License-Identifier: MPL-2.0

package changelog

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
)

// UnreleasedTerm is the header label of the unreleased entry.
const UnreleasedTerm = "Unreleased"

var (
	// ErrMissingUnreleased is returned when a changelog has no Unreleased entry.
	// A well-formed changelog always has one, so callers treat this as a
	// configuration error.
	ErrMissingUnreleased = errors.New("changelog has no [" + UnreleasedTerm + "] entry")

	// ErrVersionExists is returned when patching a version that already has an entry.
	ErrVersionExists = errors.New("changelog already contains version")

	//nolint:gochecknoglobals // Compiled once.
	linkRefPattern = regexp.MustCompile(`^\[([^\]]+)\]:\s*(\S+)\s*$`)
)

type (
	// Source is the changelog data source consumed by ChangeNotes.
	Source interface {
		// GetOrNull returns the entry for exactly version, or nil.
		GetOrNull(version string) *Entry
		// GetUnreleased returns the Unreleased entry or ErrMissingUnreleased.
		GetUnreleased() (*Entry, error)
	}

	// Changelog is a parsed changelog document.
	Changelog struct {
		// Preamble holds the lines before the first entry (title, intro text).
		Preamble []string
		// Entries are kept in document order, newest first by convention.
		Entries []*Entry
		// Links are the trailing link reference definitions.
		Links []Link
	}

	// Link is a markdown link reference definition such as
	// "[1.0.0]: https://example.com/commits/v1.0.0".
	Link struct {
		Label string
		URL   string
	}
)

// Load reads and parses the changelog at path.
func Load(path string) (*Changelog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading changelog: %w", err)
	}
	return Parse(string(data)), nil
}

// Save writes the changelog to path.
func (c *Changelog) Save(path string) error {
	if err := os.WriteFile(path, []byte(c.String()), 0o644); err != nil {
		return fmt.Errorf("writing changelog: %w", err)
	}
	return nil
}

// GetOrNull returns the entry whose version equals version, or nil.
// The Unreleased entry is only returned for the literal UnreleasedTerm.
func (c *Changelog) GetOrNull(version string) *Entry {
	for _, e := range c.Entries {
		if e.Version == version {
			return e
		}
	}
	return nil
}

// GetUnreleased returns the Unreleased entry.
func (c *Changelog) GetUnreleased() (*Entry, error) {
	for _, e := range c.Entries {
		if e.IsUnreleased() {
			return e, nil
		}
	}
	return nil, ErrMissingUnreleased
}

// Has reports whether the changelog has an entry for version.
func (c *Changelog) Has(version string) bool {
	return c.GetOrNull(version) != nil
}

// Released returns the released entries in document order.
func (c *Changelog) Released() []*Entry {
	var out []*Entry
	for _, e := range c.Entries {
		if !e.IsUnreleased() {
			out = append(out, e)
		}
	}
	return out
}

// Link returns the URL of the link reference with the given label.
func (c *Changelog) Link(label string) (string, bool) {
	for _, l := range c.Links {
		if strings.EqualFold(l.Label, label) {
			return l.URL, true
		}
	}
	return "", false
}

// setLink replaces the URL of an existing label or inserts a new link at index.
func (c *Changelog) setLink(label, url string, index int) {
	for i := range c.Links {
		if strings.EqualFold(c.Links[i].Label, label) {
			c.Links[i].URL = url
			return
		}
	}
	index = min(max(index, 0), len(c.Links))
	c.Links = append(c.Links, Link{})
	copy(c.Links[index+1:], c.Links[index:])
	c.Links[index] = Link{Label: label, URL: url}
}

// String serializes the changelog back to markdown.
func (c *Changelog) String() string {
	var b strings.Builder

	preamble := trimBlankEdges(c.Preamble)
	for _, l := range preamble {
		b.WriteString(l)
		b.WriteByte('\n')
	}

	for _, e := range c.Entries {
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(e.WithHeader(true).WithEmptySections(true).Markdown())
	}

	if len(c.Links) > 0 {
		b.WriteByte('\n')
		for _, l := range c.Links {
			fmt.Fprintf(&b, "[%s]: %s\n", l.Label, l.URL)
		}
	}

	return b.String()
}
