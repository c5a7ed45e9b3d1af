// SPDX-License-Identifier: MPL-2.0

package changelog

import (
	"strings"
)

type (
	// Entry is one version block of a changelog.
	//
	// Entries returned by a Changelog are shared; use WithHeader and
	// WithEmptySections to obtain rendering variants without mutating them.
	Entry struct {
		// Version is the version label, or UnreleasedTerm.
		Version string
		// Date is the release date as written in the header (may be empty).
		Date string
		// Summary is free text between the header and the first section.
		Summary string
		// Sections map section names to change lines, in document order.
		Sections []Section

		header        bool
		emptySections bool
	}

	// Section is a named group of change lines, e.g. "Added" or "Fixed".
	Section struct {
		Name  string
		Items []string
	}
)

// IsUnreleased reports whether e is the Unreleased entry.
func (e *Entry) IsUnreleased() bool {
	return strings.EqualFold(e.Version, UnreleasedTerm)
}

// WithHeader returns a copy of e that renders (or suppresses) its
// "## [version]" header line.
func (e *Entry) WithHeader(header bool) *Entry {
	cp := e.clone()
	cp.header = header
	return cp
}

// WithEmptySections returns a copy of e that renders (or omits) sections
// without items.
func (e *Entry) WithEmptySections(empty bool) *Entry {
	cp := e.clone()
	cp.emptySections = empty
	return cp
}

// Section returns the section with the given name.
func (e *Entry) Section(name string) (Section, bool) {
	for _, s := range e.Sections {
		if strings.EqualFold(s.Name, name) {
			return s, true
		}
	}
	return Section{}, false
}

// IsEmpty reports whether e has no summary and no change lines.
func (e *Entry) IsEmpty() bool {
	if strings.TrimSpace(e.Summary) != "" {
		return false
	}
	for _, s := range e.Sections {
		if len(s.Items) > 0 {
			return false
		}
	}
	return true
}

// HeaderLine returns the markdown header of the entry.
func (e *Entry) HeaderLine() string {
	if e.Date == "" {
		return "## [" + e.Version + "]"
	}
	return "## [" + e.Version + "] - " + e.Date
}

// Markdown renders the entry honoring the header and empty-section flags.
func (e *Entry) Markdown() string {
	var b strings.Builder

	if e.header {
		b.WriteString(e.HeaderLine())
		b.WriteString("\n")
	}

	if s := strings.TrimSpace(e.Summary); s != "" {
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(s)
		b.WriteByte('\n')
	}

	for _, s := range e.Sections {
		if len(s.Items) == 0 && !e.emptySections {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString("### ")
		b.WriteString(s.Name)
		b.WriteString("\n")
		if len(s.Items) > 0 {
			b.WriteByte('\n')
		}
		for _, item := range s.Items {
			b.WriteString("- ")
			b.WriteString(item)
			b.WriteByte('\n')
		}
	}

	return b.String()
}

func (e *Entry) clone() *Entry {
	cp := *e
	cp.Sections = make([]Section, len(e.Sections))
	for i, s := range e.Sections {
		cp.Sections[i] = Section{Name: s.Name, Items: append([]string(nil), s.Items...)}
	}
	return &cp
}
