// SPDX-License-Identifier: MPL-2.0

// Package docsection extracts marker-delimited sections from text documents,
// such as the plugin description block of a README.
package docsection

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

const (
	// DescriptionStart marks the first line before the plugin description.
	DescriptionStart = "<!-- Plugin description -->"
	// DescriptionEnd marks the line after the plugin description.
	DescriptionEnd = "<!-- Plugin description end -->"
)

// ErrSectionNotFound is the sentinel error wrapped by SectionNotFoundError.
var ErrSectionNotFound = errors.New("section not found")

// SectionNotFoundError is returned when a document lacks either marker line
// or has the end marker before the start marker. It names both markers so the
// operator can fix the document.
type SectionNotFoundError struct {
	Document string
	Start    string
	End      string
	// Reversed is set when both markers exist but end comes first.
	Reversed bool
}

// Error implements the error interface.
func (e *SectionNotFoundError) Error() string {
	doc := e.Document
	if doc == "" {
		doc = "document"
	}
	if e.Reversed {
		return fmt.Sprintf("section markers out of order in %s: %q must come before %q", doc, e.Start, e.End)
	}
	return fmt.Sprintf("section not found in %s:\n%s ... %s", doc, e.Start, e.End)
}

// Unwrap returns ErrSectionNotFound for errors.Is() compatibility.
func (e *SectionNotFoundError) Unwrap() error { return ErrSectionNotFound }

// Extract returns the lines strictly between the first line equal to start and
// the first line equal to end, joined with "\n". Markers match whole lines
// only. The name is used in error messages.
func Extract(name, text, start, end string) (string, error) {
	lines := splitLines(text)

	from := slices.Index(lines, start)
	to := slices.Index(lines, end)
	if from < 0 || to < 0 {
		return "", &SectionNotFoundError{Document: name, Start: start, End: end}
	}
	if to <= from {
		return "", &SectionNotFoundError{Document: name, Start: start, End: end, Reversed: true}
	}

	return strings.Join(lines[from+1:to], "\n"), nil
}

// ExtractDescription extracts the plugin description block delimited by
// DescriptionStart and DescriptionEnd.
func ExtractDescription(name, text string) (string, error) {
	return Extract(name, text, DescriptionStart, DescriptionEnd)
}

// splitLines splits on "\n" and drops a trailing "\r" from each line so CRLF
// documents match markers.
func splitLines(text string) []string {
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}
