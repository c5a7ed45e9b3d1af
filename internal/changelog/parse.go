// SPDX-License-Identifier: MPL-2.0

package changelog

import (
	"strings"
)

// Parse reads a changelog document. Parsing is lenient: unknown lines before
// the first entry are kept as preamble, and text between an entry header and
// its first section becomes the entry summary.
func Parse(text string) *Changelog {
	c := &Changelog{}

	var (
		entry   *Entry
		section *Section
		summary []string
	)

	flushSummary := func() {
		if entry != nil && summary != nil {
			entry.Summary = strings.Join(trimBlankEdges(summary), "\n")
		}
		summary = nil
	}

	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSuffix(raw, "\r")
		trimmed := strings.TrimSpace(line)

		if m := linkRefPattern.FindStringSubmatch(trimmed); m != nil && entry != nil {
			c.Links = append(c.Links, Link{Label: m[1], URL: m[2]})
			continue
		}

		switch {
		case strings.HasPrefix(line, "## "):
			flushSummary()
			version, date := parseHeader(strings.TrimPrefix(line, "## "))
			entry = &Entry{Version: version, Date: date}
			section = nil
			c.Entries = append(c.Entries, entry)

		case entry == nil:
			c.Preamble = append(c.Preamble, line)

		case strings.HasPrefix(line, "### "):
			if section == nil {
				flushSummary()
			}
			entry.Sections = append(entry.Sections, Section{Name: strings.TrimSpace(strings.TrimPrefix(line, "### "))})
			section = &entry.Sections[len(entry.Sections)-1]

		case section == nil:
			summary = append(summary, line)

		case isItem(line):
			section.Items = append(section.Items, strings.TrimSpace(line[2:]))

		case trimmed == "":
			// Blank lines between items carry no meaning.

		case len(section.Items) > 0 && (strings.HasPrefix(line, " ") || strings.HasPrefix(line, "\t")):
			last := len(section.Items) - 1
			section.Items[last] += "\n" + line

		default:
			// Prose inside a section is treated as its own change line.
			section.Items = append(section.Items, trimmed)
		}
	}
	flushSummary()

	return c
}

// parseHeader splits "[1.0.0] - 2024-05-01" into version and date.
func parseHeader(h string) (version, date string) {
	h = strings.TrimSpace(h)
	if strings.HasPrefix(h, "[") {
		if end := strings.Index(h, "]"); end > 0 {
			version = h[1:end]
			rest := strings.TrimSpace(h[end+1:])
			date = strings.TrimSpace(strings.TrimPrefix(rest, "-"))
			return version, date
		}
	}
	version, date, _ = strings.Cut(h, " - ")
	return strings.TrimSpace(version), strings.TrimSpace(date)
}

func isItem(line string) bool {
	return strings.HasPrefix(line, "- ") || strings.HasPrefix(line, "* ") || strings.HasPrefix(line, "+ ")
}

func trimBlankEdges(lines []string) []string {
	start, end := 0, len(lines)
	for start < end && strings.TrimSpace(lines[start]) == "" {
		start++
	}
	for end > start && strings.TrimSpace(lines[end-1]) == "" {
		end--
	}
	return lines[start:end]
}
