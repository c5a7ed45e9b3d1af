// SPDX-License-Identifier: MPL-2.0

package changelog

import (
	"errors"
	"strings"
	"testing"
)

const sample = `# Quick MyBatis Changelog

All notable changes are documented here.

## [Unreleased]

### Added

- Goto declaration from mapper XML
- Line markers for select statements

### Fixed

## [1.1.0] - 2024-06-02

Maintenance release.

### Changed

- Faster cache warm-up
  on large projects

## [1.0.0] - 2024-05-01

### Added

- Initial release

[Unreleased]: https://github.com/acme/quick-mybatis/compare/v1.1.0...HEAD
[1.1.0]: https://github.com/acme/quick-mybatis/compare/v1.0.0...v1.1.0
[1.0.0]: https://github.com/acme/quick-mybatis/commits/v1.0.0
`

func TestParse(t *testing.T) {
	t.Parallel()

	c := Parse(sample)

	if len(c.Entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(c.Entries))
	}
	if len(c.Links) != 3 {
		t.Fatalf("expected 3 links, got %d", len(c.Links))
	}
	if got := strings.Join(trimBlankEdges(c.Preamble), "|"); got != "# Quick MyBatis Changelog||All notable changes are documented here." {
		t.Errorf("unexpected preamble %q", got)
	}

	unreleased, err := c.GetUnreleased()
	if err != nil {
		t.Fatalf("GetUnreleased() error: %v", err)
	}
	if len(unreleased.Sections) != 2 {
		t.Fatalf("expected 2 unreleased sections, got %d", len(unreleased.Sections))
	}
	added, ok := unreleased.Section("Added")
	if !ok || len(added.Items) != 2 {
		t.Fatalf("unexpected Added section: %+v", added)
	}
	if added.Items[1] != "Line markers for select statements" {
		t.Errorf("unexpected item %q", added.Items[1])
	}

	v110 := c.GetOrNull("1.1.0")
	if v110 == nil {
		t.Fatal("expected entry for 1.1.0")
	}
	if v110.Date != "2024-06-02" {
		t.Errorf("Date = %q, want 2024-06-02", v110.Date)
	}
	if v110.Summary != "Maintenance release." {
		t.Errorf("Summary = %q", v110.Summary)
	}
	changed, _ := v110.Section("Changed")
	if len(changed.Items) != 1 || changed.Items[0] != "Faster cache warm-up\n  on large projects" {
		t.Errorf("continuation line not folded into item: %q", changed.Items)
	}

	if url, ok := c.Link("1.0.0"); !ok || url != "https://github.com/acme/quick-mybatis/commits/v1.0.0" {
		t.Errorf("Link(1.0.0) = %q, %v", url, ok)
	}
}

func TestGetOrNull_ExactMatchOnly(t *testing.T) {
	t.Parallel()

	c := Parse(sample)
	for _, v := range []string{"1.1", "v1.1.0", "1.1.0 ", "2.0.0"} {
		if e := c.GetOrNull(v); e != nil {
			t.Errorf("GetOrNull(%q) = %v, want nil", v, e.Version)
		}
	}
}

func TestGetUnreleased_Missing(t *testing.T) {
	t.Parallel()

	c := Parse("# Changelog\n\n## [1.0.0]\n\n### Added\n\n- x\n")
	if _, err := c.GetUnreleased(); !errors.Is(err, ErrMissingUnreleased) {
		t.Errorf("expected ErrMissingUnreleased, got %v", err)
	}
}

func TestString_RoundTrip(t *testing.T) {
	t.Parallel()

	first := Parse(sample).String()
	second := Parse(first).String()
	if first != second {
		t.Errorf("serialization is not stable:\n%s\n---\n%s", first, second)
	}
	if !strings.Contains(first, "## [1.1.0] - 2024-06-02\n\nMaintenance release.\n\n### Changed\n\n- Faster cache warm-up\n  on large projects\n") {
		t.Errorf("unexpected serialization:\n%s", first)
	}
	if !strings.Contains(first, "### Fixed\n") {
		t.Error("serialization must keep empty sections")
	}
}

func TestEntryCopiesDoNotMutateSource(t *testing.T) {
	t.Parallel()

	c := Parse(sample)
	e := c.GetOrNull("1.0.0")
	cp := e.WithHeader(true)
	cp.Sections[0].Items[0] = "changed"

	if e.Sections[0].Items[0] != "Initial release" {
		t.Error("WithHeader copy shares item storage with the source entry")
	}
	if e.header {
		t.Error("WithHeader mutated the source entry")
	}
}
