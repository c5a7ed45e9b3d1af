// SPDX-License-Identifier: MPL-2.0

package changelog

import (
	"fmt"
	"strings"

	"github.com/plugkit/plugkit/internal/version"
)

// PatchOptions configures Patch.
type PatchOptions struct {
	// Version is the version the Unreleased changes are released under.
	Version string
	// Date is written into the new entry header (e.g. "2024-05-01").
	Date string
	// RepositoryURL enables maintenance of compare/commit link references.
	RepositoryURL string
}

// Patch releases the Unreleased changes under opts.Version. The new entry is
// inserted directly after the Unreleased entry, which is left empty with no
// predefined sections.
func (c *Changelog) Patch(opts PatchOptions) error {
	if opts.Version == "" {
		return fmt.Errorf("patch changelog: version must not be empty")
	}
	if c.Has(opts.Version) {
		return fmt.Errorf("patch changelog: %w: %s", ErrVersionExists, opts.Version)
	}

	unreleasedIdx := -1
	for i, e := range c.Entries {
		if e.IsUnreleased() {
			unreleasedIdx = i
			break
		}
	}
	if unreleasedIdx < 0 {
		return fmt.Errorf("patch changelog: %w", ErrMissingUnreleased)
	}

	unreleased := c.Entries[unreleasedIdx]
	released := &Entry{
		Version:  opts.Version,
		Date:     opts.Date,
		Summary:  unreleased.Summary,
		Sections: unreleased.clone().Sections,
	}
	c.Entries[unreleasedIdx] = &Entry{Version: unreleased.Version}

	c.Entries = append(c.Entries, nil)
	copy(c.Entries[unreleasedIdx+2:], c.Entries[unreleasedIdx+1:])
	c.Entries[unreleasedIdx+1] = released

	if opts.RepositoryURL != "" {
		c.patchLinks(opts.RepositoryURL, unreleased.Version, opts.Version)
	}
	return nil
}

// patchLinks points the Unreleased link at the new version and adds a link
// for the new version comparing it with the previous release.
func (c *Changelog) patchLinks(repo, unreleasedLabel, newVersion string) {
	repo = strings.TrimRight(repo, "/")

	previous := c.previousRelease(newVersion)

	c.setLink(unreleasedLabel, fmt.Sprintf("%s/compare/v%s...HEAD", repo, newVersion), 0)

	versionURL := fmt.Sprintf("%s/commits/v%s", repo, newVersion)
	if previous != "" {
		versionURL = fmt.Sprintf("%s/compare/v%s...v%s", repo, previous, newVersion)
	}

	at := 1
	for i, l := range c.Links {
		if strings.EqualFold(l.Label, unreleasedLabel) {
			at = i + 1
			break
		}
	}
	c.setLink(newVersion, versionURL, at)
}

// previousRelease returns the highest released version below newVersion.
// Changelogs whose versions are not semantic versions fall back to the first
// released entry in document order.
func (c *Changelog) previousRelease(newVersion string) string {
	var previous, first string
	for _, e := range c.Released() {
		if e.Version == newVersion {
			continue
		}
		if first == "" {
			first = e.Version
		}
		if !version.IsValid(e.Version) || !version.IsValid(newVersion) {
			continue
		}
		if version.Compare(e.Version, newVersion) < 0 &&
			(previous == "" || version.Compare(e.Version, previous) > 0) {
			previous = e.Version
		}
	}
	if previous == "" && !version.IsValid(newVersion) {
		return first
	}
	return previous
}
