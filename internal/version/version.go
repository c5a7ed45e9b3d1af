// SPDX-License-Identifier: MPL-2.0

package version

import (
	"strings"

	"golang.org/x/mod/semver"
)

// DefaultChannel is the marketplace channel for versions without a
// pre-release label.
const DefaultChannel = "default"

// Channel returns the release channel for v. Every input maps to a channel;
// there is no error path.
func Channel(v string) string {
	_, pre, found := strings.Cut(v, "-")
	if !found {
		return DefaultChannel
	}
	label, _, _ := strings.Cut(pre, ".")
	if label == "" {
		return DefaultChannel
	}
	return label
}

// Channels returns the publishing channels for v. The marketplace accepts a
// list, but a version always derives exactly one.
func Channels(v string) []string {
	return []string{Channel(v)}
}

// IsValid reports whether v is a semantic version. A leading "v" is optional.
func IsValid(v string) bool {
	return semver.IsValid(canonical(v))
}

// Compare orders two versions the way semver does. Invalid versions sort
// before valid ones.
func Compare(a, b string) int {
	return semver.Compare(canonical(a), canonical(b))
}

// canonical adds the "v" prefix expected by golang.org/x/mod/semver.
func canonical(v string) string {
	if strings.HasPrefix(v, "v") {
		return v
	}
	return "v" + v
}
