// SPDX-License-Identifier: MPL-2.0

// Package deps builds the plugin dependency declarations from the
// comma-delimited platformBundledPlugins and platformPlugins values.
//
// Tokens are kept verbatim: no trimming, no de-duplication, no validation
// against a registry. Only an entirely empty value is special-cased, so that
// it yields no dependencies instead of a single empty identifier.
package deps

import "strings"

// Delimiter separates identifiers in dependency lists.
const Delimiter = ","

// Set is the dependency declaration of a plugin.
type Set struct {
	// Bundled identifiers are resolved against the host IDE's own plugins.
	Bundled []string
	// Marketplace identifiers are resolved against the plugin registry.
	Marketplace []string
}

// Split splits a delimited list. An empty input yields an empty (non-nil)
// slice; every other input yields exactly the tokens between delimiters.
func Split(list, delim string) []string {
	if list == "" {
		return []string{}
	}
	return strings.Split(list, delim)
}

// Build expands the bundled and marketplace configuration values.
func Build(bundled, marketplace string) Set {
	return Set{
		Bundled:     Split(bundled, Delimiter),
		Marketplace: Split(marketplace, Delimiter),
	}
}

// EmptyTokens returns the positions of empty identifiers, e.g. from "a,,b".
// They are reported by the preflight check, never removed.
func EmptyTokens(ids []string) []int {
	var out []int
	for i, id := range ids {
		if id == "" {
			out = append(out, i)
		}
	}
	return out
}

// Coordinate is a marketplace identifier with an optional version pin, written
// as "<id>:<version>".
type Coordinate struct {
	ID      string
	Version string
}

// ParseCoordinate splits a marketplace identifier into id and optional version.
func ParseCoordinate(token string) Coordinate {
	id, ver, _ := strings.Cut(token, ":")
	return Coordinate{ID: id, Version: ver}
}
