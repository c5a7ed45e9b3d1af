// SPDX-License-Identifier: MPL-2.0

// Package version derives release channels from plugin version strings and
// answers semantic-version questions for the rest of plugkit.
//
// The channel of a version is the label of its pre-release part up to the
// first dot: "2.1.7-alpha.3" publishes to "alpha", while "1.0.0" and
// "1.0.0-.3" publish to DefaultChannel.
package version
