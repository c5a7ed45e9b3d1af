// SPDX-License-Identifier: MPL-2.0

// Package release assembles the extension manifest and runs the release
// pipeline: descriptor patch, packaging, changelog patch, signing, publishing
// and the release record.
//
// The pipeline is an ordered list of steps that stops at the first failure.
// Publishing is never attempted after a failed signing step, and the changelog
// is always patched before publishing starts.
package release
