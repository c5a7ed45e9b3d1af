// SPDX-License-Identifier: MPL-2.0

// Package changelog reads, renders and patches changelogs written in the
// "Keep a Changelog" markdown layout:
//
//	# Changelog
//
//	## [Unreleased]
//
//	### Added
//
//	- Goto declaration from mapper XML
//
//	## [1.0.0] - 2024-05-01
//
//	### Fixed
//
//	- Crash on empty mapper files
//
//	[Unreleased]: https://github.com/acme/plugin/compare/v1.0.0...HEAD
//	[1.0.0]: https://github.com/acme/plugin/commits/v1.0.0
//
// Entries are addressed by their exact version string or by the Unreleased
// sentinel. ChangeNotes implements the lookup used for plugin change notes:
// the entry for the released version if it exists, the Unreleased entry
// otherwise.
package changelog
