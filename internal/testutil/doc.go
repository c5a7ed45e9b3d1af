// SPDX-License-Identifier: MPL-2.0

// Package testutil provides helpers shared by plugkit tests: writing project
// trees and plugin archives, a controllable clock and redirecting the user
// cache directory.
package testutil
