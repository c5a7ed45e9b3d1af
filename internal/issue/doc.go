// SPDX-License-Identifier: MPL-2.0

// Package issue provides actionable errors: failures that carry the operation
// that was attempted, the file or URL involved and concrete next steps for
// the user.
package issue
