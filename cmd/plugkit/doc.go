// SPDX-License-Identifier: MPL-2.0

// Package cmd contains all CLI commands for plugkit.
//
// Every command loads the project configuration once, hands the immutable
// config to the internal packages and maps failures to process exit codes:
// 0 on success, 1 when a release step or external collaborator fails, and 2
// when the project is misconfigured.
package cmd
