// SPDX-License-Identifier: MPL-2.0

// Package hostplatform downloads and caches IDE distributions used as the
// host platform for builds and test launches.
//
// Distributions are fetched as tar.gz archives from the configured download
// service, verified against their .sha256 sidecar and unpacked into a cache
// directory keyed by product code and version. A completed install is reused
// on later calls; there is no retry policy.
package hostplatform
