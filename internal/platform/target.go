// SPDX-License-Identifier: MPL-2.0

package platform

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMissingPlatformTarget is the sentinel error wrapped by MissingPlatformTargetError.
var ErrMissingPlatformTarget = errors.New("missing platform target")

type (
	// Target is the host-IDE build a plugin is built against. It is
	// implemented only by Local and Remote.
	Target interface {
		// Describe returns a one-line human description.
		Describe() string
		isTarget()
	}

	// Local is an IDE installation on the local filesystem.
	Local struct {
		Path string
	}

	// Remote is an IDE build identified by product code and version.
	Remote struct {
		Type    string
		Version string
	}

	// MissingPlatformTargetError is returned when neither a local path nor a
	// complete type/version pair is configured. It names the keys the operator
	// has to set.
	MissingPlatformTargetError struct {
		LocalPathKey string
		TypeKey      string
		VersionKey   string
	}
)

// Describe implements Target.
func (l Local) Describe() string { return "local IDE at " + l.Path }

// Describe implements Target.
func (r Remote) Describe() string { return fmt.Sprintf("%s %s", r.Type, r.Version) }

// Coordinates returns the "<type>-<version>" form used for cache directories
// and download file names.
func (r Remote) Coordinates() string { return r.Type + "-" + r.Version }

func (Local) isTarget()  {}
func (Remote) isTarget() {}

// Error implements the error interface.
func (e *MissingPlatformTargetError) Error() string {
	return fmt.Sprintf("either %s or both %s and %s must be set",
		e.LocalPathKey, e.TypeKey, e.VersionKey)
}

// Unwrap returns ErrMissingPlatformTarget for errors.Is() compatibility.
func (e *MissingPlatformTargetError) Unwrap() error { return ErrMissingPlatformTarget }

// Resolve picks the platform target. A non-empty localPath wins even when
// platformType and platformVersion are also set. Otherwise both platformType
// and platformVersion must be non-empty.
func Resolve(localPath, platformType, platformVersion string) (Target, error) {
	if localPath != "" {
		return Local{Path: localPath}, nil
	}
	if platformType != "" && platformVersion != "" {
		return Remote{Type: platformType, Version: platformVersion}, nil
	}
	return nil, &MissingPlatformTargetError{
		LocalPathKey: "ideaLocalPath",
		TypeKey:      "platformType",
		VersionKey:   "platformVersion",
	}
}

// IsBlank reports whether a configuration value is empty after trimming.
// Resolve accepts whitespace-only target values as configured; the preflight
// check flags them with IsBlank.
func IsBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
