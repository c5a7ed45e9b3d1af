// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"path/filepath"
	"runtime"
	"testing"
)

// SetUserCacheDir points os.UserCacheDir at a directory below root and
// returns that directory. It uses t.Setenv, so the calling test must not be
// parallel.
func SetUserCacheDir(t *testing.T, root string) string {
	t.Helper()

	switch runtime.GOOS {
	case "windows":
		t.Setenv("LocalAppData", root)
		return root
	case "darwin", "ios":
		t.Setenv("HOME", root)
		return filepath.Join(root, "Library", "Caches")
	case "plan9":
		t.Setenv("home", root)
		return filepath.Join(root, "lib", "cache")
	default:
		t.Setenv("XDG_CACHE_HOME", root)
		return root
	}
}
