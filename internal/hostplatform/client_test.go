// SPDX-License-Identifier: MPL-2.0

package hostplatform

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"sync/atomic"
	"testing"

	"github.com/plugkit/plugkit/internal/checksum"
	"github.com/plugkit/plugkit/internal/platform"
	"github.com/plugkit/plugkit/internal/testutil"
)

type tarEntry struct {
	name     string
	body     string
	typeflag byte
	linkname string
}

func buildTarGz(t *testing.T, entries []tarEntry) []byte {
	t.Helper()

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)
	for _, e := range entries {
		hdr := &tar.Header{Name: e.name, Mode: 0o755, Typeflag: e.typeflag, Linkname: e.linkname}
		if e.typeflag == tar.TypeReg {
			hdr.Size = int64(len(e.body))
		}
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatal(err)
		}
		if e.typeflag == tar.TypeReg {
			if _, err := tw.Write([]byte(e.body)); err != nil {
				t.Fatal(err)
			}
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := gz.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func sha(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// newDistServer serves one archive at /idea/ideaIC-<version>.tar.gz and its
// sidecar. It counts archive downloads.
func newDistServer(t *testing.T, version string, archive []byte, sidecar string) (*httptest.Server, *atomic.Int32) {
	t.Helper()

	var downloads atomic.Int32
	base := "/idea/ideaIC-" + version + ".tar.gz"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case base:
			downloads.Add(1)
			_, _ = w.Write(archive)
		case base + ".sha256":
			_, _ = w.Write([]byte(sidecar))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv, &downloads
}

func TestFetch_DownloadsVerifiesAndCaches(t *testing.T) {
	t.Parallel()

	archive := buildTarGz(t, []tarEntry{
		{name: "idea-IC-232.10227.8/", typeflag: tar.TypeDir},
		{name: "idea-IC-232.10227.8/bin/idea.sh", body: "#!/bin/sh\n", typeflag: tar.TypeReg},
		{name: "idea-IC-232.10227.8/build.txt", body: "IC-232.10227.8", typeflag: tar.TypeReg},
		{name: "idea-IC-232.10227.8/bin/launcher", typeflag: tar.TypeSymlink, linkname: "idea.sh"},
	})
	srv, downloads := newDistServer(t, "2023.2.5", archive, sha(archive)+" *ideaIC-2023.2.5.tar.gz\n")

	client, err := NewClient(WithBaseURL(srv.URL), WithCacheDir(t.TempDir()))
	if err != nil {
		t.Fatal(err)
	}
	target := platform.Remote{Type: "IC", Version: "2023.2.5"}

	install, err := client.Fetch(context.Background(), target)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if install.Cached {
		t.Error("first Fetch() reported a cached install")
	}
	if install.Home != client.InstallDir(target) {
		t.Errorf("Home = %q, want %q", install.Home, client.InstallDir(target))
	}
	data, err := os.ReadFile(filepath.Join(install.Home, "build.txt"))
	if err != nil || string(data) != "IC-232.10227.8" {
		t.Errorf("build.txt = %q, %v", data, err)
	}
	if _, err := os.Lstat(filepath.Join(install.Home, "bin", "launcher")); err != nil {
		t.Errorf("symlink not extracted: %v", err)
	}

	again, err := client.Fetch(context.Background(), target)
	if err != nil {
		t.Fatalf("second Fetch() error = %v", err)
	}
	if !again.Cached {
		t.Error("second Fetch() should reuse the cache")
	}
	if got := downloads.Load(); got != 1 {
		t.Errorf("archive downloaded %d times, want 1", got)
	}
}

func TestFetch_ChecksumMismatch(t *testing.T) {
	t.Parallel()

	archive := buildTarGz(t, []tarEntry{{name: "build.txt", body: "x", typeflag: tar.TypeReg}})
	srv, _ := newDistServer(t, "2024.1", archive, sha([]byte("other"))+"\n")

	cache := t.TempDir()
	client, err := NewClient(WithBaseURL(srv.URL), WithCacheDir(cache))
	if err != nil {
		t.Fatal(err)
	}

	_, err = client.Fetch(context.Background(), platform.Remote{Type: "IC", Version: "2024.1"})
	if !errors.Is(err, checksum.ErrMismatch) {
		t.Fatalf("Fetch() error = %v, want checksum.ErrMismatch", err)
	}
	if _, statErr := os.Stat(filepath.Join(cache, "IC-2024.1")); !os.IsNotExist(statErr) {
		t.Errorf("install dir should not exist after a failed verification")
	}
}

func TestFetch_RejectsPathTraversal(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		entries []tarEntry
		symlink bool
	}{
		{
			name:    "parent directory entry",
			entries: []tarEntry{{name: "../evil", body: "x", typeflag: tar.TypeReg}},
		},
		{
			name: "file below chained symlinks",
			entries: []tarEntry{
				{name: "x", typeflag: tar.TypeSymlink, linkname: "."},
				{name: "x/y", typeflag: tar.TypeSymlink, linkname: ".."},
				{name: "y/evil", body: "x", typeflag: tar.TypeReg},
			},
			symlink: true,
		},
		{
			name: "link climbing after a symlinked directory",
			entries: []tarEntry{
				{name: "a", typeflag: tar.TypeSymlink, linkname: "."},
				{name: "b", typeflag: tar.TypeSymlink, linkname: "a/../evil"},
				{name: "b", body: "x", typeflag: tar.TypeReg},
			},
			symlink: true,
		},
		{
			name:    "absolute link",
			entries: []tarEntry{{name: "passwd", typeflag: tar.TypeSymlink, linkname: "/etc/passwd"}},
			symlink: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if tt.symlink && runtime.GOOS == "windows" {
				t.Skip("symlinks require extra privileges on Windows")
			}

			archive := buildTarGz(t, tt.entries)
			srv, _ := newDistServer(t, "2024.1", archive, sha(archive))
			cacheDir := t.TempDir()

			client, err := NewClient(WithBaseURL(srv.URL), WithCacheDir(cacheDir))
			if err != nil {
				t.Fatal(err)
			}

			_, err = client.Fetch(context.Background(), platform.Remote{Type: "IC", Version: "2024.1"})
			if !errors.Is(err, ErrUnsafePath) {
				t.Fatalf("Fetch() error = %v, want ErrUnsafePath", err)
			}
			if _, statErr := os.Lstat(filepath.Join(cacheDir, "evil")); !os.IsNotExist(statErr) {
				t.Error("archive entry was written outside the extraction directory")
			}
		})
	}
}

func TestExtractTarGz_ChainedSymlinks(t *testing.T) {
	t.Parallel()
	if runtime.GOOS == "windows" {
		t.Skip("symlinks require extra privileges on Windows")
	}

	root := t.TempDir()
	dest := filepath.Join(root, "dest")
	archivePath := filepath.Join(root, "a.tar.gz")
	archive := buildTarGz(t, []tarEntry{
		{name: "x", typeflag: tar.TypeSymlink, linkname: "."},
		{name: "x/y", typeflag: tar.TypeSymlink, linkname: ".."},
		{name: "y/evil", body: "x", typeflag: tar.TypeReg},
	})
	if err := os.WriteFile(archivePath, archive, 0o644); err != nil {
		t.Fatal(err)
	}

	if err := extractTarGz(archivePath, dest); !errors.Is(err, ErrUnsafePath) {
		t.Fatalf("extractTarGz() error = %v, want ErrUnsafePath", err)
	}
	if _, err := os.Lstat(filepath.Join(root, "evil")); !os.IsNotExist(err) {
		t.Error("evil was written outside dest")
	}
}

func TestCheckLinkTarget(t *testing.T) {
	t.Parallel()

	dest := t.TempDir()
	target := filepath.Join(dest, "idea", "bin", "link")
	tests := []struct {
		linkname string
		ok       bool
	}{
		{"idea.sh", true},
		{"../lib/app.jar", true},
		{"./../../idea/lib", true},
		{"../../../outside", false},
		{"lib/../../x", false},
		{"/etc/passwd", false},
		{"", false},
	}
	for _, tt := range tests {
		err := checkLinkTarget(dest, target, tt.linkname)
		if (err == nil) != tt.ok {
			t.Errorf("checkLinkTarget(%q) error = %v, want ok=%v", tt.linkname, err, tt.ok)
		}
	}
}

func TestFetch_MissingDistribution(t *testing.T) {
	t.Parallel()

	srv, _ := newDistServer(t, "2024.1", nil, "")
	client, err := NewClient(WithBaseURL(srv.URL), WithCacheDir(t.TempDir()))
	if err != nil {
		t.Fatal(err)
	}

	_, err = client.Fetch(context.Background(), platform.Remote{Type: "IC", Version: "1999.1"})
	var status *StatusError
	if !errors.As(err, &status) || status.StatusCode != http.StatusNotFound {
		t.Fatalf("Fetch() error = %v, want 404 StatusError", err)
	}
	if !errors.Is(err, ErrDownloadFailed) {
		t.Error("StatusError should wrap ErrDownloadFailed")
	}
}

func TestFetch_UnknownProduct(t *testing.T) {
	t.Parallel()

	client, err := NewClient(WithCacheDir(t.TempDir()))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := client.Fetch(context.Background(), platform.Remote{Type: "XX", Version: "1"}); err == nil {
		t.Fatal("expected error for unknown product code")
	}
}

func TestArchiveURL(t *testing.T) {
	t.Parallel()

	client, err := NewClient(WithBaseURL("https://cdn.example.com/"), WithCacheDir(t.TempDir()))
	if err != nil {
		t.Fatal(err)
	}
	got, err := client.ArchiveURL(platform.Remote{Type: "GO", Version: "2024.1"})
	if err != nil {
		t.Fatal(err)
	}
	if want := "https://cdn.example.com/go/goland-2024.1.tar.gz"; got != want {
		t.Errorf("ArchiveURL() = %q, want %q", got, want)
	}
}

func TestSafeJoin(t *testing.T) {
	t.Parallel()

	dest := t.TempDir()
	tests := []struct {
		name string
		ok   bool
	}{
		{"bin/idea.sh", true},
		{"./lib/app.jar", true},
		{"../x", false},
		{"a/../../x", false},
		{"/etc/passwd", false},
	}
	for _, tt := range tests {
		_, err := safeJoin(dest, tt.name)
		if (err == nil) != tt.ok {
			t.Errorf("safeJoin(%q) error = %v, want ok=%v", tt.name, err, tt.ok)
		}
	}
}

func TestNewClient_DefaultCacheDir(t *testing.T) {
	// Not parallel: redirects the user cache directory.
	cacheRoot := testutil.SetUserCacheDir(t, t.TempDir())

	c, err := NewClient()
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	want := filepath.Join(cacheRoot, "plugkit", "platforms", "IC-2024.1")
	if got := c.InstallDir(platform.Remote{Type: "IC", Version: "2024.1"}); got != want {
		t.Errorf("InstallDir() = %q, want %q", got, want)
	}
}
