// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"testing"
)

// ZipBytes returns a zip archive holding files (slash-separated name to
// content), with entries in name order.
func ZipBytes(files map[string]string) ([]byte, error) {
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	slices.Sort(names)

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, name := range names {
		w, err := zw.Create(name)
		if err != nil {
			return nil, err
		}
		if _, err := io.WriteString(w, files[name]); err != nil {
			return nil, err
		}
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteJar writes a jar holding files to dir/rel and returns its path.
func WriteJar(t testing.TB, dir, rel string, files map[string]string) string {
	t.Helper()

	data, err := ZipBytes(files)
	if err != nil {
		t.Fatalf("failed to build %s: %v", rel, err)
	}
	return WriteFile(t, dir, rel, string(data))
}

// ReadArchiveEntry returns the content of entry in the zip at path. A "!" in
// entry descends into a nested archive, as in
// "p/lib/p.jar!META-INF/plugin.xml".
func ReadArchiveEntry(path, entry string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	for part := range strings.SplitSeq(entry, "!") {
		zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
		if err != nil {
			return "", fmt.Errorf("%s: %w", part, err)
		}
		f, err := zr.Open(part)
		if err != nil {
			return "", err
		}
		data, err = io.ReadAll(f)
		_ = f.Close()
		if err != nil {
			return "", err
		}
	}
	return string(data), nil
}

// ArchiveEntry is ReadArchiveEntry failing the test on error.
func ArchiveEntry(t testing.TB, path, entry string) string {
	t.Helper()

	content, err := ReadArchiveEntry(path, entry)
	if err != nil {
		t.Fatalf("failed to read %s from %s: %v", entry, path, err)
	}
	return content
}
