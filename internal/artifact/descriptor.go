// SPDX-License-Identifier: MPL-2.0

package artifact

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
)

// DescriptorPath is the plugin descriptor's location inside a plugin jar.
const DescriptorPath = "META-INF/plugin.xml"

// ErrNoDescriptor is returned when no jar in the plugin's lib directory
// carries a plugin descriptor.
var ErrNoDescriptor = errors.New("artifact carries no plugin descriptor")

// DescriptorPatch rewrites a plugin descriptor.
type DescriptorPatch func(doc []byte) ([]byte, error)

// patchArchive rewrites every lib/*.jar!META-INF/plugin.xml of the zip at
// zipPath through patch. The zip is replaced only when all entries were
// rewritten.
func patchArchive(zipPath string, patch DescriptorPatch) (err error) {
	zr, err := zip.OpenReader(zipPath)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", zipPath, err)
	}
	readerOpen := true
	defer func() {
		if readerOpen {
			_ = zr.Close()
		}
	}()

	tmp, err := os.CreateTemp(filepath.Dir(zipPath), ".plugkit-*.zip")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmpPath)
		}
	}()

	zw := zip.NewWriter(tmp)
	patched := 0
	for _, f := range zr.File {
		if !isLibJar(f.Name) {
			if err := zw.Copy(f); err != nil {
				return fmt.Errorf("failed to copy %s: %w", f.Name, err)
			}
			continue
		}

		jar, err := readEntry(f)
		if err != nil {
			return err
		}
		out, found, err := patchJar(jar, patch)
		if err != nil {
			return fmt.Errorf("%s: %w", f.Name, err)
		}
		if !found {
			if err := zw.Copy(f); err != nil {
				return fmt.Errorf("failed to copy %s: %w", f.Name, err)
			}
			continue
		}
		if err := writeEntry(zw, f, out); err != nil {
			return err
		}
		patched++
	}
	if patched == 0 {
		return fmt.Errorf("%w: no lib/*.jar contains %s", ErrNoDescriptor, DescriptorPath)
	}
	if err := zw.Close(); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	readerOpen = false
	if err := zr.Close(); err != nil {
		return err
	}
	return os.Rename(tmpPath, zipPath)
}

// patchJar returns the jar with its descriptor rewritten. found is false when
// the jar has no descriptor.
func patchJar(data []byte, patch DescriptorPatch) (out []byte, found bool, err error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, false, fmt.Errorf("not a jar: %w", err)
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, f := range zr.File {
		if f.Name != DescriptorPath {
			if err := zw.Copy(f); err != nil {
				return nil, false, err
			}
			continue
		}
		found = true
		doc, err := readEntry(f)
		if err != nil {
			return nil, false, err
		}
		doc, err = patch(doc)
		if err != nil {
			return nil, false, fmt.Errorf("%s: %w", DescriptorPath, err)
		}
		if err := writeEntry(zw, f, doc); err != nil {
			return nil, false, err
		}
	}
	if err := zw.Close(); err != nil {
		return nil, false, err
	}
	if !found {
		return data, false, nil
	}
	return buf.Bytes(), true, nil
}

func isLibJar(name string) bool {
	return path.Ext(name) == ".jar" && path.Base(path.Dir(name)) == "lib"
}

func readEntry(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", f.Name, err)
	}
	defer func() { _ = rc.Close() }() // read-only handle
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", f.Name, err)
	}
	return data, nil
}

// writeEntry writes data under the name, method and timestamp of f.
func writeEntry(zw *zip.Writer, f *zip.File, data []byte) error {
	header := &zip.FileHeader{
		Name:     f.Name,
		Method:   f.Method,
		Modified: f.Modified,
	}
	header.SetMode(f.Mode())
	w, err := zw.CreateHeader(header)
	if err != nil {
		return fmt.Errorf("failed to create ZIP entry: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write %s: %w", f.Name, err)
	}
	return nil
}
