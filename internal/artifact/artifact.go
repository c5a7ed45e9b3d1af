// SPDX-License-Identifier: MPL-2.0

// Package artifact packages the compiled plugin into its distributable zip.
package artifact

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/plugkit/plugkit/internal/checksum"
)

// ErrNoDistribution is returned when neither a prebuilt zip nor a plugin
// directory exists in the distribution directory.
var ErrNoDistribution = errors.New("no plugin distribution found")

type (
	// Options configures Package.
	Options struct {
		// DistributionDir holds the compiler output.
		DistributionDir string
		// PluginName is the plugin directory name, also the zip root.
		PluginName string
		// BaseName is the zip file name without extension, e.g. "quick-mybatis-1.2.0".
		BaseName string
		// PatchDescriptor, when set, rewrites the descriptor of every plugin
		// jar in the packaged zip. Packaging fails if no jar carries one.
		PatchDescriptor DescriptorPatch
	}

	// Artifact is a packaged plugin.
	Artifact struct {
		Path   string
		SHA256 string
		// Reused is true when a prebuilt zip was found instead of built.
		Reused bool
	}
)

// Package returns <DistributionDir>/<BaseName>.zip. When that file already
// exists it is reused; otherwise <DistributionDir>/<PluginName>/ is zipped
// into it with the plugin name as the archive root. Either way the embedded
// descriptors are then rewritten through PatchDescriptor.
func Package(opts Options) (*Artifact, error) {
	zipPath := filepath.Join(opts.DistributionDir, opts.BaseName+".zip")
	reused := true

	if _, err := os.Stat(zipPath); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		srcDir := filepath.Join(opts.DistributionDir, opts.PluginName)
		if info, statErr := os.Stat(srcDir); statErr != nil || !info.IsDir() {
			return nil, fmt.Errorf("%w: expected %s or directory %s", ErrNoDistribution, zipPath, srcDir)
		}
		if err := writeZip(srcDir, opts.PluginName, zipPath); err != nil {
			return nil, err
		}
		reused = false
	}

	if opts.PatchDescriptor != nil {
		if err := patchArchive(zipPath, opts.PatchDescriptor); err != nil {
			return nil, err
		}
	}

	sum, err := Checksum(zipPath)
	if err != nil {
		return nil, err
	}
	return &Artifact{Path: zipPath, SHA256: sum, Reused: reused}, nil
}

// Checksum returns the SHA-256 of a packaged or signed artifact.
func Checksum(path string) (string, error) {
	return checksum.File(path)
}

func writeZip(srcDir, root, zipPath string) (err error) {
	zipFile, err := os.Create(zipPath)
	if err != nil {
		return fmt.Errorf("failed to create ZIP file: %w", err)
	}
	defer func() {
		if closeErr := zipFile.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
		if err != nil {
			_ = os.Remove(zipPath)
		}
	}()

	zw := zip.NewWriter(zipFile)

	walkErr := filepath.WalkDir(srcDir, func(path string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		rel, relErr := filepath.Rel(srcDir, path)
		if relErr != nil {
			return fmt.Errorf("failed to get relative path: %w", relErr)
		}
		name := filepath.ToSlash(filepath.Join(root, rel))

		if d.IsDir() {
			_, createErr := zw.Create(name + "/")
			return createErr
		}

		info, infoErr := d.Info()
		if infoErr != nil {
			return fmt.Errorf("failed to get file info: %w", infoErr)
		}
		header, headerErr := zip.FileInfoHeader(info)
		if headerErr != nil {
			return fmt.Errorf("failed to create file header: %w", headerErr)
		}
		header.Name = name
		header.Method = zip.Deflate

		w, createErr := zw.CreateHeader(header)
		if createErr != nil {
			return fmt.Errorf("failed to create ZIP entry: %w", createErr)
		}
		return copyFile(w, path)
	})
	if walkErr != nil {
		_ = zw.Close()
		return fmt.Errorf("failed to package plugin: %w", walkErr)
	}
	return zw.Close()
}

func copyFile(w io.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }() // read-only handle
	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
