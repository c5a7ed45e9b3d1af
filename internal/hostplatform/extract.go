// SPDX-License-Identifier: MPL-2.0

package hostplatform

import (
	"archive/tar"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// maxEntryBytes bounds a single extracted file to stop decompression bombs.
const maxEntryBytes = 4 << 30

// ErrUnsafePath is returned for archive entries that would escape the
// extraction directory.
var ErrUnsafePath = errors.New("archive entry escapes destination")

// extractTarGz unpacks a gzip-compressed tar archive into dest. Directories,
// regular files and symlinks are supported; other entry types are skipped.
func extractTarGz(archivePath, dest string) error {
	f, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("opening archive: %w", err)
	}
	defer func() { _ = f.Close() }() // read-only handle

	gz, err := gzip.NewReader(f)
	if err != nil {
		return fmt.Errorf("creating gzip reader: %w", err)
	}
	defer func() { _ = gz.Close() }()

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading tar entry: %w", err)
		}

		target, err := safeJoin(dest, hdr.Name)
		if err != nil {
			return err
		}
		if err := checkParents(dest, target); err != nil {
			return err
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := writeEntry(target, tr, hdr.FileInfo().Mode().Perm()); err != nil {
				return err
			}
		case tar.TypeSymlink:
			if err := writeSymlink(dest, target, hdr.Linkname); err != nil {
				return err
			}
		}
	}
}

func writeEntry(target string, r io.Reader, perm os.FileMode) (err error) {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	if err := removeSymlink(target); err != nil {
		return err
	}
	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm|0o200)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := out.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	n, err := io.Copy(out, io.LimitReader(r, maxEntryBytes+1))
	if err != nil {
		return fmt.Errorf("writing %s: %w", target, err)
	}
	if n > maxEntryBytes {
		return fmt.Errorf("archive entry %s exceeds %d bytes", target, int64(maxEntryBytes))
	}
	return nil
}

func writeSymlink(dest, target, linkname string) error {
	if err := checkLinkTarget(dest, target, linkname); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	if err := removeSymlink(target); err != nil {
		return err
	}
	return os.Symlink(linkname, target)
}

// checkLinkTarget accepts relative link targets that stay inside dest and
// use ".." only as leading elements, so that resolving them never climbs out
// of a directory reached through another link.
func checkLinkTarget(dest, target, linkname string) error {
	errUnsafe := fmt.Errorf("%w: symlink %s -> %s", ErrUnsafePath, target, linkname)
	if linkname == "" || filepath.IsAbs(linkname) || strings.HasPrefix(linkname, "/") {
		return errUnsafe
	}

	cur := filepath.Dir(target)
	descended := false
	for _, elem := range strings.Split(filepath.ToSlash(linkname), "/") {
		switch elem {
		case "", ".":
		case "..":
			if descended {
				return errUnsafe
			}
			cur = filepath.Dir(cur)
		default:
			descended = true
			cur = filepath.Join(cur, elem)
		}
		if !within(dest, cur) {
			return errUnsafe
		}
	}
	return nil
}

// checkParents rejects entries whose parent directories inside dest include a
// symlink. Extraction only ever writes below real directories.
func checkParents(dest, target string) error {
	rel, err := filepath.Rel(dest, filepath.Dir(target))
	if err != nil || rel == "." {
		return err
	}
	cur := dest
	for _, elem := range strings.Split(rel, string(filepath.Separator)) {
		cur = filepath.Join(cur, elem)
		info, err := os.Lstat(cur)
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		if err != nil {
			return err
		}
		if info.Mode()&os.ModeSymlink != 0 {
			return fmt.Errorf("%w: %s is below symlink %s", ErrUnsafePath, target, cur)
		}
	}
	return nil
}

// removeSymlink deletes path if it is a symlink, so the next write creates a
// new file instead of following the link.
func removeSymlink(path string) error {
	info, err := os.Lstat(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	if info.Mode()&os.ModeSymlink != 0 {
		return os.Remove(path)
	}
	return nil
}

// safeJoin joins an archive entry name onto dest, rejecting absolute paths
// and parent-directory escapes.
func safeJoin(dest, name string) (string, error) {
	if filepath.IsAbs(name) || strings.HasPrefix(name, "/") {
		return "", fmt.Errorf("%w: %s", ErrUnsafePath, name)
	}
	target := filepath.Join(dest, filepath.FromSlash(name))
	if !within(dest, target) {
		return "", fmt.Errorf("%w: %s", ErrUnsafePath, name)
	}
	return target, nil
}

func within(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

// installRoot returns the IDE home inside an extraction directory. Archives
// that wrap everything in one top-level directory (idea-IC-232.10227.8/)
// have that directory as home.
func installRoot(staging string) (string, error) {
	entries, err := os.ReadDir(staging)
	if err != nil {
		return "", fmt.Errorf("reading extracted files: %w", err)
	}
	if len(entries) == 1 && entries[0].IsDir() {
		return filepath.Join(staging, entries[0].Name()), nil
	}
	return staging, nil
}
