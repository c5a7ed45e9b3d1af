// SPDX-License-Identifier: MPL-2.0

// Package checksum parses sha256sum listings and verifies files against them.
package checksum

import (
	"bufio"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

var (
	// ErrMismatch indicates the computed SHA-256 does not match the expected one.
	ErrMismatch = errors.New("checksum mismatch")
	// ErrNotFound indicates the requested file has no entry in the listing.
	ErrNotFound = errors.New("file not found in checksums")
	// ErrNoEntries indicates the listing contained no parseable entries.
	ErrNoEntries = errors.New("no valid checksum entries found")
)

type (
	// Entry is one line of a sha256sum listing.
	Entry struct {
		Hash     string // lowercase hex, 64 characters
		Filename string // empty for a bare-hash sidecar file
	}

	// MismatchError reports both digests of a failed verification.
	MismatchError struct {
		Filename string
		Expected string
		Got      string
	}
)

// Error implements the error interface.
func (e *MismatchError) Error() string {
	return fmt.Sprintf("checksum verification failed for %s\nExpected: %s\nGot:      %s", e.Filename, e.Expected, e.Got)
}

// Unwrap returns ErrMismatch so callers can use errors.Is.
func (e *MismatchError) Unwrap() error { return ErrMismatch }

// Parse reads sha256sum output. Each line is "<hash>  <name>", "<hash> *<name>"
// (binary mode marker) or a bare "<hash>". Blank and malformed lines are
// skipped.
func Parse(r io.Reader) ([]Entry, error) {
	var entries []Entry

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		hash, rest, _ := strings.Cut(line, " ")
		if !isHexSHA256(hash) {
			continue
		}
		name := strings.TrimPrefix(strings.TrimSpace(rest), "*")

		entries = append(entries, Entry{Hash: strings.ToLower(hash), Filename: name})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading checksums: %w", err)
	}
	if len(entries) == 0 {
		return nil, ErrNoEntries
	}
	return entries, nil
}

// Find returns the hash recorded for filename. A single bare-hash entry
// matches any filename, which is how per-file .sha256 sidecars are written.
func Find(entries []Entry, filename string) (string, error) {
	for _, e := range entries {
		if e.Filename == filename {
			return e.Hash, nil
		}
	}
	if len(entries) == 1 && entries[0].Filename == "" {
		return entries[0].Hash, nil
	}
	return "", ErrNotFound
}

// VerifyFile hashes path and compares it with expected (case-insensitive).
func VerifyFile(path, expected string) error {
	got, err := File(path)
	if err != nil {
		return err
	}
	if !strings.EqualFold(got, expected) {
		return &MismatchError{Filename: path, Expected: strings.ToLower(expected), Got: got}
	}
	return nil
}

// File returns the lowercase hex SHA-256 of the file at path.
func File(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer func() { _ = f.Close() }() // read-only handle

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hashing file %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func isHexSHA256(s string) bool {
	if len(s) != sha256.Size*2 {
		return false
	}
	_, err := hex.DecodeString(s)
	return err == nil
}
