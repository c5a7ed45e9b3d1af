// SPDX-License-Identifier: MPL-2.0

package release

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// Record is written after a successful publish.
type Record struct {
	ID          uuid.UUID `json:"id"`
	Plugin      string    `json:"plugin"`
	Version     string    `json:"version"`
	Channels    []string  `json:"channels"`
	Artifact    string    `json:"artifact"`
	SHA256      string    `json:"sha256"`
	Signed      bool      `json:"signed"`
	PublishedAt time.Time `json:"publishedAt"`
}

// RecordPath returns <dir>/release-<version>.json.
func RecordPath(dir, version string) string {
	return filepath.Join(dir, "release-"+version+".json")
}

// WriteRecord writes rec as indented JSON and returns its path.
func WriteRecord(dir string, rec *Record) (string, error) {
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding release record: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := RecordPath(dir, rec.Version)
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return "", fmt.Errorf("writing release record: %w", err)
	}
	return path, nil
}

// ReadRecord loads a record written by WriteRecord.
func ReadRecord(path string) (*Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decoding release record %s: %w", path, err)
	}
	return &rec, nil
}
