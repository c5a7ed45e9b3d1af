// SPDX-License-Identifier: MPL-2.0

package checksum

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sampleHash = "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"

func TestParse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		want    []Entry
		wantErr error
	}{
		{
			name:  "text mode",
			input: sampleHash + "  ideaIC-2023.2.5.tar.gz\n",
			want:  []Entry{{Hash: sampleHash, Filename: "ideaIC-2023.2.5.tar.gz"}},
		},
		{
			name:  "binary marker",
			input: sampleHash + " *ideaIC-2023.2.5.tar.gz",
			want:  []Entry{{Hash: sampleHash, Filename: "ideaIC-2023.2.5.tar.gz"}},
		},
		{
			name:  "bare hash uppercase",
			input: strings.ToUpper(sampleHash) + "\n",
			want:  []Entry{{Hash: sampleHash}},
		},
		{
			name:  "skips junk",
			input: "not-a-hash  file\n\n" + sampleHash + "  a.zip\n",
			want:  []Entry{{Hash: sampleHash, Filename: "a.zip"}},
		},
		{
			name:    "empty",
			input:   "\n",
			wantErr: ErrNoEntries,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := Parse(strings.NewReader(tt.input))
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Parse() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("Parse() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("entry %d = %+v, want %+v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestFind(t *testing.T) {
	t.Parallel()

	bare := []Entry{{Hash: sampleHash}}
	if h, err := Find(bare, "anything.tar.gz"); err != nil || h != sampleHash {
		t.Errorf("Find(bare) = %q, %v", h, err)
	}

	named := []Entry{{Hash: sampleHash, Filename: "a.zip"}}
	if _, err := Find(named, "b.zip"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Find(missing) error = %v, want ErrNotFound", err)
	}
}

func TestVerifyFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "plugin.zip")
	content := []byte("plugin bytes")
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatal(err)
	}
	sum := sha256.Sum256(content)
	want := hex.EncodeToString(sum[:])

	got, err := File(path)
	if err != nil || got != want {
		t.Fatalf("File() = %q, %v, want %q", got, err, want)
	}
	if err := VerifyFile(path, strings.ToUpper(want)); err != nil {
		t.Errorf("VerifyFile(matching) = %v", err)
	}

	err = VerifyFile(path, sampleHash)
	var mismatch *MismatchError
	if !errors.As(err, &mismatch) || !errors.Is(err, ErrMismatch) {
		t.Fatalf("VerifyFile(wrong) = %v, want *MismatchError", err)
	}
	if mismatch.Got != want {
		t.Errorf("MismatchError.Got = %q", mismatch.Got)
	}
}
