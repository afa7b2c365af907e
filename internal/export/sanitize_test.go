package export

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		name   string
		in     string
		maxLen int
		want   string
	}{
		{"control chars dropped", " A\nB\rC\tD\x00 ", 100, "ABCD"},
		{"allowed chars kept", "Az09 -_.,()", 100, "Az09 -_.,()"},
		{"disallowed replaced", "bad<>|\"name", 100, "bad____name"},
		{"truncated by runes", "abcdefghijklmnop", 10, "abcdefghij"},
		{"unicode letters kept", "영상 편집", 0, "영상 편집"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := SanitizeName(tc.in, tc.maxLen); got != tc.want {
				t.Fatalf("SanitizeName(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestValidateOutputDir(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "file.txt")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatalf("failed to create file: %v", err)
	}

	tests := []struct {
		name string
		dir  string
		want error
	}{
		{"valid", dir, nil},
		{"empty", " ", ErrOutputDirRequired},
		{"traversal", "/tmp/../etc", ErrOutputDirUnclean},
		{"trailing slash", dir + "/", ErrOutputDirUnclean},
		{"missing", filepath.Join(dir, "missing"), ErrOutputDirMissing},
		{"not a directory", file, ErrOutputDirNotDir},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if err := ValidateOutputDir(tc.dir); !errors.Is(err, tc.want) {
				t.Fatalf("ValidateOutputDir(%q) error = %v, want %v", tc.dir, err, tc.want)
			}
		})
	}
}
