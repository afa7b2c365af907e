package export

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"
)

var (
	ErrOutputDirRequired = errors.New("output_dir is required")
	ErrOutputDirUnclean  = errors.New("output_dir must be a clean path without ..")
	ErrOutputDirMissing  = errors.New("output_dir does not exist")
	ErrOutputDirNotDir   = errors.New("output_dir is not a directory")
)

// SanitizeName keeps letters, digits and a few punctuation marks, drops
// control characters and replaces everything else with '_'. The result is
// truncated to maxLen runes when maxLen is positive.
func SanitizeName(s string, maxLen int) string {
	cleaned := strings.TrimSpace(strings.Map(func(r rune) rune {
		switch {
		case unicode.IsControl(r):
			return -1
		case unicode.IsLetter(r), unicode.IsDigit(r), strings.ContainsRune(" -_.,()", r):
			return r
		default:
			return '_'
		}
	}, s))

	if runes := []rune(cleaned); maxLen > 0 && len(runes) > maxLen {
		cleaned = string(runes[:maxLen])
	}
	return cleaned
}

// ValidateOutputDir requires an existing directory given as a clean path.
func ValidateOutputDir(dir string) error {
	if strings.TrimSpace(dir) == "" {
		return ErrOutputDirRequired
	}
	if filepath.Clean(dir) != dir || strings.Contains(filepath.ToSlash(dir), "..") {
		return ErrOutputDirUnclean
	}

	info, err := os.Stat(dir)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return ErrOutputDirMissing
	case err != nil:
		return fmt.Errorf("invalid output_dir: %w", err)
	case !info.IsDir():
		return ErrOutputDirNotDir
	}
	return nil
}
