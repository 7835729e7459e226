// Package fileutil provides file system utility functions.
package fileutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FindFileCaseInsensitive searches for a file with the given name in the
// specified directory, ignoring case. MIDI files and SoundFonts frequently
// arrive from Windows systems with inconsistent casing ("BHAIRAVI.MID"),
// so path lookups go through here.
//
// Returns the actual path with correct casing, or an error if no entry
// matches.
func FindFileCaseInsensitive(dir, filename string) (string, error) {
	searchName := strings.ToLower(filename)

	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.ToLower(entry.Name()) == searchName {
			return filepath.Join(dir, entry.Name()), nil
		}
	}

	return "", fmt.Errorf("file not found: %s (searched in %s)", filename, dir)
}

// ResolvePath returns path unchanged when it exists, and otherwise retries
// the final path element case-insensitively.
func ResolvePath(path string) (string, error) {
	if _, err := os.Stat(path); err == nil {
		return path, nil
	}
	return FindFileCaseInsensitive(filepath.Dir(path), filepath.Base(path))
}
