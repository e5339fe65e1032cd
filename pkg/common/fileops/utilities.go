package fileops

import (
	"fmt"
	"os"
	"path/filepath"
)

// Exists checks if a file or directory exists at the given path.
// Returns true if the path exists, false if it doesn't exist.
// Returns an error only if there's a filesystem error other than non-existence.
func Exists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, fmt.Errorf("check existence: %w", err)
}

// EnsureDir ensures that a directory exists, creating it and any necessary
// parent directories if they don't exist.
func EnsureDir(path string) error {
	if err := os.MkdirAll(path, 0755); err != nil {
		return fmt.Errorf("ensure directory %s: %w", path, err)
	}
	return nil
}

// EnsureParentDir ensures that the parent directory of a file exists.
// This is useful before creating or writing to a file.
func EnsureParentDir(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("ensure parent directory: %w", err)
	}
	return nil
}

// IsDirectory checks if the path exists and is a directory.
// Returns false if the path doesn't exist or is not a directory.
func IsDirectory(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("stat path: %w", err)
	}
	return info.IsDir(), nil
}
