package takeout

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FileStats defines the interface for file and directory statistics.
type FileStats interface {
	// ValidateDirectories checks the input root exists and makes the
	// output root usable.
	ValidateDirectories(inputRoot, outputRoot string) error
	// GetFileCount returns the number of files in a directory recursively.
	GetFileCount(dir string) (int, error)
}

// fileStats implements the FileStats interface.
type fileStats struct{}

// NewFileStats creates a new FileStats instance.
func NewFileStats() FileStats {
	return &fileStats{}
}

// ValidateDirectories verifies the input root is an existing directory
// and creates the output root if absent. Both failures are fatal and
// abort before any processing.
func (f *fileStats) ValidateDirectories(inputRoot, outputRoot string) error {
	if info, err := os.Stat(inputRoot); err != nil || !info.IsDir() {
		return fmt.Errorf("INPUT_DIR is not a valid directory: %s", inputRoot)
	}
	if err := os.MkdirAll(outputRoot, 0755); err != nil {
		return fmt.Errorf("OUTPUT_DIR is not writable: %s: %w", outputRoot, err)
	}
	return nil
}

// GetFileCount counts all non-directory files in a directory tree,
// excluding dot files.
func (f *fileStats) GetFileCount(dir string) (int, error) {
	count := 0
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if strings.HasPrefix(info.Name(), ".") {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if !info.IsDir() {
			count++
		}
		return nil
	})
	return count, err
}
