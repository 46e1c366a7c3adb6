package takeout

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/acm19/takeout-sorter/internal/logger"
)

// Placer copies files into their destination folder. Directory
// creation is idempotent and an existing same-size file is treated as
// already placed, so re-running over a sorted tree neither errors nor
// duplicates anything.
type Placer struct{}

// NewPlacer creates a new Placer.
func NewPlacer() *Placer {
	return &Placer{}
}

// Place copies srcPath into destDir under baseName.
//
// Collision policy: an existing destination with identical size is
// assumed to be the same file and skipped; otherwise a numeric suffix
// (name-1.ext, name-2.ext, ...) is appended until a free or
// identical-size slot is found. Existing files are never overwritten.
func (p *Placer) Place(srcPath, destDir, baseName string) (string, bool, error) {
	if err := os.MkdirAll(destDir, 0755); err != nil {
		return "", false, fmt.Errorf("failed to create destination folder %s: %w", destDir, err)
	}

	srcInfo, err := os.Stat(srcPath)
	if err != nil {
		return "", false, fmt.Errorf("cannot access source file: %w", err)
	}

	destPath, skip, err := resolveCollision(destDir, baseName, srcInfo.Size())
	if err != nil {
		return "", false, err
	}
	if skip {
		logger.Debug("Destination already holds an identical file, skipping", "file", baseName, "dest", destPath)
		return destPath, true, nil
	}

	if err := copyFilePreserveTime(srcPath, destPath); err != nil {
		return "", false, err
	}
	return destPath, false, nil
}

// resolveCollision returns the destination path to use and whether the
// file is already present there.
func resolveCollision(destDir, baseName string, srcSize int64) (string, bool, error) {
	ext := filepath.Ext(baseName)
	stem := strings.TrimSuffix(baseName, ext)

	for n := 0; ; n++ {
		name := baseName
		if n > 0 {
			name = fmt.Sprintf("%s-%d%s", stem, n, ext)
		}
		destPath := filepath.Join(destDir, name)

		info, err := os.Stat(destPath)
		if os.IsNotExist(err) {
			return destPath, false, nil
		}
		if err != nil {
			return "", false, fmt.Errorf("cannot stat destination %s: %w", destPath, err)
		}
		if !info.IsDir() && info.Size() == srcSize {
			return destPath, true, nil
		}
	}
}

// copyFilePreserveTime copies a file and preserves its modification time.
func copyFilePreserveTime(src, dst string) error {
	srcInfo, err := os.Stat(src)
	if err != nil {
		return err
	}

	srcFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer srcFile.Close()

	dstFile, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer dstFile.Close()

	if _, err := io.Copy(dstFile, srcFile); err != nil {
		return err
	}
	if err := dstFile.Sync(); err != nil {
		return err
	}

	if err := os.Chtimes(dst, time.Now(), srcInfo.ModTime()); err != nil {
		return err
	}
	return nil
}
