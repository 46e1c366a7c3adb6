package takeout

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/acm19/takeout-sorter/internal/logger"
)

// errStopWalk aborts the walk once the test-mode file cap is reached.
var errStopWalk = errors.New("file limit reached")

// Sorter walks an export tree and routes each media file into its
// destination folder. Files are processed one at a time; each file's
// destination is computed independently, so no ordering is preserved
// or required.
type Sorter struct {
	resolver   *Resolver
	converter  ImageConverter
	placer     *Placer
	extensions Extensions
}

// NewSorter creates a Sorter around a resolution engine and a
// conversion collaborator.
func NewSorter(resolver *Resolver, converter ImageConverter) *Sorter {
	return &Sorter{
		resolver:   resolver,
		converter:  converter,
		placer:     NewPlacer(),
		extensions: NewExtensions(),
	}
}

// Sort routes every discovered media file under inputRoot into
// year/Snapchat/Unknown folders under outputRoot. Per-file failures
// are logged and skipped; only the walk itself can fail the run.
func (s *Sorter) Sort(inputRoot, outputRoot string, opts SortOptions) (Stats, error) {
	var stats Stats

	tmpDir, err := os.MkdirTemp("", "takeout-sorter-*")
	if err != nil {
		return stats, err
	}
	defer os.RemoveAll(tmpDir)

	handled := 0
	walkErr := filepath.WalkDir(inputRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			logger.Warn("Error accessing path, skipping", "path", path, "error", err)
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}

		// Skip dot files and dot directories.
		if strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if s.extensions.IsSidecar(path) || !s.extensions.IsSupported(path) {
			return nil
		}

		if opts.TestMode && handled >= opts.TestFileLimit {
			logger.Info("Test mode file limit reached, stopping", "limit", opts.TestFileLimit)
			return errStopWalk
		}
		handled++

		s.sortFile(path, outputRoot, tmpDir, opts, &stats)
		return nil
	})

	if walkErr != nil && !errors.Is(walkErr, errStopWalk) {
		return stats, walkErr
	}

	logger.Info("Sorting complete",
		"processed", stats.Processed,
		"skipped", stats.Skipped,
		"converted", stats.Converted,
		"already_placed", stats.AlreadyPlaced,
		"snapchat", stats.Snapchat,
		"unknown", stats.Unknown)
	return stats, nil
}

// sortFile resolves, optionally converts, and places a single file.
// Failures are logged and counted, never propagated.
func (s *Sorter) sortFile(path, outputRoot, tmpDir string, opts SortOptions, stats *Stats) {
	f := NewMediaFile(path, s.extensions)

	decision := s.resolver.Resolve(f)
	folder := FolderName(decision)
	destDir := filepath.Join(outputRoot, folder)

	if opts.TestMode {
		logger.Info("Routed", "file", path, "folder", folder, "signal", signalLabel(decision))
	} else {
		logger.Debug("Routed", "file", path, "folder", folder, "signal", signalLabel(decision))
	}

	srcPath := f.Path
	baseName := f.BaseName
	converted := false

	if opts.Convert && s.converter.Available() && s.extensions.IsConvertible(path) {
		jpegName := strings.TrimSuffix(baseName, filepath.Ext(baseName)) + ".jpg"
		tmpPath := filepath.Join(tmpDir, jpegName)
		if err := s.converter.ConvertToJPEG(f.Path, tmpPath); err != nil {
			// Conversion failure places the original unconverted
			// rather than dropping the file.
			logger.Warn("Conversion failed, placing original", "file", f.BaseName, "error", err)
		} else {
			srcPath = tmpPath
			baseName = jpegName
			converted = true
		}
	}

	destPath, alreadyPlaced, err := s.placer.Place(srcPath, destDir, baseName)
	if converted {
		os.Remove(srcPath)
	}
	if err != nil {
		logger.Error("Failed to place file, skipping", "file", f.Path, "error", err)
		stats.Skipped++
		return
	}

	stats.Processed++
	if converted {
		stats.Converted++
	}
	if alreadyPlaced {
		stats.AlreadyPlaced++
	}
	// Route counters only cover files that actually landed, so a file
	// that both resolves Unknown and fails placement is counted once.
	switch decision.Route {
	case RouteSnapchat:
		stats.Snapchat++
	case RouteUnknown:
		stats.Unknown++
	}
	logger.Debug("Placed file", "from", f.Path, "to", destPath)
}

// signalLabel names the signal behind a decision for the per-file
// trace. Snapchat and Unknown decisions carry no extractor source.
func signalLabel(d Decision) string {
	switch d.Route {
	case RouteSnapchat:
		return "snapchat-name"
	case RouteUnknown:
		return "none"
	default:
		return string(d.Source)
	}
}
