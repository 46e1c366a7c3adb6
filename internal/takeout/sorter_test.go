package takeout

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// Helper functions

func newTestSorter(t *testing.T) *Sorter {
	t.Helper()
	resolver := NewResolver(NewYearValidator(2025), nil)
	// Conversion disabled: test fixtures are not real HEIC files.
	return NewSorter(resolver, NewImageConverterWithPath(""))
}

func createInputAndOutput(t *testing.T) (string, string) {
	t.Helper()
	tmpDir := t.TempDir()
	inputRoot := filepath.Join(tmpDir, "input")
	outputRoot := filepath.Join(tmpDir, "output")
	for _, dir := range []string{inputRoot, outputRoot} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			t.Fatalf("Failed to create %s: %v", dir, err)
		}
	}
	return inputRoot, outputRoot
}

func writeFileWithTime(t *testing.T, dir, name, content string, modTime time.Time) string {
	t.Helper()
	path := writeFile(t, dir, name, content)
	if err := os.Chtimes(path, modTime, modTime); err != nil {
		t.Fatalf("Failed to set file times: %v", err)
	}
	return path
}

func countDirEntries(t *testing.T, dir string) int {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("Failed to read %s: %v", dir, err)
	}
	return len(entries)
}

func TestSorter_RoutesBySignal(t *testing.T) {
	inputRoot, outputRoot := createInputAndOutput(t)
	mtime2021 := time.Date(2021, 5, 1, 10, 0, 0, 0, time.UTC)

	// Snapchat special case, despite the embedded filename year.
	writeFileWithTime(t, inputRoot, "IMG_20190815_snapchat_142301.jpg", "snap", mtime2021)
	// Sidecar-dated file (2020).
	writeFileWithTime(t, inputRoot, "photo.jpg", "pic", mtime2021)
	writeFile(t, inputRoot, "photo.jpg.json", `{"photoTakenTime":{"timestamp":"1597334400"}}`)
	// Filename-dated file (2019).
	writeFileWithTime(t, inputRoot, "IMG_20190815_142301.jpg", "pic2", mtime2021)
	// No signal at all: 1969 mtime is rejected by the validator.
	writeFileWithTime(t, inputRoot, "random.jpg", "pic3", time.Date(1969, 6, 1, 0, 0, 0, 0, time.UTC))
	// Unsupported extension is ignored entirely.
	writeFile(t, inputRoot, "notes.txt", "not media")

	sorter := newTestSorter(t)
	stats, err := sorter.Sort(inputRoot, outputRoot, DefaultSortOptions())
	if err != nil {
		t.Fatalf("Sort failed: %v", err)
	}

	if stats.Processed != 4 {
		t.Errorf("Expected 4 processed files, got %d", stats.Processed)
	}
	if stats.Snapchat != 1 {
		t.Errorf("Expected 1 snapchat file, got %d", stats.Snapchat)
	}
	if stats.Unknown != 1 {
		t.Errorf("Expected 1 unknown file, got %d", stats.Unknown)
	}

	expected := map[string]string{
		"Snapchat": "IMG_20190815_snapchat_142301.jpg",
		"2020":     "photo.jpg",
		"2019":     "IMG_20190815_142301.jpg",
		"Unknown":  "random.jpg",
	}
	for folder, file := range expected {
		path := filepath.Join(outputRoot, folder, file)
		if _, err := os.Stat(path); err != nil {
			t.Errorf("Expected %s in %s/: %v", file, folder, err)
		}
	}

	// Sidecars and unsupported files must not be copied.
	if _, err := os.Stat(filepath.Join(outputRoot, "2020", "photo.jpg.json")); err == nil {
		t.Error("Sidecar was copied to the output tree")
	}
}

func TestSorter_TestModeCapsProcessing(t *testing.T) {
	inputRoot, outputRoot := createInputAndOutput(t)
	mtime := time.Date(2021, 5, 1, 10, 0, 0, 0, time.UTC)

	for i := 0; i < 250; i++ {
		writeFileWithTime(t, inputRoot, fmt.Sprintf("clip%03d.mp4", i), "video", mtime)
	}

	opts := DefaultSortOptions()
	opts.TestMode = true

	sorter := newTestSorter(t)
	stats, err := sorter.Sort(inputRoot, outputRoot, opts)
	if err != nil {
		t.Fatalf("Sort failed: %v", err)
	}

	if stats.Processed != 100 {
		t.Errorf("Expected exactly 100 processed files in test mode, got %d", stats.Processed)
	}
	if got := countDirEntries(t, filepath.Join(outputRoot, "2021")); got != 100 {
		t.Errorf("Expected 100 files in 2021/, got %d", got)
	}
	// The input tree is never modified.
	if got := countDirEntries(t, inputRoot); got != 250 {
		t.Errorf("Expected 250 input files untouched, got %d", got)
	}
}

func TestSorter_RerunIsIdempotent(t *testing.T) {
	inputRoot, outputRoot := createInputAndOutput(t)
	mtime := time.Date(2021, 5, 1, 10, 0, 0, 0, time.UTC)

	writeFileWithTime(t, inputRoot, "a.jpg", "aaa", mtime)
	writeFileWithTime(t, inputRoot, "b.jpg", "bbbb", mtime)

	sorter := newTestSorter(t)
	first, err := sorter.Sort(inputRoot, outputRoot, DefaultSortOptions())
	if err != nil {
		t.Fatalf("First sort failed: %v", err)
	}

	second, err := sorter.Sort(inputRoot, outputRoot, DefaultSortOptions())
	if err != nil {
		t.Fatalf("Second sort failed: %v", err)
	}

	if second.AlreadyPlaced != first.Processed {
		t.Errorf("Expected %d already-placed files on re-run, got %d", first.Processed, second.AlreadyPlaced)
	}
	if got := countDirEntries(t, filepath.Join(outputRoot, "2021")); got != 2 {
		t.Errorf("Expected 2 files in 2021/ after re-run, got %d", got)
	}
}

func TestSorter_SkipsDotDirectories(t *testing.T) {
	inputRoot, outputRoot := createInputAndOutput(t)
	mtime := time.Date(2021, 5, 1, 10, 0, 0, 0, time.UTC)

	hidden := filepath.Join(inputRoot, ".thumbnails")
	if err := os.MkdirAll(hidden, 0755); err != nil {
		t.Fatalf("Failed to create hidden dir: %v", err)
	}
	writeFileWithTime(t, hidden, "thumb.jpg", "thumb", mtime)
	writeFileWithTime(t, inputRoot, "real.jpg", "real", mtime)

	sorter := newTestSorter(t)
	stats, err := sorter.Sort(inputRoot, outputRoot, DefaultSortOptions())
	if err != nil {
		t.Fatalf("Sort failed: %v", err)
	}

	if stats.Processed != 1 {
		t.Errorf("Expected only 1 processed file, got %d", stats.Processed)
	}
	if _, err := os.Stat(filepath.Join(outputRoot, "2021", "thumb.jpg")); err == nil {
		t.Error("File inside dot directory was processed")
	}
}

func TestSorter_UnreadableFileCountsOnlyAsSkipped(t *testing.T) {
	inputRoot, outputRoot := createInputAndOutput(t)

	// A dangling symlink resolves to Unknown (no readable signal) and
	// then fails to copy. It must count once, as skipped.
	link := filepath.Join(inputRoot, "broken.jpg")
	if err := os.Symlink(filepath.Join(inputRoot, "gone.jpg"), link); err != nil {
		t.Skipf("Symlinks not supported: %v", err)
	}

	sorter := newTestSorter(t)
	stats, err := sorter.Sort(inputRoot, outputRoot, DefaultSortOptions())
	if err != nil {
		t.Fatalf("Sort failed: %v", err)
	}

	if stats.Skipped != 1 {
		t.Errorf("Expected 1 skipped file, got %d", stats.Skipped)
	}
	if stats.Processed != 0 {
		t.Errorf("Expected 0 processed files, got %d", stats.Processed)
	}
	if stats.Unknown != 0 {
		t.Errorf("Expected 0 unknown files for an unplaced file, got %d", stats.Unknown)
	}
}

func TestSignalLabel(t *testing.T) {
	tests := []struct {
		name     string
		decision Decision
		want     string
	}{
		{"snapchat route", Decision{Route: RouteSnapchat}, "snapchat-name"},
		{"unknown route", Decision{Route: RouteUnknown}, "none"},
		{"year with source", Decision{Route: RouteYear, Year: 2019, Source: SourceFilename}, "filename"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := signalLabel(tt.decision); got != tt.want {
				t.Errorf("signalLabel = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSorter_NestedTreeAndDirectorySignal(t *testing.T) {
	inputRoot, outputRoot := createInputAndOutput(t)
	album := filepath.Join(inputRoot, "Photos from 2014")
	if err := os.MkdirAll(album, 0755); err != nil {
		t.Fatalf("Failed to create album dir: %v", err)
	}
	// mtime would say 2021; the directory name (higher trust) says 2014.
	writeFileWithTime(t, album, "scan.jpg", "old scan", time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC))

	sorter := newTestSorter(t)
	if _, err := sorter.Sort(inputRoot, outputRoot, DefaultSortOptions()); err != nil {
		t.Fatalf("Sort failed: %v", err)
	}

	if _, err := os.Stat(filepath.Join(outputRoot, "2014", "scan.jpg")); err != nil {
		t.Errorf("Expected scan.jpg in 2014/: %v", err)
	}
}
