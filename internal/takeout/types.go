package takeout

import "path/filepath"

// Kind classifies a discovered file by its extension.
type Kind int

const (
	KindOther Kind = iota
	KindImage
	KindVideo
)

// MediaFile describes a discovered media file. Immutable once built.
type MediaFile struct {
	// Path is the absolute or walk-relative source path.
	Path string
	// BaseName is the file name including extension.
	BaseName string
	// Dir is the containing directory.
	Dir string
	// Kind is the detected media kind.
	Kind Kind
}

// NewMediaFile builds a MediaFile from a source path.
func NewMediaFile(path string, exts Extensions) MediaFile {
	kind := KindOther
	switch {
	case exts.IsImage(path):
		kind = KindImage
	case exts.IsVideo(path):
		kind = KindVideo
	}
	return MediaFile{
		Path:     path,
		BaseName: filepath.Base(path),
		Dir:      filepath.Dir(path),
		Kind:     kind,
	}
}

// Route is the routing outcome for a single file.
type Route int

const (
	// RouteUnknown means no extractor produced a valid year.
	RouteUnknown Route = iota
	// RouteYear means a valid year was resolved.
	RouteYear
	// RouteSnapchat is the special-case route for Snapchat exports.
	RouteSnapchat
)

// Source names the signal that resolved a file's year.
type Source string

const (
	SourceSidecar   Source = "sidecar"
	SourceEmbedded  Source = "embedded-metadata"
	SourceFilename  Source = "filename"
	SourceDirectory Source = "directory-name"
	SourceModTime   Source = "filesystem-time"
)

// Decision is the routing decision for a single file. Exactly one is
// derived per file; the Snapchat check always precedes date signals.
type Decision struct {
	Route  Route
	Year   int
	Source Source
}

// SortOptions holds configuration options for a sorting run.
type SortOptions struct {
	// TestMode caps the run at TestFileLimit files and enables a
	// per-file trace of the resolving signal.
	TestMode bool
	// TestFileLimit is the maximum number of files processed in test mode.
	TestFileLimit int
	// Convert enables HEIC/HEIF to JPEG conversion during placement.
	Convert bool
}

// DefaultSortOptions returns the default sorting options.
func DefaultSortOptions() SortOptions {
	return SortOptions{
		TestMode:      false,
		TestFileLimit: 100,
		Convert:       true,
	}
}

// Stats summarises a sorting run.
type Stats struct {
	// Processed is the number of files placed (converted or copied).
	Processed int
	// Skipped is the number of files skipped due to per-file failures.
	Skipped int
	// Converted is the number of files converted to JPEG.
	Converted int
	// AlreadyPlaced counts files found identical at their destination.
	AlreadyPlaced int
	// Snapchat counts files routed by the special-case rule.
	Snapchat int
	// Unknown counts files no signal could date.
	Unknown int
}
