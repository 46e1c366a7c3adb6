package takeout

import (
	"path/filepath"
	"slices"
	"strings"
)

// Extensions defines the interface for file extension operations.
type Extensions interface {
	// IsImage returns true if the file extension is a supported image format.
	IsImage(filePath string) bool
	// IsVideo returns true if the file extension is a supported video format.
	IsVideo(filePath string) bool
	// IsSupported returns true if the file extension is any supported media format.
	IsSupported(filePath string) bool
	// IsConvertible returns true if the file should be converted to JPEG.
	IsConvertible(filePath string) bool
	// IsSidecar returns true if the file is a JSON metadata sidecar.
	IsSidecar(filePath string) bool
}

// extensions implements the Extensions interface.
type extensions struct {
	imageExts       []string
	videoExts       []string
	convertibleExts []string
}

// NewExtensions creates a new Extensions instance covering the formats
// found in Google Takeout exports.
func NewExtensions() Extensions {
	return &extensions{
		imageExts: []string{
			".jpg", ".jpeg", ".png", ".gif", ".heic", ".heif",
			".bmp", ".webp", ".tiff", ".tif",
		},
		videoExts: []string{
			".mp4", ".mov", ".m4v", ".avi", ".wmv", ".flv", ".mkv", ".webm",
		},
		convertibleExts: []string{".heic", ".heif"},
	}
}

// IsImage returns true if the file extension is a supported image format.
func (e *extensions) IsImage(filePath string) bool {
	ext := strings.ToLower(filepath.Ext(filePath))
	return slices.Contains(e.imageExts, ext)
}

// IsVideo returns true if the file extension is a supported video format.
func (e *extensions) IsVideo(filePath string) bool {
	ext := strings.ToLower(filepath.Ext(filePath))
	return slices.Contains(e.videoExts, ext)
}

// IsSupported returns true if the file extension is any supported media format.
func (e *extensions) IsSupported(filePath string) bool {
	return e.IsImage(filePath) || e.IsVideo(filePath)
}

// IsConvertible returns true if the file should be converted to JPEG.
func (e *extensions) IsConvertible(filePath string) bool {
	ext := strings.ToLower(filepath.Ext(filePath))
	return slices.Contains(e.convertibleExts, ext)
}

// IsSidecar returns true if the file is a JSON metadata sidecar.
func (e *extensions) IsSidecar(filePath string) bool {
	return strings.ToLower(filepath.Ext(filePath)) == ".json"
}
