package takeout

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/acm19/takeout-sorter/internal/logger"
)

// jpegQuality is the quality used when converting HEIC/HEIF to JPEG.
const jpegQuality = 90

// ImageConverter defines the interface for converting images to JPEG.
type ImageConverter interface {
	// ConvertToJPEG converts src into a JPEG at dst.
	ConvertToJPEG(src, dst string) error
	// Available reports whether conversion can run on this host.
	Available() bool
}

// heifConverter implements ImageConverter using the heif-convert tool
// from libheif.
type heifConverter struct {
	binPath string
}

// NewImageConverter creates an ImageConverter. When heif-convert is
// not installed the converter reports unavailable and HEIC files are
// placed unconverted.
func NewImageConverter() ImageConverter {
	path, err := exec.LookPath("heif-convert")
	if err != nil {
		logger.Warn("heif-convert not found in PATH, HEIC files will be copied unconverted")
		return &heifConverter{}
	}
	return &heifConverter{binPath: path}
}

// NewImageConverterWithPath creates an ImageConverter using a specific
// binary path. Used by tests.
func NewImageConverterWithPath(binPath string) ImageConverter {
	return &heifConverter{binPath: binPath}
}

// Available reports whether the conversion binary was found.
func (c *heifConverter) Available() bool {
	return c.binPath != ""
}

// ConvertToJPEG converts a HEIC/HEIF file to JPEG.
func (c *heifConverter) ConvertToJPEG(src, dst string) error {
	if c.binPath == "" {
		return fmt.Errorf("heif-convert is not available")
	}
	if _, err := os.Stat(src); err != nil {
		return fmt.Errorf("file does not exist: %w", err)
	}

	cmd := exec.Command(c.binPath, "-q", fmt.Sprintf("%d", jpegQuality), src, dst)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("heif-convert failed for %s: %w, output: %s", src, err, output)
	}
	return nil
}
