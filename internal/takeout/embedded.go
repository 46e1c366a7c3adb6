package takeout

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/acm19/takeout-sorter/internal/logger"
	exiftool "github.com/barasher/go-exiftool"
	"github.com/rwcarlsen/goexif/exif"
)

// exifDateFields are checked in order of preference. CreationDate
// comes before CreateDate because edited iPhone videos keep the
// original date only in the former.
var exifDateFields = []string{
	"DateTimeOriginal",
	"CreationDate",
	"CreateDate",
	"MediaCreateDate",
}

// exifDateLayouts are the datetime layouts seen in embedded metadata.
var exifDateLayouts = []string{
	"2006:01:02 15:04:05",
	"2006-01-02T15:04:05Z",
	"2006-01-02T15:04:05-07:00",
	"2006-01-02 15:04:05",
}

// embeddedExtractor resolves a year from metadata stored inside the
// media file itself. It prefers exiftool, which covers both image and
// video formats; when no exiftool handle is available it falls back to
// a pure-Go EXIF decode for JPEG and TIFF.
type embeddedExtractor struct {
	validator YearValidator
	et        *exiftool.Exiftool
}

// newEmbeddedExtractor creates the embedded metadata reader. et may be
// nil when the exiftool binary is not installed.
func newEmbeddedExtractor(validator YearValidator, et *exiftool.Exiftool) *embeddedExtractor {
	return &embeddedExtractor{validator: validator, et: et}
}

func (e *embeddedExtractor) name() string {
	return string(SourceEmbedded)
}

func (e *embeddedExtractor) extract(f MediaFile) (int, bool) {
	if f.Kind == KindOther {
		return 0, false
	}

	if e.et != nil {
		if year, ok := e.extractWithExiftool(f); ok {
			return year, true
		}
	}
	return e.extractWithGoexif(f)
}

// extractWithExiftool reads the preferred date fields via exiftool.
func (e *embeddedExtractor) extractWithExiftool(f MediaFile) (int, bool) {
	infos := e.et.ExtractMetadata(f.Path)
	if len(infos) == 0 {
		logger.Debug("No embedded metadata", "file", f.BaseName)
		return 0, false
	}

	info := infos[0]
	if info.Err != nil {
		logger.Debug("Failed to read embedded metadata", "file", f.BaseName, "error", info.Err)
		return 0, false
	}

	for _, field := range exifDateFields {
		val, err := info.GetString(field)
		if err != nil {
			continue
		}
		t, ok := parseEmbeddedDate(val)
		if !ok {
			logger.Debug("Unparsable embedded date", "file", f.BaseName, "field", field, "value", val)
			continue
		}
		if !e.validator.IsReasonable(t.Year()) {
			logger.Debug("Embedded year out of range", "file", f.BaseName, "field", field, "year", t.Year())
			continue
		}
		logger.Debug("Embedded metadata resolved year", "file", f.BaseName, "field", field, "year", t.Year())
		return t.Year(), true
	}
	return 0, false
}

// goexifExts are the formats the pure-Go fallback can decode.
var goexifExts = []string{".jpg", ".jpeg", ".tif", ".tiff"}

// extractWithGoexif decodes EXIF without external tooling. Only a
// fallback: goexif understands JPEG and TIFF containers.
func (e *embeddedExtractor) extractWithGoexif(f MediaFile) (int, bool) {
	ext := strings.ToLower(filepath.Ext(f.BaseName))
	supported := false
	for _, s := range goexifExts {
		if ext == s {
			supported = true
			break
		}
	}
	if !supported {
		return 0, false
	}

	file, err := os.Open(f.Path)
	if err != nil {
		logger.Debug("Failed to open file for EXIF decode", "file", f.BaseName, "error", err)
		return 0, false
	}
	defer file.Close()

	x, err := exif.Decode(file)
	if err != nil {
		logger.Debug("No decodable EXIF", "file", f.BaseName, "error", err)
		return 0, false
	}

	for _, tag := range []exif.FieldName{exif.DateTimeOriginal, exif.DateTimeDigitized, exif.DateTime} {
		field, err := x.Get(tag)
		if err != nil {
			continue
		}
		val, err := field.StringVal()
		if err != nil {
			continue
		}
		t, ok := parseEmbeddedDate(val)
		if !ok {
			continue
		}
		if !e.validator.IsReasonable(t.Year()) {
			logger.Debug("EXIF year out of range", "file", f.BaseName, "tag", string(tag), "year", t.Year())
			continue
		}
		logger.Debug("EXIF resolved year", "file", f.BaseName, "tag", string(tag), "year", t.Year())
		return t.Year(), true
	}
	return 0, false
}

// parseEmbeddedDate tries the known embedded datetime layouts.
func parseEmbeddedDate(val string) (time.Time, bool) {
	for _, layout := range exifDateLayouts {
		if t, err := time.Parse(layout, val); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
