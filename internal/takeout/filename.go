package takeout

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/acm19/takeout-sorter/internal/logger"
)

var (
	// Strict date shapes: YYYY-MM-DD, YYYY_MM_DD, YYYYMMDD.
	reStrictDate = regexp.MustCompile(`(\d{4})[-_]?(\d{2})[-_]?(\d{2})`)
	// Compact shapes anchored to a 20xx year: YYYYMMDD and YYYYMM.
	reCompact8 = regexp.MustCompile(`(20\d{2})(0[1-9]|1[0-2])([0-3]\d)`)
	reCompact6 = regexp.MustCompile(`(20\d{2})(0[1-9]|1[0-2])`)
	// Bare 4-digit year token not embedded in a longer number.
	reBareYear = regexp.MustCompile(`(?:^|\D)(20\d{2})(?:\D|$)`)
	// Directory shapes: MM-DD-YYYY and YYYY-MM-DD.
	reDirMDY = regexp.MustCompile(`(\d{1,2})[-_](\d{1,2})[-_](\d{4})`)
	reDirYMD = regexp.MustCompile(`(\d{4})[-_](\d{1,2})[-_](\d{1,2})`)
)

// digitPrefixes are stripped before interpreting an all-digits name as
// a Unix epoch (e.g. "IMG1597334400.jpg").
var digitPrefixes = []string{"img_", "img", "image", "picture", "photo"}

// filenameExtractor scans the base name for embedded date patterns,
// trying shapes in decreasing order of specificity. The first
// validator-accepted year wins, leftmost match first.
type filenameExtractor struct {
	validator YearValidator
}

func newFilenameExtractor(validator YearValidator) *filenameExtractor {
	return &filenameExtractor{validator: validator}
}

func (e *filenameExtractor) name() string {
	return string(SourceFilename)
}

func (e *filenameExtractor) extract(f MediaFile) (int, bool) {
	name := strings.ToLower(f.BaseName)

	if year, ok := e.strictDateYear(name); ok {
		return year, true
	}
	if year, ok := e.compactDateYear(name); ok {
		return year, true
	}
	if year, ok := e.epochYear(name); ok {
		return year, true
	}
	if year, ok := bareYearToken(name, e.validator); ok {
		logger.Debug("Bare year token in filename", "file", f.BaseName, "year", year)
		return year, true
	}

	logger.Debug("No date in filename", "file", f.BaseName)
	return 0, false
}

// strictDateYear matches YYYY[-_]?MM[-_]?DD with month/day sanity checks.
func (e *filenameExtractor) strictDateYear(name string) (int, bool) {
	for _, m := range reStrictDate.FindAllStringSubmatch(name, -1) {
		year, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		day, _ := strconv.Atoi(m[3])
		if e.validator.IsReasonable(year) && month >= 1 && month <= 12 && day >= 1 && day <= 31 {
			return year, true
		}
	}
	return 0, false
}

// compactDateYear matches 8-digit YYYYMMDD, then 6-digit YYYYMM.
func (e *filenameExtractor) compactDateYear(name string) (int, bool) {
	for _, m := range reCompact8.FindAllStringSubmatch(name, -1) {
		year, _ := strconv.Atoi(m[1])
		if e.validator.IsReasonable(year) {
			return year, true
		}
	}
	for _, m := range reCompact6.FindAllStringSubmatch(name, -1) {
		year, _ := strconv.Atoi(m[1])
		if e.validator.IsReasonable(year) {
			return year, true
		}
	}
	return 0, false
}

// epochYear interprets an all-digits name (after stripping common
// camera prefixes) as a Unix epoch.
func (e *filenameExtractor) epochYear(name string) (int, bool) {
	base := strings.TrimSuffix(name, filepath.Ext(name))
	for _, prefix := range digitPrefixes {
		if strings.HasPrefix(base, prefix) {
			base = strings.TrimPrefix(base, prefix)
			break
		}
	}

	ts, ok := parseEpoch(base)
	if !ok {
		return 0, false
	}
	if !e.validator.IsReasonable(ts.Year()) {
		return 0, false
	}
	return ts.Year(), true
}

// directoryExtractor scans ancestor directory names, innermost first,
// for date patterns or year-like tokens.
type directoryExtractor struct {
	validator YearValidator
}

func newDirectoryExtractor(validator YearValidator) *directoryExtractor {
	return &directoryExtractor{validator: validator}
}

func (e *directoryExtractor) name() string {
	return string(SourceDirectory)
}

func (e *directoryExtractor) extract(f MediaFile) (int, bool) {
	parts := strings.Split(f.Dir, string(filepath.Separator))
	for i := len(parts) - 1; i >= 0; i-- {
		part := parts[i]
		if part == "" || part == "." {
			continue
		}
		if year, ok := e.directoryYear(part); ok {
			logger.Debug("Directory name resolved year", "dir", part, "year", year)
			return year, true
		}
	}
	logger.Debug("No date in directory path", "dir", f.Dir)
	return 0, false
}

// directoryYear matches MM-DD-YYYY (US-style album folders), then
// YYYY-MM-DD, then a bare year token.
func (e *directoryExtractor) directoryYear(part string) (int, bool) {
	for _, m := range reDirMDY.FindAllStringSubmatch(part, -1) {
		month, _ := strconv.Atoi(m[1])
		day, _ := strconv.Atoi(m[2])
		year, _ := strconv.Atoi(m[3])
		if e.validator.IsReasonable(year) && month >= 1 && month <= 12 && day >= 1 && day <= 31 {
			return year, true
		}
	}
	for _, m := range reDirYMD.FindAllStringSubmatch(part, -1) {
		year, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		day, _ := strconv.Atoi(m[3])
		if e.validator.IsReasonable(year) && month >= 1 && month <= 12 && day >= 1 && day <= 31 {
			return year, true
		}
	}
	return bareYearToken(part, e.validator)
}

// bareYearToken finds the leftmost standalone 20xx token the validator
// accepts.
func bareYearToken(s string, validator YearValidator) (int, bool) {
	for _, m := range reBareYear.FindAllStringSubmatch(s, -1) {
		year, _ := strconv.Atoi(m[1])
		if validator.IsReasonable(year) {
			return year, true
		}
	}
	return 0, false
}
