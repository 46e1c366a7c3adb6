package takeout

import (
	"time"

	"github.com/acm19/takeout-sorter/internal/logger"
	"github.com/djherbis/times"
)

// modTimeExtractor is the final fallback: the filesystem timestamp.
// It prefers the birth time where the filesystem records one, since
// mtime usually reflects export or copy time rather than capture time.
// The validator still gates the result, so a placeholder epoch (1969,
// 1970) never produces a year folder.
type modTimeExtractor struct {
	validator YearValidator
}

func newModTimeExtractor(validator YearValidator) *modTimeExtractor {
	return &modTimeExtractor{validator: validator}
}

func (e *modTimeExtractor) name() string {
	return string(SourceModTime)
}

func (e *modTimeExtractor) extract(f MediaFile) (int, bool) {
	ts, err := times.Stat(f.Path)
	if err != nil {
		logger.Debug("Failed to stat file", "file", f.BaseName, "error", err)
		return 0, false
	}

	t := ts.ModTime()
	if ts.HasBirthTime() && !ts.BirthTime().IsZero() && ts.BirthTime().Before(t) {
		t = ts.BirthTime()
	}
	if t.IsZero() {
		return 0, false
	}

	if !e.validator.IsReasonable(t.Year()) {
		logger.Debug("Filesystem timestamp out of range", "file", f.BaseName, "time", t.Format(time.RFC3339))
		return 0, false
	}
	logger.Debug("Using filesystem timestamp", "file", f.BaseName, "time", t.Format(time.RFC3339))
	return t.Year(), true
}
