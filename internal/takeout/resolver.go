package takeout

import (
	"strings"

	"github.com/acm19/takeout-sorter/internal/logger"
	exiftool "github.com/barasher/go-exiftool"
)

// yearExtractor is one member of the fallback chain. ok is false when
// the signal produced no validator-accepted year; that is never an
// error, only an instruction to try the next extractor.
type yearExtractor interface {
	extract(f MediaFile) (int, bool)
	name() string
}

// Resolver derives a routing decision for a file by applying the
// fallback chain in fixed priority order, short-circuiting on the
// first valid result.
//
// The order encodes decreasing trust:
//
//   - sidecar: explicit export metadata
//   - embedded-metadata: capture metadata inside the file
//   - filename, directory-name: inferred from naming
//   - filesystem-time: mechanical copy timestamp
type Resolver struct {
	extractors []yearExtractor
}

// NewResolver builds the resolution chain. et may be nil when the
// exiftool binary is unavailable; the embedded reader then degrades to
// its pure-Go fallback.
func NewResolver(validator YearValidator, et *exiftool.Exiftool) *Resolver {
	return &Resolver{
		extractors: []yearExtractor{
			newSidecarExtractor(validator),
			newEmbeddedExtractor(validator, et),
			newFilenameExtractor(validator),
			newDirectoryExtractor(validator),
			newModTimeExtractor(validator),
		},
	}
}

// Resolve returns exactly one Decision per file. The Snapchat check
// precedes all date extraction regardless of any valid date signal.
func (r *Resolver) Resolve(f MediaFile) Decision {
	if strings.Contains(strings.ToLower(f.BaseName), "snapchat") {
		logger.Debug("Snapchat special case", "file", f.BaseName)
		return Decision{Route: RouteSnapchat}
	}

	for _, extractor := range r.extractors {
		if year, ok := extractor.extract(f); ok {
			return Decision{Route: RouteYear, Year: year, Source: Source(extractor.name())}
		}
		logger.Debug("Extractor produced no result, trying next", "extractor", extractor.name(), "file", f.BaseName)
	}

	logger.Debug("No signal resolved a year", "file", f.BaseName)
	return Decision{Route: RouteUnknown}
}
