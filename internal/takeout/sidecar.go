package takeout

import (
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/acm19/takeout-sorter/internal/logger"
)

// sidecarTimestamp is the nested timestamp object used by Takeout
// sidecar files.
type sidecarTimestamp struct {
	Timestamp string `json:"timestamp"`
}

// sidecarData holds the date fields a Takeout sidecar may carry, in
// decreasing order of preference.
type sidecarData struct {
	PhotoTakenTime    sidecarTimestamp `json:"photoTakenTime"`
	CreationTime      sidecarTimestamp `json:"creationTime"`
	VideoCreationTime sidecarTimestamp `json:"videoCreationTime"`
}

// numberSuffixRegex matches duplicate-export names like "IMG_456(1)".
var numberSuffixRegex = regexp.MustCompile(`^(.+)\((\d+)\)$`)

// sidecarExtractor resolves a year from a JSON sidecar exported next
// to the media file. Every failure mode (missing sidecar, malformed
// JSON, absent or unparsable timestamp) yields "no result".
type sidecarExtractor struct {
	validator YearValidator
}

func newSidecarExtractor(validator YearValidator) *sidecarExtractor {
	return &sidecarExtractor{validator: validator}
}

func (e *sidecarExtractor) name() string {
	return string(SourceSidecar)
}

func (e *sidecarExtractor) extract(f MediaFile) (int, bool) {
	sidecarPath, ok := findSidecar(f)
	if !ok {
		logger.Debug("No sidecar found", "file", f.BaseName)
		return 0, false
	}

	year, ok := e.parseSidecarYear(sidecarPath)
	if !ok {
		return 0, false
	}
	logger.Debug("Sidecar resolved year", "file", f.BaseName, "sidecar", filepath.Base(sidecarPath), "year", year)
	return year, true
}

// findSidecar tries the documented candidate naming conventions in
// order, then falls back to a prefix scan for truncated names.
//
//  1. name.ext.json
//  2. name.ext(N).json for duplicates named name(N).ext
//  3. name.json
//  4. any *.json in the directory sharing a prefix with the base name
//     (export tooling truncates long sidecar names)
func findSidecar(f MediaFile) (string, bool) {
	ext := filepath.Ext(f.BaseName)
	nameNoExt := strings.TrimSuffix(f.BaseName, ext)

	candidates := []string{f.BaseName + ".json"}

	if m := numberSuffixRegex.FindStringSubmatch(nameNoExt); len(m) == 3 {
		// "IMG_456(1).jpg" exports its sidecar as "IMG_456.jpg(1).json".
		candidates = append(candidates, m[1]+ext+"("+m[2]+").json")
	}

	candidates = append(candidates, nameNoExt+".json")

	for _, candidate := range candidates {
		path := filepath.Join(f.Dir, candidate)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, true
		}
	}

	return findSidecarByPrefix(f, nameNoExt)
}

// minSidecarPrefix guards the prefix scan against short names matching
// unrelated sidecars.
const minSidecarPrefix = 10

// findSidecarByPrefix scans the directory for a sidecar whose stem is
// a truncation of the media name (or vice versa).
func findSidecarByPrefix(f MediaFile, nameNoExt string) (string, bool) {
	if len(nameNoExt) < minSidecarPrefix {
		return "", false
	}

	entries, err := os.ReadDir(f.Dir)
	if err != nil {
		logger.Debug("Failed to list directory for sidecar scan", "dir", f.Dir, "error", err)
		return "", false
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(strings.ToLower(entry.Name()), ".json") {
			continue
		}
		stem := strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))
		stem = strings.TrimSuffix(stem, filepath.Ext(stem))
		if len(stem) < minSidecarPrefix {
			continue
		}
		if strings.HasPrefix(nameNoExt, stem) || strings.HasPrefix(stem, nameNoExt) {
			return filepath.Join(f.Dir, entry.Name()), true
		}
	}
	return "", false
}

// parseSidecarYear reads the sidecar and extracts the first usable
// timestamp field, preferring photoTakenTime.
func (e *sidecarExtractor) parseSidecarYear(sidecarPath string) (int, bool) {
	data, err := os.ReadFile(sidecarPath)
	if err != nil {
		logger.Debug("Failed to read sidecar", "sidecar", sidecarPath, "error", err)
		return 0, false
	}

	var sidecar sidecarData
	if err := json.Unmarshal(data, &sidecar); err != nil {
		logger.Debug("Malformed sidecar JSON", "sidecar", sidecarPath, "error", err)
		return 0, false
	}

	fields := []struct {
		name  string
		value string
	}{
		{"photoTakenTime", sidecar.PhotoTakenTime.Timestamp},
		{"creationTime", sidecar.CreationTime.Timestamp},
		{"videoCreationTime", sidecar.VideoCreationTime.Timestamp},
	}

	for _, field := range fields {
		if field.value == "" {
			continue
		}
		ts, ok := parseEpoch(field.value)
		if !ok {
			logger.Debug("Unparsable sidecar timestamp", "sidecar", sidecarPath, "field", field.name, "value", field.value)
			continue
		}
		year := ts.Year()
		if !e.validator.IsReasonable(year) {
			logger.Debug("Sidecar year out of range", "sidecar", sidecarPath, "field", field.name, "year", year)
			continue
		}
		return year, true
	}

	logger.Debug("No usable date field in sidecar", "sidecar", sidecarPath)
	return 0, false
}

// parseEpoch interprets a 9 or 10 digit string as Unix seconds and a
// 13 digit string as milliseconds.
func parseEpoch(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return time.Time{}, false
		}
	}

	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return time.Time{}, false
	}

	switch len(s) {
	case 9, 10:
		return time.Unix(v, 0).UTC(), true
	case 13:
		return time.UnixMilli(v).UTC(), true
	default:
		return time.Time{}, false
	}
}
