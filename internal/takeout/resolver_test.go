package takeout

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// stubExtractor is a chain member with a canned answer.
type stubExtractor struct {
	year    int
	ok      bool
	nameStr string
	called  bool
}

func (s *stubExtractor) extract(f MediaFile) (int, bool) {
	s.called = true
	return s.year, s.ok
}

func (s *stubExtractor) name() string {
	return s.nameStr
}

func TestResolver_SnapchatOverridesEverything(t *testing.T) {
	// A valid year signal must not matter once "snapchat" is in the name.
	stub := &stubExtractor{year: 2019, ok: true, nameStr: "stub"}
	resolver := &Resolver{extractors: []yearExtractor{stub}}

	tests := []string{
		"IMG_20190815_snapchat_142301.jpg",
		"Snapchat-12345.jpg",
		"my-SNAPCHAT-export.mp4",
	}

	for _, name := range tests {
		t.Run(name, func(t *testing.T) {
			stub.called = false
			d := resolver.Resolve(mediaFileAt(filepath.Join("in", name)))
			if d.Route != RouteSnapchat {
				t.Errorf("Expected RouteSnapchat, got %+v", d)
			}
			if stub.called {
				t.Error("Expected date extraction to be skipped for snapchat files")
			}
		})
	}
}

func TestResolver_FirstValidExtractorWins(t *testing.T) {
	first := &stubExtractor{ok: false, nameStr: "sidecar"}
	second := &stubExtractor{year: 2020, ok: true, nameStr: "embedded-metadata"}
	third := &stubExtractor{year: 2015, ok: true, nameStr: "filename"}
	resolver := &Resolver{extractors: []yearExtractor{first, second, third}}

	d := resolver.Resolve(mediaFileAt("in/photo.jpg"))

	if d.Route != RouteYear || d.Year != 2020 {
		t.Fatalf("Expected year 2020, got %+v", d)
	}
	if d.Source != SourceEmbedded {
		t.Errorf("Expected source %q, got %q", SourceEmbedded, d.Source)
	}
	if third.called {
		t.Error("Expected chain to short-circuit before the third extractor")
	}
}

func TestResolver_AllExtractorsMiss(t *testing.T) {
	resolver := &Resolver{extractors: []yearExtractor{
		&stubExtractor{ok: false, nameStr: "a"},
		&stubExtractor{ok: false, nameStr: "b"},
	}}

	d := resolver.Resolve(mediaFileAt("in/photo.jpg"))
	if d.Route != RouteUnknown {
		t.Errorf("Expected RouteUnknown, got %+v", d)
	}
}

func TestResolver_SidecarBeatsFilename(t *testing.T) {
	tmpDir := t.TempDir()
	// Filename says 2018, sidecar says 2020: sidecar is higher trust.
	f := sidecarMediaFile(t, tmpDir, "trip_2018-06-01.jpg")
	writeFile(t, tmpDir, "trip_2018-06-01.jpg.json", `{"photoTakenTime":{"timestamp":"1597334400"}}`)

	resolver := NewResolver(NewYearValidator(2025), nil)
	d := resolver.Resolve(f)

	if d.Route != RouteYear || d.Year != 2020 {
		t.Fatalf("Expected sidecar year 2020, got %+v", d)
	}
	if d.Source != SourceSidecar {
		t.Errorf("Expected source %q, got %q", SourceSidecar, d.Source)
	}
}

func TestResolver_FallsThroughToFilesystemTime(t *testing.T) {
	tmpDir := t.TempDir()
	f := sidecarMediaFile(t, tmpDir, "nodate.jpg")
	modTime := time.Date(2017, 3, 10, 12, 0, 0, 0, time.UTC)
	if err := os.Chtimes(f.Path, modTime, modTime); err != nil {
		t.Fatalf("Failed to set file times: %v", err)
	}

	resolver := NewResolver(NewYearValidator(2025), nil)
	d := resolver.Resolve(f)

	if d.Route != RouteYear || d.Year != 2017 {
		t.Fatalf("Expected filesystem year 2017, got %+v", d)
	}
	if d.Source != SourceModTime {
		t.Errorf("Expected source %q, got %q", SourceModTime, d.Source)
	}
}

func TestResolver_RejectedFilesystemTimeMeansUnknown(t *testing.T) {
	tmpDir := t.TempDir()
	f := sidecarMediaFile(t, tmpDir, "random.jpg")
	// A 1969 mtime must never produce a "1969" folder.
	modTime := time.Date(1969, 12, 31, 23, 0, 0, 0, time.UTC)
	if err := os.Chtimes(f.Path, modTime, modTime); err != nil {
		t.Fatalf("Failed to set file times: %v", err)
	}

	resolver := NewResolver(NewYearValidator(2025), nil)
	d := resolver.Resolve(f)

	if d.Route != RouteUnknown {
		t.Errorf("Expected RouteUnknown for out-of-range mtime, got %+v", d)
	}
}
