package takeout

// minReasonableYear is the lower bound for trusted years. Consumer
// photography predates 2000 only through corrupted metadata or
// placeholder epoch timestamps (1970, year 0), which must never
// produce a year-named folder.
const minReasonableYear = 2000

// YearValidator accepts candidate years within [2000..CurrentYear].
//
// CurrentYear is computed once at startup and injected so the engine
// stays deterministic under test.
type YearValidator struct {
	CurrentYear int
}

// NewYearValidator creates a validator pinned to the given current year.
func NewYearValidator(currentYear int) YearValidator {
	return YearValidator{CurrentYear: currentYear}
}

// IsReasonable reports whether year is within the trusted range.
// An invalid year is not an error: it means "try the next signal".
func (v YearValidator) IsReasonable(year int) bool {
	return year >= minReasonableYear && year <= v.CurrentYear
}
