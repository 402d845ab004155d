package repository

// Period is the display window requested for a run.
type Period string

const (
	Period1Mo Period = "1mo"
	Period3Mo Period = "3mo"
	Period6Mo Period = "6mo"
	Period1Y  Period = "1y"
	Period2Y  Period = "2y"
	Period3Y  Period = "3y"
	Period5Y  Period = "5y"
	PeriodMax Period = "max"
)

// Periods lists every supported period, shortest first.
var Periods = []Period{Period1Mo, Period3Mo, Period6Mo, Period1Y, Period2Y, Period3Y, Period5Y, PeriodMax}

// IsValidPeriod returns true if p is a supported period.
func IsValidPeriod(p Period) bool {
	switch p {
	case Period1Mo, Period3Mo, Period6Mo, Period1Y, Period2Y, Period3Y, Period5Y, PeriodMax:
		return true
	default:
		return false
	}
}

// DefaultPeriod returns the default display period.
func DefaultPeriod() Period { return Period1Y }

// NormalizePeriod converts raw string to a valid period (or default).
func NormalizePeriod(s string) Period {
	if s == "" {
		return DefaultPeriod()
	}
	p := Period(s)
	if IsValidPeriod(p) {
		return p
	}
	return DefaultPeriod()
}

// ExtendedFetchPeriod is the lookback fetched so the 125-bar average is populated
// across the whole display window.
func ExtendedFetchPeriod(p Period) Period {
	switch p {
	case Period1Mo, Period3Mo:
		return Period1Y
	case Period6Mo:
		return Period2Y
	case Period1Y:
		return Period3Y
	case Period2Y, Period3Y:
		return Period5Y
	default:
		return PeriodMax
	}
}

// DisplayDays is the number of most recent bars kept for display.
func DisplayDays(p Period) int {
	switch p {
	case Period1Mo:
		return 30
	case Period3Mo:
		return 90
	case Period6Mo:
		return 180
	case Period1Y:
		return 365
	case Period2Y:
		return 730
	case Period3Y:
		return 1095
	case Period5Y:
		return 1825
	default:
		return 3650
	}
}
