package core

import (
	"fmt"
	"time"
)

// MinYear is the earliest selectable reporting year.
const MinYear = 2010

// PeriodKind selects the granularity of a reporting period.
type PeriodKind string

const (
	PeriodMonth PeriodKind = "month"
	PeriodYear  PeriodKind = "year"
)

// Period is a validated calendar selector: a specific month of a year, or a
// whole year. Matching is by calendar-field equality against an expense's
// CreatedAt, never by timestamp range.
type Period struct {
	Kind  PeriodKind
	Month int // 1-12, meaningful only when Kind is PeriodMonth
	Year  int
}

// ResolvePeriod validates and normalizes a (kind, month, year) selector.
// Years are accepted from MinYear up to the current calendar year, computed at
// call time. Any other kind, or a value outside range, yields ErrInvalidPeriod;
// the caller decides whether to fall back to CurrentPeriod.
func ResolvePeriod(kind string, month, year int) (Period, error) {
	maxYear := time.Now().Year()
	if year < MinYear || year > maxYear {
		return Period{}, fmt.Errorf("%w: year %d not in [%d, %d]", ErrInvalidPeriod, year, MinYear, maxYear)
	}

	switch PeriodKind(kind) {
	case PeriodMonth:
		if month < 1 || month > 12 {
			return Period{}, fmt.Errorf("%w: month %d not in [1, 12]", ErrInvalidPeriod, month)
		}
		return Period{Kind: PeriodMonth, Month: month, Year: year}, nil
	case PeriodYear:
		return Period{Kind: PeriodYear, Year: year}, nil
	}
	return Period{}, fmt.Errorf("%w: unknown kind %q", ErrInvalidPeriod, kind)
}

// CurrentPeriod returns the default selection: the current month and year.
func CurrentPeriod() Period {
	now := time.Now()
	return Period{Kind: PeriodMonth, Month: int(now.Month()), Year: now.Year()}
}

// Contains reports whether t's calendar fields fall inside the period. The
// comparison extracts year (and month when applicable) from t and compares by
// equality, so it is insensitive to time of day.
func (p Period) Contains(t time.Time) bool {
	if t.Year() != p.Year {
		return false
	}
	if p.Kind == PeriodMonth {
		return int(t.Month()) == p.Month
	}
	return true
}

func (p Period) String() string {
	if p.Kind == PeriodMonth {
		return fmt.Sprintf("%04d-%02d", p.Year, p.Month)
	}
	return fmt.Sprintf("%04d", p.Year)
}
