package core

import (
	"errors"
	"testing"
	"time"
)

func TestResolvePeriod(t *testing.T) {
	currentYear := time.Now().Year()

	cases := []struct {
		name  string
		kind  string
		month int
		year  int
		ok    bool
	}{
		{"valid month", "month", 3, 2023, true},
		{"valid month lower bound", "month", 1, MinYear, true},
		{"valid month upper bound", "month", 12, currentYear, true},
		{"valid year", "year", 0, 2015, true},
		{"month zero", "month", 0, 2023, false},
		{"month thirteen", "month", 13, 2023, false},
		{"year too old", "month", 5, 2009, false},
		{"year in the future", "month", 5, currentYear + 1, false},
		{"year kind with bad year", "year", 0, 1999, false},
		{"unknown kind", "week", 5, 2023, false},
		{"empty kind", "", 5, 2023, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p, err := ResolvePeriod(tc.kind, tc.month, tc.year)
			if tc.ok {
				if err != nil {
					t.Fatalf("expected ok, got %v", err)
				}
				if p.Year != tc.year {
					t.Fatalf("year = %d, want %d", p.Year, tc.year)
				}
				if p.Kind == PeriodMonth && p.Month != tc.month {
					t.Fatalf("month = %d, want %d", p.Month, tc.month)
				}
				return
			}
			if !errors.Is(err, ErrInvalidPeriod) {
				t.Fatalf("expected ErrInvalidPeriod, got %v", err)
			}
		})
	}
}

func TestCurrentPeriod(t *testing.T) {
	now := time.Now()
	p := CurrentPeriod()
	if p.Kind != PeriodMonth {
		t.Fatalf("kind = %q, want month", p.Kind)
	}
	if p.Year != now.Year() || p.Month != int(now.Month()) {
		t.Fatalf("got %d-%d, want %d-%d", p.Year, p.Month, now.Year(), int(now.Month()))
	}
}

func TestPeriodContains(t *testing.T) {
	march := Period{Kind: PeriodMonth, Month: 3, Year: 2023}
	year := Period{Kind: PeriodYear, Year: 2023}

	cases := []struct {
		name string
		p    Period
		t    time.Time
		want bool
	}{
		{"month match start of day", march, time.Date(2023, 3, 5, 0, 0, 0, 0, time.UTC), true},
		{"month match end of day", march, time.Date(2023, 3, 31, 23, 59, 59, 0, time.UTC), true},
		{"month mismatch", march, time.Date(2023, 4, 1, 0, 0, 0, 0, time.UTC), false},
		{"year mismatch", march, time.Date(2022, 3, 5, 0, 0, 0, 0, time.UTC), false},
		{"year match any month", year, time.Date(2023, 11, 20, 12, 0, 0, 0, time.UTC), true},
		{"year mismatch next year", year, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.p.Contains(tc.t); got != tc.want {
				t.Fatalf("Contains(%v) = %v, want %v", tc.t, got, tc.want)
			}
		})
	}
}

func TestPeriodString(t *testing.T) {
	if s := (Period{Kind: PeriodMonth, Month: 3, Year: 2023}).String(); s != "2023-03" {
		t.Fatalf("got %q", s)
	}
	if s := (Period{Kind: PeriodYear, Year: 2023}).String(); s != "2023" {
		t.Fatalf("got %q", s)
	}
}
