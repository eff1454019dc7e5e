package usecase

import (
	"errors"
	"testing"
	"time"

	"faremetrics-service/internal/domain/entity"
)

var windowNow = time.Date(2026, 8, 31, 14, 30, 0, 0, time.UTC)

func TestResolveNamedRanges(t *testing.T) {
	cases := []struct {
		name  string
		start string
		end   string
		days  int
	}{
		{RangeToday, "2026-08-31", "2026-08-31", 1},
		{RangeYesterday, "2026-08-30", "2026-08-30", 1},
		{RangeLast7Days, "2026-08-25", "2026-08-31", 7},
		{RangeLast30Days, "2026-08-02", "2026-08-31", 30},
		{RangeThisMonth, "2026-08-01", "2026-08-31", 31},
		{RangeLastMonth, "2026-07-01", "2026-07-31", 31},
	}
	for _, tc := range cases {
		w, err := ResolveWindow(tc.name, "", "", time.UTC, windowNow)
		if err != nil {
			t.Fatalf("%s: %v", tc.name, err)
		}
		if got := w.Start.Format(entity.DateLayout); got != tc.start {
			t.Errorf("%s: start = %s, want %s", tc.name, got, tc.start)
		}
		if got := w.End.Format(entity.DateLayout); got != tc.end {
			t.Errorf("%s: end = %s, want %s", tc.name, got, tc.end)
		}
		if w.Days() != tc.days {
			t.Errorf("%s: days = %d, want %d", tc.name, w.Days(), tc.days)
		}
	}
}

func TestResolveExplicitBoundsTakePrecedence(t *testing.T) {
	w, err := ResolveWindow(RangeToday, "2026-01-01", "2026-01-15", time.UTC, windowNow)
	if err != nil {
		t.Fatal(err)
	}
	if w.Start.Format(entity.DateLayout) != "2026-01-01" || w.End.Format(entity.DateLayout) != "2026-01-15" {
		t.Fatalf("explicit bounds ignored: %+v", w)
	}
}

func TestResolveDefaultsToLast30Days(t *testing.T) {
	w, err := ResolveWindow("", "", "", time.UTC, windowNow)
	if err != nil {
		t.Fatal(err)
	}
	if w.Days() != 30 {
		t.Fatalf("default window spans %d days", w.Days())
	}
}

func TestResolveWindowErrors(t *testing.T) {
	cases := []struct {
		name  string
		start string
		end   string
	}{
		{"sometime", "", ""},
		{"", "2026-01-01", ""},
		{"", "", "2026-01-15"},
		{"", "bogus", "2026-01-15"},
		{"", "2026-01-01", "bogus"},
		{"", "2026-01-15", "2026-01-01"},
	}
	for _, tc := range cases {
		_, err := ResolveWindow(tc.name, tc.start, tc.end, time.UTC, windowNow)
		if !errors.Is(err, ErrInvalidWindow) {
			t.Errorf("ResolveWindow(%q, %q, %q) error = %v, want ErrInvalidWindow", tc.name, tc.start, tc.end, err)
		}
	}
}
