package entity

import (
	"time"
)

// DateLayout is the partition-key date format used throughout the store.
const DateLayout = "2006-01-02"

// TimeWindow is an inclusive date range over which metrics are computed.
// Constructed per query and discarded after use. Bounds carry the reporting
// location; all date comparisons happen in it.
type TimeWindow struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Contains reports whether the given instant falls on a day inside the
// window, judged in the window's location.
func (w TimeWindow) Contains(t time.Time) bool {
	loc := w.Start.Location()
	day := dayOf(t.In(loc))
	return !day.Before(dayOf(w.Start)) && !day.After(dayOf(w.End))
}

// ContainsDate reports whether a YYYY-MM-DD partition key falls inside the
// window. Malformed keys are outside every window.
func (w TimeWindow) ContainsDate(key string) bool {
	t, err := time.ParseInLocation(DateLayout, key, w.Start.Location())
	if err != nil {
		return false
	}
	return w.Contains(t)
}

// Days returns the number of calendar days the window spans, inclusive.
func (w TimeWindow) Days() int {
	start := dayOf(w.Start)
	end := dayOf(w.End)
	days := 0
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		days++
	}
	return days
}

// Previous returns the window of equal length immediately preceding this one,
// used for period-over-period growth.
func (w TimeWindow) Previous() TimeWindow {
	span := w.Days()
	return TimeWindow{
		Start: w.Start.AddDate(0, 0, -span),
		End:   w.End.AddDate(0, 0, -span),
	}
}

func dayOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
