package usecase

import (
	"fmt"
	"time"

	"faremetrics-service/internal/domain/entity"
)

// Named ranges accepted by ResolveWindow.
const (
	RangeToday      = "today"
	RangeYesterday  = "yesterday"
	RangeLast7Days  = "last_7_days"
	RangeLast30Days = "last_30_days"
	RangeThisMonth  = "this_month"
	RangeLastMonth  = "last_month"
)

// ResolveWindow builds an inclusive date window from either a named range or
// explicit YYYY-MM-DD bounds. Explicit bounds take precedence when both are
// given. All dates are interpreted in loc.
func ResolveWindow(name, start, end string, loc *time.Location, now time.Time) (entity.TimeWindow, error) {
	if start != "" || end != "" {
		return explicitWindow(start, end, loc)
	}
	if name == "" {
		name = RangeLast30Days
	}

	today := midnight(now.In(loc))
	switch name {
	case RangeToday:
		return entity.TimeWindow{Start: today, End: today}, nil
	case RangeYesterday:
		y := today.AddDate(0, 0, -1)
		return entity.TimeWindow{Start: y, End: y}, nil
	case RangeLast7Days:
		return entity.TimeWindow{Start: today.AddDate(0, 0, -6), End: today}, nil
	case RangeLast30Days:
		return entity.TimeWindow{Start: today.AddDate(0, 0, -29), End: today}, nil
	case RangeThisMonth:
		first := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, loc)
		return entity.TimeWindow{Start: first, End: today}, nil
	case RangeLastMonth:
		firstOfThis := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, loc)
		first := firstOfThis.AddDate(0, -1, 0)
		return entity.TimeWindow{Start: first, End: firstOfThis.AddDate(0, 0, -1)}, nil
	}
	return entity.TimeWindow{}, fmt.Errorf("%w: unknown range %q", ErrInvalidWindow, name)
}

func explicitWindow(start, end string, loc *time.Location) (entity.TimeWindow, error) {
	if start == "" || end == "" {
		return entity.TimeWindow{}, fmt.Errorf("%w: both start and end are required", ErrInvalidWindow)
	}
	s, err := time.ParseInLocation(entity.DateLayout, start, loc)
	if err != nil {
		return entity.TimeWindow{}, fmt.Errorf("%w: bad start %q", ErrInvalidWindow, start)
	}
	e, err := time.ParseInLocation(entity.DateLayout, end, loc)
	if err != nil {
		return entity.TimeWindow{}, fmt.Errorf("%w: bad end %q", ErrInvalidWindow, end)
	}
	if e.Before(s) {
		return entity.TimeWindow{}, fmt.Errorf("%w: end %q before start %q", ErrInvalidWindow, end, start)
	}
	return entity.TimeWindow{Start: s, End: e}, nil
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
