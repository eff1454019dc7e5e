package usecase

import (
	"math"
	"sort"
	"time"

	"faremetrics-service/internal/domain/entity"
	"faremetrics-service/pkg/logger"
)

// Presentation depths for demand rankings. The snapshot itself carries every
// non-empty bucket; callers truncate for display.
const (
	TopHourBuckets    = 8
	TopWeekdayBuckets = 7
)

// DemandAnalyzer derives hour-of-day and day-of-week demand buckets from
// ticket timestamps. Tickets without a usable timestamp are skipped, never
// guessed. Only active tickets contribute.
type DemandAnalyzer struct {
	location *time.Location
	logger   logger.Logger
}

// NewDemandAnalyzer creates an analyzer bucketing in the given location.
func NewDemandAnalyzer(location *time.Location, logger logger.Logger) *DemandAnalyzer {
	if location == nil {
		location = time.UTC
	}
	return &DemandAnalyzer{location: location, logger: logger}
}

// HourlyDemand returns the non-empty hour buckets sorted by ticket count
// descending. The demand percentage is relative to the busiest hour, capped
// at 100.
func (d *DemandAnalyzer) HourlyDemand(tickets []entity.Ticket) []entity.HourDemand {
	type bucket struct{ tickets, passengers int }
	buckets := make(map[int]*bucket)
	skipped := 0
	for _, t := range tickets {
		if !t.Active {
			continue
		}
		if !t.HasTimestamp() {
			skipped++
			continue
		}
		hour := t.Timestamp.In(d.location).Hour()
		b, ok := buckets[hour]
		if !ok {
			b = &bucket{}
			buckets[hour] = b
		}
		b.tickets++
		b.passengers += t.Quantity
	}
	if skipped > 0 {
		d.logger.Debug("Skipped tickets without timestamps", "count", skipped)
	}

	max := 0
	for _, b := range buckets {
		if b.tickets > max {
			max = b.tickets
		}
	}

	out := make([]entity.HourDemand, 0, len(buckets))
	for hour, b := range buckets {
		out = append(out, entity.HourDemand{
			Hour:             hour,
			Tickets:          b.tickets,
			Passengers:       b.passengers,
			DemandPercentage: demandPercentage(b.tickets, max),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Tickets != out[j].Tickets {
			return out[i].Tickets > out[j].Tickets
		}
		return out[i].Hour < out[j].Hour
	})
	return out
}

// WeekdayDemand returns the non-empty weekday buckets sorted by ticket count
// descending, percentage relative to the busiest day.
func (d *DemandAnalyzer) WeekdayDemand(tickets []entity.Ticket) []entity.WeekdayDemand {
	type bucket struct{ tickets, passengers int }
	buckets := make(map[time.Weekday]*bucket)
	for _, t := range tickets {
		if !t.Active || !t.HasTimestamp() {
			continue
		}
		day := t.Timestamp.In(d.location).Weekday()
		b, ok := buckets[day]
		if !ok {
			b = &bucket{}
			buckets[day] = b
		}
		b.tickets++
		b.passengers += t.Quantity
	}

	max := 0
	for _, b := range buckets {
		if b.tickets > max {
			max = b.tickets
		}
	}

	out := make([]entity.WeekdayDemand, 0, len(buckets))
	for day, b := range buckets {
		out = append(out, entity.WeekdayDemand{
			Weekday:          day.String(),
			Tickets:          b.tickets,
			Passengers:       b.passengers,
			DemandPercentage: demandPercentage(b.tickets, max),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Tickets != out[j].Tickets {
			return out[i].Tickets > out[j].Tickets
		}
		return out[i].Weekday < out[j].Weekday
	})
	return out
}

func demandPercentage(count, max int) int {
	if max <= 0 {
		return 0
	}
	pct := int(math.Round(float64(count) / float64(max) * 100))
	if pct > 100 {
		pct = 100
	}
	return pct
}

// TruncateHours keeps the top n hour buckets for presentation.
func TruncateHours(buckets []entity.HourDemand, n int) []entity.HourDemand {
	if len(buckets) > n {
		return buckets[:n]
	}
	return buckets
}

// TruncateWeekdays keeps the top n weekday buckets for presentation.
func TruncateWeekdays(buckets []entity.WeekdayDemand, n int) []entity.WeekdayDemand {
	if len(buckets) > n {
		return buckets[:n]
	}
	return buckets
}
