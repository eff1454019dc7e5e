package usecase

import (
	"math"
	"time"

	"faremetrics-service/internal/domain/entity"

	"github.com/shopspring/decimal"
)

// Growth returns the period-over-period percentage change, rounded to the
// nearest whole percent. A zero previous period yields 100 when the current
// period has activity and 0 otherwise, never a division by zero.
func Growth(current, previous decimal.Decimal) float64 {
	if previous.IsZero() {
		if current.IsPositive() {
			return 100
		}
		return 0
	}
	ratio := current.Sub(previous).Div(previous).InexactFloat64()
	return math.Round(ratio * 100)
}

// GrowthCount is Growth over integer counts.
func GrowthCount(current, previous int) float64 {
	return Growth(decimal.NewFromInt(int64(current)), decimal.NewFromInt(int64(previous)))
}

// BuildGrowthReport diffs two fully aggregated snapshots, overall and per
// category.
func BuildGrowthReport(current, previous entity.MetricsSnapshot) entity.GrowthReport {
	report := entity.GrowthReport{
		Window:          current.Window,
		PreviousWindow:  previous.Window,
		RevenueGrowth:   Growth(current.TotalRevenue, previous.TotalRevenue),
		PassengerGrowth: GrowthCount(current.TotalPassengers, previous.TotalPassengers),
		TripGrowth:      GrowthCount(current.TotalTrips, previous.TotalTrips),
		PerCategory:     make(map[string]entity.CategoryGrowth),
		GeneratedAt:     time.Now(),
	}
	for _, category := range []string{entity.CategoryConductor, entity.CategoryPreBooking, entity.CategoryPreTicket} {
		cur := current.PerCategory[category]
		prev := previous.PerCategory[category]
		report.PerCategory[category] = entity.CategoryGrowth{
			RevenueGrowth:   Growth(cur.Revenue, prev.Revenue),
			PassengerGrowth: GrowthCount(cur.Passengers, prev.Passengers),
		}
	}
	return report
}
