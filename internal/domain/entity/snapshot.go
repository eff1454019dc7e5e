package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// CategoryMetrics is the revenue/count rollup for one ticket category.
type CategoryMetrics struct {
	Revenue    decimal.Decimal `json:"revenue"`
	Tickets    int             `json:"tickets"`
	Passengers int             `json:"passengers"`
}

// RouteMetrics is the per-route rollup, keyed by direction label.
type RouteMetrics struct {
	Direction      string          `json:"direction"`
	Revenue        decimal.Decimal `json:"revenue"`
	Passengers     int             `json:"passengers"`
	Trips          int             `json:"trips"`
	EfficiencyPerKm float64        `json:"efficiencyPerKm"`
}

// DiscountTypeMetrics is the revenue rollup for one discount bucket.
type DiscountTypeMetrics struct {
	Type       string          `json:"type"`
	Revenue    decimal.Decimal `json:"revenue"`
	Passengers int             `json:"passengers"`
	Share      float64         `json:"share"` // percent of bucketed revenue
}

// ConductorMetrics is the per-conductor rollup, with reference data joined on.
type ConductorMetrics struct {
	ConductorID string          `json:"conductorId"`
	Name        string          `json:"name,omitempty"`
	BusNumber   string          `json:"busNumber,omitempty"`
	Revenue     decimal.Decimal `json:"revenue"`
	Passengers  int             `json:"passengers"`
	Trips       int             `json:"trips"`
}

// BusUtilization is the live-load view for one bus.
type BusUtilization struct {
	ConductorID       string  `json:"conductorId"`
	BusNumber         string  `json:"busNumber,omitempty"`
	CurrentPassengers int     `json:"currentPassengers"`
	Capacity          int     `json:"capacity"`
	UtilizationPct    float64 `json:"utilizationPct"`
	IsOnline          bool    `json:"isOnline"`
}

// HourDemand is one hour-of-day demand bucket.
type HourDemand struct {
	Hour             int `json:"hour"`
	Tickets          int `json:"tickets"`
	Passengers       int `json:"passengers"`
	DemandPercentage int `json:"demandPercentage"`
}

// WeekdayDemand is one day-of-week demand bucket.
type WeekdayDemand struct {
	Weekday          string `json:"weekday"`
	Tickets          int    `json:"tickets"`
	Passengers       int    `json:"passengers"`
	DemandPercentage int    `json:"demandPercentage"`
}

// MetricsSnapshot is the full aggregation output for one reconciliation
// pass. Produced fresh on every query, never persisted.
type MetricsSnapshot struct {
	Window                   TimeWindow                 `json:"window"`
	TotalRevenue             decimal.Decimal            `json:"totalRevenue"`
	TotalPassengers          int                        `json:"totalPassengers"`
	TotalTrips               int                        `json:"totalTrips"`
	AverageFare              decimal.Decimal            `json:"averageFare"`
	AveragePassengersPerTrip float64                    `json:"averagePassengersPerTrip"`
	PerCategory              map[string]CategoryMetrics `json:"perCategory"`
	PerRoute                 []RouteMetrics             `json:"perRoute"`
	PerDiscountType          []DiscountTypeMetrics      `json:"perDiscountType"`
	PerConductor             []ConductorMetrics         `json:"perConductor"`
	DemandByHour             []HourDemand               `json:"demandByHour"`
	DemandByWeekday          []WeekdayDemand            `json:"demandByWeekday"`
	Utilization              []BusUtilization           `json:"utilization,omitempty"`
	Tickets                  []Ticket                   `json:"rawData"`
	GeneratedAt              time.Time                  `json:"generatedAt"`
}

// CategoryGrowth is the period-over-period delta for one category.
type CategoryGrowth struct {
	RevenueGrowth   float64 `json:"revenueGrowth"`
	PassengerGrowth float64 `json:"passengerGrowth"`
}

// GrowthReport compares the current window against the immediately
// preceding window of equal length.
type GrowthReport struct {
	Window          TimeWindow                `json:"window"`
	PreviousWindow  TimeWindow                `json:"previousWindow"`
	RevenueGrowth   float64                   `json:"revenueGrowth"`
	PassengerGrowth float64                   `json:"passengerGrowth"`
	TripGrowth      float64                   `json:"tripGrowth"`
	PerCategory     map[string]CategoryGrowth `json:"perCategory"`
	GeneratedAt     time.Time                 `json:"generatedAt"`
}

// Warning records a recoverable failure that reduced the input set, so
// callers can tell partial data from zero activity.
type Warning struct {
	Source  string `json:"source"`
	Path    string `json:"path,omitempty"`
	Message string `json:"message"`
}
