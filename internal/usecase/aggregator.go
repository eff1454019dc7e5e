package usecase

import (
	"math"
	"sort"
	"strings"
	"time"

	"faremetrics-service/internal/domain/entity"
	"faremetrics-service/pkg/logger"

	"github.com/shopspring/decimal"
)

// UnknownDirection is the route key for tickets without a direction label.
const UnknownDirection = "Unknown Direction"

// Aggregator folds canonical tickets into a MetricsSnapshot. Inactive
// tickets are excluded from every rollup; they remain visible in the
// snapshot's raw ticket list only.
type Aggregator struct {
	logger logger.Logger
}

// NewAggregator creates a new aggregator.
func NewAggregator(logger logger.Logger) *Aggregator {
	return &Aggregator{logger: logger}
}

// Aggregate computes the full snapshot for one reconciliation pass.
func (a *Aggregator) Aggregate(window entity.TimeWindow, tickets []entity.Ticket, conductors []entity.Conductor) entity.MetricsSnapshot {
	snapshot := entity.MetricsSnapshot{
		Window:      window,
		PerCategory: emptyCategories(),
		Tickets:     tickets,
		GeneratedAt: time.Now(),
	}

	trips := make(map[entity.TripKey]bool)
	routes := make(map[string]*routeAccum)
	perConductor := make(map[string]*conductorAccum)
	discounts := newDiscountAccum()

	for _, t := range tickets {
		if !t.Active {
			continue
		}

		snapshot.TotalRevenue = snapshot.TotalRevenue.Add(t.TotalFare)
		snapshot.TotalPassengers += t.Quantity
		trips[t.Trip()] = true

		cat := snapshot.PerCategory[t.Category]
		cat.Revenue = cat.Revenue.Add(t.TotalFare)
		cat.Tickets++
		cat.Passengers += t.Quantity
		snapshot.PerCategory[t.Category] = cat

		routeAccumFor(routes, t).add(t)
		conductorAccumFor(perConductor, t.ConductorID).add(t)
		discounts.add(t)
	}

	snapshot.TotalTrips = len(trips)
	if snapshot.TotalPassengers > 0 {
		snapshot.AverageFare = snapshot.TotalRevenue.
			Div(decimal.NewFromInt(int64(snapshot.TotalPassengers))).
			Round(2)
	}
	if snapshot.TotalTrips > 0 {
		snapshot.AveragePassengersPerTrip = round2(float64(snapshot.TotalPassengers) / float64(snapshot.TotalTrips))
	}

	snapshot.PerRoute = flattenRoutes(routes)
	snapshot.PerDiscountType = discounts.flatten()
	snapshot.PerConductor = flattenConductors(perConductor, conductors)
	snapshot.Utilization = utilization(conductors)

	a.logger.Debug("Aggregated tickets",
		"tickets", len(tickets),
		"revenue", snapshot.TotalRevenue.String(),
		"passengers", snapshot.TotalPassengers,
		"trips", snapshot.TotalTrips)
	return snapshot
}

func emptyCategories() map[string]entity.CategoryMetrics {
	return map[string]entity.CategoryMetrics{
		entity.CategoryConductor:  {},
		entity.CategoryPreBooking: {},
		entity.CategoryPreTicket:  {},
	}
}

// routeAccum folds tickets of one direction label.
type routeAccum struct {
	revenue      decimal.Decimal
	passengers   int
	trips        map[entity.TripKey]bool
	tripDistance map[entity.TripKey]float64
}

func routeAccumFor(routes map[string]*routeAccum, t entity.Ticket) *routeAccum {
	key := t.Direction
	if key == "" {
		key = UnknownDirection
	}
	r, ok := routes[key]
	if !ok {
		r = &routeAccum{
			trips:        make(map[entity.TripKey]bool),
			tripDistance: make(map[entity.TripKey]float64),
		}
		routes[key] = r
	}
	return r
}

func (r *routeAccum) add(t entity.Ticket) {
	r.revenue = r.revenue.Add(t.TotalFare)
	r.passengers += t.Quantity
	r.trips[t.Trip()] = true
	if t.DistanceKm > 0 && r.tripDistance[t.Trip()] == 0 {
		r.tripDistance[t.Trip()] = t.DistanceKm
	}
}

func flattenRoutes(routes map[string]*routeAccum) []entity.RouteMetrics {
	out := make([]entity.RouteMetrics, 0, len(routes))
	for direction, r := range routes {
		var distance float64
		for _, d := range r.tripDistance {
			distance += d
		}
		efficiency := 0.0
		if distance > 0 {
			efficiency = round2(r.revenue.InexactFloat64() / distance)
		}
		out = append(out, entity.RouteMetrics{
			Direction:       direction,
			Revenue:         r.revenue,
			Passengers:      r.passengers,
			Trips:           len(r.trips),
			EfficiencyPerKm: efficiency,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].Revenue.Cmp(out[j].Revenue); c != 0 {
			return c > 0
		}
		return out[i].Direction < out[j].Direction
	})
	return out
}

// conductorAccum folds tickets of one conductor.
type conductorAccum struct {
	revenue    decimal.Decimal
	passengers int
	trips      map[entity.TripKey]bool
}

func conductorAccumFor(accums map[string]*conductorAccum, conductorID string) *conductorAccum {
	c, ok := accums[conductorID]
	if !ok {
		c = &conductorAccum{trips: make(map[entity.TripKey]bool)}
		accums[conductorID] = c
	}
	return c
}

func (c *conductorAccum) add(t entity.Ticket) {
	c.revenue = c.revenue.Add(t.TotalFare)
	c.passengers += t.Quantity
	c.trips[t.Trip()] = true
}

func flattenConductors(accums map[string]*conductorAccum, conductors []entity.Conductor) []entity.ConductorMetrics {
	reference := make(map[string]entity.Conductor, len(conductors))
	for _, c := range conductors {
		reference[c.ID] = c
	}

	out := make([]entity.ConductorMetrics, 0, len(accums))
	for id, acc := range accums {
		m := entity.ConductorMetrics{
			ConductorID: id,
			Revenue:     acc.revenue,
			Passengers:  acc.passengers,
			Trips:       len(acc.trips),
		}
		if ref, ok := reference[id]; ok {
			m.Name = ref.Name
			m.BusNumber = ref.BusNumber
		}
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].Revenue.Cmp(out[j].Revenue); c != 0 {
			return c > 0
		}
		return out[i].ConductorID < out[j].ConductorID
	})
	return out
}

// discountAccum folds per-passenger discount buckets.
type discountAccum struct {
	revenue    map[string]decimal.Decimal
	passengers map[string]int
}

func newDiscountAccum() *discountAccum {
	return &discountAccum{
		revenue:    make(map[string]decimal.Decimal),
		passengers: make(map[string]int),
	}
}

// add allocates one ticket's fare across discount buckets. Without a
// breakdown the full fare is regular. With one, entries are consumed
// positionally; fare not covered by entries stays regular, along with any
// passengers beyond the breakdown's length.
func (d *discountAccum) add(t entity.Ticket) {
	if len(t.DiscountBreakdown) == 0 {
		d.bump(entity.DiscountRegular, t.TotalFare, t.Quantity)
		return
	}

	entrySum := decimal.Zero
	for _, e := range t.DiscountBreakdown {
		d.bump(ClassifyDiscountLabel(e.Label), e.Fare, 1)
		entrySum = entrySum.Add(e.Fare)
	}
	residual := t.TotalFare.Sub(entrySum)
	extraPassengers := t.Quantity - len(t.DiscountBreakdown)
	if extraPassengers < 0 {
		extraPassengers = 0
	}
	if residual.IsPositive() || extraPassengers > 0 {
		if residual.IsNegative() {
			residual = decimal.Zero
		}
		d.bump(entity.DiscountRegular, residual, extraPassengers)
	}
}

func (d *discountAccum) bump(bucket string, revenue decimal.Decimal, passengers int) {
	d.revenue[bucket] = d.revenue[bucket].Add(revenue)
	d.passengers[bucket] += passengers
}

func (d *discountAccum) flatten() []entity.DiscountTypeMetrics {
	total := decimal.Zero
	for _, rev := range d.revenue {
		total = total.Add(rev)
	}

	out := make([]entity.DiscountTypeMetrics, 0, len(d.revenue))
	for bucket, rev := range d.revenue {
		share := 0.0
		if total.IsPositive() {
			share = round2(rev.Div(total).InexactFloat64() * 100)
		}
		out = append(out, entity.DiscountTypeMetrics{
			Type:       bucket,
			Revenue:    rev,
			Passengers: d.passengers[bucket],
			Share:      share,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].Revenue.Cmp(out[j].Revenue); c != 0 {
			return c > 0
		}
		return out[i].Type < out[j].Type
	})
	return out
}

// ClassifyDiscountLabel maps a free-text discount label onto one of the four
// buckets by case-insensitive substring match.
func ClassifyDiscountLabel(label string) string {
	l := strings.ToLower(label)
	switch {
	case strings.Contains(l, "pwd"):
		return entity.DiscountPWD
	case strings.Contains(l, "senior"):
		return entity.DiscountSenior
	case strings.Contains(l, "student"):
		return entity.DiscountStudent
	}
	return entity.DiscountRegular
}

func utilization(conductors []entity.Conductor) []entity.BusUtilization {
	out := make([]entity.BusUtilization, 0, len(conductors))
	for _, c := range conductors {
		out = append(out, entity.BusUtilization{
			ConductorID:       c.ID,
			BusNumber:         c.BusNumber,
			CurrentPassengers: c.CurrentPassengers,
			Capacity:          c.EffectiveCapacity(),
			UtilizationPct:    round2(c.Utilization()),
			IsOnline:          c.IsOnline,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ConductorID < out[j].ConductorID })
	return out
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
