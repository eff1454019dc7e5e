package entity

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Storage origins a raw record can arrive from. The classifier uses these
// together with explicit type tags to assign the final category.
const (
	OriginConductorPath  = "tickets"
	OriginPreBookingPath = "preBookings"
	OriginPreTicketPath  = "preTickets"
)

// RawTicket is a normalized ticket candidate plus the provenance the
// classifier needs to reason about duplication. Category on the embedded
// Ticket is not final until classification.
type RawTicket struct {
	Origin       string
	SourcePath   string
	DocumentType string
	Ticket       Ticket
}

// ConductorTicketRaw is the shape of a manually issued ticket document under
// tickets/{conductor}/{date}/{trip}. Prebookings mirrored inline into this
// path carry a ticketType/documentType tag.
type ConductorTicketRaw struct {
	ID             string     `bson:"id,omitempty"`
	TicketType     string     `bson:"ticketType,omitempty"`
	DocumentType   string     `bson:"documentType,omitempty"`
	From           string     `bson:"from,omitempty"`
	To             string     `bson:"to,omitempty"`
	Direction      string     `bson:"direction,omitempty"`
	Quantity       *int       `bson:"quantity,omitempty"`
	TotalFare      *float64   `bson:"totalFare,omitempty"`
	DiscountAmount *float64   `bson:"discountAmount,omitempty"`
	Discounts      []any      `bson:"discounts,omitempty"`
	Fares          []float64  `bson:"fares,omitempty"`
	Timestamp      *time.Time `bson:"timestamp,omitempty"`
	CreatedAt      *time.Time `bson:"createdAt,omitempty"`
	Active         *bool      `bson:"active,omitempty"`
	StartKm        *float64   `bson:"startKm,omitempty"`
	EndKm          *float64   `bson:"endKm,omitempty"`
	DistanceKm     *float64   `bson:"distanceKm,omitempty"`
}

// TypeTag returns the explicit document type tag, if any.
func (r ConductorTicketRaw) TypeTag() string {
	if r.DocumentType != "" {
		return r.DocumentType
	}
	return r.TicketType
}

// Normalize maps the raw conductor ticket onto the canonical record. Missing
// quantity defaults to 1, missing monetary fields to 0.
func (r ConductorTicketRaw) Normalize(conductorID, date, tripID, docID string) Ticket {
	t := Ticket{
		ID:             firstNonEmpty(r.ID, docID),
		ConductorID:    conductorID,
		Date:           date,
		TripID:         tripID,
		From:           r.From,
		To:             r.To,
		Direction:      r.Direction,
		Quantity:       intOrDefault(r.Quantity, 1),
		TotalFare:      decimalOrZero(r.TotalFare),
		DiscountAmount: decimalOrZero(r.DiscountAmount),
		Active:         r.Active == nil || *r.Active,
		DistanceKm:     distanceKm(r.DistanceKm, r.StartKm, r.EndKm),
	}
	if ts := firstTime(r.Timestamp, r.CreatedAt); ts != nil {
		t.Timestamp = *ts
	}
	t.DiscountBreakdown = ParseDiscountBreakdown(r.Discounts, r.Fares)
	return t
}

// PreBookingRaw is the shape of a booking document under
// preBookings/{conductor}/{date}.
type PreBookingRaw struct {
	ID             string     `bson:"id,omitempty"`
	From           string     `bson:"from,omitempty"`
	To             string     `bson:"to,omitempty"`
	Direction      string     `bson:"direction,omitempty"`
	Quantity       *int       `bson:"quantity,omitempty"`
	TotalFare      *float64   `bson:"totalFare,omitempty"`
	Amount         *float64   `bson:"amount,omitempty"`
	DiscountAmount *float64   `bson:"discountAmount,omitempty"`
	Discounts      []any      `bson:"discounts,omitempty"`
	Fares          []float64  `bson:"fares,omitempty"`
	Status         string     `bson:"status,omitempty"`
	BookedAt       *time.Time `bson:"bookedAt,omitempty"`
	Timestamp      *time.Time `bson:"timestamp,omitempty"`
	CreatedAt      *time.Time `bson:"createdAt,omitempty"`
}

// Normalize maps the raw prebooking onto the canonical record. Cancelled and
// voided bookings normalize to inactive.
func (r PreBookingRaw) Normalize(conductorID, date, docID string) Ticket {
	fare := r.TotalFare
	if fare == nil {
		fare = r.Amount
	}
	t := Ticket{
		ID:             firstNonEmpty(r.ID, docID),
		ConductorID:    conductorID,
		Date:           date,
		From:           r.From,
		To:             r.To,
		Direction:      r.Direction,
		Quantity:       intOrDefault(r.Quantity, 1),
		TotalFare:      decimalOrZero(fare),
		DiscountAmount: decimalOrZero(r.DiscountAmount),
		Active:         !inactiveStatus(r.Status),
	}
	if ts := firstTime(r.BookedAt, r.Timestamp, r.CreatedAt); ts != nil {
		t.Timestamp = *ts
	}
	t.DiscountBreakdown = ParseDiscountBreakdown(r.Discounts, r.Fares)
	return t
}

// PreTicketRaw is the shape of a QR ticket document under
// preTickets/{conductor}: a status envelope around the fare payload.
type PreTicketRaw struct {
	Status string        `bson:"status,omitempty"`
	Data   PreTicketData `bson:"data,omitempty"`
}

// PreTicketData is the inner payload of a pre-ticket envelope. Amount and
// Quantity are required; records missing either are void and dropped.
type PreTicketData struct {
	ID             string     `bson:"id,omitempty"`
	Amount         *float64   `bson:"amount,omitempty"`
	Quantity       *int       `bson:"quantity,omitempty"`
	From           string     `bson:"from,omitempty"`
	To             string     `bson:"to,omitempty"`
	Direction      string     `bson:"direction,omitempty"`
	DiscountAmount *float64   `bson:"discountAmount,omitempty"`
	Discounts      []any      `bson:"discounts,omitempty"`
	Fares          []float64  `bson:"fares,omitempty"`
	ScannedAt      *time.Time `bson:"scannedAt,omitempty"`
	CreatedAt      *time.Time `bson:"createdAt,omitempty"`
}

// Normalize maps the raw pre-ticket onto the canonical record. The second
// return value is false when the record is incomplete and must be dropped
// rather than zero-filled: a pre-ticket without an amount or quantity is a
// void transaction, not a free one.
func (r PreTicketRaw) Normalize(conductorID, docID string) (Ticket, bool) {
	if r.Data.Amount == nil || r.Data.Quantity == nil {
		return Ticket{}, false
	}
	t := Ticket{
		ID:             firstNonEmpty(r.Data.ID, docID),
		ConductorID:    conductorID,
		From:           r.Data.From,
		To:             r.Data.To,
		Direction:      r.Data.Direction,
		Quantity:       *r.Data.Quantity,
		TotalFare:      decimal.NewFromFloat(*r.Data.Amount),
		DiscountAmount: decimalOrZero(r.Data.DiscountAmount),
		Active:         !inactiveStatus(r.Status),
	}
	if ts := firstTime(r.Data.ScannedAt, r.Data.CreatedAt); ts != nil {
		t.Timestamp = *ts
		t.Date = ts.Format(DateLayout)
	}
	t.DiscountBreakdown = ParseDiscountBreakdown(r.Data.Discounts, r.Data.Fares)
	return t, true
}

// ParseDiscountBreakdown converts raw breakdown entries into typed ones.
// Entries are either free-text labels or {type, fare} pairs; when a parallel
// per-passenger fare list is present it fills fares positionally. Entries
// beyond the fare list keep a zero fare.
func ParseDiscountBreakdown(entries []any, fares []float64) []DiscountEntry {
	if len(entries) == 0 {
		return nil
	}
	out := make([]DiscountEntry, 0, len(entries))
	for i, e := range entries {
		entry := DiscountEntry{Label: DiscountRegular}
		switch v := e.(type) {
		case string:
			if v != "" {
				entry.Label = v
			}
		case map[string]any:
			entry = discountFromMap(v)
		case primitive.M:
			entry = discountFromMap(v)
		}
		if entry.Fare.IsZero() && i < len(fares) {
			entry.Fare = decimal.NewFromFloat(fares[i])
		}
		out = append(out, entry)
	}
	return out
}

func discountFromMap(m map[string]any) DiscountEntry {
	entry := DiscountEntry{Label: DiscountRegular}
	if s, ok := m["type"].(string); ok && s != "" {
		entry.Label = s
	}
	if f, ok := numeric(m["fare"]); ok {
		entry.Fare = decimal.NewFromFloat(f)
	}
	return entry
}

func numeric(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

func inactiveStatus(status string) bool {
	switch strings.ToLower(status) {
	case "cancelled", "canceled", "void", "refunded", "expired":
		return true
	}
	return false
}

func distanceKm(distance, startKm, endKm *float64) float64 {
	if distance != nil && *distance > 0 {
		return *distance
	}
	if startKm != nil && endKm != nil {
		d := *endKm - *startKm
		if d < 0 {
			d = -d
		}
		return d
	}
	return 0
}

func decimalOrZero(v *float64) decimal.Decimal {
	if v == nil {
		return decimal.Zero
	}
	return decimal.NewFromFloat(*v)
}

func intOrDefault(v *int, def int) int {
	if v == nil {
		return def
	}
	return *v
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func firstTime(values ...*time.Time) *time.Time {
	for _, v := range values {
		if v != nil && !v.IsZero() {
			return v
		}
	}
	return nil
}
