package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Ticket Category
const (
	CategoryConductor  = "conductor"
	CategoryPreBooking = "preBooking"
	CategoryPreTicket  = "preTicket"
)

// Discount types recognized in discount breakdowns
const (
	DiscountRegular = "regular"
	DiscountPWD     = "pwd"
	DiscountSenior  = "senior"
	DiscountStudent = "student"
)

// DiscountEntry is one per-passenger discount descriptor, paired with the
// fare portion it applies to when the source provides a parallel fare list.
type DiscountEntry struct {
	Label string          `json:"label"`
	Fare  decimal.Decimal `json:"fare"`
}

// Ticket is the canonical fare transaction record, regardless of source.
// It is immutable once produced by classification.
type Ticket struct {
	ID                string          `json:"id"`
	ConductorID       string          `json:"conductorId"`
	Date              string          `json:"date"` // partition key, YYYY-MM-DD
	TripID            string          `json:"tripId"`
	From              string          `json:"from,omitempty"`
	To                string          `json:"to,omitempty"`
	Direction         string          `json:"direction,omitempty"`
	Quantity          int             `json:"quantity"`
	TotalFare         decimal.Decimal `json:"totalFare"`
	DiscountAmount    decimal.Decimal `json:"discountAmount"`
	DiscountBreakdown []DiscountEntry `json:"discountBreakdown,omitempty"`
	Timestamp         time.Time       `json:"timestamp"`
	Category          string          `json:"category"`
	Active            bool            `json:"active"`
	DistanceKm        float64         `json:"distanceKm,omitempty"`
}

// TripKey is the deduplicated trip identity: multiple tickets issued on the
// same physical trip share one key.
type TripKey struct {
	ConductorID string
	Date        string
	TripID      string
}

// Trip returns the ticket's trip identity.
func (t Ticket) Trip() TripKey {
	return TripKey{ConductorID: t.ConductorID, Date: t.Date, TripID: t.TripID}
}

// HasTimestamp reports whether the ticket carries a usable issuance time.
func (t Ticket) HasTimestamp() bool {
	return !t.Timestamp.IsZero()
}
