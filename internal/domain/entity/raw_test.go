package entity

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestConductorTicketNormalizeDefaults(t *testing.T) {
	raw := ConductorTicketRaw{}
	ticket := raw.Normalize("c1", "2026-03-10", "t1", "tk1")

	if ticket.ID != "tk1" {
		t.Fatalf("expected doc id fallback, got %q", ticket.ID)
	}
	if ticket.Quantity != 1 {
		t.Fatalf("expected quantity default 1, got %d", ticket.Quantity)
	}
	if !ticket.TotalFare.IsZero() {
		t.Fatalf("expected zero fare, got %s", ticket.TotalFare)
	}
	if !ticket.DiscountAmount.IsZero() {
		t.Fatalf("expected zero discount, got %s", ticket.DiscountAmount)
	}
	if !ticket.Active {
		t.Fatal("expected ticket to default to active")
	}
	if ticket.HasTimestamp() {
		t.Fatal("expected no timestamp")
	}
}

func TestConductorTicketDistanceFromKmReadings(t *testing.T) {
	start, end := 112.5, 100.0
	raw := ConductorTicketRaw{StartKm: &start, EndKm: &end}
	ticket := raw.Normalize("c1", "2026-03-10", "t1", "tk1")
	if ticket.DistanceKm != 12.5 {
		t.Fatalf("expected absolute km distance 12.5, got %v", ticket.DistanceKm)
	}
}

func TestPreTicketMissingFieldsDropped(t *testing.T) {
	amount := 60.0
	quantity := 1

	cases := []struct {
		name string
		raw  PreTicketRaw
		keep bool
	}{
		{"missing both", PreTicketRaw{}, false},
		{"missing quantity", PreTicketRaw{Data: PreTicketData{Amount: &amount}}, false},
		{"missing amount", PreTicketRaw{Data: PreTicketData{Quantity: &quantity}}, false},
		{"complete", PreTicketRaw{Data: PreTicketData{Amount: &amount, Quantity: &quantity}}, true},
	}
	for _, tc := range cases {
		_, ok := tc.raw.Normalize("c1", "q1")
		if ok != tc.keep {
			t.Errorf("%s: keep=%v, want %v", tc.name, ok, tc.keep)
		}
	}
}

func TestPreTicketNormalizeSetsDateFromScan(t *testing.T) {
	amount := 60.0
	quantity := 2
	scanned := time.Date(2026, 3, 11, 9, 30, 0, 0, time.UTC)
	raw := PreTicketRaw{
		Status: "used",
		Data:   PreTicketData{Amount: &amount, Quantity: &quantity, ScannedAt: &scanned},
	}
	ticket, ok := raw.Normalize("c1", "q1")
	if !ok {
		t.Fatal("expected ticket to survive normalization")
	}
	if ticket.Date != "2026-03-11" {
		t.Fatalf("expected date from scan time, got %q", ticket.Date)
	}
	if !ticket.TotalFare.Equal(decimal.NewFromInt(60)) {
		t.Fatalf("expected fare 60, got %s", ticket.TotalFare)
	}
}

func TestPreBookingCancelledIsInactive(t *testing.T) {
	raw := PreBookingRaw{Status: "Cancelled"}
	ticket := raw.Normalize("c1", "2026-03-10", "pb1")
	if ticket.Active {
		t.Fatal("expected cancelled booking to be inactive")
	}
}

func TestParseDiscountBreakdown(t *testing.T) {
	entries := []any{
		"PWD",
		map[string]any{"type": "Senior Citizen", "fare": 12.0},
		"",
	}
	fares := []float64{10, 99, 8}

	parsed := ParseDiscountBreakdown(entries, fares)
	if len(parsed) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(parsed))
	}
	if parsed[0].Label != "PWD" || !parsed[0].Fare.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("entry 0 = %+v", parsed[0])
	}
	// structured fare wins over the positional list
	if parsed[1].Label != "Senior Citizen" || !parsed[1].Fare.Equal(decimal.NewFromInt(12)) {
		t.Fatalf("entry 1 = %+v", parsed[1])
	}
	if parsed[2].Label != DiscountRegular || !parsed[2].Fare.Equal(decimal.NewFromInt(8)) {
		t.Fatalf("entry 2 = %+v", parsed[2])
	}
}

func TestParseDiscountBreakdownLongerThanFares(t *testing.T) {
	parsed := ParseDiscountBreakdown([]any{"student", "student"}, []float64{15})
	if !parsed[0].Fare.Equal(decimal.NewFromInt(15)) {
		t.Fatalf("entry 0 fare = %s", parsed[0].Fare)
	}
	if !parsed[1].Fare.IsZero() {
		t.Fatalf("entry beyond fare list should keep zero fare, got %s", parsed[1].Fare)
	}
}
