package usecase

import (
	"context"
	"testing"
	"time"

	"faremetrics-service/internal/domain/entity"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
)

func mustWindow(t *testing.T, start, end string) entity.TimeWindow {
	t.Helper()
	w, err := ResolveWindow("", start, end, time.UTC, windowNow)
	if err != nil {
		t.Fatalf("resolving window: %v", err)
	}
	return w
}

func TestConductorSourceInheritsTripMetadata(t *testing.T) {
	store := newMemStore()
	seedTripDoc(store, "c1", "2026-03-10", "t1", bson.M{
		"direction": "Northbound",
		"startKm":   100.0,
		"endKm":     112.0,
	})
	seedConductorTicket(store, "c1", "2026-03-10", "t1", "tk1", bson.M{
		"totalFare": 100.0,
		"quantity":  2,
	})
	seedConductorTicket(store, "c1", "2026-03-10", "t1", "tk2", bson.M{
		"totalFare": 150.0,
		"direction": "Southbound",
	})

	source := NewConductorTicketSource(store, nopLogger{}, testMetrics, 4)
	records, warnings, err := source.Fetch(context.Background(), mustWindow(t, "2026-03-09", "2026-03-12"), []Partition{{ConductorID: "c1", Date: "2026-03-10"}})
	if err != nil {
		t.Fatal(err)
	}
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %+v", warnings)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}

	byID := map[string]entity.Ticket{}
	for _, r := range records {
		byID[r.Ticket.ID] = r.Ticket
	}
	if got := byID["tk1"].Direction; got != "Northbound" {
		t.Fatalf("tk1 direction = %q, want inherited Northbound", got)
	}
	if got := byID["tk1"].DistanceKm; got != 12 {
		t.Fatalf("tk1 distance = %v, want trip odometer span 12", got)
	}
	if got := byID["tk2"].Direction; got != "Southbound" {
		t.Fatalf("tk2 direction = %q, own value must win", got)
	}
}

func TestConductorSourcePartitionFailureWarnsOnly(t *testing.T) {
	store := newMemStore()
	seedConductorTicket(store, "c1", "2026-03-10", "t1", "tk1", bson.M{"totalFare": 50.0})
	seedConductorTicket(store, "c2", "2026-03-10", "t1", "tk2", bson.M{"totalFare": 75.0})
	store.failPath("tickets/c2/2026-03-10")

	source := NewConductorTicketSource(store, nopLogger{}, testMetrics, 4)
	partitions := []Partition{
		{ConductorID: "c1", Date: "2026-03-10"},
		{ConductorID: "c2", Date: "2026-03-10"},
	}
	records, warnings, err := source.Fetch(context.Background(), mustWindow(t, "2026-03-09", "2026-03-12"), partitions)
	if err != nil {
		t.Fatalf("partial failure must not be fatal: %v", err)
	}
	if len(records) != 1 || records[0].Ticket.ID != "tk1" {
		t.Fatalf("records = %+v", records)
	}
	if len(warnings) != 1 {
		t.Fatalf("warnings = %+v", warnings)
	}
}

func TestConductorSourceAllPartitionsFailed(t *testing.T) {
	store := newMemStore()
	store.failPath("tickets/c1/2026-03-10")
	store.failPath("tickets/c2/2026-03-10")

	source := NewConductorTicketSource(store, nopLogger{}, testMetrics, 4)
	partitions := []Partition{
		{ConductorID: "c1", Date: "2026-03-10"},
		{ConductorID: "c2", Date: "2026-03-10"},
	}
	_, _, err := source.Fetch(context.Background(), mustWindow(t, "2026-03-09", "2026-03-12"), partitions)
	if err == nil {
		t.Fatal("expected an error when every partition fails")
	}
}

func TestConductorSourceDistinguishesUnreachableStore(t *testing.T) {
	store := newMemStore()
	source := NewConductorTicketSource(store, nopLogger{}, testMetrics, 4)
	window := mustWindow(t, "2026-03-09", "2026-03-12")

	// empty but reachable: zero records, no error
	records, _, err := source.Fetch(context.Background(), window, nil)
	if err != nil || len(records) != 0 {
		t.Fatalf("empty store: records=%v err=%v", records, err)
	}

	store.failPath(entity.OriginConductorPath)
	if _, _, err := source.Fetch(context.Background(), window, nil); err == nil {
		t.Fatal("unreachable store must surface as a source error")
	}
}

func TestPreBookingSourceReadsDedicatedPath(t *testing.T) {
	store := newMemStore()
	booked := time.Date(2026, 3, 10, 7, 0, 0, 0, time.UTC)
	seedPreBooking(store, "c1", "2026-03-10", "pb1", bson.M{
		"totalFare": 80.0,
		"bookedAt":  booked,
	})
	seedPreBooking(store, "c1", "2026-03-10", "pb2", bson.M{
		"amount": 40.0,
		"status": "cancelled",
	})

	source := NewPreBookingSource(store, nopLogger{}, testMetrics, 4)
	records, warnings, err := source.Fetch(context.Background(), mustWindow(t, "2026-03-09", "2026-03-12"), []Partition{{ConductorID: "c1", Date: "2026-03-10"}})
	if err != nil {
		t.Fatal(err)
	}
	if len(warnings) != 0 {
		t.Fatalf("warnings = %+v", warnings)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	for _, r := range records {
		if r.DocumentType != entity.CategoryPreBooking {
			t.Fatalf("record %s type = %q", r.Ticket.ID, r.DocumentType)
		}
		switch r.Ticket.ID {
		case "pb1":
			if !r.Ticket.Active || !r.Ticket.TotalFare.Equal(decimal.NewFromInt(80)) {
				t.Fatalf("pb1 = %+v", r.Ticket)
			}
		case "pb2":
			if r.Ticket.Active || !r.Ticket.TotalFare.Equal(decimal.NewFromInt(40)) {
				t.Fatalf("pb2 = %+v", r.Ticket)
			}
		}
	}
}

func TestPreTicketSourceDropsIncompleteAndOutOfWindow(t *testing.T) {
	store := newMemStore()
	seedPreTicket(store, "c1", "q1", bson.M{
		"status": "used",
		"data": bson.M{
			"amount":    60.0,
			"quantity":  1,
			"scannedAt": time.Date(2026, 3, 11, 9, 0, 0, 0, time.UTC),
		},
	})
	// no quantity: void transaction, dropped rather than zero-filled
	seedPreTicket(store, "c1", "q2", bson.M{
		"status": "used",
		"data": bson.M{
			"amount":    25.0,
			"scannedAt": time.Date(2026, 3, 11, 10, 0, 0, 0, time.UTC),
		},
	})
	// complete but scanned outside the window
	seedPreTicket(store, "c1", "q3", bson.M{
		"status": "used",
		"data": bson.M{
			"amount":    30.0,
			"quantity":  1,
			"scannedAt": time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC),
		},
	})

	source := NewPreTicketSource(store, nopLogger{}, testMetrics, 4)
	records, warnings, err := source.Fetch(context.Background(), mustWindow(t, "2026-03-09", "2026-03-12"), nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(warnings) != 0 {
		t.Fatalf("warnings = %+v", warnings)
	}
	if len(records) != 1 || records[0].Ticket.ID != "q1" {
		t.Fatalf("records = %+v", records)
	}
	if records[0].Ticket.Date != "2026-03-11" {
		t.Fatalf("pre-ticket date = %q, want scan date", records[0].Ticket.Date)
	}
}
