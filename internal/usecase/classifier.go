package usecase

import (
	"strings"

	"faremetrics-service/internal/domain/entity"
)

// Classify assigns each raw record exactly one category and removes records
// that would otherwise be counted twice across storage paths. The result
// partitions the input: every surviving record has exactly one category.
//
// Classification precedence, first match wins:
//  1. explicit documentType/ticketType tag on the record
//  2. the storage path the record came from
//  3. default: conductor
//
// Dedup rule: a prebooking that exists both inline in the conductor path and
// in the dedicated prebooking path keeps only the dedicated-path copy. The
// whole function is idempotent: re-classifying its own output is a no-op.
func Classify(raws []entity.RawTicket) []entity.Ticket {
	// Identity of every prebooking held by the dedicated path
	dedicated := make(map[identity]bool)
	for _, r := range raws {
		if r.Origin == entity.OriginPreBookingPath && categoryOf(r) == entity.CategoryPreBooking {
			dedicated[identityOf(r.Ticket)] = true
		}
	}

	seen := make(map[recordKey]bool)
	tickets := make([]entity.Ticket, 0, len(raws))
	for _, r := range raws {
		category := categoryOf(r)
		id := identityOf(r.Ticket)

		// Inline mirror of a dedicated-path prebooking: drop it
		if category == entity.CategoryPreBooking &&
			r.Origin == entity.OriginConductorPath &&
			dedicated[id] {
			continue
		}
		// The same record read twice keeps the first copy. Ids are only
		// unique within one trip, so the trip is part of the key: the same
		// id on two trips of one conductor/date is two tickets.
		key := recordKey{identity: id, tripID: r.Ticket.TripID}
		if seen[key] {
			continue
		}
		seen[key] = true

		t := r.Ticket
		t.Category = category
		tickets = append(tickets, t)
	}
	return tickets
}

// identity is the cross-path prebooking identity: the inline mirror and the
// dedicated-path copy of one booking share it while living on different trips.
type identity struct {
	conductorID string
	date        string
	id          string
}

// recordKey narrows identity to one trip for exact-duplicate detection.
type recordKey struct {
	identity
	tripID string
}

func identityOf(t entity.Ticket) identity {
	return identity{conductorID: t.ConductorID, date: t.Date, id: t.ID}
}

func categoryOf(r entity.RawTicket) string {
	switch normalizeTag(r.DocumentType) {
	case entity.CategoryPreBooking:
		return entity.CategoryPreBooking
	case entity.CategoryPreTicket:
		return entity.CategoryPreTicket
	case entity.CategoryConductor:
		return entity.CategoryConductor
	}
	switch r.Origin {
	case entity.OriginPreBookingPath:
		return entity.CategoryPreBooking
	case entity.OriginPreTicketPath:
		return entity.CategoryPreTicket
	}
	return entity.CategoryConductor
}

// normalizeTag maps the type-tag spellings observed in source data onto the
// three canonical categories. Unknown tags return "".
func normalizeTag(tag string) string {
	switch strings.ToLower(strings.ReplaceAll(strings.TrimSpace(tag), "-", "")) {
	case "prebooking", "prebookings", "booking":
		return entity.CategoryPreBooking
	case "preticket", "pretickets", "qr":
		return entity.CategoryPreTicket
	case "conductor", "manual", "ticket":
		return entity.CategoryConductor
	}
	return ""
}
