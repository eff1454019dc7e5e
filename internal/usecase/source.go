package usecase

import (
	"context"

	"faremetrics-service/internal/domain/entity"
)

// TicketSource fetches and normalizes raw records from one storage shape.
// Partition-level failures are isolated into warnings; the returned error is
// reserved for total source failure (for example, the store being
// unreachable before any partition was read).
type TicketSource interface {
	Name() string
	Fetch(ctx context.Context, window entity.TimeWindow, partitions []Partition) ([]entity.RawTicket, []entity.Warning, error)
}
