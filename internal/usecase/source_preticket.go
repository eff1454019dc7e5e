package usecase

import (
	"context"
	"fmt"
	"sync"

	"faremetrics-service/internal/domain/entity"
	"faremetrics-service/internal/domain/repository"
	"faremetrics-service/pkg/logger"
	"faremetrics-service/pkg/metrics"
)

// PreTicketSource reads QR tickets from preTickets/{conductor}. The path is
// not date-partitioned, so window filtering happens on each record's scan
// timestamp. Records missing amount or quantity are void tickets and are
// dropped outright rather than zero-filled.
type PreTicketSource struct {
	store       repository.DocumentStore
	logger      logger.Logger
	metrics     *metrics.Metrics
	parallelism int
}

// NewPreTicketSource creates the pre-ticket adapter.
func NewPreTicketSource(store repository.DocumentStore, logger logger.Logger, metrics *metrics.Metrics, parallelism int) *PreTicketSource {
	if parallelism < 1 {
		parallelism = 1
	}
	return &PreTicketSource{store: store, logger: logger, metrics: metrics, parallelism: parallelism}
}

// Name identifies this source in warnings and metrics.
func (s *PreTicketSource) Name() string { return "preTickets" }

// Fetch enumerates every conductor under the preTickets path and keeps the
// records scanned inside the window. Resolved partitions are ignored: this
// path has no date level.
func (s *PreTicketSource) Fetch(ctx context.Context, window entity.TimeWindow, partitions []Partition) ([]entity.RawTicket, []entity.Warning, error) {
	conductorRefs, err := s.store.ListCollection(ctx, entity.OriginPreTicketPath)
	if err != nil {
		s.metrics.FetchErrors.WithLabelValues(s.Name()).Inc()
		return nil, nil, fmt.Errorf("source %s: listing conductors: %w", s.Name(), err)
	}

	type result struct {
		records  []entity.RawTicket
		warnings []entity.Warning
	}

	results := make([]result, len(conductorRefs))
	sem := make(chan struct{}, s.parallelism)
	var wg sync.WaitGroup
	for i, ref := range conductorRefs {
		wg.Add(1)
		go func(i int, ref entity.DocumentRef) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			records, warnings := s.fetchConductor(ctx, ref, window)
			results[i] = result{records: records, warnings: warnings}
		}(i, ref)
	}
	wg.Wait()

	var records []entity.RawTicket
	var warnings []entity.Warning
	for _, res := range results {
		records = append(records, res.records...)
		warnings = append(warnings, res.warnings...)
	}
	return records, warnings, nil
}

func (s *PreTicketSource) fetchConductor(ctx context.Context, conductorRef entity.DocumentRef, window entity.TimeWindow) ([]entity.RawTicket, []entity.Warning) {
	refs, err := s.store.ListCollection(ctx, conductorRef.Path)
	if err != nil {
		s.metrics.FetchErrors.WithLabelValues(s.Name()).Inc()
		s.logger.Warn("Failed to list pre-tickets", "path", conductorRef.Path, "error", err)
		return nil, []entity.Warning{{
			Source:  s.Name(),
			Path:    conductorRef.Path,
			Message: fmt.Sprintf("listing pre-tickets failed: %v", err),
		}}
	}

	var records []entity.RawTicket
	for _, ref := range refs {
		doc, err := s.store.GetDocument(ctx, ref.Path)
		if err != nil {
			s.logger.Warn("Skipping unreadable pre-ticket", "path", ref.Path, "error", err)
			continue
		}
		var raw entity.PreTicketRaw
		if err := doc.Decode(&raw); err != nil {
			s.metrics.RecordsDropped.WithLabelValues(s.Name(), "undecodable").Inc()
			s.logger.Warn("Dropping undecodable pre-ticket", "path", ref.Path, "error", err)
			continue
		}
		ticket, ok := raw.Normalize(conductorRef.ID, ref.ID)
		if !ok {
			s.metrics.RecordsDropped.WithLabelValues(s.Name(), "incomplete").Inc()
			s.logger.Info("Dropping incomplete pre-ticket", "path", ref.Path)
			continue
		}
		if !ticket.HasTimestamp() || !window.Contains(ticket.Timestamp) {
			continue
		}
		records = append(records, entity.RawTicket{
			Origin:       entity.OriginPreTicketPath,
			SourcePath:   ref.Path,
			DocumentType: entity.CategoryPreTicket,
			Ticket:       ticket,
		})
	}
	return records, nil
}
