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

// PreBookingSource reads advance bookings. The same booking can also be
// mirrored inline into the conductor-tickets path once scanned; this adapter
// reads only the dedicated preBookings/{conductor}/{date} path, which is the
// canonical copy. The classifier drops the inline mirror.
type PreBookingSource struct {
	store       repository.DocumentStore
	logger      logger.Logger
	metrics     *metrics.Metrics
	parallelism int
}

// NewPreBookingSource creates the prebooking adapter.
func NewPreBookingSource(store repository.DocumentStore, logger logger.Logger, metrics *metrics.Metrics, parallelism int) *PreBookingSource {
	if parallelism < 1 {
		parallelism = 1
	}
	return &PreBookingSource{store: store, logger: logger, metrics: metrics, parallelism: parallelism}
}

// Name identifies this source in warnings and metrics.
func (s *PreBookingSource) Name() string { return "preBookings" }

// Fetch reads every resolved partition under the dedicated prebooking path.
func (s *PreBookingSource) Fetch(ctx context.Context, window entity.TimeWindow, partitions []Partition) ([]entity.RawTicket, []entity.Warning, error) {
	if len(partitions) == 0 {
		// No partitions resolved: distinguish an empty store from an
		// unreachable one
		if _, err := s.store.ListCollection(ctx, entity.OriginPreBookingPath); err != nil {
			s.metrics.FetchErrors.WithLabelValues(s.Name()).Inc()
			return nil, nil, fmt.Errorf("source %s: store unavailable: %w", s.Name(), err)
		}
		return nil, nil, nil
	}

	type result struct {
		records  []entity.RawTicket
		warnings []entity.Warning
	}

	results := make([]result, len(partitions))
	sem := make(chan struct{}, s.parallelism)
	var wg sync.WaitGroup
	for i, p := range partitions {
		wg.Add(1)
		go func(i int, p Partition) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			records, warnings := s.fetchPartition(ctx, p)
			results[i] = result{records: records, warnings: warnings}
		}(i, p)
	}
	wg.Wait()

	var records []entity.RawTicket
	var warnings []entity.Warning
	for _, res := range results {
		records = append(records, res.records...)
		warnings = append(warnings, res.warnings...)
	}
	if len(partitions) > 0 && len(warnings) == len(partitions) && len(records) == 0 {
		return nil, warnings, fmt.Errorf("source %s: every partition failed", s.Name())
	}
	return records, warnings, nil
}

func (s *PreBookingSource) fetchPartition(ctx context.Context, p Partition) ([]entity.RawTicket, []entity.Warning) {
	path := fmt.Sprintf("%s/%s/%s", entity.OriginPreBookingPath, p.ConductorID, p.Date)
	refs, err := s.store.ListCollection(ctx, path)
	if err != nil {
		s.metrics.FetchErrors.WithLabelValues(s.Name()).Inc()
		s.logger.Warn("Failed to list prebookings", "path", path, "error", err)
		return nil, []entity.Warning{{
			Source:  s.Name(),
			Path:    path,
			Message: fmt.Sprintf("listing prebookings failed: %v", err),
		}}
	}

	var records []entity.RawTicket
	for _, ref := range refs {
		doc, err := s.store.GetDocument(ctx, ref.Path)
		if err != nil {
			s.logger.Warn("Skipping unreadable prebooking", "path", ref.Path, "error", err)
			continue
		}
		var raw entity.PreBookingRaw
		if err := doc.Decode(&raw); err != nil {
			s.metrics.RecordsDropped.WithLabelValues(s.Name(), "undecodable").Inc()
			s.logger.Warn("Dropping undecodable prebooking", "path", ref.Path, "error", err)
			continue
		}
		records = append(records, entity.RawTicket{
			Origin:       entity.OriginPreBookingPath,
			SourcePath:   ref.Path,
			DocumentType: entity.CategoryPreBooking,
			Ticket:       raw.Normalize(p.ConductorID, p.Date, ref.ID),
		})
	}
	return records, nil
}
