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

// ConductorTicketSource reads manually issued tickets from
// tickets/{conductor}/{date}/{trip}. Prebookings mirrored inline into this
// path are returned as-is; the classifier decides which copy survives.
type ConductorTicketSource struct {
	store       repository.DocumentStore
	logger      logger.Logger
	metrics     *metrics.Metrics
	parallelism int
}

// tripDocRaw is the optional trip metadata document. Tickets missing their
// own direction or distance inherit the trip's.
type tripDocRaw struct {
	Direction  string   `bson:"direction,omitempty"`
	StartKm    *float64 `bson:"startKm,omitempty"`
	EndKm      *float64 `bson:"endKm,omitempty"`
	DistanceKm *float64 `bson:"distanceKm,omitempty"`
}

// NewConductorTicketSource creates the conductor ticket adapter.
func NewConductorTicketSource(store repository.DocumentStore, logger logger.Logger, metrics *metrics.Metrics, parallelism int) *ConductorTicketSource {
	if parallelism < 1 {
		parallelism = 1
	}
	return &ConductorTicketSource{store: store, logger: logger, metrics: metrics, parallelism: parallelism}
}

// Name identifies this source in warnings and metrics.
func (s *ConductorTicketSource) Name() string { return "conductorTickets" }

// Fetch reads every trip under every resolved partition. A failed partition
// contributes zero records and one warning.
func (s *ConductorTicketSource) Fetch(ctx context.Context, window entity.TimeWindow, partitions []Partition) ([]entity.RawTicket, []entity.Warning, error) {
	if len(partitions) == 0 {
		// No partitions resolved: distinguish an empty store from an
		// unreachable one
		if _, err := s.store.ListCollection(ctx, entity.OriginConductorPath); err != nil {
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

func (s *ConductorTicketSource) fetchPartition(ctx context.Context, p Partition) ([]entity.RawTicket, []entity.Warning) {
	partitionPath := fmt.Sprintf("%s/%s/%s", entity.OriginConductorPath, p.ConductorID, p.Date)
	tripRefs, err := s.store.ListCollection(ctx, partitionPath)
	if err != nil {
		s.metrics.FetchErrors.WithLabelValues(s.Name()).Inc()
		s.logger.Warn("Failed to list trips", "path", partitionPath, "error", err)
		return nil, []entity.Warning{{
			Source:  s.Name(),
			Path:    partitionPath,
			Message: fmt.Sprintf("listing trips failed: %v", err),
		}}
	}

	var records []entity.RawTicket
	var warnings []entity.Warning
	for _, tripRef := range tripRefs {
		tripRecords, err := s.fetchTrip(ctx, p, tripRef)
		if err != nil {
			s.metrics.FetchErrors.WithLabelValues(s.Name()).Inc()
			s.logger.Warn("Failed to fetch trip", "path", tripRef.Path, "error", err)
			warnings = append(warnings, entity.Warning{
				Source:  s.Name(),
				Path:    tripRef.Path,
				Message: fmt.Sprintf("fetching trip failed: %v", err),
			})
			continue
		}
		records = append(records, tripRecords...)
	}
	return records, warnings
}

func (s *ConductorTicketSource) fetchTrip(ctx context.Context, p Partition, tripRef entity.DocumentRef) ([]entity.RawTicket, error) {
	var trip tripDocRaw
	if doc, err := s.store.GetDocument(ctx, tripRef.Path); err == nil {
		if err := doc.Decode(&trip); err != nil {
			s.logger.Debug("Trip metadata undecodable", "path", tripRef.Path, "error", err)
		}
	}

	refs, err := s.store.ListCollection(ctx, tripRef.Path)
	if err != nil {
		return nil, err
	}

	var records []entity.RawTicket
	for _, ref := range refs {
		doc, err := s.store.GetDocument(ctx, ref.Path)
		if err != nil {
			s.logger.Warn("Skipping unreadable ticket", "path", ref.Path, "error", err)
			continue
		}
		var raw entity.ConductorTicketRaw
		if err := doc.Decode(&raw); err != nil {
			s.metrics.RecordsDropped.WithLabelValues(s.Name(), "undecodable").Inc()
			s.logger.Warn("Dropping undecodable ticket", "path", ref.Path, "error", err)
			continue
		}
		ticket := raw.Normalize(p.ConductorID, p.Date, tripRef.ID, ref.ID)
		if ticket.Direction == "" {
			ticket.Direction = trip.Direction
		}
		if ticket.DistanceKm == 0 {
			ticket.DistanceKm = tripDistance(trip)
		}
		records = append(records, entity.RawTicket{
			Origin:       entity.OriginConductorPath,
			SourcePath:   ref.Path,
			DocumentType: raw.TypeTag(),
			Ticket:       ticket,
		})
	}
	return records, nil
}

func tripDistance(trip tripDocRaw) float64 {
	if trip.DistanceKm != nil && *trip.DistanceKm > 0 {
		return *trip.DistanceKm
	}
	if trip.StartKm != nil && trip.EndKm != nil {
		d := *trip.EndKm - *trip.StartKm
		if d < 0 {
			d = -d
		}
		return d
	}
	return 0
}
