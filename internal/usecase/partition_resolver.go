package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"faremetrics-service/internal/domain/entity"
	"faremetrics-service/internal/domain/repository"
	"faremetrics-service/pkg/logger"
	"faremetrics-service/pkg/metrics"
)

// Partition identifies one conductor/date slice of the store.
type Partition struct {
	ConductorID string
	Date        string
}

// PartitionResolver enumerates the date partitions relevant to a window.
// Behind an interface so a store with native range queries can replace the
// full scan without touching the aggregation side.
type PartitionResolver interface {
	Resolve(ctx context.Context, window entity.TimeWindow) ([]Partition, []entity.Warning)
}

// ScanPartitionResolver resolves partitions by walking every conductor and
// every date key under the ticket and prebooking paths. The store has no
// range queries, so this O(conductors x dates) scan is the accepted cost.
type ScanPartitionResolver struct {
	store       repository.DocumentStore
	logger      logger.Logger
	metrics     *metrics.Metrics
	parallelism int
}

// NewScanPartitionResolver creates a scanning resolver.
func NewScanPartitionResolver(store repository.DocumentStore, logger logger.Logger, metrics *metrics.Metrics, parallelism int) *ScanPartitionResolver {
	if parallelism < 1 {
		parallelism = 1
	}
	return &ScanPartitionResolver{
		store:       store,
		logger:      logger,
		metrics:     metrics,
		parallelism: parallelism,
	}
}

// Resolve walks tickets/ and preBookings/ for every conductor and keeps the
// date partitions inside the window. A failure for one conductor reduces the
// result set and emits a warning; it never aborts the scan.
func (r *ScanPartitionResolver) Resolve(ctx context.Context, window entity.TimeWindow) ([]Partition, []entity.Warning) {
	conductorIDs, warnings := r.conductorIDs(ctx)

	type result struct {
		partitions []Partition
		warnings   []entity.Warning
	}

	results := make([]result, len(conductorIDs))
	sem := make(chan struct{}, r.parallelism)
	var wg sync.WaitGroup
	for i, cid := range conductorIDs {
		wg.Add(1)
		go func(i int, cid string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			p, w := r.resolveConductor(ctx, cid, window)
			results[i] = result{partitions: p, warnings: w}
		}(i, cid)
	}
	wg.Wait()

	var partitions []Partition
	for _, res := range results {
		partitions = append(partitions, res.partitions...)
		warnings = append(warnings, res.warnings...)
	}
	sort.Slice(partitions, func(i, j int) bool {
		if partitions[i].ConductorID != partitions[j].ConductorID {
			return partitions[i].ConductorID < partitions[j].ConductorID
		}
		return partitions[i].Date < partitions[j].Date
	})
	return partitions, warnings
}

// conductorIDs unions the conductor segments under the ticket and dedicated
// prebooking paths, so bookings for conductors without manual tickets still
// resolve.
func (r *ScanPartitionResolver) conductorIDs(ctx context.Context) ([]string, []entity.Warning) {
	var warnings []entity.Warning
	seen := map[string]bool{}
	var ids []string
	for _, root := range []string{entity.OriginConductorPath, entity.OriginPreBookingPath} {
		refs, err := r.store.ListCollection(ctx, root)
		if err != nil {
			r.logger.Warn("Failed to list conductors", "root", root, "error", err)
			warnings = append(warnings, entity.Warning{
				Source:  "resolver",
				Path:    root,
				Message: fmt.Sprintf("listing conductors failed: %v", err),
			})
			continue
		}
		for _, ref := range refs {
			if !seen[ref.ID] {
				seen[ref.ID] = true
				ids = append(ids, ref.ID)
			}
		}
	}
	sort.Strings(ids)
	return ids, warnings
}

func (r *ScanPartitionResolver) resolveConductor(ctx context.Context, conductorID string, window entity.TimeWindow) ([]Partition, []entity.Warning) {
	var warnings []entity.Warning
	dates := map[string]bool{}

	for _, root := range []string{entity.OriginConductorPath, entity.OriginPreBookingPath} {
		path := root + "/" + conductorID
		refs, err := r.store.ListCollection(ctx, path)
		if err != nil {
			warnings = append(warnings, entity.Warning{
				Source:  "resolver",
				Path:    path,
				Message: fmt.Sprintf("listing partitions failed: %v", err),
			})
			continue
		}
		for _, ref := range refs {
			r.metrics.PartitionsScanned.Inc()
			if !r.inWindow(ctx, ref, window) {
				continue
			}
			dates[ref.ID] = true
		}
	}

	partitions := make([]Partition, 0, len(dates))
	for date := range dates {
		partitions = append(partitions, Partition{ConductorID: conductorID, Date: date})
	}
	return partitions, warnings
}

// inWindow tests a partition's effective date: an explicit createdAt on the
// partition document wins, the partition key is the fallback.
func (r *ScanPartitionResolver) inWindow(ctx context.Context, ref entity.DocumentRef, window entity.TimeWindow) bool {
	doc, err := r.store.GetDocument(ctx, ref.Path)
	if err == nil {
		if createdAt, ok := doc.CreatedAt(); ok {
			return window.Contains(createdAt)
		}
	} else if !errors.Is(err, repository.ErrNotFound) {
		r.logger.Debug("Partition document unreadable, using key date", "path", ref.Path, "error", err)
	}
	return window.ContainsDate(ref.ID)
}
