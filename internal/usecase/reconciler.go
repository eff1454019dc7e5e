package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"faremetrics-service/internal/domain/entity"
	"faremetrics-service/internal/domain/repository"
	"faremetrics-service/pkg/logger"
	"faremetrics-service/pkg/metrics"

	"github.com/google/uuid"
)

// Reconciliation pass states. Partition- and source-level failures never
// reach StateFailed; they reduce the input set and surface as warnings.
type State string

const (
	StateIdle            State = "idle"
	StateResolvingWindow State = "resolvingWindow"
	StateFetching        State = "fetching"
	StateClassifying     State = "classifying"
	StateAggregating     State = "aggregating"
	StateDone            State = "done"
	StateFailed          State = "failed"
)

// Query is one reconciliation request.
type Query struct {
	Window         entity.TimeWindow
	RouteFilter    string
	CategoryFilter string
}

func (q Query) key() string {
	return fmt.Sprintf("%s|%s|%s|%s",
		q.Window.Start.Format(entity.DateLayout),
		q.Window.End.Format(entity.DateLayout),
		q.RouteFilter,
		q.CategoryFilter)
}

// Reconciler is the top-level entry point: it wires the partition resolver,
// the source adapters, the classifier, and the aggregation side together,
// and owns the canonical ticket sequence for the duration of one pass. The
// subscription registry is its only cross-call state.
type Reconciler struct {
	resolver      PartitionResolver
	sources       []TicketSource
	conductorRepo repository.ConductorRepository
	store         repository.DocumentStore
	aggregator    *Aggregator
	demand        *DemandAnalyzer
	logger        logger.Logger
	metrics       *metrics.Metrics

	mu   sync.Mutex
	subs map[string]*subscription
}

// NewReconciler creates the orchestrator.
func NewReconciler(
	resolver PartitionResolver,
	sources []TicketSource,
	conductorRepo repository.ConductorRepository,
	store repository.DocumentStore,
	aggregator *Aggregator,
	demand *DemandAnalyzer,
	logger logger.Logger,
	metrics *metrics.Metrics,
) *Reconciler {
	return &Reconciler{
		resolver:      resolver,
		sources:       sources,
		conductorRepo: conductorRepo,
		store:         store,
		aggregator:    aggregator,
		demand:        demand,
		logger:        logger,
		metrics:       metrics,
		subs:          make(map[string]*subscription),
	}
}

// GetMetrics runs one full reconciliation pass: resolve the window, fetch
// all sources in parallel, classify, aggregate. The warnings list lets the
// caller tell partial failure from zero activity. Callers needing bounded
// latency impose their own deadline through ctx.
func (r *Reconciler) GetMetrics(ctx context.Context, q Query) (*entity.MetricsSnapshot, []entity.Warning, error) {
	start := time.Now()
	state := StateResolvingWindow
	r.logger.Debug("Reconciliation started", "state", string(state), "query", q.key())

	if err := r.validate(q); err != nil {
		r.logger.Warn("Reconciliation failed", "state", string(StateFailed), "error", err)
		return nil, nil, err
	}

	partitions, warnings := r.resolver.Resolve(ctx, q.Window)

	state = StateFetching
	r.logger.Debug("Reconciliation fetching", "state", string(state), "partitions", len(partitions))
	raws, fetchWarnings, err := r.fetchAll(ctx, q.Window, partitions)
	warnings = append(warnings, fetchWarnings...)
	if err != nil {
		r.logger.Error("Reconciliation failed", "state", string(StateFailed), "error", err)
		return nil, warnings, err
	}

	state = StateClassifying
	r.logger.Debug("Reconciliation classifying", "state", string(state), "rawRecords", len(raws))
	tickets := filterTickets(Classify(raws), q)

	conductors, err := r.conductorRepo.FindAll(ctx)
	if err != nil {
		r.logger.Warn("Conductor reference data unavailable", "error", err)
		warnings = append(warnings, entity.Warning{
			Source:  "conductors",
			Message: fmt.Sprintf("reference data unavailable: %v", err),
		})
		conductors = nil
	}

	state = StateAggregating
	r.logger.Debug("Reconciliation aggregating", "state", string(state), "tickets", len(tickets))
	snapshot := r.aggregator.Aggregate(q.Window, tickets, conductors)
	snapshot.DemandByHour = r.demand.HourlyDemand(tickets)
	snapshot.DemandByWeekday = r.demand.WeekdayDemand(tickets)

	r.metrics.TicketsProcessed.Add(float64(len(tickets)))
	r.metrics.ReconciliationTime.Observe(time.Since(start).Seconds())
	r.logger.Info("Reconciliation done",
		"state", string(StateDone),
		"tickets", len(tickets),
		"warnings", len(warnings),
		"elapsed", time.Since(start))
	return &snapshot, warnings, nil
}

// GetGrowth aggregates the query window and the immediately preceding window
// of equal length, and diffs them.
func (r *Reconciler) GetGrowth(ctx context.Context, q Query) (*entity.GrowthReport, []entity.Warning, error) {
	current, warnings, err := r.GetMetrics(ctx, q)
	if err != nil {
		return nil, warnings, err
	}

	prevQuery := q
	prevQuery.Window = q.Window.Previous()
	previous, prevWarnings, err := r.GetMetrics(ctx, prevQuery)
	warnings = append(warnings, prevWarnings...)
	if err != nil {
		return nil, warnings, err
	}

	report := BuildGrowthReport(*current, *previous)
	return &report, warnings, nil
}

func (r *Reconciler) validate(q Query) error {
	if q.Window.Start.IsZero() || q.Window.End.IsZero() {
		return fmt.Errorf("%w: missing bounds", ErrInvalidWindow)
	}
	if q.Window.End.Before(q.Window.Start) {
		return fmt.Errorf("%w: end before start", ErrInvalidWindow)
	}
	switch q.CategoryFilter {
	case "", entity.CategoryConductor, entity.CategoryPreBooking, entity.CategoryPreTicket:
		return nil
	}
	return fmt.Errorf("%w: %q", ErrUnknownCategory, q.CategoryFilter)
}

// fetchAll fans out across the source adapters and blocks on the full
// fan-in: there is no streaming aggregation. One failed source only reduces
// the input; all sources failing is fatal.
func (r *Reconciler) fetchAll(ctx context.Context, window entity.TimeWindow, partitions []Partition) ([]entity.RawTicket, []entity.Warning, error) {
	type result struct {
		records  []entity.RawTicket
		warnings []entity.Warning
		err      error
	}

	results := make([]result, len(r.sources))
	var wg sync.WaitGroup
	for i, source := range r.sources {
		wg.Add(1)
		go func(i int, source TicketSource) {
			defer wg.Done()
			records, warnings, err := source.Fetch(ctx, window, partitions)
			results[i] = result{records: records, warnings: warnings, err: err}
		}(i, source)
	}
	wg.Wait()

	var raws []entity.RawTicket
	var warnings []entity.Warning
	failed := 0
	for i, res := range results {
		warnings = append(warnings, res.warnings...)
		if res.err != nil {
			failed++
			warnings = append(warnings, entity.Warning{
				Source:  r.sources[i].Name(),
				Message: res.err.Error(),
			})
			continue
		}
		raws = append(raws, res.records...)
	}
	if len(r.sources) > 0 && failed == len(r.sources) {
		return nil, warnings, ErrAllSourcesFailed
	}
	return raws, warnings, nil
}

func filterTickets(tickets []entity.Ticket, q Query) []entity.Ticket {
	if q.RouteFilter == "" && q.CategoryFilter == "" {
		return tickets
	}
	out := make([]entity.Ticket, 0, len(tickets))
	for _, t := range tickets {
		if q.CategoryFilter != "" && t.Category != q.CategoryFilter {
			continue
		}
		if q.RouteFilter != "" {
			direction := t.Direction
			if direction == "" {
				direction = UnknownDirection
			}
			if direction != q.RouteFilter {
				continue
			}
		}
		out = append(out, t)
	}
	return out
}

// subscription is one live listener set for a logical query.
type subscription struct {
	id      string
	notify  chan struct{}
	done    chan struct{}
	cancels []repository.CancelFunc
	once    sync.Once
}

func (s *subscription) teardown() {
	s.once.Do(func() {
		close(s.done)
		for _, cancel := range s.cancels {
			cancel()
		}
	})
}

// SubscribeMetrics registers store listeners for the query and invokes the
// callback with a fresh snapshot now and after every relevant store change.
// Every recompute is full; no incremental state is carried over. A new
// subscription for the same logical query first tears down the previous one
// so listeners never leak or double-fire. The caller must retain and invoke
// the returned cancel handle.
func (r *Reconciler) SubscribeMetrics(ctx context.Context, q Query, callback func(*entity.MetricsSnapshot, []entity.Warning)) (repository.CancelFunc, error) {
	if err := r.validate(q); err != nil {
		return nil, err
	}

	sub := &subscription{
		id:     uuid.NewString(),
		notify: make(chan struct{}, 1),
		done:   make(chan struct{}),
	}

	onChange := func() {
		select {
		case sub.notify <- struct{}{}:
		default: // a recompute is already pending, coalesce
		}
	}

	roots := []string{entity.OriginConductorPath, entity.OriginPreBookingPath, entity.OriginPreTicketPath}
	for _, root := range roots {
		cancel, err := r.store.SubscribeCollection(ctx, root, onChange)
		if err != nil {
			for _, c := range sub.cancels {
				c()
			}
			return nil, fmt.Errorf("subscribing to %s: %w", root, err)
		}
		sub.cancels = append(sub.cancels, cancel)
	}

	key := q.key()
	r.mu.Lock()
	if prev, ok := r.subs[key]; ok {
		r.logger.Info("Replacing existing subscription", "query", key, "previousId", prev.id)
		prev.teardown()
		r.metrics.ActiveSubscriptions.Dec()
	}
	r.subs[key] = sub
	r.mu.Unlock()
	r.metrics.ActiveSubscriptions.Inc()

	go r.runSubscription(ctx, q, sub, callback)

	return func() { r.unregister(key, sub) }, nil
}

// unregister removes a subscription from the registry if it still owns its
// query slot, then tears it down. Safe to call more than once and after
// replacement.
func (r *Reconciler) unregister(key string, sub *subscription) {
	r.mu.Lock()
	if current, ok := r.subs[key]; ok && current.id == sub.id {
		delete(r.subs, key)
		r.metrics.ActiveSubscriptions.Dec()
	}
	r.mu.Unlock()
	sub.teardown()
}

func (r *Reconciler) runSubscription(ctx context.Context, q Query, sub *subscription, callback func(*entity.MetricsSnapshot, []entity.Warning)) {
	recompute := func() {
		snapshot, warnings, err := r.GetMetrics(ctx, q)
		if err != nil {
			r.logger.Error("Subscription recompute failed", "query", q.key(), "error", err)
			return
		}
		callback(snapshot, warnings)
	}

	recompute()
	for {
		select {
		case <-sub.done:
			return
		case <-ctx.Done():
			// caller abandoned the subscription without its cancel handle
			r.unregister(q.key(), sub)
			return
		case <-sub.notify:
			recompute()
		}
	}
}

// Close tears down every live subscription.
func (r *Reconciler) Close() {
	r.mu.Lock()
	subs := make([]*subscription, 0, len(r.subs))
	for key, sub := range r.subs {
		subs = append(subs, sub)
		delete(r.subs, key)
	}
	r.mu.Unlock()
	for _, sub := range subs {
		sub.teardown()
		r.metrics.ActiveSubscriptions.Dec()
	}
}
