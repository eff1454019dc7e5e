package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"faremetrics-service/internal/domain/entity"
	"faremetrics-service/internal/domain/repository"
	"faremetrics-service/pkg/logger"
	"faremetrics-service/pkg/metrics"

	"go.mongodb.org/mongo-driver/bson"
)

// Shared across the package's tests: promauto registers against the default
// registry, so the metric set must be created exactly once per process.
var testMetrics = metrics.NewMetrics("faremetrics_test")

// nopLogger keeps test output quiet.
type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{})        {}
func (nopLogger) Info(string, ...interface{})         {}
func (nopLogger) Warn(string, ...interface{})         {}
func (nopLogger) Error(string, ...interface{})        {}
func (nopLogger) Fatal(string, ...interface{})        {}
func (l nopLogger) With(...interface{}) logger.Logger { return l }

// memStore is an in-memory DocumentStore used by pipeline tests. It mirrors
// the production store's model: one document per path, parent derived from
// the path, explicit failure injection per path.
type memStore struct {
	mu        sync.Mutex
	docs      map[string]entity.Document
	failing   map[string]bool
	listeners map[int]func()
	nextID    int
}

func newMemStore() *memStore {
	return &memStore{
		docs:      make(map[string]entity.Document),
		failing:   make(map[string]bool),
		listeners: make(map[int]func()),
	}
}

func (m *memStore) put(path string, data bson.M) {
	m.mu.Lock()
	defer m.mu.Unlock()
	segments := strings.Split(path, "/")
	m.docs[path] = entity.Document{
		ID:   segments[len(segments)-1],
		Path: path,
		Data: data,
	}
}

func (m *memStore) failPath(path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failing[path] = true
}

func (m *memStore) ListCollection(_ context.Context, path string) ([]entity.DocumentRef, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failing[path] {
		return nil, fmt.Errorf("store unavailable at %s", path)
	}
	var refs []entity.DocumentRef
	for p, doc := range m.docs {
		if parentOf(p) == path {
			refs = append(refs, entity.DocumentRef{ID: doc.ID, Path: p})
		}
	}
	sort.Slice(refs, func(i, j int) bool { return refs[i].Path < refs[j].Path })
	return refs, nil
}

func (m *memStore) GetDocument(_ context.Context, path string) (*entity.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failing[path] {
		return nil, fmt.Errorf("store unavailable at %s", path)
	}
	doc, ok := m.docs[path]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &doc, nil
}

func (m *memStore) SubscribeCollection(_ context.Context, path string, onChange func()) (repository.CancelFunc, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failing[path] {
		return nil, fmt.Errorf("store unavailable at %s", path)
	}
	id := m.nextID
	m.nextID++
	m.listeners[id] = onChange
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.listeners, id)
	}, nil
}

// fire simulates a store change notification to every live listener.
func (m *memStore) fire() {
	m.mu.Lock()
	listeners := make([]func(), 0, len(m.listeners))
	for _, l := range m.listeners {
		listeners = append(listeners, l)
	}
	m.mu.Unlock()
	for _, l := range listeners {
		l()
	}
}

func (m *memStore) listenerCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.listeners)
}

func parentOf(path string) string {
	idx := strings.LastIndex(path, "/")
	if idx < 0 {
		return ""
	}
	return path[:idx]
}

// memConductors is an in-memory ConductorRepository.
type memConductors struct {
	conductors []entity.Conductor
	err        error
}

func (m *memConductors) FindAll(context.Context) ([]entity.Conductor, error) {
	return m.conductors, m.err
}

func (m *memConductors) FindByID(_ context.Context, id string) (*entity.Conductor, error) {
	for _, c := range m.conductors {
		if c.ID == id {
			return &c, nil
		}
	}
	return nil, repository.ErrNotFound
}

// Seed helpers maintain the marker documents each hierarchy level needs.

func seedConductorTicket(store *memStore, cid, date, trip, id string, data bson.M) {
	store.put(entity.OriginConductorPath+"/"+cid, bson.M{})
	store.put(fmt.Sprintf("%s/%s/%s", entity.OriginConductorPath, cid, date), bson.M{})
	tripPath := fmt.Sprintf("%s/%s/%s/%s", entity.OriginConductorPath, cid, date, trip)
	if _, err := store.GetDocument(context.Background(), tripPath); err != nil {
		store.put(tripPath, bson.M{})
	}
	store.put(tripPath+"/"+id, data)
}

func seedTripDoc(store *memStore, cid, date, trip string, data bson.M) {
	store.put(entity.OriginConductorPath+"/"+cid, bson.M{})
	store.put(fmt.Sprintf("%s/%s/%s", entity.OriginConductorPath, cid, date), bson.M{})
	store.put(fmt.Sprintf("%s/%s/%s/%s", entity.OriginConductorPath, cid, date, trip), data)
}

func seedPreBooking(store *memStore, cid, date, id string, data bson.M) {
	store.put(entity.OriginPreBookingPath+"/"+cid, bson.M{})
	store.put(fmt.Sprintf("%s/%s/%s", entity.OriginPreBookingPath, cid, date), bson.M{})
	store.put(fmt.Sprintf("%s/%s/%s/%s", entity.OriginPreBookingPath, cid, date, id), data)
}

func seedPreTicket(store *memStore, cid, id string, data bson.M) {
	store.put(entity.OriginPreTicketPath+"/"+cid, bson.M{})
	store.put(entity.OriginPreTicketPath+"/"+cid+"/"+id, data)
}

func newTestReconciler(store *memStore, conductors *memConductors) *Reconciler {
	log := nopLogger{}
	resolver := NewScanPartitionResolver(store, log, testMetrics, 4)
	sources := []TicketSource{
		NewConductorTicketSource(store, log, testMetrics, 4),
		NewPreBookingSource(store, log, testMetrics, 4),
		NewPreTicketSource(store, log, testMetrics, 4),
	}
	if conductors == nil {
		conductors = &memConductors{}
	}
	return NewReconciler(
		resolver,
		sources,
		conductors,
		store,
		NewAggregator(log),
		NewDemandAnalyzer(time.UTC, log),
		log,
		testMetrics,
	)
}
