package repository

import (
	"context"
	"errors"

	"faremetrics-service/internal/domain/entity"
)

// ErrNotFound is returned when a document does not exist at the given path.
var ErrNotFound = errors.New("document not found")

// CancelFunc tears down a subscription. Safe to call more than once.
type CancelFunc func()

// DocumentStore is the abstract document-store capability the engine reads
// tickets from. Paths are slash-separated hierarchies; the store exposes no
// native range queries, so date filtering happens client-side.
type DocumentStore interface {
	// ListCollection enumerates the direct children of a collection path.
	ListCollection(ctx context.Context, path string) ([]entity.DocumentRef, error)
	// GetDocument fetches one document by full path. Returns ErrNotFound
	// when it does not exist.
	GetDocument(ctx context.Context, path string) (*entity.Document, error)
	// SubscribeCollection invokes onChange whenever a document under path
	// (at any depth) is created, updated, or removed.
	SubscribeCollection(ctx context.Context, path string, onChange func()) (CancelFunc, error)
}
