package repository

import (
	"context"
	"errors"
	"strings"

	"faremetrics-service/internal/domain/entity"
	"faremetrics-service/internal/domain/repository"
	"faremetrics-service/pkg/logger"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoDocumentStore implements DocumentStore over a single collection of
// path-keyed documents. Hierarchy is modeled with a parent field so that
// listing a collection is one indexed query.
type MongoDocumentStore struct {
	collection *mongo.Collection
	logger     logger.Logger
}

// storedDocument is the persisted shape of one hierarchical document.
type storedDocument struct {
	Path   string `bson:"path"`
	Parent string `bson:"parent"`
	DocID  string `bson:"docId"`
	Data   bson.M `bson:"data"`
}

// NewMongoDocumentStore creates a document store backed by the "documents"
// collection of the given database.
func NewMongoDocumentStore(db *mongo.Database, logger logger.Logger) repository.DocumentStore {
	collection := db.Collection("documents")

	// Create unique index on path and a lookup index on parent
	ctx := context.Background()
	pathIndex := mongo.IndexModel{
		Keys:    bson.M{"path": 1},
		Options: options.Index().SetUnique(true),
	}
	collection.Indexes().CreateOne(ctx, pathIndex)

	parentIndex := mongo.IndexModel{
		Keys: bson.M{"parent": 1},
	}
	collection.Indexes().CreateOne(ctx, parentIndex)

	return &MongoDocumentStore{
		collection: collection,
		logger:     logger,
	}
}

// ListCollection enumerates the direct children of a collection path.
func (s *MongoDocumentStore) ListCollection(ctx context.Context, path string) ([]entity.DocumentRef, error) {
	cursor, err := s.collection.Find(ctx, bson.M{"parent": path})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var refs []entity.DocumentRef
	for cursor.Next(ctx) {
		var doc storedDocument
		if err := cursor.Decode(&doc); err != nil {
			s.logger.Warn("Skipping undecodable document ref", "parent", path, "error", err)
			continue
		}
		refs = append(refs, entity.DocumentRef{ID: doc.DocID, Path: doc.Path})
	}
	return refs, cursor.Err()
}

// GetDocument fetches one document by full path.
func (s *MongoDocumentStore) GetDocument(ctx context.Context, path string) (*entity.Document, error) {
	var doc storedDocument
	err := s.collection.FindOne(ctx, bson.M{"path": path}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &entity.Document{ID: doc.DocID, Path: doc.Path, Data: doc.Data}, nil
}

// changeEvent is the subset of a change-stream event needed for filtering.
type changeEvent struct {
	OperationType string `bson:"operationType"`
	FullDocument  struct {
		Path string `bson:"path"`
	} `bson:"fullDocument"`
}

// SubscribeCollection watches the collection through a change stream and
// invokes onChange for every event under the given path. Delete events carry
// no document payload, so they always notify.
func (s *MongoDocumentStore) SubscribeCollection(ctx context.Context, path string, onChange func()) (repository.CancelFunc, error) {
	streamCtx, cancel := context.WithCancel(ctx)

	opts := options.ChangeStream().SetFullDocument(options.UpdateLookup)
	stream, err := s.collection.Watch(streamCtx, mongo.Pipeline{}, opts)
	if err != nil {
		cancel()
		return nil, err
	}

	prefix := path + "/"
	go func() {
		defer stream.Close(context.Background())
		for stream.Next(streamCtx) {
			var event changeEvent
			if err := stream.Decode(&event); err != nil {
				s.logger.Warn("Failed to decode change event", "path", path, "error", err)
				continue
			}
			if event.OperationType == "delete" ||
				event.FullDocument.Path == path ||
				strings.HasPrefix(event.FullDocument.Path, prefix) {
				onChange()
			}
		}
		if err := stream.Err(); err != nil && streamCtx.Err() == nil {
			s.logger.Error("Change stream terminated", "path", path, "error", err)
		}
	}()

	return func() { cancel() }, nil
}
