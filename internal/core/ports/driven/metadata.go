package driven

import (
	"context"

	"github.com/pablofarias19/sentency-sub002/internal/core/domain"
)

// StoredChunk pairs a metadata record with the composite vector the
// chunk was embedded to. The store persists both so the vector index
// can be rebuilt wholesale without re-embedding the corpus.
type StoredChunk struct {
	Record domain.MetadataRecord
	Vector []float32
}

// MetadataStore persists one row per chunk, keyed by chunk ID.
//
// Insertion is idempotent per chunk ID (upsert semantics). All fields
// are write-once at ingestion, with one exception: the cached doctrinal
// distance, mutated by UpdateDoctrinalDistance.
type MetadataStore interface {
	// ReplaceDocument atomically replaces a document's prior chunk rows
	// with the given chunks. Re-ingesting a document supersedes its
	// chunks, it never mutates them in place.
	ReplaceDocument(ctx context.Context, documentID string, chunks []StoredChunk) error

	// Get retrieves one record. Returns domain.ErrNotFound when the
	// chunk does not exist.
	Get(ctx context.Context, chunkID string) (*domain.MetadataRecord, error)

	// FetchMany retrieves the records for the given IDs. No order is
	// guaranteed; the caller re-orders by the ID list it supplied.
	// Missing IDs are silently absent from the result.
	FetchMany(ctx context.Context, chunkIDs []string) ([]domain.MetadataRecord, error)

	// UpdateDoctrinalDistance refreshes the cached distance for one
	// chunk. This is the only supported partial mutation.
	UpdateDoctrinalDistance(ctx context.Context, chunkID string, value float64) error

	// AllVectors returns every stored chunk ID with its composite
	// vector, ordered by chunk ID, for wholesale index rebuilds.
	AllVectors(ctx context.Context) (ids []string, vectors [][]float32, err error)

	// IterateBatches streams all stored chunks in fixed-size batches,
	// in chunk-ID order. Used by baseline distance recomputation so
	// memory stays bounded and partial progress survives a crash.
	IterateBatches(ctx context.Context, batchSize int, fn func([]StoredChunk) error) error

	// Count returns the number of stored chunks.
	Count(ctx context.Context) (int, error)

	// Close releases resources.
	Close() error
}
