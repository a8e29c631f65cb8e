package driven

import "context"

// VectorHit is one similarity search result.
type VectorHit struct {
	// Ordinal is the positional index of the vector within the index.
	// The owning engine maps ordinals back to chunk IDs through the
	// sidecar ID list (ids[i] corresponds to the i-th vector added).
	Ordinal int

	// Score is the inner product against the query vector (cosine
	// similarity on unit-normalised vectors). Higher is more similar.
	Score float64
}

// VectorIndex is a batch-built nearest-neighbour structure over
// unit-normalised composite vectors.
//
// There is no incremental mutation: adding vectors after build requires
// a full rebuild from the complete vector set. Ingestion is batch
// oriented, so is the index.
type VectorIndex interface {
	// Build replaces the index content with the given vectors, all of
	// one dimension, in insertion order.
	Build(ctx context.Context, vectors [][]float32) error

	// Search returns at most k hits ordered by descending score, ties
	// broken by ascending ordinal for determinism. Read-only and safe
	// for concurrent callers once built.
	Search(ctx context.Context, query []float32, k int) ([]VectorHit, error)

	// Len returns the number of indexed vectors.
	Len() int

	// Dimensions returns the vector dimension, 0 before first build.
	Dimensions() int
}

// IndexArtifact couples a vector index with the provenance needed to
// interpret its results: the ordinal-to-chunk-ID mapping and the
// model/fusion signature the vectors were produced under.
type IndexArtifact struct {
	Index VectorIndex

	// IDs maps ordinal to chunk ID: IDs[i] is the i-th vector built.
	IDs []string

	// ModelSignature is checked against the query-time embedder before
	// any search is served.
	ModelSignature string

	// BuiltAt is the RFC 3339 build time.
	BuiltAt string
}

// IndexStore persists and loads the active index artifact. Saving is
// atomic: a concurrent reader never observes a partially written
// artifact, and a failed save leaves the prior artifact intact.
type IndexStore interface {
	Save(ctx context.Context, art IndexArtifact) error

	// Load returns domain.ErrIndexCorruption when the artifact and its
	// sidecar disagree. A missing artifact is a plain error, not
	// corruption.
	Load(ctx context.Context) (IndexArtifact, error)
}
