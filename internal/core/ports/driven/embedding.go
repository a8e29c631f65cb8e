package driven

import "context"

// TextEmbedder generates vector embeddings from text. Every returned
// vector is unit L2-normalised, so inner product equals cosine similarity.
//
// Variants correspond to distinct pretrained sentence-embedding models
// (a general-purpose model, a domain-specific model, a multilingual
// model). Each declares its output dimension and a stable model
// identifier used for provenance and fusion-weight lookup.
//
// Implementations must be safe for concurrent use: ingestion fans
// embedding calls out over a worker pool.
type TextEmbedder interface {
	// Embed generates a unit-normalised embedding for one text.
	// Backend failures (unreachable, not downloaded, timeout) wrap
	// domain.ErrModelUnavailable.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts, preserving
	// input order. More efficient than calling Embed in a loop.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the fixed, model-specific vector size.
	Dimensions() int

	// ModelID returns the stable model identifier string.
	ModelID() string

	// Ping validates the backend is reachable with a lightweight
	// request. Used before committing to an ingestion run.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// CompositeEmbedder is a fused multi-model embedder: one call embeds a
// text with every configured model and combines the vectors into a
// single composite.
type CompositeEmbedder interface {
	// Embed embeds one chunk. degraded is true when a model failed and
	// policy allowed fusing the remaining ones.
	Embed(ctx context.Context, text string) (vec []float32, degraded bool, err error)

	// EmbedQuery embeds a query. Queries never degrade: a missing model
	// would place the query vector in a different space than the index.
	EmbedQuery(ctx context.Context, query string) ([]float32, error)

	// Signature is the stable model/fusion configuration string, stored
	// with every artifact and checked at query time.
	Signature() string

	// Dimensions returns the composite vector size.
	Dimensions() int

	// Ping verifies every backend is reachable.
	Ping(ctx context.Context) error

	// Close releases every wrapped embedder.
	Close() error
}
