package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// Pipeline Errors.

	// ErrInvalidConfiguration indicates bad chunking or fusion parameters.
	// Fatal: it is caught by RetrievalConfig.Validate before any processing starts.
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrModelUnavailable indicates an embedding backend is unreachable,
	// not loaded, or timed out. Callers may retry with backoff or abort
	// the ingestion run.
	ErrModelUnavailable = errors.New("embedding model unavailable")

	// ErrDegenerateBaseline indicates the doctrinal corpus produced a
	// near-zero mean vector. Fatal for that baseline build; an existing
	// baseline artifact is left untouched.
	ErrDegenerateBaseline = errors.New("degenerate doctrinal baseline")

	// ErrIndexCorruption indicates the vector index and its sidecar
	// disagree at load time (count or dimension mismatch, truncated
	// file). Fatal: never falls back to a stale or empty index.
	ErrIndexCorruption = errors.New("vector index corruption")

	// ErrConfigurationMismatch indicates the query-time embedding
	// signature differs from the signature stored with the index.
	// Fatal: searching across mismatched vector spaces returns
	// semantically meaningless results.
	ErrConfigurationMismatch = errors.New("embedding configuration mismatch")

	// ErrInvalidQuery indicates an empty or blank query string,
	// rejected before touching the index.
	ErrInvalidQuery = errors.New("invalid query")
)
