// Package domain defines the core business entities for the Sentency
// retrieval engine.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - SourceDocument: Extracted text plus metadata handed in by a caller
//   - Chunk: A retrievable unit produced by the chunker
//   - MetadataRecord: One row of structured provenance per chunk
//   - RetrievalConfig: The immutable configuration threaded through calls
//   - Baseline: The doctrinal reference vector and its provenance
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
