package domain

import "fmt"

// Chunk is a contiguous span of tokens from one source document,
// produced by the chunker with a fixed overlap so consecutive chunks
// share a suffix/prefix window.
type Chunk struct {
	// ID is the stable chunk identifier, derived deterministically
	// from the source document ID and the sequence index.
	ID string

	// DocumentID links to the source document.
	DocumentID string

	// Sequence is the 0-based position within the document.
	Sequence int

	// Text is the raw chunk text.
	Text string

	// TokenCount is the number of whitespace tokens in Text.
	TokenCount int
}

// ChunkID derives the stable identifier for the seq-th chunk of a document.
// Chunks are immutable once persisted; re-ingestion supersedes them under
// the same scheme rather than mutating rows in place.
func ChunkID(documentID string, seq int) string {
	return fmt.Sprintf("%s_%05d", documentID, seq)
}

// SourceDocument is the unit handed to the ingestion entrypoint by an
// external extraction collaborator: raw extracted text plus the structured
// metadata shared by every chunk of the document.
type SourceDocument struct {
	// ID identifies the document. Ingesting the same ID again replaces
	// the document's prior chunk rows.
	ID string

	// Text is the raw extracted text (the core does not parse PDFs).
	Text string

	// Metadata is the record template applied to every chunk. ChunkID,
	// Text and DoctrinalDistance are filled in by the engine.
	Metadata MetadataRecord
}

// ChunkFailure records one chunk that could not be embedded during a
// batch ingestion run.
type ChunkFailure struct {
	ChunkID string
	Err     string
}

// IngestReport summarises a single-document ingestion run. A document
// with one failed chunk still persists its other chunks: failures are
// collected and reported, not fatal.
type IngestReport struct {
	// RunID identifies the ingestion run.
	RunID string

	// DocumentID is the document this report covers.
	DocumentID string

	// ChunkIDs lists the chunks persisted, in sequence order.
	ChunkIDs []string

	// Failures lists chunks that could not be embedded.
	Failures []ChunkFailure

	// Degraded lists chunks fused from a partial model set
	// (one model failed, policy allowed fusing the rest).
	Degraded []string
}

// Complete reports whether every chunk of the document was persisted.
func (r IngestReport) Complete() bool {
	return len(r.Failures) == 0
}
