package driving

import (
	"context"

	"github.com/pablofarias19/sentency-sub002/internal/core/domain"
)

// Ingestor is the ingestion entrypoint. External extraction
// collaborators supply raw text plus structured metadata; the engine
// chunks, embeds, fuses and persists.
type Ingestor interface {
	// Ingest processes one document. Chunk-level embedding failures are
	// collected in the report rather than aborting the run; the
	// returned error covers failures that prevented the document from
	// being processed at all.
	Ingest(ctx context.Context, doc domain.SourceDocument) (domain.IngestReport, error)

	// RebuildIndex rebuilds the vector index wholesale from the stored
	// vectors and swaps the on-disk artifacts atomically. No partial
	// index is ever made active.
	RebuildIndex(ctx context.Context) error
}
