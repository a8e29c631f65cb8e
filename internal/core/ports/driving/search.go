package driving

import (
	"context"

	"github.com/pablofarias19/sentency-sub002/internal/core/domain"
)

// Searcher serves semantic queries with metadata filtering and
// re-ranking. Consumed by the presentation layer.
type Searcher interface {
	// Search embeds the query with the same configuration used at
	// ingestion, retrieves index candidates, joins metadata, applies
	// the filters and re-ranks by boost. Results are ordered by
	// descending boost; ties preserve vector-similarity order. An empty
	// result set after filtering is not an error.
	Search(ctx context.Context, query string, filters domain.SearchFilters, topK int) ([]domain.SearchResult, error)
}
