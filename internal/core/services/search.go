package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/pablofarias19/sentency-sub002/internal/core/domain"
	"github.com/pablofarias19/sentency-sub002/internal/core/ports/driven"
	"github.com/pablofarias19/sentency-sub002/internal/core/ports/driving"
	"github.com/pablofarias19/sentency-sub002/internal/logger"
)

// Ensure SearchService implements the interface.
var _ driving.Searcher = (*SearchService)(nil)

// DefaultTopK is used when the caller passes a non-positive topK.
const DefaultTopK = 10

// SearchService serves metadata-filtered semantic queries against the
// persisted index artifact.
type SearchService struct {
	cfg       domain.RetrievalConfig
	embedder  driven.CompositeEmbedder
	artifacts driven.IndexStore
	store     driven.MetadataStore

	mu  sync.Mutex
	art *driven.IndexArtifact
}

// NewSearchService validates the configuration and wires the pipeline.
func NewSearchService(
	cfg domain.RetrievalConfig,
	embedder driven.CompositeEmbedder,
	artifacts driven.IndexStore,
	store driven.MetadataStore,
) (*SearchService, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &SearchService{
		cfg:       cfg,
		embedder:  embedder,
		artifacts: artifacts,
		store:     store,
	}, nil
}

// Search runs the full pipeline: query embedding, candidate retrieval,
// metadata join, hard filtering, boost re-ranking.
func (s *SearchService) Search(
	ctx context.Context, query string, filters domain.SearchFilters, topK int,
) ([]domain.SearchResult, error) {
	logger.Section("Search")

	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: query is empty", domain.ErrInvalidQuery)
	}
	if topK <= 0 {
		topK = DefaultTopK
	}
	logger.Debug("Query: %q, topK: %d", query, topK)

	art, err := s.artifact(ctx)
	if err != nil {
		return nil, err
	}

	// The index is only meaningful for queries embedded under the same
	// model/fusion configuration it was built with.
	if art.ModelSignature != s.embedder.Signature() {
		return nil, fmt.Errorf("%w: index built with %q, query configured with %q",
			domain.ErrConfigurationMismatch, art.ModelSignature, s.embedder.Signature())
	}

	qvec, err := s.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	candidateK := s.cfg.CandidateK
	if candidateK < topK {
		candidateK = topK
	}
	hits, err := art.Index.Search(ctx, qvec, candidateK)
	if err != nil {
		return nil, fmt.Errorf("searching index: %w", err)
	}
	logger.Debug("Index returned %d candidates", len(hits))

	results, err := s.hydrate(ctx, art, hits)
	if err != nil {
		return nil, err
	}

	// Hard filters: every set predicate must pass.
	if !filters.Empty() {
		filtered := results[:0]
		for _, r := range results {
			if filters.MatchHard(r.Record) {
				filtered = append(filtered, r)
			}
		}
		results = filtered
		logger.Debug("%d candidates survive filtering", len(results))
	}

	// Boost: similarity plus a fixed increment per tag dimension the
	// metadata corroborates. A stable sort keeps similarity order on ties.
	for i := range results {
		results[i].Boost = results[i].Similarity + filters.Boost(results[i].Record, s.cfg.BoostIncrements)
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Boost > results[j].Boost
	})

	if len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

// artifact lazily loads and caches the index artifact.
func (s *SearchService) artifact(ctx context.Context) (*driven.IndexArtifact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.art != nil {
		return s.art, nil
	}
	art, err := s.artifacts.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading index artifact: %w", err)
	}
	s.art = &art
	return s.art, nil
}

// hydrate joins index hits with their metadata rows, preserving hit
// order. Hits whose row is missing from the store are dropped with a
// warning rather than failing the whole query.
func (s *SearchService) hydrate(
	ctx context.Context, art *driven.IndexArtifact, hits []driven.VectorHit,
) ([]domain.SearchResult, error) {
	ids := make([]string, 0, len(hits))
	for _, h := range hits {
		if h.Ordinal < 0 || h.Ordinal >= len(art.IDs) {
			return nil, fmt.Errorf("%w: hit ordinal %d outside ID table of %d",
				domain.ErrIndexCorruption, h.Ordinal, len(art.IDs))
		}
		ids = append(ids, art.IDs[h.Ordinal])
	}

	records, err := s.store.FetchMany(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("fetching metadata: %w", err)
	}
	byID := make(map[string]domain.MetadataRecord, len(records))
	for _, r := range records {
		byID[r.ChunkID] = r
	}

	results := make([]domain.SearchResult, 0, len(hits))
	for i, h := range hits {
		record, ok := byID[ids[i]]
		if !ok {
			logger.Warn("Chunk %s is indexed but missing from the store, skipping", ids[i])
			continue
		}
		results = append(results, domain.SearchResult{
			Record:     record,
			Similarity: h.Score,
		})
	}
	return results, nil
}
