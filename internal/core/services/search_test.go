package services

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pablofarias19/sentency-sub002/internal/adapters/driven/index/flat"
	"github.com/pablofarias19/sentency-sub002/internal/adapters/driven/storage/memory"
	"github.com/pablofarias19/sentency-sub002/internal/core/domain"
	"github.com/pablofarias19/sentency-sub002/internal/core/ports/driven"
)

// seedCorpus persists the given records with their vectors, builds the
// index over them in chunk-ID order and saves the artifact under the
// embedder's signature.
func seedCorpus(t *testing.T, embedder *mockEmbedder, chunks []driven.StoredChunk) (*SearchService, *memory.MetadataStore) {
	t.Helper()
	ctx := context.Background()

	store := memory.NewMetadataStore()
	for _, c := range chunks {
		docID := c.Record.SourceFile
		require.NoError(t, store.ReplaceDocument(ctx, docID, []driven.StoredChunk{c}))
	}

	ids, vectors, err := store.AllVectors(ctx)
	require.NoError(t, err)

	idx := flat.New()
	require.NoError(t, idx.Build(ctx, vectors))

	artifacts := flat.NewArtifactStore(filepath.Join(t.TempDir(), "corpus.vec"))
	require.NoError(t, artifacts.Save(ctx, driven.IndexArtifact{
		Index:          idx,
		IDs:            ids,
		ModelSignature: embedder.Signature(),
		BuiltAt:        "2026-08-29T00:00:00Z",
	}))

	svc, err := NewSearchService(testConfig(), embedder, artifacts, store)
	require.NoError(t, err)
	return svc, store
}

func axisChunk(docID string, vec []float32, mutate func(*domain.MetadataRecord)) driven.StoredChunk {
	c := driven.StoredChunk{
		Record: domain.MetadataRecord{
			ChunkID:    domain.ChunkID(docID, 0),
			SourceFile: docID,
			Text:       "text of " + docID,
		},
		Vector: vec,
	}
	if mutate != nil {
		mutate(&c.Record)
	}
	return c
}

func TestSearch_TopHitForMatchingVector(t *testing.T) {
	// Three chunks on orthogonal axes: a query equal to one chunk's
	// vector retrieves that chunk as top-1 with score ~1.0.
	embedder := newMockEmbedder(3)
	embedder.vecFn = func(string) []float32 { return []float32{0, 1, 0} }

	svc, _ := seedCorpus(t, embedder, []driven.StoredChunk{
		axisChunk("a", []float32{1, 0, 0}, nil),
		axisChunk("b", []float32{0, 1, 0}, nil),
		axisChunk("c", []float32{0, 0, 1}, nil),
	})

	results, err := svc.Search(context.Background(), "query", domain.SearchFilters{}, 3)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "b_00000", results[0].Record.ChunkID)
	assert.InDelta(t, 1.0, results[0].Similarity, 1e-6)
}

func TestSearch_EmptyQuery(t *testing.T) {
	embedder := newMockEmbedder(3)
	svc, _ := seedCorpus(t, embedder, []driven.StoredChunk{
		axisChunk("a", []float32{1, 0, 0}, nil),
	})

	_, err := svc.Search(context.Background(), "   ", domain.SearchFilters{}, 5)
	assert.ErrorIs(t, err, domain.ErrInvalidQuery)
}

func TestSearch_SignatureMismatch(t *testing.T) {
	embedder := newMockEmbedder(3)
	svc, _ := seedCorpus(t, embedder, []driven.StoredChunk{
		axisChunk("a", []float32{1, 0, 0}, nil),
	})

	// Reconfigure the embedder after the index was built.
	embedder.sig = "concat(general:1.0000)@6"

	_, err := svc.Search(context.Background(), "query", domain.SearchFilters{}, 5)
	assert.ErrorIs(t, err, domain.ErrConfigurationMismatch)
}

func TestSearch_TopicBoostRanksCorroboratedFirst(t *testing.T) {
	// Two equally similar candidates; the one whose topics contain the
	// filtered tag must rank first.
	embedder := newMockEmbedder(2)
	embedder.vecFn = func(string) []float32 { return []float32{1, 0} }

	svc, _ := seedCorpus(t, embedder, []driven.StoredChunk{
		axisChunk("a", []float32{1, 0}, nil),
		axisChunk("b", []float32{1, 0}, func(r *domain.MetadataRecord) {
			r.Topics = []string{"contract law"}
		}),
	})

	results, err := svc.Search(context.Background(), "query", domain.SearchFilters{Topic: "contract"}, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "b_00000", results[0].Record.ChunkID)
	assert.InDelta(t, results[0].Similarity+0.2, results[0].Boost, 1e-6)
	assert.InDelta(t, results[1].Similarity, results[1].Boost, 1e-6)
}

func TestSearch_HardFilters(t *testing.T) {
	embedder := newMockEmbedder(2)
	embedder.vecFn = func(string) []float32 { return []float32{1, 0} }

	date := "2021-06-01"
	svc, _ := seedCorpus(t, embedder, []driven.StoredChunk{
		axisChunk("a", []float32{1, 0}, func(r *domain.MetadataRecord) {
			r.Court = "Camara Civil"
			r.DecisionDate = &date
		}),
		axisChunk("b", []float32{1, 0}, func(r *domain.MetadataRecord) {
			r.Court = "Corte Suprema"
		}),
	})

	t.Run("court filter excludes", func(t *testing.T) {
		results, err := svc.Search(context.Background(), "query", domain.SearchFilters{Court: "civil"}, 5)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "a_00000", results[0].Record.ChunkID)
	})

	t.Run("date range excludes records without a date", func(t *testing.T) {
		results, err := svc.Search(context.Background(), "query",
			domain.SearchFilters{DateFrom: "2021-01-01", DateTo: "2021-12-31"}, 5)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "a_00000", results[0].Record.ChunkID)
	})

	t.Run("no survivors is not an error", func(t *testing.T) {
		results, err := svc.Search(context.Background(), "query", domain.SearchFilters{Court: "nonexistent"}, 5)
		require.NoError(t, err)
		assert.Empty(t, results)
	})
}

func TestSearch_TruncatesToTopK(t *testing.T) {
	embedder := newMockEmbedder(2)
	embedder.vecFn = func(string) []float32 { return []float32{1, 0} }

	svc, _ := seedCorpus(t, embedder, []driven.StoredChunk{
		axisChunk("a", []float32{1, 0}, nil),
		axisChunk("b", []float32{0.9, 0.436}, nil),
		axisChunk("c", []float32{0.8, 0.6}, nil),
	})

	results, err := svc.Search(context.Background(), "query", domain.SearchFilters{}, 2)
	require.NoError(t, err)
	assert.Len(t, results, 2)
	assert.Equal(t, "a_00000", results[0].Record.ChunkID)
}

func TestSearch_Idempotent(t *testing.T) {
	embedder := newMockEmbedder(3)
	svc, _ := seedCorpus(t, embedder, []driven.StoredChunk{
		axisChunk("a", []float32{1, 0, 0}, nil),
		axisChunk("b", []float32{0, 1, 0}, nil),
	})

	first, err := svc.Search(context.Background(), "misma consulta", domain.SearchFilters{}, 5)
	require.NoError(t, err)
	second, err := svc.Search(context.Background(), "misma consulta", domain.SearchFilters{}, 5)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
