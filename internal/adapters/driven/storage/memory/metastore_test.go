package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pablofarias19/sentency-sub002/internal/core/domain"
	"github.com/pablofarias19/sentency-sub002/internal/core/ports/driven"
)

func chunk(documentID string, seq int, text string) driven.StoredChunk {
	return driven.StoredChunk{
		Record: domain.MetadataRecord{
			ChunkID:    domain.ChunkID(documentID, seq),
			SourceFile: documentID + ".txt",
			Text:       text,
		},
		Vector: []float32{float32(seq), 1},
	}
}

func TestMetadataStore_ReplaceAndGet(t *testing.T) {
	store := NewMetadataStore()
	ctx := context.Background()

	require.NoError(t, store.ReplaceDocument(ctx, "doc", []driven.StoredChunk{
		chunk("doc", 0, "first"),
		chunk("doc", 1, "second"),
	}))

	got, err := store.Get(ctx, "doc_00001")
	require.NoError(t, err)
	assert.Equal(t, "second", got.Text)

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	_, err = store.Get(ctx, "doc_00009")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestMetadataStore_ReplaceSupersedes(t *testing.T) {
	store := NewMetadataStore()
	ctx := context.Background()

	require.NoError(t, store.ReplaceDocument(ctx, "doc", []driven.StoredChunk{
		chunk("doc", 0, "old"),
		chunk("doc", 1, "old tail"),
	}))
	require.NoError(t, store.ReplaceDocument(ctx, "doc", []driven.StoredChunk{
		chunk("doc", 0, "new"),
	}))

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	_, err = store.Get(ctx, "doc_00001")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestMetadataStore_FetchMany(t *testing.T) {
	store := NewMetadataStore()
	ctx := context.Background()

	require.NoError(t, store.ReplaceDocument(ctx, "doc", []driven.StoredChunk{
		chunk("doc", 0, "a"),
		chunk("doc", 1, "b"),
	}))

	records, err := store.FetchMany(ctx, []string{"doc_00001", "missing", "doc_00000"})
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "doc_00001", records[0].ChunkID)
	assert.Equal(t, "doc_00000", records[1].ChunkID)
}

func TestMetadataStore_UpdateDoctrinalDistance(t *testing.T) {
	store := NewMetadataStore()
	ctx := context.Background()

	require.NoError(t, store.ReplaceDocument(ctx, "doc", []driven.StoredChunk{chunk("doc", 0, "a")}))
	require.NoError(t, store.UpdateDoctrinalDistance(ctx, "doc_00000", 0.3))

	got, err := store.Get(ctx, "doc_00000")
	require.NoError(t, err)
	require.NotNil(t, got.DoctrinalDistance)
	assert.InDelta(t, 0.3, *got.DoctrinalDistance, 1e-9)

	err = store.UpdateDoctrinalDistance(ctx, "missing", 0.5)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestMetadataStore_AllVectors(t *testing.T) {
	store := NewMetadataStore()
	ctx := context.Background()

	require.NoError(t, store.ReplaceDocument(ctx, "b", []driven.StoredChunk{chunk("b", 0, "b")}))
	require.NoError(t, store.ReplaceDocument(ctx, "a", []driven.StoredChunk{chunk("a", 0, "a")}))

	ids, vectors, err := store.AllVectors(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a_00000", "b_00000"}, ids)
	assert.Len(t, vectors, 2)
}

func TestMetadataStore_IterateBatches(t *testing.T) {
	store := NewMetadataStore()
	ctx := context.Background()

	require.NoError(t, store.ReplaceDocument(ctx, "doc", []driven.StoredChunk{
		chunk("doc", 0, "a"),
		chunk("doc", 1, "b"),
		chunk("doc", 2, "c"),
	}))

	var sizes []int
	err := store.IterateBatches(ctx, 2, func(batch []driven.StoredChunk) error {
		sizes = append(sizes, len(batch))
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int{2, 1}, sizes)

	sentinel := errors.New("stop")
	err = store.IterateBatches(ctx, 2, func([]driven.StoredChunk) error {
		return sentinel
	})
	assert.ErrorIs(t, err, sentinel)
}
