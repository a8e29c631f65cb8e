package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pablofarias19/sentency-sub002/internal/core/domain"
	"github.com/pablofarias19/sentency-sub002/internal/core/ports/driven"
)

// setupTestStore creates a temporary SQLite store for testing.
func setupTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	require.NotNil(t, store)

	t.Cleanup(func() {
		assert.NoError(t, store.Close())
	})

	return store
}

func testChunk(documentID string, seq int, text string) driven.StoredChunk {
	expediente := "EXP 123/2020"
	date := "2020-05-14"
	distance := 0.12
	return driven.StoredChunk{
		Record: domain.MetadataRecord{
			ChunkID:                domain.ChunkID(documentID, seq),
			Expediente:             &expediente,
			SourceFile:             documentID + ".txt",
			DecisionDate:           &date,
			Court:                  "Camara Civil",
			Jurisdiction:           "CABA",
			SubjectMatter:          "danos",
			Topics:                 []string{"responsabilidad civil"},
			ReasoningForms:         []string{"analogico"},
			Fallacies:              nil,
			DoctrineCitations:      []string{"Llambias, Tratado"},
			JurisprudenceCitations: []string{"CSJN Fallos 300:100"},
			Text:                   text,
			DoctrinalDistance:      &distance,
		},
		Vector: []float32{0.1 * float32(seq+1), 0.2, 0.3},
	}
}

func TestStore_Migrations(t *testing.T) {
	dir := t.TempDir()

	store, err := NewStore(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "metadata.db"), store.Path())
	require.NoError(t, store.Close())

	// Reopening must not re-run applied migrations.
	store, err = NewStore(dir)
	require.NoError(t, err)

	var version int
	row := store.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	require.NoError(t, row.Scan(&version))
	assert.Equal(t, 1, version)
	require.NoError(t, store.Close())
}

func TestStore_ReplaceAndGet(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	chunks := []driven.StoredChunk{
		testChunk("sentencia_a", 0, "first chunk text"),
		testChunk("sentencia_a", 1, "second chunk text"),
	}
	require.NoError(t, store.ReplaceDocument(ctx, "sentencia_a", chunks))

	got, err := store.Get(ctx, "sentencia_a_00000")
	require.NoError(t, err)
	assert.Equal(t, chunks[0].Record, *got)

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestStore_Get_NotFound(t *testing.T) {
	store := setupTestStore(t)

	_, err := store.Get(context.Background(), "missing_00000")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStore_Get_NilOptionalFields(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	chunk := driven.StoredChunk{
		Record: domain.MetadataRecord{
			ChunkID:    "bare_00000",
			SourceFile: "bare.txt",
			Text:       "text with no extracted metadata",
		},
		Vector: []float32{1, 0},
	}
	require.NoError(t, store.ReplaceDocument(ctx, "bare", []driven.StoredChunk{chunk}))

	got, err := store.Get(ctx, "bare_00000")
	require.NoError(t, err)
	assert.Nil(t, got.Expediente)
	assert.Nil(t, got.DecisionDate)
	assert.Nil(t, got.DoctrinalDistance)
	assert.Nil(t, got.Topics)
}

func TestStore_ReplaceDocument_Supersedes(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.ReplaceDocument(ctx, "doc", []driven.StoredChunk{
		testChunk("doc", 0, "old text"),
		testChunk("doc", 1, "old tail"),
		testChunk("doc", 2, "old extra"),
	}))

	// Re-ingestion with fewer chunks must drop the stale tail rows.
	require.NoError(t, store.ReplaceDocument(ctx, "doc", []driven.StoredChunk{
		testChunk("doc", 0, "new text"),
	}))

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	got, err := store.Get(ctx, "doc_00000")
	require.NoError(t, err)
	assert.Equal(t, "new text", got.Text)

	_, err = store.Get(ctx, "doc_00002")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStore_ReplaceDocument_LeavesOtherDocuments(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.ReplaceDocument(ctx, "a", []driven.StoredChunk{testChunk("a", 0, "a text")}))
	require.NoError(t, store.ReplaceDocument(ctx, "b", []driven.StoredChunk{testChunk("b", 0, "b text")}))
	require.NoError(t, store.ReplaceDocument(ctx, "a", []driven.StoredChunk{testChunk("a", 0, "a text v2")}))

	got, err := store.Get(ctx, "b_00000")
	require.NoError(t, err)
	assert.Equal(t, "b text", got.Text)
}

func TestStore_FetchMany(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.ReplaceDocument(ctx, "doc", []driven.StoredChunk{
		testChunk("doc", 0, "zero"),
		testChunk("doc", 1, "one"),
		testChunk("doc", 2, "two"),
	}))

	records, err := store.FetchMany(ctx, []string{"doc_00002", "doc_00000", "missing_00000"})
	require.NoError(t, err)
	require.Len(t, records, 2)

	ids := []string{records[0].ChunkID, records[1].ChunkID}
	assert.ElementsMatch(t, []string{"doc_00000", "doc_00002"}, ids)

	empty, err := store.FetchMany(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestStore_UpdateDoctrinalDistance(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.ReplaceDocument(ctx, "doc", []driven.StoredChunk{testChunk("doc", 0, "text")}))

	require.NoError(t, store.UpdateDoctrinalDistance(ctx, "doc_00000", 0.42))

	got, err := store.Get(ctx, "doc_00000")
	require.NoError(t, err)
	require.NotNil(t, got.DoctrinalDistance)
	assert.InDelta(t, 0.42, *got.DoctrinalDistance, 1e-9)

	err = store.UpdateDoctrinalDistance(ctx, "missing_00000", 0.5)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStore_AllVectors(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.ReplaceDocument(ctx, "b", []driven.StoredChunk{testChunk("b", 0, "b text")}))
	require.NoError(t, store.ReplaceDocument(ctx, "a", []driven.StoredChunk{
		testChunk("a", 0, "a text"),
		testChunk("a", 1, "a tail"),
	}))

	ids, vectors, err := store.AllVectors(ctx)
	require.NoError(t, err)

	// Ordered by chunk ID regardless of insertion order.
	assert.Equal(t, []string{"a_00000", "a_00001", "b_00000"}, ids)
	require.Len(t, vectors, 3)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, vectors[0])
}

func TestStore_IterateBatches(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	var chunks []driven.StoredChunk
	for i := 0; i < 5; i++ {
		chunks = append(chunks, testChunk("doc", i, "text"))
	}
	require.NoError(t, store.ReplaceDocument(ctx, "doc", chunks))

	var sizes []int
	var seen []string
	err := store.IterateBatches(ctx, 2, func(batch []driven.StoredChunk) error {
		sizes = append(sizes, len(batch))
		for _, c := range batch {
			seen = append(seen, c.Record.ChunkID)
			assert.NotEmpty(t, c.Vector)
		}
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, []int{2, 2, 1}, sizes)
	assert.Equal(t, []string{"doc_00000", "doc_00001", "doc_00002", "doc_00003", "doc_00004"}, seen)

	err = store.IterateBatches(ctx, 0, func([]driven.StoredChunk) error { return nil })
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestStore_VectorRoundTrip(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	chunk := testChunk("doc", 0, "text")
	chunk.Vector = []float32{0.25, -1.5, 3.14159, 0}
	require.NoError(t, store.ReplaceDocument(ctx, "doc", []driven.StoredChunk{chunk}))

	ids, vectors, err := store.AllVectors(ctx)
	require.NoError(t, err)
	require.Len(t, ids, 1)
	assert.Equal(t, chunk.Vector, vectors[0])
}

func TestStore_DefaultDataDir(t *testing.T) {
	// Point HOME at a temp dir so the default path stays hermetic.
	home := t.TempDir()
	t.Setenv("HOME", home)

	store, err := NewStore("")
	require.NoError(t, err)
	defer store.Close()

	assert.Equal(t, filepath.Join(home, ".sentency", "data", "metadata.db"), store.Path())
	_, err = os.Stat(store.Path())
	assert.NoError(t, err)
}
