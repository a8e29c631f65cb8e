package flat

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pablofarias19/sentency-sub002/internal/core/domain"
)

func TestBaselineStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewBaselineStore(filepath.Join(t.TempDir(), "doctrina.vec"))

	baseline := domain.Baseline{
		Vector:         []float32{0.6, 0.8, 0},
		CorpusSize:     42,
		ModelSignature: "average(general:0.5000,legal:0.5000)@3",
		BuiltAt:        "2026-08-29T00:00:00Z",
	}
	require.NoError(t, store.Save(ctx, baseline))

	got, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, baseline, got)
}

func TestBaselineStore_LoadMissing(t *testing.T) {
	store := NewBaselineStore(filepath.Join(t.TempDir(), "doctrina.vec"))

	_, err := store.Load(context.Background())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestBaselineStore_SaveOverwrites(t *testing.T) {
	ctx := context.Background()
	store := NewBaselineStore(filepath.Join(t.TempDir(), "doctrina.vec"))

	first := domain.Baseline{Vector: []float32{1, 0}, CorpusSize: 1, ModelSignature: "sig", BuiltAt: "2026-01-01T00:00:00Z"}
	require.NoError(t, store.Save(ctx, first))

	second := domain.Baseline{Vector: []float32{0, 1, 0}, CorpusSize: 2, ModelSignature: "sig2", BuiltAt: "2026-02-01T00:00:00Z"}
	require.NoError(t, store.Save(ctx, second))

	got, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, second, got)
}

func TestBaselineStore_RejectsEmptyVector(t *testing.T) {
	store := NewBaselineStore(filepath.Join(t.TempDir(), "doctrina.vec"))

	err := store.Save(context.Background(), domain.Baseline{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
