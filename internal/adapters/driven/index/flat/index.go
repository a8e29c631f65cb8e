// Package flat provides an exact inner-product vector index over
// unit-normalised vectors, built wholesale and searched read-only.
package flat

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/pablofarias19/sentency-sub002/internal/core/domain"
	"github.com/pablofarias19/sentency-sub002/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// Index holds the corpus vectors in insertion order. Ordinal i in search
// results refers to the i-th vector passed to Build; the owning engine
// maps ordinals to chunk IDs through the sidecar ID list.
//
// Search is safe for concurrent callers once built. Build replaces the
// whole content; the engine serialises writers.
type Index struct {
	mu      sync.RWMutex
	dim     int
	vectors [][]float32
}

// New creates an empty index.
func New() *Index {
	return &Index{}
}

// Build replaces the index content with the given vectors. All vectors
// must share one dimension. Building with an empty set yields an empty
// index, which searches to no hits.
func (idx *Index) Build(_ context.Context, vectors [][]float32) error {
	dim := 0
	for i, v := range vectors {
		if len(v) == 0 {
			return fmt.Errorf("%w: vector %d is empty", domain.ErrInvalidInput, i)
		}
		if dim == 0 {
			dim = len(v)
		} else if len(v) != dim {
			return fmt.Errorf("%w: vector %d has dimension %d, want %d", domain.ErrInvalidInput, i, len(v), dim)
		}
	}

	// Copy so later caller mutations cannot reach the index.
	owned := make([][]float32, len(vectors))
	for i, v := range vectors {
		owned[i] = make([]float32, len(v))
		copy(owned[i], v)
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.dim = dim
	idx.vectors = owned
	return nil
}

// Search returns at most k hits ordered by descending inner-product
// score, ties broken by ascending ordinal for determinism.
func (idx *Index) Search(_ context.Context, query []float32, k int) ([]driven.VectorHit, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if len(idx.vectors) == 0 || k <= 0 {
		return nil, nil
	}
	if len(query) != idx.dim {
		return nil, fmt.Errorf("%w: query has dimension %d, index has %d", domain.ErrInvalidInput, len(query), idx.dim)
	}

	hits := make([]driven.VectorHit, len(idx.vectors))
	for i, v := range idx.vectors {
		var score float64
		for j := range v {
			score += float64(v[j]) * float64(query[j])
		}
		hits[i] = driven.VectorHit{Ordinal: i, Score: score}
	}

	sort.Slice(hits, func(a, b int) bool {
		if hits[a].Score != hits[b].Score {
			return hits[a].Score > hits[b].Score
		}
		return hits[a].Ordinal < hits[b].Ordinal
	})

	if k < len(hits) {
		hits = hits[:k]
	}
	return hits, nil
}

// Len returns the number of indexed vectors.
func (idx *Index) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.vectors)
}

// Dimensions returns the vector dimension, 0 before the first build.
func (idx *Index) Dimensions() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.dim
}

// snapshot returns the raw vectors for persistence (callers must not
// mutate).
func (idx *Index) snapshot() (int, [][]float32) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.dim, idx.vectors
}
