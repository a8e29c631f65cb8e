// Package memory provides in-memory implementations of driven port
// interfaces, primarily for testing.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/pablofarias19/sentency-sub002/internal/core/domain"
	"github.com/pablofarias19/sentency-sub002/internal/core/ports/driven"
)

// Ensure MetadataStore implements the interface.
var _ driven.MetadataStore = (*MetadataStore)(nil)

// MetadataStore is an in-memory implementation of driven.MetadataStore.
type MetadataStore struct {
	mu        sync.RWMutex
	chunks    map[string]driven.StoredChunk
	documents map[string][]string
}

// NewMetadataStore creates a new in-memory metadata store.
func NewMetadataStore() *MetadataStore {
	return &MetadataStore{
		chunks:    make(map[string]driven.StoredChunk),
		documents: make(map[string][]string),
	}
}

// ReplaceDocument atomically replaces a document's chunk rows.
func (s *MetadataStore) ReplaceDocument(_ context.Context, documentID string, chunks []driven.StoredChunk) error {
	if documentID == "" {
		return fmt.Errorf("%w: empty document ID", domain.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range s.documents[documentID] {
		delete(s.chunks, id)
	}

	ids := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		s.chunks[chunk.Record.ChunkID] = chunk
		ids = append(ids, chunk.Record.ChunkID)
	}
	s.documents[documentID] = ids
	return nil
}

// Get retrieves one metadata record by chunk ID.
func (s *MetadataStore) Get(_ context.Context, chunkID string) (*domain.MetadataRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	chunk, ok := s.chunks[chunkID]
	if !ok {
		return nil, fmt.Errorf("%w: chunk %s", domain.ErrNotFound, chunkID)
	}
	record := chunk.Record
	return &record, nil
}

// FetchMany retrieves the records for the given chunk IDs. Missing IDs
// are silently absent from the result.
func (s *MetadataStore) FetchMany(_ context.Context, chunkIDs []string) ([]domain.MetadataRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var records []domain.MetadataRecord
	for _, id := range chunkIDs {
		if chunk, ok := s.chunks[id]; ok {
			records = append(records, chunk.Record)
		}
	}
	return records, nil
}

// UpdateDoctrinalDistance refreshes the cached distance for one chunk.
func (s *MetadataStore) UpdateDoctrinalDistance(_ context.Context, chunkID string, value float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	chunk, ok := s.chunks[chunkID]
	if !ok {
		return fmt.Errorf("%w: chunk %s", domain.ErrNotFound, chunkID)
	}
	chunk.Record.DoctrinalDistance = &value
	s.chunks[chunkID] = chunk
	return nil
}

// AllVectors returns every chunk ID with its vector, ordered by chunk ID.
func (s *MetadataStore) AllVectors(_ context.Context) ([]string, [][]float32, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.sortedIDs()
	vectors := make([][]float32, len(ids))
	for i, id := range ids {
		vectors[i] = s.chunks[id].Vector
	}
	return ids, vectors, nil
}

// IterateBatches streams all stored chunks in chunk-ID order.
func (s *MetadataStore) IterateBatches(_ context.Context, batchSize int, fn func([]driven.StoredChunk) error) error {
	if batchSize <= 0 {
		return fmt.Errorf("%w: batch size %d", domain.ErrInvalidInput, batchSize)
	}

	s.mu.RLock()
	ids := s.sortedIDs()
	all := make([]driven.StoredChunk, len(ids))
	for i, id := range ids {
		all[i] = s.chunks[id]
	}
	s.mu.RUnlock()

	for start := 0; start < len(all); start += batchSize {
		end := start + batchSize
		if end > len(all) {
			end = len(all)
		}
		if err := fn(all[start:end]); err != nil {
			return err
		}
	}
	return nil
}

// Count returns the number of stored chunks.
func (s *MetadataStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.chunks), nil
}

// Close is a no-op for the in-memory store.
func (s *MetadataStore) Close() error {
	return nil
}

// sortedIDs returns all chunk IDs in ascending order. Callers must hold
// at least a read lock.
func (s *MetadataStore) sortedIDs() []string {
	ids := make([]string, 0, len(s.chunks))
	for id := range s.chunks {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
