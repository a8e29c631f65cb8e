package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pablofarias19/sentency-sub002/internal/chunker"
	"github.com/pablofarias19/sentency-sub002/internal/core/domain"
	"github.com/pablofarias19/sentency-sub002/internal/core/ports/driven"
	"github.com/pablofarias19/sentency-sub002/internal/core/ports/driving"
	"github.com/pablofarias19/sentency-sub002/internal/logger"
)

// Ensure IngestService implements the interface.
var _ driving.Ingestor = (*IngestService)(nil)

// IngestService turns raw document text into persisted chunk rows:
// chunk, embed with every model, fuse, store. Chunk-level embedding
// failures are reported per document, not fatal.
type IngestService struct {
	cfg       domain.RetrievalConfig
	splitter  *chunker.Splitter
	embedder  driven.CompositeEmbedder
	store     driven.MetadataStore
	index     driven.VectorIndex
	artifacts driven.IndexStore
	writers   *WriterLock
}

// NewIngestService validates the configuration and wires the pipeline.
// writers must be the lock shared by every writer service of the same
// engine instance; a nil lock gets a private one.
func NewIngestService(
	cfg domain.RetrievalConfig,
	embedder driven.CompositeEmbedder,
	store driven.MetadataStore,
	index driven.VectorIndex,
	artifacts driven.IndexStore,
	writers *WriterLock,
) (*IngestService, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	splitter, err := chunker.New(cfg.ChunkTokens, cfg.OverlapTokens)
	if err != nil {
		return nil, err
	}
	if writers == nil {
		writers = NewWriterLock()
	}
	return &IngestService{
		cfg:       cfg,
		splitter:  splitter,
		embedder:  embedder,
		store:     store,
		index:     index,
		artifacts: artifacts,
		writers:   writers,
	}, nil
}

// embedResult is one chunk's outcome from the worker pool.
type embedResult struct {
	span     chunker.Span
	vector   []float32
	degraded bool
	err      error
}

// Ingest processes one document end to end.
func (s *IngestService) Ingest(ctx context.Context, doc domain.SourceDocument) (domain.IngestReport, error) {
	report := domain.IngestReport{RunID: uuid.NewString()}

	if strings.TrimSpace(doc.Text) == "" {
		return report, fmt.Errorf("%w: document text is empty", domain.ErrInvalidInput)
	}
	if doc.ID == "" {
		doc.ID = uuid.NewString()
		logger.Warn("Document has no ID, assigned %s", doc.ID)
	}
	report.DocumentID = doc.ID

	logger.Section("Ingest " + doc.ID)

	// Fail fast before committing to a long embedding run.
	if err := s.embedder.Ping(ctx); err != nil {
		return report, fmt.Errorf("checking embedding backends: %w", err)
	}

	spans := s.splitter.Split(doc.Text)
	logger.Info("Document %s split into %d chunks of %d tokens (%d overlap)",
		doc.ID, len(spans), s.cfg.ChunkTokens, s.cfg.OverlapTokens)

	results := s.embedAll(ctx, spans)

	var stored []driven.StoredChunk
	for _, res := range results {
		chunkID := domain.ChunkID(doc.ID, res.span.Index)
		if res.err != nil {
			logger.Warn("Chunk %s failed: %v", chunkID, res.err)
			report.Failures = append(report.Failures, domain.ChunkFailure{
				ChunkID: chunkID,
				Err:     res.err.Error(),
			})
			continue
		}

		record := doc.Metadata
		record.ChunkID = chunkID
		record.Text = res.span.Text
		record.DoctrinalDistance = nil

		if res.degraded {
			report.Degraded = append(report.Degraded, chunkID)
		}
		report.ChunkIDs = append(report.ChunkIDs, chunkID)
		stored = append(stored, driven.StoredChunk{Record: record, Vector: res.vector})
	}

	if len(stored) == 0 {
		// Leave the document's prior rows untouched when nothing could
		// be embedded.
		return report, fmt.Errorf("no chunk of document %s could be embedded: %s",
			doc.ID, report.Failures[0].Err)
	}

	// Embedding above runs unlocked; only the persist is serialised.
	s.writers.lock()
	err := s.store.ReplaceDocument(ctx, doc.ID, stored)
	s.writers.unlock()
	if err != nil {
		return report, fmt.Errorf("persisting document %s: %w", doc.ID, err)
	}

	logger.Info("Document %s: %d chunks stored, %d failed, %d degraded",
		doc.ID, len(report.ChunkIDs), len(report.Failures), len(report.Degraded))
	return report, nil
}

// embedAll fans the spans out over a bounded worker pool and returns
// results in span order.
func (s *IngestService) embedAll(ctx context.Context, spans []chunker.Span) []embedResult {
	results := make([]embedResult, len(spans))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < s.cfg.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				span := spans[i]
				vec, degraded, err := s.embedder.Embed(ctx, span.Text)
				results[i] = embedResult{span: span, vector: vec, degraded: degraded, err: err}
			}
		}()
	}

	for i := range spans {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	return results
}

// RebuildIndex rebuilds the vector index wholesale from the stored
// vectors and swaps the artifacts atomically.
func (s *IngestService) RebuildIndex(ctx context.Context) error {
	s.writers.lock()
	defer s.writers.unlock()

	logger.Section("Index Rebuild")

	ids, vectors, err := s.store.AllVectors(ctx)
	if err != nil {
		return fmt.Errorf("loading stored vectors: %w", err)
	}
	if !sort.StringsAreSorted(ids) {
		return fmt.Errorf("%w: stored vectors are not in chunk-ID order", domain.ErrIndexCorruption)
	}

	if err := s.index.Build(ctx, vectors); err != nil {
		return fmt.Errorf("building index: %w", err)
	}

	art := driven.IndexArtifact{
		Index:          s.index,
		IDs:            ids,
		ModelSignature: s.embedder.Signature(),
		BuiltAt:        time.Now().UTC().Format(time.RFC3339),
	}
	if err := s.artifacts.Save(ctx, art); err != nil {
		return fmt.Errorf("saving index artifact: %w", err)
	}

	logger.Info("Index rebuilt: %d vectors, signature %s", len(ids), art.ModelSignature)
	return nil
}
