package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pablofarias19/sentency-sub002/internal/core/domain"
	"github.com/pablofarias19/sentency-sub002/internal/core/ports/driven"
	"github.com/pablofarias19/sentency-sub002/internal/core/ports/driving"
	"github.com/pablofarias19/sentency-sub002/internal/fusion"
	"github.com/pablofarias19/sentency-sub002/internal/logger"
)

// Ensure BaselineService implements the interface.
var _ driving.BaselineBuilder = (*BaselineService)(nil)

// recomputeBatchSize bounds memory and transaction scope during
// distance recomputation. Each batch commits independently, so partial
// progress survives a crash and a re-run is a cheap overwrite.
const recomputeBatchSize = 256

// BaselineService owns the doctrinal baseline: the renormalised mean
// vector of an authoritative reference corpus, and the cached distance
// of every stored chunk from it.
type BaselineService struct {
	embedder      driven.CompositeEmbedder
	store         driven.MetadataStore
	baselines     driven.BaselineStore
	minChunkChars int
	writers       *WriterLock
}

// NewBaselineService wires the baseline pipeline. minChunkChars drops
// corpus fragments too short to carry doctrinal signal; zero disables
// the filter. writers must be the lock shared by every writer service
// of the same engine instance; a nil lock gets a private one.
func NewBaselineService(
	embedder driven.CompositeEmbedder,
	store driven.MetadataStore,
	baselines driven.BaselineStore,
	minChunkChars int,
	writers *WriterLock,
) *BaselineService {
	if writers == nil {
		writers = NewWriterLock()
	}
	return &BaselineService{
		embedder:      embedder,
		store:         store,
		baselines:     baselines,
		minChunkChars: minChunkChars,
		writers:       writers,
	}
}

// Build embeds the corpus texts, averages the unit vectors and
// renormalises. The result is persisted atomically; a degenerate mean
// leaves the previously active baseline untouched.
func (s *BaselineService) Build(ctx context.Context, corpus []string) (domain.Baseline, error) {
	logger.Section("Baseline Build")

	var texts []string
	for _, t := range corpus {
		if len(strings.TrimSpace(t)) >= s.minChunkChars {
			texts = append(texts, t)
		}
	}
	if len(texts) == 0 {
		return domain.Baseline{}, fmt.Errorf("%w: doctrinal corpus is empty after length filtering", domain.ErrInvalidInput)
	}
	logger.Info("Corpus: %d texts (%d dropped below %d chars)",
		len(texts), len(corpus)-len(texts), s.minChunkChars)

	if err := s.embedder.Ping(ctx); err != nil {
		return domain.Baseline{}, fmt.Errorf("checking embedding backends: %w", err)
	}

	// The baseline must live in the same space as query vectors, so
	// corpus embedding never degrades.
	mean := make([]float64, s.embedder.Dimensions())
	for i, text := range texts {
		vec, err := s.embedder.EmbedQuery(ctx, text)
		if err != nil {
			return domain.Baseline{}, fmt.Errorf("embedding corpus text %d: %w", i, err)
		}
		for j, x := range vec {
			mean[j] += float64(x)
		}
	}

	vec := make([]float32, len(mean))
	for i, x := range mean {
		vec[i] = float32(x / float64(len(texts)))
	}

	normalised, err := fusion.Normalize(vec)
	if err != nil {
		return domain.Baseline{}, fmt.Errorf("%w: corpus mean vector is near zero", domain.ErrDegenerateBaseline)
	}

	baseline := domain.Baseline{
		Vector:         normalised,
		CorpusSize:     len(texts),
		ModelSignature: s.embedder.Signature(),
		BuiltAt:        time.Now().UTC().Format(time.RFC3339),
	}

	s.writers.lock()
	err = s.baselines.Save(ctx, baseline)
	s.writers.unlock()
	if err != nil {
		return domain.Baseline{}, fmt.Errorf("saving baseline: %w", err)
	}

	logger.Info("Baseline built over %d texts, signature %s", baseline.CorpusSize, baseline.ModelSignature)
	return baseline, nil
}

// RecomputeDistances refreshes the cached doctrinal distance of every
// stored chunk against the given baseline. Runs in fixed-size batches;
// idempotent, each write overwrites the prior value.
func (s *BaselineService) RecomputeDistances(ctx context.Context, baseline domain.Baseline) (int, error) {
	s.writers.lock()
	defer s.writers.unlock()

	logger.Section("Distance Recompute")

	if len(baseline.Vector) == 0 {
		return 0, fmt.Errorf("%w: baseline has no vector", domain.ErrInvalidInput)
	}
	if baseline.ModelSignature != s.embedder.Signature() {
		return 0, fmt.Errorf("%w: baseline built with %q, engine configured with %q",
			domain.ErrConfigurationMismatch, baseline.ModelSignature, s.embedder.Signature())
	}

	updated := 0
	err := s.store.IterateBatches(ctx, recomputeBatchSize, func(batch []driven.StoredChunk) error {
		for _, chunk := range batch {
			d := baseline.Distance(chunk.Vector)
			if err := s.store.UpdateDoctrinalDistance(ctx, chunk.Record.ChunkID, d); err != nil {
				return fmt.Errorf("updating %s: %w", chunk.Record.ChunkID, err)
			}
			updated++
		}
		logger.Debug("Recomputed %d distances so far", updated)
		return nil
	})
	if err != nil {
		return updated, err
	}

	logger.Info("Recomputed doctrinal distance for %d chunks", updated)
	return updated, nil
}
