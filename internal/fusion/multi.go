package fusion

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/pablofarias19/sentency-sub002/internal/core/domain"
	"github.com/pablofarias19/sentency-sub002/internal/core/ports/driven"
	"github.com/pablofarias19/sentency-sub002/internal/logger"
)

// MultiEmbedder wraps one TextEmbedder per configured model behind a
// single composite provider. Every text is embedded with every model and
// the results are fused into one unit-normalised vector.
//
// The query pipeline must embed with exactly the configuration used at
// ingestion, so the composite exposes a stable Signature that is
// persisted in the index sidecar and checked at query time.
type MultiEmbedder struct {
	fuser     *Fuser
	embedders map[string]driven.TextEmbedder
	onMissing domain.MissingPolicy
	dim       int
}

// Ensure MultiEmbedder implements the composite port.
var _ driven.CompositeEmbedder = (*MultiEmbedder)(nil)

// NewMultiEmbedder binds one embedder per weighted model. Every model in
// the fuser's weight table must have an embedder, and each embedder's
// ModelID must match its key.
func NewMultiEmbedder(
	fuser *Fuser,
	embedders map[string]driven.TextEmbedder,
	onMissing domain.MissingPolicy,
) (*MultiEmbedder, error) {
	if !onMissing.IsValid() {
		return nil, fmt.Errorf("%w: unknown missing-vector policy %q", domain.ErrInvalidConfiguration, onMissing)
	}
	dim := 0
	for _, id := range fuser.Models() {
		e, ok := embedders[id]
		if !ok {
			return nil, fmt.Errorf("%w: no embedder bound for weighted model %q", domain.ErrInvalidConfiguration, id)
		}
		if e.ModelID() != id {
			return nil, fmt.Errorf("%w: embedder reports model %q, bound as %q",
				domain.ErrInvalidConfiguration, e.ModelID(), id)
		}
		switch fuser.Strategy() {
		case domain.FusionConcat:
			dim += e.Dimensions()
		case domain.FusionAverage:
			if dim == 0 {
				dim = e.Dimensions()
			} else if e.Dimensions() != dim {
				return nil, fmt.Errorf("%w: weighted average requires equal dimensions, model %q has %d (want %d)",
					domain.ErrInvalidConfiguration, id, e.Dimensions(), dim)
			}
		}
	}

	return &MultiEmbedder{
		fuser:     fuser,
		embedders: embedders,
		onMissing: onMissing,
		dim:       dim,
	}, nil
}

// Signature identifies the model/fusion configuration: strategy, the
// sorted model:weight pairs and the composite dimension. Two indexes
// built under the same signature live in the same vector space.
func (m *MultiEmbedder) Signature() string {
	models := m.fuser.Models()
	parts := make([]string, 0, len(models))
	for _, id := range models {
		parts = append(parts, fmt.Sprintf("%s:%.4f", id, m.fuser.weights[id]))
	}
	sort.Strings(parts)
	return fmt.Sprintf("%s(%s)@%d", m.fuser.Strategy(), strings.Join(parts, ","), m.dim)
}

// Dimensions returns the composite vector size.
func (m *MultiEmbedder) Dimensions() int { return m.dim }

// Embed embeds one text with every configured model and fuses the
// results. degraded is true when a model failed but the policy allowed
// fusing the remainder; such chunks are flagged in the ingest report.
// A failed model contributes a zero vector of its declared dimension,
// so the composite dimension never varies per chunk: a degraded concat
// vector carries zeros in the missing model's slot instead of
// shrinking, and degraded and complete vectors stay index-compatible.
func (m *MultiEmbedder) Embed(ctx context.Context, text string) (vec []float32, degraded bool, err error) {
	vectors := make(map[string][]float32, len(m.embedders))
	var failures []error

	for _, id := range m.fuser.Models() {
		v, embedErr := m.embedders[id].Embed(ctx, text)
		if embedErr != nil {
			if m.onMissing == domain.MissingFail {
				return nil, false, fmt.Errorf("embed with %s: %w", id, embedErr)
			}
			logger.Warn("Model %s failed, fusing a zero component for it: %v", id, embedErr)
			failures = append(failures, fmt.Errorf("%s: %w", id, embedErr))
			vectors[id] = make([]float32, m.embedders[id].Dimensions())
			continue
		}
		vectors[id] = v
	}

	if len(failures) == len(m.embedders) {
		return nil, false, fmt.Errorf("all models failed: %w", errors.Join(failures...))
	}

	vec, err = m.fuser.Fuse(vectors)
	return vec, len(failures) > 0, err
}

// EmbedQuery embeds a query string. Queries never fuse degraded: a
// missing model at query time means the query vector would live in a
// different space than the index.
func (m *MultiEmbedder) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	vectors := make(map[string][]float32, len(m.embedders))
	for _, id := range m.fuser.Models() {
		v, err := m.embedders[id].Embed(ctx, query)
		if err != nil {
			return nil, fmt.Errorf("embed query with %s: %w", id, err)
		}
		vectors[id] = v
	}
	return m.fuser.Fuse(vectors)
}

// Ping verifies every backend is reachable before an ingestion run
// commits to processing.
func (m *MultiEmbedder) Ping(ctx context.Context) error {
	for _, id := range m.fuser.Models() {
		if err := m.embedders[id].Ping(ctx); err != nil {
			return fmt.Errorf("ping %s: %w", id, err)
		}
	}
	return nil
}

// Close releases every wrapped embedder.
func (m *MultiEmbedder) Close() error {
	var errs []error
	for _, e := range m.embedders {
		if err := e.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
