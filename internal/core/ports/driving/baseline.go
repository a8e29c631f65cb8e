package driving

import (
	"context"

	"github.com/pablofarias19/sentency-sub002/internal/core/domain"
)

// BaselineBuilder owns the doctrinal baseline lifecycle.
type BaselineBuilder interface {
	// Build embeds the doctrinal corpus texts, averages the vectors and
	// renormalises. A near-zero mean wraps domain.ErrDegenerateBaseline;
	// the previously active baseline artifact is never corrupted.
	Build(ctx context.Context, corpus []string) (domain.Baseline, error)

	// RecomputeDistances re-derives the cached doctrinal distance of
	// every stored chunk against the given baseline, in fixed-size
	// batches. Idempotent and safe to re-run after partial failure:
	// each chunk's write is independent and overwrites the prior value.
	RecomputeDistances(ctx context.Context, baseline domain.Baseline) (updated int, err error)
}
