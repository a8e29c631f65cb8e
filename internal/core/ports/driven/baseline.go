package driven

import (
	"context"

	"github.com/pablofarias19/sentency-sub002/internal/core/domain"
)

// BaselineStore persists the active doctrinal baseline. Saving is
// atomic: a failed build never corrupts the previously active baseline.
type BaselineStore interface {
	Save(ctx context.Context, b domain.Baseline) error

	// Load returns domain.ErrNotFound when no baseline has been built.
	Load(ctx context.Context) (domain.Baseline, error)
}
