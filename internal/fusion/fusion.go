// Package fusion combines the outputs of multiple embedding models into
// one composite vector per chunk, and wraps a set of models behind a
// single embedder with a stable configuration signature.
package fusion

import (
	"fmt"
	"math"
	"sort"

	"github.com/pablofarias19/sentency-sub002/internal/core/domain"
)

// Fuser deterministically combines per-model vectors using a fixed
// strategy and weight table. Identical inputs and weights always produce
// identical output: models are processed in sorted model-ID order.
type Fuser struct {
	strategy domain.FusionStrategy
	weights  map[string]float64
	order    []string // sorted model IDs
}

// New creates a fuser. The weight table is the full model set; its key
// order never matters because fusion iterates models in sorted order.
func New(strategy domain.FusionStrategy, weights map[string]float64) (*Fuser, error) {
	if !strategy.IsValid() {
		return nil, fmt.Errorf("%w: unknown fusion strategy %q", domain.ErrInvalidConfiguration, strategy)
	}
	if len(weights) == 0 {
		return nil, fmt.Errorf("%w: fusion requires at least one model weight", domain.ErrInvalidConfiguration)
	}
	order := make([]string, 0, len(weights))
	for id, w := range weights {
		if w <= 0 {
			return nil, fmt.Errorf("%w: model %q has non-positive weight %v", domain.ErrInvalidConfiguration, id, w)
		}
		order = append(order, id)
	}
	sort.Strings(order)

	return &Fuser{strategy: strategy, weights: weights, order: order}, nil
}

// Models returns the model IDs in fusion order.
func (f *Fuser) Models() []string {
	out := make([]string, len(f.order))
	copy(out, f.order)
	return out
}

// Strategy returns the configured fusion strategy.
func (f *Fuser) Strategy() domain.FusionStrategy { return f.strategy }

// Fuse combines one vector per model into a single unit-normalised
// composite. Every configured model must be present. A caller whose
// missing-vector policy allows degraded fusion substitutes a zero
// vector of the model's dimension: the composite dimension stays
// stable and the missing model contributes nothing to inner products.
func (f *Fuser) Fuse(vectorsByModel map[string][]float32) ([]float32, error) {
	for _, id := range f.order {
		if _, ok := vectorsByModel[id]; !ok {
			return nil, fmt.Errorf("%w: missing vector for model %q", domain.ErrInvalidInput, id)
		}
	}
	switch f.strategy {
	case domain.FusionConcat:
		return f.concat(vectorsByModel, f.order)
	case domain.FusionAverage:
		return f.average(vectorsByModel, f.order)
	default:
		return nil, fmt.Errorf("%w: unknown fusion strategy %q", domain.ErrInvalidConfiguration, f.strategy)
	}
}

// concat pre-scales each component by sqrt(weight) before concatenation
// so squared weight contributes proportionally to the total norm, then
// renormalises the whole.
func (f *Fuser) concat(vectorsByModel map[string][]float32, models []string) ([]float32, error) {
	total := 0
	for _, id := range models {
		total += len(vectorsByModel[id])
	}
	out := make([]float32, 0, total)
	for _, id := range models {
		scale := float32(math.Sqrt(f.weights[id]))
		for _, v := range vectorsByModel[id] {
			out = append(out, v*scale)
		}
	}
	if !normalize(out) {
		return nil, fmt.Errorf("%w: concatenated vector has near-zero norm", domain.ErrInvalidInput)
	}
	return out, nil
}

// average requires all components to share a dimension and returns
// normalize(sum of weight_i * vector_i).
func (f *Fuser) average(vectorsByModel map[string][]float32, models []string) ([]float32, error) {
	dim := len(vectorsByModel[models[0]])
	for _, id := range models[1:] {
		if len(vectorsByModel[id]) != dim {
			return nil, fmt.Errorf("%w: weighted average requires equal dimensions, model %q has %d (want %d)",
				domain.ErrInvalidConfiguration, id, len(vectorsByModel[id]), dim)
		}
	}
	out := make([]float32, dim)
	for _, id := range models {
		w := float32(f.weights[id])
		for i, v := range vectorsByModel[id] {
			out[i] += w * v
		}
	}
	if !normalize(out) {
		return nil, fmt.Errorf("%w: averaged vector has near-zero norm", domain.ErrInvalidInput)
	}
	return out, nil
}

// normEpsilon guards against dividing by a near-zero norm.
const normEpsilon = 1e-9

// normalize scales v to unit L2 norm in place. Returns false when the
// norm is below epsilon.
func normalize(v []float32) bool {
	n := Norm(v)
	if n < normEpsilon {
		return false
	}
	inv := float32(1.0 / n)
	for i := range v {
		v[i] *= inv
	}
	return true
}

// Normalize returns a unit-normalised copy of v, or an error when the
// norm is degenerate.
func Normalize(v []float32) ([]float32, error) {
	out := make([]float32, len(v))
	copy(out, v)
	if !normalize(out) {
		return nil, fmt.Errorf("%w: vector has near-zero norm", domain.ErrInvalidInput)
	}
	return out, nil
}

// Norm returns the L2 norm of v.
func Norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

// Dot returns the inner product of a and b over their common prefix.
func Dot(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float64
	for i := 0; i < n; i++ {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}
