package domain

import "fmt"

const unknownDescription = "Unknown"

// FusionStrategy selects how per-model vectors combine into one
// composite vector.
type FusionStrategy string

// Available fusion strategies.
const (
	// FusionConcat concatenates component vectors, each pre-scaled by
	// sqrt(weight) so squared weight contributes proportionally to the
	// total norm. Output dimension is the sum of component dimensions.
	FusionConcat FusionStrategy = "concat"

	// FusionAverage sums weight-scaled component vectors and
	// renormalises. All components must share a dimension.
	FusionAverage FusionStrategy = "average"
)

// IsValid returns true if the fusion strategy is recognised.
func (s FusionStrategy) IsValid() bool {
	switch s {
	case FusionConcat, FusionAverage:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (s FusionStrategy) String() string {
	return string(s)
}

// Description returns a human-readable description of the strategy.
func (s FusionStrategy) Description() string {
	switch s {
	case FusionConcat:
		return "Weighted concatenation (sqrt-weight scaled)"
	case FusionAverage:
		return "Weighted average (shared dimension)"
	default:
		return unknownDescription
	}
}

// MissingPolicy decides what happens when one model's vector is missing
// for a chunk while the others succeeded.
type MissingPolicy string

// Available missing-vector policies.
const (
	// MissingFail rejects the whole chunk.
	MissingFail MissingPolicy = "fail"

	// MissingDegrade fuses the remaining models and flags the chunk
	// as degraded in the ingestion report.
	MissingDegrade MissingPolicy = "degrade"
)

// IsValid returns true if the missing-vector policy is recognised.
func (p MissingPolicy) IsValid() bool {
	return p == MissingFail || p == MissingDegrade
}

// DistanceThresholds are the category boundaries for doctrinal distance.
// They are configuration constants, not hardcoded logic.
type DistanceThresholds struct {
	// Aligned is the upper bound (inclusive) of the "aligned" category.
	Aligned float64

	// Moderate is the upper bound (inclusive) of the "moderate" category.
	// Everything above is "departed".
	Moderate float64
}

// DefaultDistanceThresholds are the canonical category boundaries.
var DefaultDistanceThresholds = DistanceThresholds{Aligned: 0.20, Moderate: 0.50}

// Default configuration values.
const (
	DefaultChunkTokens   = 1000
	DefaultOverlapTokens = 300
	DefaultCandidateK    = 30
	DefaultWorkers       = 4
	DefaultBoost         = 0.2
)

// RetrievalConfig is the single immutable configuration value threaded
// through every component constructor. There is no ambient global state.
type RetrievalConfig struct {
	// ChunkTokens is the sliding window size in whitespace tokens.
	ChunkTokens int

	// OverlapTokens is the overlap between consecutive chunks, in
	// tokens. The window advances by ChunkTokens-OverlapTokens.
	OverlapTokens int

	// Strategy selects the fusion strategy.
	Strategy FusionStrategy

	// OnMissing is the degraded-fusion policy.
	OnMissing MissingPolicy

	// ModelWeights maps model IDs to fusion weights. The set of keys is
	// the set of models every chunk is embedded with; the weight total
	// is fixed but need not be 1.0.
	ModelWeights map[string]float64

	// CandidateK is how many index candidates to retrieve before
	// post-filtering shrinks the set. Always at least the caller's topK.
	CandidateK int

	// Workers bounds the embedding worker pool during ingestion.
	Workers int

	// BoostIncrements maps filter dimensions ("topic", "reasoning",
	// "fallacy") to the additive boost applied when the metadata field
	// independently corroborates that filter.
	BoostIncrements map[string]float64

	// Thresholds are the doctrinal distance category boundaries.
	Thresholds DistanceThresholds
}

// DefaultRetrievalConfig returns the canonical configuration.
// Model weights are empty: the caller supplies them from its config file.
func DefaultRetrievalConfig() RetrievalConfig {
	return RetrievalConfig{
		ChunkTokens:   DefaultChunkTokens,
		OverlapTokens: DefaultOverlapTokens,
		Strategy:      FusionAverage,
		OnMissing:     MissingFail,
		CandidateK:    DefaultCandidateK,
		Workers:       DefaultWorkers,
		BoostIncrements: map[string]float64{
			"topic":     DefaultBoost,
			"reasoning": DefaultBoost,
			"fallacy":   DefaultBoost,
		},
		Thresholds: DefaultDistanceThresholds,
	}
}

// Validate checks every parameter before any processing starts.
// All failures wrap ErrInvalidConfiguration.
func (c RetrievalConfig) Validate() error {
	if c.ChunkTokens <= 0 {
		return fmt.Errorf("%w: chunk_tokens must be positive, got %d", ErrInvalidConfiguration, c.ChunkTokens)
	}
	if c.OverlapTokens < 0 {
		return fmt.Errorf("%w: overlap_tokens must not be negative, got %d", ErrInvalidConfiguration, c.OverlapTokens)
	}
	// step >= chunk size would produce zero or negative window advance.
	if c.OverlapTokens >= c.ChunkTokens {
		return fmt.Errorf("%w: overlap_tokens (%d) must be smaller than chunk_tokens (%d)",
			ErrInvalidConfiguration, c.OverlapTokens, c.ChunkTokens)
	}
	if !c.Strategy.IsValid() {
		return fmt.Errorf("%w: unknown fusion strategy %q", ErrInvalidConfiguration, c.Strategy)
	}
	if !c.OnMissing.IsValid() {
		return fmt.Errorf("%w: unknown missing-vector policy %q", ErrInvalidConfiguration, c.OnMissing)
	}
	if len(c.ModelWeights) == 0 {
		return fmt.Errorf("%w: at least one model weight is required", ErrInvalidConfiguration)
	}
	for id, w := range c.ModelWeights {
		if w <= 0 {
			return fmt.Errorf("%w: model %q has non-positive weight %v", ErrInvalidConfiguration, id, w)
		}
	}
	if c.CandidateK <= 0 {
		return fmt.Errorf("%w: candidate_k must be positive, got %d", ErrInvalidConfiguration, c.CandidateK)
	}
	if c.Workers <= 0 {
		return fmt.Errorf("%w: workers must be positive, got %d", ErrInvalidConfiguration, c.Workers)
	}
	for name, inc := range c.BoostIncrements {
		if inc < 0 {
			return fmt.Errorf("%w: boost increment %q must not be negative, got %v", ErrInvalidConfiguration, name, inc)
		}
	}
	if c.Thresholds.Aligned <= 0 || c.Thresholds.Moderate <= c.Thresholds.Aligned {
		return fmt.Errorf("%w: distance thresholds must satisfy 0 < aligned < moderate, got %v/%v",
			ErrInvalidConfiguration, c.Thresholds.Aligned, c.Thresholds.Moderate)
	}
	return nil
}
