package domain

// DistanceCategory classifies a chunk's distance from the doctrinal
// baseline for downstream consumers.
type DistanceCategory string

// Distance categories.
const (
	// DistanceAligned means the chunk sits close to consensus doctrine.
	DistanceAligned DistanceCategory = "aligned"

	// DistanceModerate means a measurable but unremarkable departure.
	DistanceModerate DistanceCategory = "moderate"

	// DistanceDeparted means a significant departure from consensus.
	DistanceDeparted DistanceCategory = "departed"
)

// Categorise maps a distance in [0,1] onto its category using the
// configured thresholds.
func (t DistanceThresholds) Categorise(distance float64) DistanceCategory {
	switch {
	case distance <= t.Aligned:
		return DistanceAligned
	case distance <= t.Moderate:
		return DistanceModerate
	default:
		return DistanceDeparted
	}
}

// Baseline is the doctrinal reference: a single unit-normalised vector
// (the renormalised mean of the doctrinal corpus's chunk embeddings)
// plus provenance. Exactly one baseline is active per corpus
// configuration; rebuilding it invalidates every cached
// MetadataRecord.DoctrinalDistance.
type Baseline struct {
	// Vector is the unit-normalised mean vector.
	Vector []float32

	// CorpusSize is the number of corpus chunks the mean was taken over.
	CorpusSize int

	// ModelSignature identifies the embedding/fusion configuration the
	// corpus was embedded with. Distances are only meaningful against
	// chunk vectors carrying the same signature.
	ModelSignature string

	// BuiltAt is the build timestamp in RFC 3339 form.
	BuiltAt string
}

// Distance returns 1 - dot(v, baseline), clamped to [0,1]. Both vectors
// are unit-normalised, so the dot product is cosine similarity.
func (b Baseline) Distance(v []float32) float64 {
	var dot float64
	n := len(v)
	if len(b.Vector) < n {
		n = len(b.Vector)
	}
	for i := 0; i < n; i++ {
		dot += float64(v[i]) * float64(b.Vector[i])
	}
	d := 1.0 - dot
	if d < 0 {
		return 0
	}
	if d > 1 {
		return 1
	}
	return d
}
