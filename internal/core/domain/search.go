package domain

import "strings"

// SearchFilters is the structured predicate set applied after candidate
// retrieval. Court, SubjectMatter and the date range are hard filters,
// ANDed, excluding non-matching candidates. The tag filters are soft:
// they never exclude a candidate, they boost the ones whose metadata
// corroborates them. Zero-value fields are no-ops.
type SearchFilters struct {
	// Topic, ReasoningForm and Fallacy match their tag fields by
	// case-insensitive substring and contribute boost.
	Topic         string
	ReasoningForm string
	Fallacy       string

	// Court and SubjectMatter match by case-insensitive substring.
	Court         string
	SubjectMatter string

	// DateFrom and DateTo bound DecisionDate (ISO strings, inclusive).
	// Records without a decision date never match a date-bounded filter.
	DateFrom string
	DateTo   string
}

// Empty reports whether no predicate is set.
func (f SearchFilters) Empty() bool {
	return f == SearchFilters{}
}

// MatchHard reports whether a record passes every set hard predicate.
func (f SearchFilters) MatchHard(r MetadataRecord) bool {
	if f.Court != "" && !containsFold(r.Court, f.Court) {
		return false
	}
	if f.SubjectMatter != "" && !containsFold(r.SubjectMatter, f.SubjectMatter) {
		return false
	}
	if f.DateFrom != "" || f.DateTo != "" {
		if r.DecisionDate == nil {
			return false
		}
		d := *r.DecisionDate
		if f.DateFrom != "" && d < f.DateFrom {
			return false
		}
		if f.DateTo != "" && d > f.DateTo {
			return false
		}
	}
	return true
}

// Boost sums the increment of each tag dimension whose metadata
// corroborates the corresponding filter. A candidate lacking a filtered
// tag still ranks, just below an equally similar candidate carrying it.
func (f SearchFilters) Boost(r MetadataRecord, increments map[string]float64) float64 {
	var b float64
	if f.Topic != "" && containsFold(strings.Join(r.Topics, ", "), f.Topic) {
		b += increments["topic"]
	}
	if f.ReasoningForm != "" && containsFold(strings.Join(r.ReasoningForms, ", "), f.ReasoningForm) {
		b += increments["reasoning"]
	}
	if f.Fallacy != "" && containsFold(strings.Join(r.Fallacies, ", "), f.Fallacy) {
		b += increments["fallacy"]
	}
	return b
}

// containsFold is a case-insensitive substring match.
func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

// SearchResult is a single ranked hit.
type SearchResult struct {
	// Record is the joined metadata row for the matched chunk.
	Record MetadataRecord

	// Similarity is the inner-product score from the vector index
	// (cosine similarity on unit-normalised vectors).
	Similarity float64

	// Boost is the final ranking score: similarity plus fixed
	// increments for each filter dimension the metadata corroborates.
	Boost float64
}
