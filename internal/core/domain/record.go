package domain

// MetadataRecord is one row of structured provenance per chunk.
// All fields except DoctrinalDistance are write-once at ingestion time.
// Absent values are nil pointers, not empty strings, so callers can tell
// "unknown" from "known empty" under partial metadata.
type MetadataRecord struct {
	// ChunkID keys the record.
	ChunkID string

	// Expediente is the case file reference, when the extractor found one.
	Expediente *string

	// SourceFile is the file the text was extracted from.
	SourceFile string

	// DecisionDate is the decision date in ISO form (YYYY-MM-DD).
	// ISO strings compare correctly with plain string ordering, which is
	// what the date-range filter relies on.
	DecisionDate *string

	// Court is the deciding tribunal.
	Court string

	// Jurisdiction is the territorial jurisdiction.
	Jurisdiction string

	// SubjectMatter is the broad matter classification.
	SubjectMatter string

	// Topics, ReasoningForms and Fallacies are tag lists, persisted as
	// JSON arrays and matched by case-insensitive substring.
	Topics         []string
	ReasoningForms []string
	Fallacies      []string

	// DoctrineCitations and JurisprudenceCitations are citation lists,
	// persisted as JSON.
	DoctrineCitations      []string
	JurisprudenceCitations []string

	// Text is the chunk text, denormalised for snippet display.
	Text string

	// DoctrinalDistance is the cached distance from the active doctrinal
	// baseline, in [0,1]. It is a cache, not a source of truth: it is
	// re-derivable at any time by re-embedding Text against the current
	// baseline, and goes stale when the baseline is rebuilt.
	DoctrinalDistance *float64
}

// Snippet returns at most n bytes of the record text for display,
// with an ellipsis when truncated.
func (r MetadataRecord) Snippet(n int) string {
	if n <= 0 || len(r.Text) <= n {
		return r.Text
	}
	return r.Text[:n] + "..."
}
