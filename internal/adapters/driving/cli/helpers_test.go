package cli

import (
	"context"
	"sync"

	"github.com/pablofarias19/sentency-sub002/internal/core/domain"
)

// stubEngine implements the driving ports with canned responses so
// commands can run without real backends.
type stubEngine struct {
	mu        sync.Mutex
	ingested  []domain.SourceDocument
	rebuilds  int
	results   []domain.SearchResult
	searchErr error
	query     string
	filters   domain.SearchFilters
	topK      int
	baseline  domain.Baseline
	corpus    []string
}

func (s *stubEngine) Ingest(_ context.Context, doc domain.SourceDocument) (domain.IngestReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ingested = append(s.ingested, doc)
	return domain.IngestReport{
		RunID:      "run-1",
		DocumentID: doc.ID,
		ChunkIDs:   []string{domain.ChunkID(doc.ID, 0)},
	}, nil
}

func (s *stubEngine) RebuildIndex(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rebuilds++
	return nil
}

func (s *stubEngine) Search(_ context.Context, query string, filters domain.SearchFilters, topK int) ([]domain.SearchResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.query, s.filters, s.topK = query, filters, topK
	return s.results, s.searchErr
}

func (s *stubEngine) Build(_ context.Context, corpus []string) (domain.Baseline, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.corpus = corpus
	return s.baseline, nil
}

func (s *stubEngine) RecomputeDistances(context.Context, domain.Baseline) (int, error) {
	return len(s.results), nil
}

// setupTestServices installs a stub engine behind the commands and
// returns it with a cleanup restoring the previous wiring.
func setupTestServices() (*stubEngine, func()) {
	stub := &stubEngine{
		baseline: domain.Baseline{CorpusSize: 1, ModelSignature: "average(test:1.0000)@4"},
	}

	prevIngest, prevSearch, prevBaseline := ingestService, searchService, baselineService
	ingestService, searchService, baselineService = stub, stub, stub

	return stub, func() {
		ingestService, searchService, baselineService = prevIngest, prevSearch, prevBaseline
		resetFlags()
	}
}

// resetFlags clears the package-level flag values between executions.
func resetFlags() {
	searchLimit = 10
	searchJSON = false
	searchTopic, searchReasoning, searchFallacy = "", "", ""
	searchCourt, searchSubject, searchFrom, searchTo = "", "", "", ""
	ingestDocID, ingestExpediente, ingestDate = "", "", ""
	ingestCourt, ingestJurisd, ingestSubject = "", "", ""
	ingestTopics, ingestReasoning, ingestFallacies = nil, nil, nil
	ingestNoRebuild = false
}
