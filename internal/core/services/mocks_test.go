package services

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"strings"

	"github.com/pablofarias19/sentency-sub002/internal/core/domain"
)

// mockEmbedder is a deterministic composite embedder for service tests.
// By default each text maps to a stable pseudo-random unit vector; vecFn
// overrides the mapping for scenario tests that need known geometry.
type mockEmbedder struct {
	dim       int
	sig       string
	vecFn     func(text string) []float32
	failOn    string
	degradeOn string
	pingErr   error

	embedCalls int
}

func newMockEmbedder(dim int) *mockEmbedder {
	return &mockEmbedder{dim: dim, sig: fmt.Sprintf("average(test:1.0000)@%d", dim)}
}

func (m *mockEmbedder) vector(text string) []float32 {
	if m.vecFn != nil {
		return m.vecFn(text)
	}
	h := fnv.New64a()
	h.Write([]byte(text)) //nolint:errcheck
	seed := h.Sum64()

	v := make([]float32, m.dim)
	var norm float64
	for i := range v {
		seed = seed*6364136223846793005 + 1442695040888963407
		x := float64(int64(seed>>11)) / float64(1<<52)
		v[i] = float32(x)
		norm += x * x
	}
	inv := float32(1 / math.Sqrt(norm))
	for i := range v {
		v[i] *= inv
	}
	return v
}

func (m *mockEmbedder) Embed(_ context.Context, text string) ([]float32, bool, error) {
	m.embedCalls++
	if m.failOn != "" && strings.Contains(text, m.failOn) {
		return nil, false, fmt.Errorf("%w: mock backend down", domain.ErrModelUnavailable)
	}
	if m.degradeOn != "" && strings.Contains(text, m.degradeOn) {
		return m.vector(text), true, nil
	}
	return m.vector(text), false, nil
}

func (m *mockEmbedder) EmbedQuery(_ context.Context, query string) ([]float32, error) {
	if m.failOn != "" && strings.Contains(query, m.failOn) {
		return nil, fmt.Errorf("%w: mock backend down", domain.ErrModelUnavailable)
	}
	return m.vector(query), nil
}

func (m *mockEmbedder) Signature() string { return m.sig }
func (m *mockEmbedder) Dimensions() int   { return m.dim }

func (m *mockEmbedder) Ping(context.Context) error { return m.pingErr }
func (m *mockEmbedder) Close() error               { return nil }

// testConfig is a small valid configuration for service tests.
func testConfig() domain.RetrievalConfig {
	cfg := domain.DefaultRetrievalConfig()
	cfg.ChunkTokens = 4
	cfg.OverlapTokens = 1
	cfg.Workers = 2
	cfg.CandidateK = 10
	cfg.ModelWeights = map[string]float64{"test": 1.0}
	return cfg
}
