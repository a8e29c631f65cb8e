// Package chunker splits raw document text into overlapping,
// token-bounded fragments.
package chunker

import (
	"fmt"
	"strings"

	"github.com/pablofarias19/sentency-sub002/internal/core/domain"
)

// Span is one window over the token sequence: its 0-based index within
// the document and the joined text.
type Span struct {
	Index      int
	Text       string
	TokenCount int
}

// Splitter produces overlapping spans with a fixed token budget.
// It is pure: Split has no side effects and depends only on its input.
type Splitter struct {
	chunkTokens int
	step        int // overlap length in tokens
}

// New creates a splitter with a window of chunkTokens advancing by
// chunkTokens-step each iteration, so step is the overlap length.
// step >= chunkTokens would produce zero or negative advance and is
// rejected up front.
func New(chunkTokens, step int) (*Splitter, error) {
	if chunkTokens <= 0 {
		return nil, fmt.Errorf("%w: chunk_tokens must be positive, got %d", domain.ErrInvalidConfiguration, chunkTokens)
	}
	if step < 0 {
		return nil, fmt.Errorf("%w: step must not be negative, got %d", domain.ErrInvalidConfiguration, step)
	}
	if step >= chunkTokens {
		return nil, fmt.Errorf("%w: step (%d) must be smaller than chunk_tokens (%d)",
			domain.ErrInvalidConfiguration, step, chunkTokens)
	}
	return &Splitter{chunkTokens: chunkTokens, step: step}, nil
}

// Split tokenises text on whitespace and slides the window over it.
// The final window is truncated to the remaining tail, never padded.
// If the text fits inside one window, exactly one span is emitted.
// Empty or blank text produces no spans.
func (s *Splitter) Split(text string) []Span {
	tokens := strings.Fields(text)
	if len(tokens) == 0 {
		return nil
	}

	advance := s.chunkTokens - s.step
	spans := make([]Span, 0, len(tokens)/advance+1)

	for i, k := 0, 0; i < len(tokens); i, k = i+advance, k+1 {
		j := i + s.chunkTokens
		if j > len(tokens) {
			j = len(tokens)
		}
		spans = append(spans, Span{
			Index:      k,
			Text:       strings.Join(tokens[i:j], " "),
			TokenCount: j - i,
		})
		if j == len(tokens) {
			break
		}
	}

	return spans
}

// ChunkTokens returns the configured window size.
func (s *Splitter) ChunkTokens() int { return s.chunkTokens }

// Step returns the configured overlap length.
func (s *Splitter) Step() int { return s.step }
