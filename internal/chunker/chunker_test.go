package chunker

import (
	"errors"
	"strings"
	"testing"

	"github.com/pablofarias19/sentency-sub002/internal/core/domain"
)

func TestNew(t *testing.T) {
	t.Run("valid parameters", func(t *testing.T) {
		s, err := New(4, 1)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if s.ChunkTokens() != 4 || s.Step() != 1 {
			t.Errorf("expected 4/1, got %d/%d", s.ChunkTokens(), s.Step())
		}
	})

	t.Run("step equal to chunk size", func(t *testing.T) {
		_, err := New(4, 4)
		if !errors.Is(err, domain.ErrInvalidConfiguration) {
			t.Errorf("expected ErrInvalidConfiguration, got %v", err)
		}
	})

	t.Run("step greater than chunk size", func(t *testing.T) {
		_, err := New(4, 10)
		if !errors.Is(err, domain.ErrInvalidConfiguration) {
			t.Errorf("expected ErrInvalidConfiguration, got %v", err)
		}
	})

	t.Run("negative step", func(t *testing.T) {
		_, err := New(4, -1)
		if !errors.Is(err, domain.ErrInvalidConfiguration) {
			t.Errorf("expected ErrInvalidConfiguration, got %v", err)
		}
	})

	t.Run("non-positive chunk size", func(t *testing.T) {
		_, err := New(0, 0)
		if !errors.Is(err, domain.ErrInvalidConfiguration) {
			t.Errorf("expected ErrInvalidConfiguration, got %v", err)
		}
	})
}

func TestSplit_Windows(t *testing.T) {
	s, err := New(4, 1)
	if err != nil {
		t.Fatal(err)
	}

	spans := s.Split("a b c d e f g h")

	want := []string{"a b c d", "d e f g", "g h"}
	if len(spans) != len(want) {
		t.Fatalf("expected %d spans, got %d", len(want), len(spans))
	}
	for i, w := range want {
		if spans[i].Text != w {
			t.Errorf("span %d: expected %q, got %q", i, w, spans[i].Text)
		}
		if spans[i].Index != i {
			t.Errorf("span %d: expected index %d, got %d", i, i, spans[i].Index)
		}
	}
	if spans[2].TokenCount != 2 {
		t.Errorf("final span should be truncated to 2 tokens, got %d", spans[2].TokenCount)
	}
}

func TestSplit_SingleWindow(t *testing.T) {
	s, err := New(10, 3)
	if err != nil {
		t.Fatal(err)
	}

	t.Run("text shorter than window", func(t *testing.T) {
		spans := s.Split("uno dos tres")
		if len(spans) != 1 {
			t.Fatalf("expected exactly one span, got %d", len(spans))
		}
		if spans[0].Text != "uno dos tres" {
			t.Errorf("expected whole text, got %q", spans[0].Text)
		}
	})

	t.Run("text exactly one window", func(t *testing.T) {
		text := strings.TrimSpace(strings.Repeat("w ", 10))
		spans := s.Split(text)
		if len(spans) != 1 {
			t.Fatalf("expected exactly one span, got %d", len(spans))
		}
	})

	t.Run("empty text", func(t *testing.T) {
		if spans := s.Split(""); spans != nil {
			t.Errorf("expected no spans, got %d", len(spans))
		}
	})

	t.Run("blank text", func(t *testing.T) {
		if spans := s.Split("  \n\t "); spans != nil {
			t.Errorf("expected no spans, got %d", len(spans))
		}
	})
}

// The last step tokens of span i must equal the first step tokens of
// span i+1, and concatenating the non-overlapping cores must rebuild
// the original token sequence.
func TestSplit_OverlapAndCoverage(t *testing.T) {
	const chunkTokens, step = 7, 3
	s, err := New(chunkTokens, step)
	if err != nil {
		t.Fatal(err)
	}

	words := make([]string, 53)
	for i := range words {
		words[i] = string(rune('a'+i%26)) + string(rune('0'+i%10))
	}
	text := strings.Join(words, " ")

	spans := s.Split(text)
	if len(spans) < 2 {
		t.Fatalf("expected multiple spans, got %d", len(spans))
	}

	for i := 0; i < len(spans)-1; i++ {
		cur := strings.Fields(spans[i].Text)
		next := strings.Fields(spans[i+1].Text)
		if len(cur) < step || len(next) < step {
			continue
		}
		tail := strings.Join(cur[len(cur)-step:], " ")
		head := strings.Join(next[:step], " ")
		if tail != head {
			t.Errorf("spans %d/%d: overlap mismatch: tail %q vs head %q", i, i+1, tail, head)
		}
	}

	// Rebuild from cores: the full first span, then each following span
	// minus its leading overlap.
	var rebuilt []string
	for i, sp := range spans {
		toks := strings.Fields(sp.Text)
		if i > 0 {
			toks = toks[step:]
		}
		rebuilt = append(rebuilt, toks...)
	}
	if strings.Join(rebuilt, " ") != text {
		t.Error("concatenated chunk cores do not reconstruct the token sequence")
	}
}

func TestSplit_Restartable(t *testing.T) {
	s, err := New(5, 2)
	if err != nil {
		t.Fatal(err)
	}
	text := "uno dos tres cuatro cinco seis siete ocho nueve diez"

	first := s.Split(text)
	second := s.Split(text)

	if len(first) != len(second) {
		t.Fatalf("repeated split changed span count: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("span %d differs between runs", i)
		}
	}
}
