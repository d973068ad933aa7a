package chunking

import (
	"strings"
	"testing"
)

func TestSplitEmptyText(t *testing.T) {
	s := NewSplitter(100, 20)
	if got := s.Split(""); got != nil {
		t.Fatalf("expected nil for empty text, got %v", got)
	}
}

func TestSplitShortTextIsSingleChunk(t *testing.T) {
	s := NewSplitter(100, 20)
	chunks := s.Split("replace the cabin filter")
	if len(chunks) != 1 || chunks[0] != "replace the cabin filter" {
		t.Fatalf("unexpected chunks: %v", chunks)
	}
}

func TestSplitRespectsChunkSize(t *testing.T) {
	s := NewSplitter(50, 10)
	text := strings.Repeat("check the fluid level. ", 30)
	chunks := s.Split(text)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for i, c := range chunks {
		if len([]rune(c)) > 50 {
			t.Fatalf("chunk %d exceeds size: %d runes", i, len([]rune(c)))
		}
	}
}

func TestSplitPrefersSentenceBoundaries(t *testing.T) {
	s := NewSplitter(30, 0)
	chunks := s.Split("The first step is done now. Second step follows immediately after.")
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %v", chunks)
	}
	if chunks[0] != "The first step is done now." {
		t.Fatalf("expected cut at sentence boundary, got %q", chunks[0])
	}
}

func TestSplitOverlapSharesText(t *testing.T) {
	s := NewSplitter(20, 8)
	text := "aaaaaaaaaaaaaaaaaaaabbbbbbbbbbbbbbbbbbbb"
	chunks := s.Split(text)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %v", chunks)
	}
	tail := chunks[0][len(chunks[0])-4:]
	if !strings.HasPrefix(chunks[1], tail) {
		t.Fatalf("expected overlap between chunks: %q then %q", chunks[0], chunks[1])
	}
}

func TestNewSplitterClampsOverlap(t *testing.T) {
	s := NewSplitter(100, 200)
	if s.Overlap >= s.ChunkSize {
		t.Fatalf("overlap must be clamped below chunk size, got %d/%d", s.Overlap, s.ChunkSize)
	}
}
