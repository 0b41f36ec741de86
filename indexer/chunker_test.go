package indexer

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestChunker_Chunk(t *testing.T) {
	chunker := NewChunker(100, 10)

	content := strings.Repeat("a line of prose\n", 50)
	chunks := chunker.Chunk(content)

	if len(chunks) == 0 {
		t.Fatal("expected at least one chunk")
	}

	for i, chunk := range chunks {
		if chunk.Index != i {
			t.Errorf("chunk %d has index %d", i, chunk.Index)
		}
		if chunk.Total != len(chunks) {
			t.Errorf("chunk %d has total %d, want %d", i, chunk.Total, len(chunks))
		}
		if chunk.Text == "" {
			t.Errorf("chunk %d has empty text", i)
		}
		if len(chunk.Text) > 100 {
			t.Errorf("chunk %d exceeds size limit: %d bytes", i, len(chunk.Text))
		}
	}
}

func TestChunker_ChunkEmpty(t *testing.T) {
	chunker := NewChunker(512, 50)
	if chunks := chunker.Chunk(""); len(chunks) != 0 {
		t.Errorf("expected 0 chunks for empty content, got %d", len(chunks))
	}
}

func TestChunker_ChunkWhitespaceOnly(t *testing.T) {
	chunker := NewChunker(512, 50)
	if chunks := chunker.Chunk("   \n\n\t\t\n   "); len(chunks) != 0 {
		t.Errorf("expected 0 chunks for whitespace-only content, got %d", len(chunks))
	}
}

func TestChunker_SmallDocumentSingleChunk(t *testing.T) {
	chunker := NewChunker(1600, 200)
	chunks := chunker.Chunk("just a few words here")

	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].Index != 0 || chunks[0].Total != 1 {
		t.Errorf("unexpected index/total: %d/%d", chunks[0].Index, chunks[0].Total)
	}
}

func TestChunker_Overlap(t *testing.T) {
	chunker := NewChunker(100, 20)
	content := strings.Repeat("x", 300)

	chunks := chunker.Chunk(content)
	if len(chunks) < 3 {
		t.Fatalf("expected at least 3 chunks, got %d", len(chunks))
	}

	// Consecutive chunks share their boundary region.
	first := chunks[0].Text
	second := chunks[1].Text
	if !strings.HasPrefix(second, first[len(first)-20:]) {
		t.Error("expected second chunk to start with the overlap of the first")
	}
}

func TestChunker_DefaultValues(t *testing.T) {
	chunker := NewChunker(0, -1)

	if chunker.ChunkSize() != DefaultChunkSize {
		t.Errorf("expected default chunk size %d, got %d", DefaultChunkSize, chunker.ChunkSize())
	}
	if chunker.Overlap() >= chunker.ChunkSize() {
		t.Error("overlap should be less than chunk size")
	}
}

func TestChunker_OverlapTooLarge(t *testing.T) {
	chunker := NewChunker(100, 150)
	if chunker.Overlap() >= chunker.ChunkSize() {
		t.Error("overlap should be reduced below chunk size")
	}
}

func TestChunker_ContiguousIndexes(t *testing.T) {
	chunker := NewChunker(50, 10)
	chunks := chunker.Chunk(strings.Repeat("word ", 200))

	for i, chunk := range chunks {
		if chunk.Index != i {
			t.Fatalf("index gap at position %d: got %d", i, chunk.Index)
		}
	}
}

func TestAlignRuneBoundary(t *testing.T) {
	// "é" is 2 bytes, "═" is 3 bytes, "🚀" is 4 bytes
	content := "a═🚀é"
	if len(content) != 10 {
		t.Fatalf("expected content length 10, got %d", len(content))
	}

	for pos := 0; pos <= len(content); pos++ {
		result := alignRuneBoundary(content, pos)
		if result < pos {
			t.Errorf("alignRuneBoundary(%d) = %d, moved backwards", pos, result)
		}
		if result < len(content) && !utf8.RuneStart(content[result]) {
			t.Errorf("alignRuneBoundary(%d) = %d, not a rune start", pos, result)
		}
	}
}

func TestChunker_UTF8Boundaries(t *testing.T) {
	// Force splits in the middle of multi-byte sequences.
	chunker := NewChunker(10, 2)

	content := strings.Repeat("═", 20) + strings.Repeat("🚀", 15) + strings.Repeat("é", 30)
	chunks := chunker.Chunk(content)

	if len(chunks) == 0 {
		t.Fatal("expected at least one chunk")
	}
	for i, chunk := range chunks {
		if !utf8.ValidString(chunk.Text) {
			t.Errorf("chunk %d contains invalid UTF-8", i)
		}
	}
}
