package indexer

import (
	"strings"
	"unicode/utf8"
)

const (
	DefaultChunkSize    = 1600
	DefaultChunkOverlap = 200
)

// Chunker splits document text into fixed-size overlapping spans. Sizes are
// in bytes but every cut is aligned to a rune boundary, so chunks are always
// valid UTF-8.
type Chunker struct {
	chunkSize int
	overlap   int
}

// NewChunker builds a chunker. Non-positive sizes fall back to defaults;
// an overlap that is negative or not smaller than the chunk size is reduced
// to a quarter of the chunk size.
func NewChunker(chunkSize, overlap int) *Chunker {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if overlap < 0 || overlap >= chunkSize {
		overlap = chunkSize / 4
	}
	return &Chunker{chunkSize: chunkSize, overlap: overlap}
}

func (c *Chunker) ChunkSize() int { return c.chunkSize }
func (c *Chunker) Overlap() int   { return c.overlap }

// TextChunk is one contiguous span of a document. Index runs from 0 to
// Total-1 with no gaps for a fully chunked document.
type TextChunk struct {
	Index int
	Total int
	Text  string
}

// Chunk splits text into spans of at most chunkSize bytes, consecutive spans
// overlapping by roughly the configured overlap. Empty or whitespace-only
// text yields no chunks.
func (c *Chunker) Chunk(text string) []TextChunk {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	step := c.chunkSize - c.overlap

	var chunks []TextChunk
	pos := 0
	for pos < len(text) {
		end := pos + c.chunkSize
		if end >= len(text) {
			end = len(text)
		} else {
			end = alignRuneBoundary(text, end)
		}

		piece := text[pos:end]
		if strings.TrimSpace(piece) != "" {
			chunks = append(chunks, TextChunk{Index: len(chunks), Text: piece})
		}

		if end == len(text) {
			break
		}
		pos = alignRuneBoundary(text, pos+step)
	}

	for i := range chunks {
		chunks[i].Total = len(chunks)
	}
	return chunks
}

// alignRuneBoundary moves pos forward past any UTF-8 continuation bytes so
// slicing at the result never splits a rune.
func alignRuneBoundary(s string, pos int) int {
	for pos < len(s) && !utf8.RuneStart(s[pos]) {
		pos++
	}
	return pos
}
