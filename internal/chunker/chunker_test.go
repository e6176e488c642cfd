package chunker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rag/internal/domain"
)

func TestFixedChunker_BoundedSize(t *testing.T) {
	c := NewFixedChunker(100, 20)
	doc := domain.Document{ID: "d1", Source: "a.txt", Content: strings.Repeat("abcde ", 200)}

	chunks, err := c.Chunk(doc)
	require.NoError(t, err)
	require.NotEmpty(t, chunks)
	for _, ch := range chunks {
		assert.LessOrEqual(t, len([]rune(ch.Text)), 100)
		assert.Equal(t, "d1", ch.DocumentID)
		assert.Equal(t, "a.txt", ch.Source)
	}
}

func TestFixedChunker_DeterministicCount(t *testing.T) {
	c := NewFixedChunker(50, 10)
	doc := domain.Document{ID: "d1", Content: strings.Repeat("x", 200)}

	first, err := c.Chunk(doc)
	require.NoError(t, err)
	second, err := c.Chunk(doc)
	require.NoError(t, err)
	require.Equal(t, len(first), len(second))

	// 200 runes, window 50, step 40: starts at 0, 40, 80, 120, 160
	assert.Len(t, first, 5)
}

func TestFixedChunker_Overlap(t *testing.T) {
	c := NewFixedChunker(10, 4)
	doc := domain.Document{ID: "d1", Content: "abcdefghijklmnopqrst"}

	chunks, err := c.Chunk(doc)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(chunks), 2)
	// the last 4 runes of a window open the next one
	assert.Equal(t, "abcdefghij", chunks[0].Text)
	assert.Equal(t, "ghijklmnop", chunks[1].Text)
}

func TestFixedChunker_EmptyInput(t *testing.T) {
	c := NewFixedChunker(100, 10)
	chunks, err := c.Chunk(domain.Document{ID: "d1", Content: "   \n  "})
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestFixedChunker_ChunkIDsAreSequential(t *testing.T) {
	c := NewFixedChunker(8, 0)
	chunks, err := c.Chunk(domain.Document{ID: "doc", Content: "aaaaaaaabbbbbbbbcccccccc"})
	require.NoError(t, err)
	require.Len(t, chunks, 3)
	for i, ch := range chunks {
		assert.Equal(t, i, ch.Index)
	}
	assert.Equal(t, "doc:0", chunks[0].ChunkID)
	assert.Equal(t, "doc:2", chunks[2].ChunkID)
}

func TestSentenceChunker_SplitsWithOverlap(t *testing.T) {
	c := NewSentenceChunker(2, 1)
	doc := domain.Document{ID: "d1", Content: "One fish. Two fish. Red fish. Blue fish."}

	chunks, err := c.Chunk(doc)
	require.NoError(t, err)
	require.Len(t, chunks, 3)
	assert.Equal(t, "One fish. Two fish.", chunks[0].Text)
	assert.Equal(t, "Two fish. Red fish.", chunks[1].Text)
	assert.Equal(t, "Red fish. Blue fish.", chunks[2].Text)
}

func TestSentenceChunker_NoTerminator(t *testing.T) {
	c := NewSentenceChunker(3, 0)
	chunks, err := c.Chunk(domain.Document{ID: "d1", Content: "no punctuation at all"})
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "no punctuation at all", chunks[0].Text)
}

func TestSentenceChunker_EmptyInput(t *testing.T) {
	c := NewSentenceChunker(3, 1)
	chunks, err := c.Chunk(domain.Document{ID: "d1", Content: ""})
	require.NoError(t, err)
	assert.Empty(t, chunks)
}
