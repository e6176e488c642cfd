package chunker

import (
	"strconv"
	"strings"

	"rag/internal/domain"
)

// FixedChunker splits text into rune windows of at most chunkSize runes,
// with the last overlap runes of a window repeated at the start of the next.
// Boundaries do not respect sentence or paragraph structure.
type FixedChunker struct {
	chunkSize int
	overlap   int
}

func NewFixedChunker(chunkSize, overlap int) *FixedChunker {
	if chunkSize <= 0 {
		chunkSize = 800
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= chunkSize {
		overlap = chunkSize / 4
	}
	return &FixedChunker{chunkSize: chunkSize, overlap: overlap}
}

func (c *FixedChunker) Chunk(document domain.Document) ([]domain.Chunk, error) {
	runes := []rune(document.Content)
	if len(strings.TrimSpace(document.Content)) == 0 {
		return nil, nil
	}
	step := c.chunkSize - c.overlap
	var chunks []domain.Chunk
	idx := 0
	for start := 0; start < len(runes); start += step {
		end := start + c.chunkSize
		if end > len(runes) {
			end = len(runes)
		}
		text := strings.TrimSpace(string(runes[start:end]))
		if text != "" {
			chunks = append(chunks, domain.Chunk{
				DocumentID: document.ID,
				ChunkID:    document.ID + ":" + strconv.Itoa(idx),
				Source:     document.Source,
				Text:       text,
				Index:      idx,
			})
			idx++
		}
		if end == len(runes) {
			break
		}
	}
	return chunks, nil
}
