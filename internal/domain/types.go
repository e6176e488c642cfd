package domain

// Document represents a single source text loaded into the system.
// The ID is a stable hash of the source path or URL.
type Document struct {
	ID      string
	Source  string
	Content string
}

// Chunk is a bounded slice of a document used as the unit of retrieval.
type Chunk struct {
	DocumentID string
	ChunkID    string
	Source     string
	Text       string
	Index      int
}

// Entry couples a chunk with its embedding vector inside the vector store.
type Entry struct {
	ID     string    `json:"id"`
	Chunk  Chunk     `json:"chunk"`
	Vector []float64 `json:"vector"`
}

// SearchResult represents a matching chunk with a relevance score.
type SearchResult struct {
	Chunk Chunk
	Score float64
}

// Answer is the generated response together with the chunks it was
// conditioned on.
type Answer struct {
	Text    string
	Sources []SearchResult
}

// IngestReport summarizes a completed ingestion run.
type IngestReport struct {
	Documents int
	Chunks    int
	Summary   string
}

// Chunker splits documents into chunks suitable for retrieval indexing.
type Chunker interface {
	Chunk(document Document) ([]Chunk, error)
}

// Summarizer produces a brief summary of the provided text.
type Summarizer interface {
	Summarize(text string, maxSentences int) (string, error)
}
