package domain

import "errors"

// Sentinel errors for the failure classes the pipeline distinguishes.
// Callers match with errors.Is; implementations wrap these with %w and
// attach detail.
var (
	// ErrConfiguration indicates invalid or missing configuration, such as
	// an absent API key. Fatal at startup, before any query is accepted.
	ErrConfiguration = errors.New("configuration error")

	// ErrEmbeddingService indicates the external embedding API failed.
	ErrEmbeddingService = errors.New("embedding service error")

	// ErrVectorStore indicates a vector store query or persistence failure.
	ErrVectorStore = errors.New("vector store error")

	// ErrGenerationService indicates the external completion API failed.
	// Front ends render it and stay usable for the next query.
	ErrGenerationService = errors.New("generation service error")
)
