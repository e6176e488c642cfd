package generator

import (
	"context"

	"rag/internal/domain"
)

// Generator produces an answer to a query conditioned on retrieved chunks.
type Generator interface {
	Generate(ctx context.Context, query string, results []domain.SearchResult) (string, error)
}
