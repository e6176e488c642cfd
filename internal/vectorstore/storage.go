package vectorstore

import (
	"context"

	"rag/internal/domain"
)

// Store persists (chunk, vector) entries and supports similarity search.
// Search on an empty store returns an empty result, not an error. Persist
// and Load bound the on-disk lifetime of an ingested index so it survives
// process restart; for server-backed stores they may be no-ops.
type Store interface {
	Init(ctx context.Context, dimension int) error
	Upsert(ctx context.Context, entries []domain.Entry) error
	Search(ctx context.Context, vector []float64, topK int) ([]domain.SearchResult, error)
	Persist(ctx context.Context) error
	Load(ctx context.Context) error
	Clear(ctx context.Context) error
}
