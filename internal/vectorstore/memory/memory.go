package memory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"rag/internal/domain"
)

// Store is an in-memory vector store using brute-force cosine similarity,
// with an optional JSON snapshot on disk for persistence across restarts.
// Reads take the shared lock so concurrent queries are safe while Upsert
// is serialized against them.
type Store struct {
	mu        sync.RWMutex
	path      string
	dimension int
	entries   []domain.Entry
}

// NewStore creates an empty store. If path is non-empty, Persist writes a
// JSON snapshot there and Load restores it.
func NewStore(path string) *Store { return &Store{path: path} }

func (s *Store) Init(_ context.Context, dimension int) error {
	if dimension <= 0 {
		return fmt.Errorf("%w: invalid dimension %d", domain.ErrVectorStore, dimension)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dimension = dimension
	s.entries = nil
	return nil
}

func (s *Store) Upsert(_ context.Context, entries []domain.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dimension == 0 && len(entries) > 0 {
		// adopt the dimension of the first batch when Init was skipped
		s.dimension = len(entries[0].Vector)
	}
	for _, e := range entries {
		if len(e.Vector) != s.dimension {
			return fmt.Errorf("%w: vector dimension %d, store dimension %d",
				domain.ErrVectorStore, len(e.Vector), s.dimension)
		}
	}
	s.entries = append(s.entries, entries...)
	return nil
}

// Search returns the topK most similar entries, ordered by descending
// cosine similarity. Ties keep insertion order (stable sort). Fewer than
// topK entries returns all of them; an empty store returns an empty slice.
func (s *Store) Search(_ context.Context, vector []float64, topK int) ([]domain.SearchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if topK <= 0 {
		topK = 5
	}
	if len(s.entries) == 0 {
		return nil, nil
	}
	if len(vector) != s.dimension {
		return nil, fmt.Errorf("%w: query vector dimension %d, store dimension %d",
			domain.ErrVectorStore, len(vector), s.dimension)
	}
	results := make([]domain.SearchResult, len(s.entries))
	for i, e := range s.entries {
		results[i] = domain.SearchResult{Chunk: e.Chunk, Score: cosine(vector, e.Vector)}
	}
	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if topK > len(results) {
		topK = len(results)
	}
	return results[:topK], nil
}

func (s *Store) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = nil
	return nil
}

// snapshot is the on-disk layout of a persisted store.
type snapshot struct {
	Dimension int            `json:"dimension"`
	Entries   []domain.Entry `json:"entries"`
}

// Persist writes the store to its snapshot path atomically (temp file +
// rename).
func (s *Store) Persist(_ context.Context) error {
	if s.path == "" {
		return nil
	}
	s.mu.RLock()
	snap := snapshot{Dimension: s.dimension, Entries: s.entries}
	data, err := json.Marshal(snap)
	s.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("%w: encode snapshot: %v", domain.ErrVectorStore, err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrVectorStore, err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrVectorStore, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrVectorStore, err)
	}
	return nil
}

// Load restores the store from its snapshot path. A missing snapshot
// leaves the store empty, which is not an error.
func (s *Store) Load(_ context.Context) error {
	if s.path == "" {
		return nil
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("%w: %v", domain.ErrVectorStore, err)
	}
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("%w: decode snapshot %s: %v", domain.ErrVectorStore, s.path, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dimension = snap.Dimension
	s.entries = snap.Entries
	return nil
}

// Len reports the number of stored entries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func cosine(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, na, nb float64
	for i := 0; i < n; i++ {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
