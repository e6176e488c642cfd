package qdrant

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rag/internal/domain"
)

func newTestStore(srvURL string) *Store {
	return NewStore(Config{URL: srvURL, Collection: "docs"})
}

func TestSearch_MissingCollectionIsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/collections/docs/points/search", r.URL.Path)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	s := newTestStore(srv.URL)
	results, err := s.Search(context.Background(), []float64{0.1, 0.2}, 4)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearch_ServerErrorIsVectorStoreError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	s := newTestStore(srv.URL)
	_, err := s.Search(context.Background(), []float64{0.1, 0.2}, 4)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrVectorStore)
}

func TestSearch_DecodesPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"result": []map[string]any{
				{
					"score": 0.87,
					"payload": map[string]any{
						"document_id": "doc1",
						"chunk_id":    "c1",
						"source":      "a.txt",
						"index":       float64(2),
						"text":        "hello",
					},
				},
			},
		})
	}))
	defer srv.Close()

	s := newTestStore(srv.URL)
	results, err := s.Search(context.Background(), []float64{0.1, 0.2}, 4)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "doc1", results[0].Chunk.DocumentID)
	assert.Equal(t, 2, results[0].Chunk.Index)
	assert.Equal(t, "hello", results[0].Chunk.Text)
	assert.InDelta(t, 0.87, results[0].Score, 1e-9)
}

func TestInit_HonorsContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	s := newTestStore(srv.URL)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := s.Init(ctx, 3)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrVectorStore)
}

func TestInit_CreatesCollection(t *testing.T) {
	var gotPath string
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.Method + " " + r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	s := newTestStore(srv.URL)
	require.NoError(t, s.Init(context.Background(), 3))
	assert.Equal(t, "PUT /collections/docs", gotPath)
	vectors := gotBody["vectors"].(map[string]any)
	assert.Equal(t, float64(3), vectors["size"])
	assert.Equal(t, "Cosine", vectors["distance"])
}
