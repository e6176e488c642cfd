package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rag/internal/domain"
)

const testKeyEnv = "TEST_EMBED_API_KEY"

func newTestClient(t *testing.T, srvURL string, maxRetries int) *Client {
	t.Helper()
	t.Setenv(testKeyEnv, "sk-test")
	c, err := NewClient(Config{
		BaseURL:    srvURL + "/v1",
		APIKeyEnv:  testKeyEnv,
		Model:      "test-embedding",
		Timeout:    2 * time.Second,
		BatchSize:  2,
		MaxRetries: maxRetries,
	})
	require.NoError(t, err)
	return c
}

func embeddingsResponse(inputs int) map[string]any {
	data := make([]map[string]any, inputs)
	for i := range data {
		data[i] = map[string]any{
			"object":    "embedding",
			"index":     i,
			"embedding": []float64{0.1, 0.2, 0.3},
		}
	}
	return map[string]any{"object": "list", "data": data, "model": "test-embedding"}
}

func TestNewClient_MissingKeyIsConfigurationError(t *testing.T) {
	t.Setenv(testKeyEnv, "")
	_, err := NewClient(Config{APIKeyEnv: testKeyEnv})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestEmbed_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/embeddings", r.URL.Path)
		var req struct {
			Input []string `json:"input"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		json.NewEncoder(w).Encode(embeddingsResponse(len(req.Input)))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, 1)
	vec, err := c.Embed(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, []float64{0.1, 0.2, 0.3}, vec)
	assert.Equal(t, 3, c.Dimension())
}

func TestEmbedBatch_SplitsIntoBatches(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		var req struct {
			Input []string `json:"input"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.LessOrEqual(t, len(req.Input), 2)
		json.NewEncoder(w).Encode(embeddingsResponse(len(req.Input)))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, 1)
	vecs, err := c.EmbedBatch(context.Background(), []string{"a", "b", "c"})
	require.NoError(t, err)
	require.Len(t, vecs, 3)
	assert.Equal(t, 2, calls)
}

func TestEmbed_ConcurrentFirstCalls(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Input []string `json:"input"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		json.NewEncoder(w).Encode(embeddingsResponse(len(req.Input)))
	}))
	defer srv.Close()

	// No prior ingest, so the first parallel queries all race to adopt the
	// vector dimension. Run under -race.
	c := newTestClient(t, srv.URL, 1)
	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			vec, err := c.Embed(context.Background(), "hello")
			if err == nil && len(vec) != 3 {
				err = errors.New("unexpected vector length")
			}
			errs[i] = err
		}(i)
	}
	wg.Wait()
	for _, err := range errs {
		require.NoError(t, err)
	}
	assert.Equal(t, 3, c.Dimension())
}

func TestEmbed_ServerErrorSurfacesAfterRetries(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"message": "boom", "type": "server_error"},
		})
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, 2)
	_, err := c.Embed(context.Background(), "hello")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrEmbeddingService)
	assert.Equal(t, 2, calls)
}

func TestEmbed_RecoversAfterTransientFailure(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			json.NewEncoder(w).Encode(map[string]any{
				"error": map[string]any{"message": "slow down", "type": "rate_limit"},
			})
			return
		}
		json.NewEncoder(w).Encode(embeddingsResponse(1))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, 3)
	vec, err := c.Embed(context.Background(), "hello")
	require.NoError(t, err)
	assert.Len(t, vec, 3)
	assert.Equal(t, 2, calls)
}
