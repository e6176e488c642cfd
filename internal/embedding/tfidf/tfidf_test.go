package tfidf

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rag/internal/domain"
)

var corpus = []string{
	"The sky is blue today.",
	"Grass is green in spring.",
	"Rivers carry water to the sea.",
}

func TestEmbed_Deterministic(t *testing.T) {
	ctx := context.Background()
	e := NewEmbedder()
	require.NoError(t, e.Prepare(ctx, corpus))

	v1, err := e.Embed(ctx, "the blue sky")
	require.NoError(t, err)
	v2, err := e.Embed(ctx, "the blue sky")
	require.NoError(t, err)
	assert.Equal(t, v1, v2)
	assert.Len(t, v1, e.Dimension())
}

func TestEmbed_RequiresPrepare(t *testing.T) {
	e := NewEmbedder()
	_, err := e.Embed(context.Background(), "anything")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrEmbeddingService)
}

func TestPrepare_EmptyCorpus(t *testing.T) {
	e := NewEmbedder()
	err := e.Prepare(context.Background(), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrEmbeddingService)
}

func TestEmbed_UnknownTokensYieldZeroVector(t *testing.T) {
	ctx := context.Background()
	e := NewEmbedder()
	require.NoError(t, e.Prepare(ctx, corpus))

	vec, err := e.Embed(ctx, "zzz qqq")
	require.NoError(t, err)
	for _, v := range vec {
		assert.Zero(t, v)
	}
}

func TestEmbedBatch_PreservesOrderAndDimension(t *testing.T) {
	ctx := context.Background()
	e := NewEmbedder()
	require.NoError(t, e.Prepare(ctx, corpus))

	vecs, err := e.EmbedBatch(ctx, []string{"blue sky", "green grass"})
	require.NoError(t, err)
	require.Len(t, vecs, 2)
	assert.Len(t, vecs[0], e.Dimension())
	assert.Len(t, vecs[1], e.Dimension())

	single, err := e.Embed(ctx, "blue sky")
	require.NoError(t, err)
	assert.Equal(t, single, vecs[0])
}

func TestEmbed_SimilarTextScoresCloser(t *testing.T) {
	ctx := context.Background()
	e := NewEmbedder()
	require.NoError(t, e.Prepare(ctx, corpus))

	query, err := e.Embed(ctx, "what color is the sky")
	require.NoError(t, err)
	sky, err := e.Embed(ctx, corpus[0])
	require.NoError(t, err)
	grass, err := e.Embed(ctx, corpus[1])
	require.NoError(t, err)

	assert.Greater(t, dot(query, sky), dot(query, grass))
}

func dot(a, b []float64) float64 {
	sum := 0.0
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}
