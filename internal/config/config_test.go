package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rag/internal/domain"
)

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "fixed", cfg.Chunker.Type)
	assert.Equal(t, 800, cfg.Chunker.ChunkSize)
	assert.Equal(t, "tfidf", cfg.Embedder.Type)
	assert.Equal(t, "memory", cfg.VectorStore.Type)
	assert.Equal(t, 4, cfg.Retriever.TopK)
	assert.Equal(t, "GROQ_API_KEY", cfg.Generator.APIKeyEnv)
	assert.Equal(t, ":8080", cfg.Server.Addr)
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_AppliesDefaultsToPartialConfig(t *testing.T) {
	path := writeConfig(t, `
chunker:
  type: sentence
embedder:
  type: openai
  openai:
    model: text-embedding-3-large
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "sentence", cfg.Chunker.Type)
	assert.Equal(t, 5, cfg.Chunker.SentencesPerChunk)
	assert.Equal(t, "text-embedding-3-large", cfg.Embedder.OpenAI.Model)
	assert.Equal(t, "https://api.openai.com/v1", cfg.Embedder.OpenAI.BaseURL)
	assert.Equal(t, "OPENAI_API_KEY", cfg.Embedder.OpenAI.APIKeyEnv)
	assert.Equal(t, "llama-3.1-8b-instant", cfg.Generator.Model)
}

func TestLoad_UnknownChunkerType(t *testing.T) {
	path := writeConfig(t, "chunker:\n  type: semantic\n")
	_, err := Load(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestLoad_UnknownEmbedderType(t *testing.T) {
	path := writeConfig(t, "embedder:\n  type: magic\n")
	_, err := Load(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestLoad_OverlapMustBeSmallerThanChunkSize(t *testing.T) {
	path := writeConfig(t, "chunker:\n  type: fixed\n  chunk_size: 100\n  overlap: 100\n")
	_, err := Load(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestLoad_ExplicitZeroOverlapIsKept(t *testing.T) {
	path := writeConfig(t, "chunker:\n  type: fixed\n  chunk_size: 100\n  overlap: 0\n")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 0, cfg.Chunker.OverlapChars())
}

func TestLoad_UnsetOverlapDefaults(t *testing.T) {
	path := writeConfig(t, "chunker:\n  type: fixed\n  chunk_size: 80\n")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 10, cfg.Chunker.OverlapChars())
}

func TestLoad_MalformedYAML(t *testing.T) {
	path := writeConfig(t, "chunker: [not a map\n")
	_, err := Load(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.yaml")
	cfg := defaultConfig()
	cfg.Retriever.TopK = 7
	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7, loaded.Retriever.TopK)
	assert.Equal(t, cfg.Chunker, loaded.Chunker)
}
