package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"rag/internal/domain"
)

// ChunkerConfig configures how documents are split into chunks.
type ChunkerConfig struct {
	Type      string `yaml:"type"`
	ChunkSize int    `yaml:"chunk_size"`
	// Overlap is a pointer so an explicit `overlap: 0` disables overlap
	// instead of being replaced by the default.
	Overlap           *int `yaml:"overlap"`
	SentencesPerChunk int  `yaml:"sentences_per_chunk"`
	OverlapSentences  int  `yaml:"overlap_sentences"`
}

// OverlapChars returns the configured chunk overlap, or 0 when unset.
func (c ChunkerConfig) OverlapChars() int {
	if c.Overlap == nil {
		return 0
	}
	return *c.Overlap
}

// OpenAIEmbedderConfig holds configuration for the OpenAI-compatible embedder.
type OpenAIEmbedderConfig struct {
	BaseURL     string `yaml:"base_url"`
	APIKeyEnv   string `yaml:"api_key_env"`
	Model       string `yaml:"model"`
	TimeoutSecs int    `yaml:"timeout_secs"`
	BatchSize   int    `yaml:"batch_size"`
	MaxRetries  int    `yaml:"max_retries"`
}

// EmbedderConfig selects and configures the text embedder implementation.
type EmbedderConfig struct {
	Type   string                `yaml:"type"`
	OpenAI *OpenAIEmbedderConfig `yaml:"openai,omitempty"`
}

// MemoryStoreConfig configures the on-disk snapshot of the in-memory store.
type MemoryStoreConfig struct {
	Path string `yaml:"path"`
}

// QdrantConfig contains connection details for a Qdrant vector store.
type QdrantConfig struct {
	URL         string `yaml:"url"`
	APIKeyEnv   string `yaml:"api_key_env"`
	Collection  string `yaml:"collection"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// VectorStoreConfig selects and configures the vector store implementation.
type VectorStoreConfig struct {
	Type   string             `yaml:"type"`
	Memory *MemoryStoreConfig `yaml:"memory,omitempty"`
	Qdrant *QdrantConfig      `yaml:"qdrant,omitempty"`
}

// GeneratorConfig configures the completion API used to produce answers.
type GeneratorConfig struct {
	BaseURL         string  `yaml:"base_url"`
	APIKeyEnv       string  `yaml:"api_key_env"`
	Model           string  `yaml:"model"`
	Temperature     float32 `yaml:"temperature"`
	MaxTokens       int     `yaml:"max_tokens"`
	TimeoutSecs     int     `yaml:"timeout_secs"`
	MaxRetries      int     `yaml:"max_retries"`
	MaxContextChars int     `yaml:"max_context_chars"`
}

// RetrieverConfig configures query-time retrieval.
type RetrieverConfig struct {
	TopK int `yaml:"top_k"`
}

// SummarizerConfig selects and configures the ingest summarizer.
type SummarizerConfig struct {
	Type         string `yaml:"type"`
	MaxSentences int    `yaml:"max_sentences"`
}

// ServerConfig configures the web front end.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Chunker     ChunkerConfig     `yaml:"chunker"`
	Embedder    EmbedderConfig    `yaml:"embedder"`
	VectorStore VectorStoreConfig `yaml:"vector_store"`
	Generator   GeneratorConfig   `yaml:"generator"`
	Retriever   RetrieverConfig   `yaml:"retriever"`
	Summarizer  SummarizerConfig  `yaml:"summarizer"`
	Server      ServerConfig      `yaml:"server"`
}

// Load reads a config from a specified path. If the file does not exist, returns defaults.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return defaultConfig(), nil
		}
		return nil, err
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", domain.ErrConfiguration, path, err)
	}
	applyConfigDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadDefault tries ./config.yaml first, then ~/.config/rag/config.yaml.
// If neither exists, it writes defaults to ~/.config/rag/config.yaml and returns them.
func LoadDefault() (*AppConfig, string, error) {
	cwdPath := "config.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	userPath, err := defaultUserConfigPath()
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	cfg := defaultConfig()
	if err := Save(userPath, cfg); err != nil {
		return nil, "", err
	}
	return cfg, userPath, nil
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Validate checks the enumerated fields. Unknown component types are
// configuration errors so they fail at startup, not mid-query.
func (c *AppConfig) Validate() error {
	switch c.Chunker.Type {
	case "", "fixed", "sentence":
	default:
		return fmt.Errorf("%w: unknown chunker type %q", domain.ErrConfiguration, c.Chunker.Type)
	}
	if c.Chunker.Type == "fixed" || c.Chunker.Type == "" {
		if c.Chunker.OverlapChars() >= c.Chunker.ChunkSize {
			return fmt.Errorf("%w: chunker overlap %d must be smaller than chunk_size %d",
				domain.ErrConfiguration, c.Chunker.OverlapChars(), c.Chunker.ChunkSize)
		}
	}
	switch c.Embedder.Type {
	case "", "tfidf", "openai":
	default:
		return fmt.Errorf("%w: unknown embedder type %q", domain.ErrConfiguration, c.Embedder.Type)
	}
	switch c.VectorStore.Type {
	case "", "memory", "qdrant":
	default:
		return fmt.Errorf("%w: unknown vector store type %q", domain.ErrConfiguration, c.VectorStore.Type)
	}
	if c.Retriever.TopK <= 0 {
		return fmt.Errorf("%w: retriever top_k must be positive", domain.ErrConfiguration)
	}
	return nil
}

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "rag", "config.yaml"), nil
}

func defaultConfig() *AppConfig {
	cfg := &AppConfig{
		Chunker:     ChunkerConfig{Type: "fixed"},
		Embedder:    EmbedderConfig{Type: "tfidf"},
		VectorStore: VectorStoreConfig{Type: "memory"},
		Summarizer:  SummarizerConfig{Type: "frequency"},
	}
	applyConfigDefaults(cfg)
	return cfg
}

func applyConfigDefaults(cfg *AppConfig) {
	if cfg.Chunker.ChunkSize == 0 {
		cfg.Chunker.ChunkSize = 800
	}
	if cfg.Chunker.Overlap == nil {
		overlap := cfg.Chunker.ChunkSize / 8
		cfg.Chunker.Overlap = &overlap
	}
	if cfg.Chunker.SentencesPerChunk == 0 {
		cfg.Chunker.SentencesPerChunk = 5
	}
	if cfg.Embedder.Type == "openai" && cfg.Embedder.OpenAI != nil {
		oa := cfg.Embedder.OpenAI
		if oa.BaseURL == "" {
			oa.BaseURL = "https://api.openai.com/v1"
		}
		if oa.APIKeyEnv == "" {
			oa.APIKeyEnv = "OPENAI_API_KEY"
		}
		if oa.Model == "" {
			oa.Model = "text-embedding-3-small"
		}
		if oa.TimeoutSecs == 0 {
			oa.TimeoutSecs = 30
		}
		if oa.BatchSize == 0 {
			oa.BatchSize = 32
		}
		if oa.MaxRetries == 0 {
			oa.MaxRetries = 3
		}
	}
	if cfg.VectorStore.Type == "memory" || cfg.VectorStore.Type == "" {
		if cfg.VectorStore.Memory == nil {
			cfg.VectorStore.Memory = &MemoryStoreConfig{}
		}
		if cfg.VectorStore.Memory.Path == "" {
			cfg.VectorStore.Memory.Path = filepath.Join("data", "store.json")
		}
	}
	g := &cfg.Generator
	if g.BaseURL == "" {
		g.BaseURL = "https://api.groq.com/openai/v1"
	}
	if g.APIKeyEnv == "" {
		g.APIKeyEnv = "GROQ_API_KEY"
	}
	if g.Model == "" {
		g.Model = "llama-3.1-8b-instant"
	}
	if g.MaxTokens == 0 {
		g.MaxTokens = 512
	}
	if g.TimeoutSecs == 0 {
		g.TimeoutSecs = 60
	}
	if g.MaxRetries == 0 {
		g.MaxRetries = 2
	}
	if g.MaxContextChars == 0 {
		g.MaxContextChars = 8000
	}
	if cfg.Retriever.TopK == 0 {
		cfg.Retriever.TopK = 4
	}
	if cfg.Summarizer.MaxSentences == 0 {
		cfg.Summarizer.MaxSentences = 5
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
}
