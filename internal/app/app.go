package app

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"rag/internal/chunker"
	"rag/internal/config"
	"rag/internal/domain"
	"rag/internal/embedding"
	openaiembed "rag/internal/embedding/openai"
	"rag/internal/embedding/tfidf"
	"rag/internal/generator"
	"rag/internal/loader"
	"rag/internal/service"
	"rag/internal/summarizer"
	"rag/internal/vectorstore"
	"rag/internal/vectorstore/memory"
	"rag/internal/vectorstore/qdrant"
)

// Build assembles the pipeline from configuration. Every component is
// selected by its config type and injected explicitly; there are no
// package-level singletons.
func Build(cfg *config.AppConfig, log *zap.Logger) (*service.RAGService, vectorstore.Store, error) {
	var emb embedding.Embedder
	switch cfg.Embedder.Type {
	case "tfidf", "":
		emb = tfidf.NewEmbedder()
	case "openai":
		oa := cfg.Embedder.OpenAI
		if oa == nil {
			return nil, nil, fmt.Errorf("%w: openai embedder config missing", domain.ErrConfiguration)
		}
		client, err := openaiembed.NewClient(openaiembed.Config{
			BaseURL:    oa.BaseURL,
			APIKeyEnv:  oa.APIKeyEnv,
			Model:      oa.Model,
			Timeout:    time.Duration(oa.TimeoutSecs) * time.Second,
			BatchSize:  oa.BatchSize,
			MaxRetries: oa.MaxRetries,
		})
		if err != nil {
			return nil, nil, err
		}
		emb = client
	default:
		return nil, nil, fmt.Errorf("%w: unknown embedder %q", domain.ErrConfiguration, cfg.Embedder.Type)
	}

	var ch domain.Chunker
	switch cfg.Chunker.Type {
	case "fixed", "":
		ch = chunker.NewFixedChunker(cfg.Chunker.ChunkSize, cfg.Chunker.OverlapChars())
	case "sentence":
		ch = chunker.NewSentenceChunker(cfg.Chunker.SentencesPerChunk, cfg.Chunker.OverlapSentences)
	default:
		return nil, nil, fmt.Errorf("%w: unknown chunker %q", domain.ErrConfiguration, cfg.Chunker.Type)
	}

	var st vectorstore.Store
	switch cfg.VectorStore.Type {
	case "memory", "":
		path := ""
		if cfg.VectorStore.Memory != nil {
			path = cfg.VectorStore.Memory.Path
		}
		st = memory.NewStore(path)
	case "qdrant":
		q := cfg.VectorStore.Qdrant
		if q == nil {
			return nil, nil, fmt.Errorf("%w: qdrant config missing", domain.ErrConfiguration)
		}
		st = qdrant.NewStore(qdrant.Config{
			URL:        q.URL,
			APIKeyEnv:  q.APIKeyEnv,
			Collection: q.Collection,
			Timeout:    time.Duration(q.TimeoutSecs) * time.Second,
		})
	default:
		return nil, nil, fmt.Errorf("%w: unknown vector store %q", domain.ErrConfiguration, cfg.VectorStore.Type)
	}

	gen, err := generator.NewClient(generator.Config{
		BaseURL:         cfg.Generator.BaseURL,
		APIKeyEnv:       cfg.Generator.APIKeyEnv,
		Model:           cfg.Generator.Model,
		Temperature:     cfg.Generator.Temperature,
		MaxTokens:       cfg.Generator.MaxTokens,
		Timeout:         time.Duration(cfg.Generator.TimeoutSecs) * time.Second,
		MaxRetries:      cfg.Generator.MaxRetries,
		MaxContextChars: cfg.Generator.MaxContextChars,
	})
	if err != nil {
		return nil, nil, err
	}

	var sum domain.Summarizer
	switch cfg.Summarizer.Type {
	case "frequency", "":
		sum = summarizer.NewFrequencySummarizer()
	case "none":
		sum = nil
	default:
		return nil, nil, fmt.Errorf("%w: unknown summarizer %q", domain.ErrConfiguration, cfg.Summarizer.Type)
	}

	ld := loader.New(log)
	svc := service.NewRAGService(ld, ch, emb, st, gen, sum, log,
		cfg.Retriever.TopK, cfg.Summarizer.MaxSentences)
	return svc, st, nil
}
