package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"rag/internal/domain"
	"rag/internal/embedding"
	"rag/internal/generator"
	"rag/internal/loader"
	"rag/internal/vectorstore"
)

// RAGService orchestrates the pipeline: load, chunk, embed, index at
// ingest time; embed, search, generate at query time. It holds no state
// beyond its injected collaborators, so concurrent queries are safe as
// long as the store is.
type RAGService struct {
	loader     *loader.Loader
	chunker    domain.Chunker
	embedder   embedding.Embedder
	store      vectorstore.Store
	generator  generator.Generator
	summarizer domain.Summarizer
	log        *zap.Logger

	topK                int
	summaryMaxSentences int
}

func NewRAGService(
	ld *loader.Loader,
	chunker domain.Chunker,
	embedder embedding.Embedder,
	store vectorstore.Store,
	gen generator.Generator,
	summarizer domain.Summarizer,
	log *zap.Logger,
	topK, summaryMaxSentences int,
) *RAGService {
	if log == nil {
		log = zap.NewNop()
	}
	if topK <= 0 {
		topK = 4
	}
	return &RAGService{
		loader:              ld,
		chunker:             chunker,
		embedder:            embedder,
		store:               store,
		generator:           gen,
		summarizer:          summarizer,
		log:                 log,
		topK:                topK,
		summaryMaxSentences: summaryMaxSentences,
	}
}

// IngestDir rebuilds the index from every readable document under dir.
// Existing entries are dropped first; the rebuilt store is persisted.
func (s *RAGService) IngestDir(ctx context.Context, dir string) (domain.IngestReport, error) {
	docs, err := s.loader.LoadDir(dir)
	if err != nil {
		return domain.IngestReport{}, err
	}
	return s.ingest(ctx, docs, true)
}

// IngestFiles rebuilds the index from the given file paths or globs.
func (s *RAGService) IngestFiles(ctx context.Context, paths []string) (domain.IngestReport, error) {
	docs, err := s.loader.LoadFiles(paths)
	if err != nil {
		return domain.IngestReport{}, err
	}
	return s.ingest(ctx, docs, true)
}

// IngestURL fetches a single web page and appends its chunks to the
// existing index without rebuilding it.
func (s *RAGService) IngestURL(ctx context.Context, url string) (domain.IngestReport, error) {
	doc, err := s.loader.FetchPage(ctx, url)
	if err != nil {
		return domain.IngestReport{}, err
	}
	return s.ingest(ctx, []domain.Document{doc}, false)
}

func (s *RAGService) ingest(ctx context.Context, docs []domain.Document, rebuild bool) (domain.IngestReport, error) {
	if len(docs) == 0 {
		return domain.IngestReport{}, fmt.Errorf("no readable documents found")
	}
	var allChunks []domain.Chunk
	var allTexts []string
	var corpus strings.Builder
	for _, d := range docs {
		chunks, err := s.chunker.Chunk(d)
		if err != nil {
			return domain.IngestReport{}, err
		}
		allChunks = append(allChunks, chunks...)
		for _, ch := range chunks {
			allTexts = append(allTexts, ch.Text)
		}
		corpus.WriteString("\n")
		corpus.WriteString(d.Content)
	}
	if len(allChunks) == 0 {
		return domain.IngestReport{}, fmt.Errorf("documents produced no chunks")
	}
	if err := s.embedder.Prepare(ctx, allTexts); err != nil {
		return domain.IngestReport{}, err
	}
	vectors, err := s.embedder.EmbedBatch(ctx, allTexts)
	if err != nil {
		return domain.IngestReport{}, err
	}
	if rebuild {
		if err := s.store.Clear(ctx); err != nil {
			return domain.IngestReport{}, err
		}
		if err := s.store.Init(ctx, len(vectors[0])); err != nil {
			return domain.IngestReport{}, err
		}
	}
	entries := make([]domain.Entry, len(allChunks))
	for i := range allChunks {
		entries[i] = domain.Entry{ID: uuid.NewString(), Chunk: allChunks[i], Vector: vectors[i]}
	}
	if err := s.store.Upsert(ctx, entries); err != nil {
		return domain.IngestReport{}, err
	}
	if err := s.store.Persist(ctx); err != nil {
		return domain.IngestReport{}, err
	}
	report := domain.IngestReport{Documents: len(docs), Chunks: len(allChunks)}
	if s.summarizer != nil {
		summary, err := s.summarizer.Summarize(corpus.String(), s.summaryMaxSentences)
		if err != nil {
			s.log.Warn("summarization failed", zap.Error(err))
		} else {
			report.Summary = summary
		}
	}
	s.log.Info("ingest complete",
		zap.Int("documents", report.Documents),
		zap.Int("chunks", report.Chunks),
		zap.String("embedder", s.embedder.Name()),
	)
	return report, nil
}

// Retrieve embeds the query and returns the topK most similar chunks,
// ordered by descending similarity. An empty or unreachable-but-empty
// store yields an empty result, not an error.
func (s *RAGService) Retrieve(ctx context.Context, query string, topK int) ([]domain.SearchResult, error) {
	if topK <= 0 {
		topK = s.topK
	}
	vec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, err
	}
	return s.store.Search(ctx, vec, topK)
}

// Answer runs the full query path: retrieve context, then generate.
// When nothing relevant is indexed the generator still runs with an
// empty context, matching the behavior of querying before ingestion.
func (s *RAGService) Answer(ctx context.Context, query string) (domain.Answer, error) {
	results, err := s.Retrieve(ctx, query, s.topK)
	if err != nil {
		return domain.Answer{}, err
	}
	text, err := s.generator.Generate(ctx, query, results)
	if err != nil {
		return domain.Answer{}, err
	}
	return domain.Answer{Text: text, Sources: results}, nil
}
