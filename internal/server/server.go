package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"rag/internal/domain"
)

// RAGPort is the server-facing subset of the RAG service.
type RAGPort interface {
	Answer(ctx context.Context, query string) (domain.Answer, error)
	IngestDir(ctx context.Context, dir string) (domain.IngestReport, error)
	IngestURL(ctx context.Context, url string) (domain.IngestReport, error)
}

// Server is the web front end: a single-page form plus a small JSON API.
// It holds no business logic beyond orchestration and display.
type Server struct {
	service RAGPort
	log     *zap.Logger
	engine  *gin.Engine
}

func New(service RAGPort, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(cors.Default())
	s := &Server{service: service, log: log, engine: engine}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.engine.GET("/", s.handleIndex)
	s.engine.GET("/healthz", s.handleHealth)
	api := s.engine.Group("/api")
	{
		api.POST("/query", s.handleQuery)
		api.POST("/ingest", s.handleIngest)
	}
}

// Handler exposes the router for tests and custom servers.
func (s *Server) Handler() http.Handler { return s.engine }

// Run blocks serving HTTP on addr.
func (s *Server) Run(addr string) error { return s.engine.Run(addr) }

func (s *Server) handleIndex(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(indexPage))
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type queryRequest struct {
	Query string `json:"query" binding:"required"`
}

type sourceResponse struct {
	Source string  `json:"source"`
	Text   string  `json:"text"`
	Score  float64 `json:"score"`
}

type queryResponse struct {
	Answer  string           `json:"answer"`
	Sources []sourceResponse `json:"sources"`
}

func (s *Server) handleQuery(c *gin.Context) {
	var req queryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query is required"})
		return
	}
	answer, err := s.service.Answer(c.Request.Context(), req.Query)
	if err != nil {
		s.log.Warn("query failed", zap.String("query", req.Query), zap.Error(err))
		status := http.StatusBadGateway
		if !errors.Is(err, domain.ErrGenerationService) && !errors.Is(err, domain.ErrEmbeddingService) {
			status = http.StatusInternalServerError
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	resp := queryResponse{Answer: answer.Text, Sources: make([]sourceResponse, 0, len(answer.Sources))}
	for _, r := range answer.Sources {
		resp.Sources = append(resp.Sources, sourceResponse{
			Source: r.Chunk.Source,
			Text:   r.Chunk.Text,
			Score:  r.Score,
		})
	}
	c.JSON(http.StatusOK, resp)
}

type ingestRequest struct {
	Dir string `json:"dir"`
	URL string `json:"url"`
}

func (s *Server) handleIngest(c *gin.Context) {
	var req ingestRequest
	if err := c.ShouldBindJSON(&req); err != nil || (req.Dir == "" && req.URL == "") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "dir or url is required"})
		return
	}
	var report domain.IngestReport
	var err error
	switch {
	case req.Dir != "":
		report, err = s.service.IngestDir(c.Request.Context(), req.Dir)
	default:
		report, err = s.service.IngestURL(c.Request.Context(), req.URL)
	}
	if err != nil {
		s.log.Warn("ingest failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"documents": report.Documents,
		"chunks":    report.Chunks,
		"summary":   report.Summary,
	})
}
