package generator

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"rag/internal/domain"
)

// Client calls an OpenAI-compatible chat completion endpoint. The default
// configuration points at Groq, which speaks the same wire protocol.
type Client struct {
	client          *openai.Client
	model           string
	temperature     float32
	maxTokens       int
	maxRetries      int
	maxContextChars int
}

// Config configures the completion client.
type Config struct {
	BaseURL         string
	APIKeyEnv       string
	Model           string
	Temperature     float32
	MaxTokens       int
	Timeout         time.Duration
	MaxRetries      int
	MaxContextChars int
}

// NewClient creates a completion client. A missing API key is a
// configuration error and should abort startup.
func NewClient(cfg Config) (*Client, error) {
	key := os.Getenv(cfg.APIKeyEnv)
	if key == "" {
		return nil, fmt.Errorf("%w: missing API key in env %s", domain.ErrConfiguration, cfg.APIKeyEnv)
	}
	if cfg.Model == "" {
		cfg.Model = "llama-3.1-8b-instant"
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 512
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 2
	}
	if cfg.MaxContextChars <= 0 {
		cfg.MaxContextChars = 8000
	}
	sdkCfg := openai.DefaultConfig(key)
	if cfg.BaseURL != "" {
		sdkCfg.BaseURL = cfg.BaseURL
	}
	sdkCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	return &Client{
		client:          openai.NewClientWithConfig(sdkCfg),
		model:           cfg.Model,
		temperature:     cfg.Temperature,
		maxTokens:       cfg.MaxTokens,
		maxRetries:      cfg.MaxRetries,
		maxContextChars: cfg.MaxContextChars,
	}, nil
}

// Generate builds a prompt from the retrieved chunks and the query, and
// asks the completion API for an answer. Rate-limit and 5xx responses are
// retried with bounded exponential backoff.
func (c *Client) Generate(ctx context.Context, query string, results []domain.SearchResult) (string, error) {
	prompt := BuildPrompt(query, results, c.maxContextChars)
	req := openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	}
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(retryDelay(attempt - 1)):
			case <-ctx.Done():
				return "", fmt.Errorf("%w: %v", domain.ErrGenerationService, ctx.Err())
			}
		}
		resp, err := c.client.CreateChatCompletion(ctx, req)
		if err != nil {
			lastErr = err
			if retryable(err) && attempt < c.maxRetries {
				continue
			}
			return "", fmt.Errorf("%w: %v", domain.ErrGenerationService, err)
		}
		if len(resp.Choices) == 0 {
			return "", fmt.Errorf("%w: completion returned no choices", domain.ErrGenerationService)
		}
		return strings.TrimSpace(resp.Choices[0].Message.Content), nil
	}
	return "", fmt.Errorf("%w: %v", domain.ErrGenerationService, lastErr)
}

// BuildPrompt concatenates the retrieved chunk texts, truncated to
// maxContextChars, followed by the query.
func BuildPrompt(query string, results []domain.SearchResult, maxContextChars int) string {
	var sb strings.Builder
	for i, r := range results {
		text := r.Chunk.Text
		remaining := maxContextChars - sb.Len()
		if remaining <= 0 {
			break
		}
		if len(text) > remaining {
			text = truncateRunes(text, remaining)
		}
		if i > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(text)
	}
	return fmt.Sprintf(
		"Use the following retrieved context to answer the question:\n\n%s\n\nQuestion: %s\nAnswer concisely:",
		sb.String(), query,
	)
}

// truncateRunes cuts s to at most n bytes without splitting a rune.
func truncateRunes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	cut := 0
	for i := range s {
		if i > n {
			break
		}
		cut = i
	}
	return s[:cut]
}

func retryable(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == http.StatusTooManyRequests || apiErr.HTTPStatusCode >= 500
	}
	return true
}

func retryDelay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	base := 500 * time.Millisecond
	d := base << attempt
	if d > 5*time.Second {
		d = 5 * time.Second
	}
	return d
}
