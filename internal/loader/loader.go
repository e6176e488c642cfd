package loader

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ledongthuc/pdf"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"rag/internal/domain"
)

// Loader reads raw documents from the filesystem or the web. A single
// unreadable file is logged and skipped; a missing directory is an error.
type Loader struct {
	log        *zap.Logger
	httpClient *http.Client
}

func New(log *zap.Logger) *Loader {
	if log == nil {
		log = zap.NewNop()
	}
	return &Loader{
		log:        log,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// LoadDir walks dir and returns one Document per readable text-bearing
// file (.txt, .md, .text, .pdf). Other extensions are skipped.
func (l *Loader) LoadDir(dir string) ([]domain.Document, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("documents directory %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("documents path %s is not a directory", dir)
	}
	var docs []domain.Document
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			l.log.Warn("skipping unreadable path", zap.String("path", path), zap.Error(err))
			return nil
		}
		if d.IsDir() {
			return nil
		}
		content, ok, err := l.readFile(path)
		if err != nil {
			l.log.Warn("skipping unreadable file", zap.String("path", path), zap.Error(err))
			return nil
		}
		if !ok {
			l.log.Debug("skipping unsupported file", zap.String("path", path))
			return nil
		}
		if strings.TrimSpace(content) == "" {
			l.log.Debug("skipping empty file", zap.String("path", path))
			return nil
		}
		docs = append(docs, domain.Document{
			ID:      hashString(path),
			Source:  path,
			Content: content,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return docs, nil
}

// LoadFiles reads the given paths, expanding glob patterns. Entries that
// cannot be read are logged and skipped.
func (l *Loader) LoadFiles(paths []string) ([]domain.Document, error) {
	var docs []domain.Document
	for _, p := range paths {
		matches, err := filepath.Glob(p)
		if err != nil {
			l.log.Warn("bad glob pattern, using as literal path", zap.String("pattern", p), zap.Error(err))
		}
		if matches == nil {
			matches = []string{p}
		}
		for _, m := range matches {
			content, ok, err := l.readFile(m)
			if err != nil {
				l.log.Warn("skipping unreadable file", zap.String("path", m), zap.Error(err))
				continue
			}
			if !ok || strings.TrimSpace(content) == "" {
				l.log.Debug("skipping file", zap.String("path", m))
				continue
			}
			docs = append(docs, domain.Document{ID: hashString(m), Source: m, Content: content})
		}
	}
	return docs, nil
}

func (l *Loader) readFile(path string) (content string, supported bool, err error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt", ".md", ".text":
		data, err := os.ReadFile(path)
		if err != nil {
			return "", true, err
		}
		return string(data), true, nil
	case ".pdf":
		text, err := readPDF(path)
		if err != nil {
			return "", true, err
		}
		return text, true, nil
	default:
		return "", false, nil
	}
}

func readPDF(path string) (string, error) {
	f, rdr, err := pdf.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	var buf bytes.Buffer
	b, err := rdr.GetPlainText()
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(&buf, b); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// FetchPage downloads a web page and extracts its paragraph text,
// returning it as a Document whose source is the URL.
func (l *Loader) FetchPage(ctx context.Context, url string) (domain.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return domain.Document{}, err
	}
	resp, err := l.httpClient.Do(req)
	if err != nil {
		return domain.Document{}, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return domain.Document{}, fmt.Errorf("fetch %s: %s", url, resp.Status)
	}
	text, err := extractText(resp.Body)
	if err != nil {
		return domain.Document{}, fmt.Errorf("parse %s: %w", url, err)
	}
	if strings.TrimSpace(text) == "" {
		return domain.Document{}, fmt.Errorf("no text extracted from %s", url)
	}
	l.log.Info("fetched web page", zap.String("url", url), zap.Int("chars", len(text)))
	return domain.Document{ID: hashString(url), Source: url, Content: text}, nil
}

// boilerplate elements whose text is dropped entirely.
var skipElements = map[string]struct{}{
	"script": {}, "style": {}, "noscript": {},
	"header": {}, "footer": {}, "nav": {}, "aside": {},
}

// extractText collects the text of all <p> elements; if the page has no
// paragraphs it falls back to the full body text.
func extractText(r io.Reader) (string, error) {
	root, err := html.Parse(r)
	if err != nil {
		return "", err
	}
	var paragraphs []string
	var walk func(n *html.Node, inParagraph bool, sb *strings.Builder)
	walk = func(n *html.Node, inParagraph bool, sb *strings.Builder) {
		if n.Type == html.ElementNode {
			if _, skip := skipElements[n.Data]; skip {
				return
			}
			if n.Data == "p" {
				var pb strings.Builder
				for c := n.FirstChild; c != nil; c = c.NextSibling {
					walk(c, true, &pb)
				}
				if t := strings.TrimSpace(pb.String()); t != "" {
					paragraphs = append(paragraphs, t)
				}
				return
			}
		}
		if n.Type == html.TextNode && sb != nil {
			sb.WriteString(n.Data)
			sb.WriteString(" ")
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c, inParagraph, sb)
		}
	}
	walk(root, false, nil)
	if len(paragraphs) > 0 {
		return strings.Join(paragraphs, " "), nil
	}
	var sb strings.Builder
	var collectAll func(n *html.Node)
	collectAll = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if _, skip := skipElements[n.Data]; skip {
				return
			}
		}
		if n.Type == html.TextNode {
			if t := strings.TrimSpace(n.Data); t != "" {
				sb.WriteString(t)
				sb.WriteString("\n")
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			collectAll(c)
		}
	}
	collectAll(root)
	return strings.TrimSpace(sb.String()), nil
}

func hashString(s string) string {
	h := sha1.Sum([]byte(s))
	return hex.EncodeToString(h[:8])
}
