// Package loader provides document loading adapters.
// Every loader returns a usable Document even on failure: its content is
// entities.MissingDocumentContent and the error wraps entities.ErrDocumentFetch.
package loader

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	httpPkg "net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/0xcro3dile/docqa-go/internal/domain/entities"
)

// TextLoader loads a text document from the local filesystem.
type TextLoader struct{}

// NewTextLoader creates a new text document loader.
func NewTextLoader() *TextLoader {
	return &TextLoader{}
}

// Load reads a text document from the given path.
func (l *TextLoader) Load(ctx context.Context, path string) (*entities.Document, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return missingDocument(path, filepath.Base(path)), fmt.Errorf("%w: %v", entities.ErrDocumentFetch, err)
	}

	return &entities.Document{
		ID:        generateDocID(path),
		Name:      filepath.Base(path),
		Source:    path,
		Content:   string(content),
		FetchedAt: time.Now(),
	}, nil
}

// HTTPLoader fetches a document body with a GET request.
type HTTPLoader struct {
	client *httpPkg.Client
}

// NewHTTPLoader creates an HTTP loader. A zero timeout selects 30s.
func NewHTTPLoader(timeout time.Duration) *HTTPLoader {
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &HTTPLoader{client: &httpPkg.Client{Timeout: timeout}}
}

// Load fetches rawURL. Any non-2xx status counts as a failed fetch.
func (l *HTTPLoader) Load(ctx context.Context, rawURL string) (*entities.Document, error) {
	name := path.Base(rawURL)
	if u, err := url.Parse(rawURL); err == nil && u.Path != "" && u.Path != "/" {
		name = path.Base(u.Path)
	}

	req, err := httpPkg.NewRequestWithContext(ctx, httpPkg.MethodGet, rawURL, nil)
	if err != nil {
		return missingDocument(rawURL, name), fmt.Errorf("%w: %v", entities.ErrDocumentFetch, err)
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return missingDocument(rawURL, name), fmt.Errorf("%w: %v", entities.ErrDocumentFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return missingDocument(rawURL, name), fmt.Errorf("%w: %s returned status %d",
			entities.ErrDocumentFetch, rawURL, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return missingDocument(rawURL, name), fmt.Errorf("%w: reading body: %v", entities.ErrDocumentFetch, err)
	}

	return &entities.Document{
		ID:        generateDocID(rawURL),
		Name:      name,
		Source:    rawURL,
		Content:   string(body),
		FetchedAt: time.Now(),
	}, nil
}

// MultiLoader dispatches on the source: http(s) URLs go to the HTTP loader,
// file:// URLs and bare paths to the text loader.
type MultiLoader struct {
	http   *HTTPLoader
	text   *TextLoader
	logger *slog.Logger
}

// NewMultiLoader creates a loader that handles URLs and local paths.
func NewMultiLoader(timeout time.Duration, logger *slog.Logger) *MultiLoader {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &MultiLoader{
		http:   NewHTTPLoader(timeout),
		text:   NewTextLoader(),
		logger: logger,
	}
}

// Load fetches the document and logs the outcome.
func (m *MultiLoader) Load(ctx context.Context, source string) (*entities.Document, error) {
	var (
		doc *entities.Document
		err error
	)
	switch lower := strings.ToLower(source); {
	case strings.HasPrefix(lower, "http://"), strings.HasPrefix(lower, "https://"):
		doc, err = m.http.Load(ctx, source)
	case strings.HasPrefix(lower, "file://"):
		doc, err = m.text.Load(ctx, source[len("file://"):])
	default:
		doc, err = m.text.Load(ctx, source)
	}

	if err != nil {
		m.logger.Warn("document_fetch_failed", "source", source, "error", err)
		return doc, err
	}
	m.logger.Info("document_loaded", "source", source, "bytes", len(doc.Content))
	return doc, nil
}

// LocalPath returns the filesystem path for a local source, or false for URLs.
func LocalPath(source string) (string, bool) {
	lower := strings.ToLower(source)
	switch {
	case strings.HasPrefix(lower, "http://"), strings.HasPrefix(lower, "https://"):
		return "", false
	case strings.HasPrefix(lower, "file://"):
		return source[len("file://"):], true
	default:
		return source, source != ""
	}
}

func missingDocument(source, name string) *entities.Document {
	return &entities.Document{
		ID:        generateDocID(source),
		Name:      name,
		Source:    source,
		Content:   entities.MissingDocumentContent,
		FetchedAt: time.Now(),
	}
}

// generateDocID creates a deterministic ID for a document.
func generateDocID(source string) string {
	hash := sha256.Sum256([]byte(source))
	return hex.EncodeToString(hash[:8])
}
