package loader

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/0xcro3dile/docqa-go/internal/domain/entities"
	"github.com/0xcro3dile/docqa-go/internal/domain/ports"
)

var (
	_ ports.DocumentLoader = (*TextLoader)(nil)
	_ ports.DocumentLoader = (*HTTPLoader)(nil)
	_ ports.DocumentLoader = (*MultiLoader)(nil)
)

func TestTextLoader_LoadTxtFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.txt")
	os.WriteFile(path, []byte("Hello World"), 0644)

	loader := NewTextLoader()
	doc, err := loader.Load(context.Background(), path)

	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if doc.Content != "Hello World" {
		t.Errorf("unexpected content: %s", doc.Content)
	}
	if doc.Name != "test.txt" {
		t.Errorf("unexpected name: %s", doc.Name)
	}
	if doc.ID != generateDocID(path) {
		t.Error("document id should be derived from the source")
	}
}

func TestTextLoader_NonexistentFile(t *testing.T) {
	loader := NewTextLoader()
	doc, err := loader.Load(context.Background(), "/nonexistent/file.txt")

	if !errors.Is(err, entities.ErrDocumentFetch) {
		t.Fatalf("expected ErrDocumentFetch, got %v", err)
	}
	if doc == nil || doc.Content != entities.MissingDocumentContent {
		t.Errorf("expected the missing document placeholder, got %+v", doc)
	}
}

func TestHTTPLoader_Load(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("unexpected method %s", r.Method)
		}
		w.Write([]byte("Core Capital is a fintech."))
	}))
	defer server.Close()

	doc, err := NewHTTPLoader(0).Load(context.Background(), server.URL+"/docs/faq.txt")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if doc.Content != "Core Capital is a fintech." {
		t.Errorf("unexpected content: %s", doc.Content)
	}
	if doc.Name != "faq.txt" {
		t.Errorf("unexpected name: %s", doc.Name)
	}
}

func TestHTTPLoader_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	doc, err := NewHTTPLoader(0).Load(context.Background(), server.URL+"/missing")
	if !errors.Is(err, entities.ErrDocumentFetch) {
		t.Fatalf("expected ErrDocumentFetch, got %v", err)
	}
	if doc.Content != entities.MissingDocumentContent {
		t.Errorf("unexpected content: %q", doc.Content)
	}
}

func TestHTTPLoader_Unreachable(t *testing.T) {
	doc, err := NewHTTPLoader(0).Load(context.Background(), "http://127.0.0.1:1/doc")
	if !errors.Is(err, entities.ErrDocumentFetch) {
		t.Fatalf("expected ErrDocumentFetch, got %v", err)
	}
	if doc.Content != entities.MissingDocumentContent {
		t.Errorf("unexpected content: %q", doc.Content)
	}
}

func TestMultiLoader_Dispatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("remote"))
	}))
	defer server.Close()

	dir := t.TempDir()
	path := filepath.Join(dir, "local.md")
	os.WriteFile(path, []byte("# local"), 0644)

	loader := NewMultiLoader(0, nil)
	ctx := context.Background()

	remote, err := loader.Load(ctx, server.URL)
	if err != nil || remote.Content != "remote" {
		t.Errorf("remote load: %v %+v", err, remote)
	}
	local, err := loader.Load(ctx, path)
	if err != nil || local.Content != "# local" {
		t.Errorf("local load: %v %+v", err, local)
	}
	fileURL, err := loader.Load(ctx, "file://"+path)
	if err != nil || fileURL.Content != "# local" {
		t.Errorf("file url load: %v %+v", err, fileURL)
	}
}

func TestLocalPath(t *testing.T) {
	tests := []struct {
		source string
		want   string
		ok     bool
	}{
		{"https://example.com/doc.txt", "", false},
		{"HTTP://example.com", "", false},
		{"file:///tmp/doc.txt", "/tmp/doc.txt", true},
		{"docs/faq.txt", "docs/faq.txt", true},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := LocalPath(tt.source)
		if got != tt.want || ok != tt.ok {
			t.Errorf("LocalPath(%q) = %q, %v; want %q, %v", tt.source, got, ok, tt.want, tt.ok)
		}
	}
}
