package ingest_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"ragline/src/core/rag"
	"ragline/src/ingest"
)

func TestLoaderLoadPlainText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("plain text body"))
	}))
	defer srv.Close()

	loader, err := ingest.NewLoader(nil)
	if err != nil {
		t.Fatalf("NewLoader() error = %v", err)
	}

	doc, err := loader.Load(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if doc.RawText != "plain text body" {
		t.Errorf("Load() RawText = %q, want %q", doc.RawText, "plain text body")
	}
	if doc.SourceURI != srv.URL {
		t.Errorf("Load() SourceURI = %q, want %q", doc.SourceURI, srv.URL)
	}
	if doc.ID == "" {
		t.Error("Load() returned an empty document ID")
	}
}

func TestLoaderLoadStripsHTML(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte("<html><body><p>Readable content.</p><script>x()</script></body></html>"))
	}))
	defer srv.Close()

	loader, _ := ingest.NewLoader(nil)
	doc, err := loader.Load(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if doc.RawText != "Readable content." {
		t.Errorf("Load() RawText = %q, want %q", doc.RawText, "Readable content.")
	}
}

func TestLoaderLoadExtractsTitle(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		body        string
		wantTitle   string
	}{
		{
			name:        "html page with title",
			contentType: "text/html",
			body:        "<html><head><title>Release Notes</title></head><body><p>Body.</p></body></html>",
			wantTitle:   "Release Notes",
		},
		{
			name:        "html page without title",
			contentType: "text/html",
			body:        "<html><body><p>No head here.</p></body></html>",
			wantTitle:   "",
		},
		{
			name:        "plain text has no title",
			contentType: "text/plain",
			body:        "just text, even with <title>fake</title> markup",
			wantTitle:   "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", tt.contentType)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			loader, _ := ingest.NewLoader(nil)
			doc, err := loader.Load(context.Background(), srv.URL)
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			if doc.Title != tt.wantTitle {
				t.Errorf("Load() Title = %q, want %q", doc.Title, tt.wantTitle)
			}
		})
	}
}

func TestLoaderLoadDetectsHTMLWithoutContentType(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/octet-stream")
		w.Write([]byte("<!DOCTYPE html><html><body><p>Sniffed.</p></body></html>"))
	}))
	defer srv.Close()

	loader, _ := ingest.NewLoader(nil)
	doc, err := loader.Load(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if doc.RawText != "Sniffed." {
		t.Errorf("Load() RawText = %q, want %q", doc.RawText, "Sniffed.")
	}
}

func TestLoaderLoadErrorStatus(t *testing.T) {
	tests := []struct {
		name   string
		status int
	}{
		{name: "not found", status: http.StatusNotFound},
		{name: "server error", status: http.StatusInternalServerError},
		{name: "forbidden", status: http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			loader, _ := ingest.NewLoader(nil)
			_, err := loader.Load(context.Background(), srv.URL)
			if !errors.Is(err, rag.ErrIngestionFailure) {
				t.Errorf("Load() error = %v, want ErrIngestionFailure", err)
			}
		})
	}
}

func TestLoaderLoadConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	loader, _ := ingest.NewLoader(nil)
	_, err := loader.Load(context.Background(), srv.URL)
	if !errors.Is(err, rag.ErrIngestionFailure) {
		t.Errorf("Load() error = %v, want ErrIngestionFailure", err)
	}
}

func TestLoaderLoadUniqueIDs(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("body"))
	}))
	defer srv.Close()

	loader, _ := ingest.NewLoader(nil)
	first, err := loader.Load(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	second, err := loader.Load(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if first.ID == second.ID {
		t.Errorf("Load() produced duplicate document IDs: %q", first.ID)
	}
}
