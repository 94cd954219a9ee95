// Package ingest fetches external sources and reduces them to plain-text
// documents.
package ingest

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"

	"ragline/src/core/rag"
	"ragline/src/log"
)

const (
	defaultTimeout  = 30 * time.Second
	maxResponseSize = 8 << 20
)

// Loader fetches documents over HTTP. HTML responses are reduced to plain
// text; everything else is taken verbatim. Failures surface once as
// rag.ErrIngestionFailure and are never retried here; retry policy belongs
// to the caller.
type Loader struct {
	client *http.Client
	ids    *snowflake.Node
}

// NewLoader creates a Loader. A nil client gets a default with a 30s
// timeout.
func NewLoader(client *http.Client) (*Loader, error) {
	node, err := snowflake.NewNode(1)
	if err != nil {
		return nil, fmt.Errorf("failed to create snowflake node: %v", err)
	}
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	return &Loader{client: client, ids: node}, nil
}

// Load implements rag.Loader.
func (l *Loader) Load(ctx context.Context, uri string) (rag.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return rag.Document{}, fmt.Errorf("%w: %w", rag.ErrIngestionFailure, err)
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return rag.Document{}, fmt.Errorf("%w: fetching %s: %w", rag.ErrIngestionFailure, uri, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return rag.Document{}, fmt.Errorf("%w: %s returned status %d", rag.ErrIngestionFailure, uri, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return rag.Document{}, fmt.Errorf("%w: reading %s: %w", rag.ErrIngestionFailure, uri, err)
	}

	text := string(body)
	title := ""
	if isHTML(resp.Header.Get("Content-Type"), text) {
		title = ExtractTitle(text)
		text = StripHTML(text)
	}

	doc := rag.Document{
		ID:        l.ids.Generate().String(),
		SourceURI: uri,
		Title:     title,
		RawText:   text,
	}
	log.Debug("loaded document", "uri", uri, "document_id", doc.ID, "bytes", len(body))
	return doc, nil
}

func isHTML(contentType, body string) bool {
	if strings.Contains(contentType, "text/html") || strings.Contains(contentType, "application/xhtml") {
		return true
	}
	head := strings.ToLower(strings.TrimSpace(body))
	if len(head) > 256 {
		head = head[:256]
	}
	return strings.HasPrefix(head, "<!doctype html") || strings.HasPrefix(head, "<html")
}
