// Package elastic stores chunk texts in Elasticsearch and ranks them with
// BM25, providing the keyword side of hybrid retrieval.
package elastic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/elastic/go-elasticsearch/v8"

	"ragline/src/core/rag"
)

// KeywordIndex implements rag.KeywordIndex on an Elasticsearch index.
type KeywordIndex struct {
	client *elasticsearch.Client
	index  string
}

// NewKeywordIndex connects to the given addresses and uses index as the
// Elasticsearch index name.
func NewKeywordIndex(addresses []string, index string) (*KeywordIndex, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: addresses})
	if err != nil {
		return nil, fmt.Errorf("failed to create elasticsearch client: %w", err)
	}
	return &KeywordIndex{client: client, index: index}, nil
}

type chunkDocument struct {
	DocumentID  string `json:"document_id"`
	Text        string `json:"text"`
	StartOffset int    `json:"start_offset"`
	EndOffset   int    `json:"end_offset"`
	Seq         int    `json:"seq"`
}

// IndexChunks implements rag.KeywordIndex. Chunk ids are the Elasticsearch
// document ids, so re-ingesting a document overwrites its chunks in place.
func (k *KeywordIndex) IndexChunks(ctx context.Context, chunks []rag.Chunk) error {
	for _, chunk := range chunks {
		body, err := json.Marshal(chunkDocument{
			DocumentID:  chunk.DocumentID,
			Text:        chunk.Text,
			StartOffset: chunk.StartOffset,
			EndOffset:   chunk.EndOffset,
			Seq:         chunk.Seq,
		})
		if err != nil {
			return fmt.Errorf("failed to encode chunk %s: %w", chunk.ID, err)
		}

		res, err := k.client.Index(
			k.index,
			bytes.NewReader(body),
			k.client.Index.WithContext(ctx),
			k.client.Index.WithDocumentID(chunk.ID),
		)
		if err != nil {
			return fmt.Errorf("failed to index chunk %s: %w", chunk.ID, err)
		}
		drainAndClose(res.Body)
		if res.IsError() {
			return fmt.Errorf("failed to index chunk %s: %s", chunk.ID, res.Status())
		}
	}
	return nil
}

// SearchKeyword implements rag.KeywordIndex, returning chunks ranked by
// BM25 match on their text.
func (k *KeywordIndex) SearchKeyword(ctx context.Context, query string, size int) ([]rag.ScoredChunk, error) {
	var buf bytes.Buffer
	err := json.NewEncoder(&buf).Encode(map[string]interface{}{
		"size": size,
		"query": map[string]interface{}{
			"match": map[string]interface{}{
				"text": query,
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode search query: %w", err)
	}

	res, err := k.client.Search(
		k.client.Search.WithContext(ctx),
		k.client.Search.WithIndex(k.index),
		k.client.Search.WithBody(&buf),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to search keyword index: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, fmt.Errorf("keyword search failed: %s", res.Status())
	}

	var parsed struct {
		Hits struct {
			Hits []struct {
				ID     string        `json:"_id"`
				Score  float64       `json:"_score"`
				Source chunkDocument `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	scored := make([]rag.ScoredChunk, 0, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		scored = append(scored, rag.ScoredChunk{
			Chunk: rag.Chunk{
				ID:          hit.ID,
				DocumentID:  hit.Source.DocumentID,
				Text:        hit.Source.Text,
				StartOffset: hit.Source.StartOffset,
				EndOffset:   hit.Source.EndOffset,
				Seq:         hit.Source.Seq,
			},
			Score: hit.Score,
		})
	}
	return scored, nil
}

// Ping reports whether the cluster answers; used by health checks.
func (k *KeywordIndex) Ping(ctx context.Context) error {
	res, err := k.client.Ping(k.client.Ping.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("elasticsearch ping failed: %w", err)
	}
	drainAndClose(res.Body)
	if res.IsError() {
		return fmt.Errorf("elasticsearch ping failed: %s", res.Status())
	}
	return nil
}

func drainAndClose(body io.ReadCloser) {
	io.Copy(io.Discard, body)
	body.Close()
}
