package job

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"

	"ragline/src/storage/postgres/documentctrl"
)

const TaskTypeIngest = "ingest"

// IngestPayload is the payload for TaskTypeIngest jobs.
type IngestPayload struct {
	URLs []string `json:"urls"`
}

// URLIngester runs the full ingestion flow for one source URL. It is
// satisfied by corpus.Service.
type URLIngester interface {
	IngestURL(ctx context.Context, url string) (*documentctrl.Document, error)
}

// IngestTask pulls documents through the full ingestion flow in the
// background, one URL at a time.
type IngestTask struct {
	ingester URLIngester
	logger   watermill.LoggerAdapter
}

func NewIngestTask(ingester URLIngester, logger watermill.LoggerAdapter) *IngestTask {
	return &IngestTask{
		ingester: ingester,
		logger:   logger,
	}
}

// HandleIngestTask ingests every URL in the payload. The first failure
// aborts the job so that the queue retry policy can re-drive it.
func (t *IngestTask) HandleIngestTask(ctx context.Context, payload json.RawMessage) error {
	var p IngestPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return fmt.Errorf("failed to unmarshal ingest payload: %w", err)
	}
	if len(p.URLs) == 0 {
		return fmt.Errorf("ingest payload has no urls")
	}

	for _, url := range p.URLs {
		doc, err := t.ingester.IngestURL(ctx, url)
		if err != nil {
			return fmt.Errorf("failed to ingest %s: %w", url, err)
		}
		t.logger.Info("Ingested document", watermill.LogFields{
			"url":         url,
			"document_id": doc.ID,
			"chunks":      doc.ChunkCount,
		})
	}

	return nil
}
