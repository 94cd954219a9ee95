package cmd

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"ragline/src/core/rag"
	"ragline/src/index"
	"ragline/src/infrastructure/integrations/ollama"
	"ragline/src/ingest"
	"ragline/src/log"
)

// ingestCmd represents the ingest command
var ingestCmd = &cobra.Command{
	Use:   "ingest [urls...]",
	Short: "Ingest documents into a local index file",
	Long: `The ingest command downloads the given URLs, chunks and embeds them
with Ollama, and stores the resulting index in a local bbolt file. An
existing index file is extended, not replaced.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

var ingestIndexPath string

func init() {
	ingestCmd.Flags().StringVarP(&ingestIndexPath, "index", "o", "", "index file path (defaults to RAG_INDEX_PATH)")
	rootCmd.AddCommand(ingestCmd)
	settingDefaultConfig()
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	oc, err := ollama.NewClient(
		viper.GetString("ollama.url"),
		viper.GetString("ollama.embed_model"),
		viper.GetString("ollama.generate_model"),
		&http.Client{Timeout: 120 * time.Second},
	)
	if err != nil {
		return fmt.Errorf("failed to create ollama client: %w", err)
	}

	indexPath := ingestIndexPath
	if indexPath == "" {
		indexPath = viper.GetString("rag.index_path")
	}
	memory, err := openOrCreateIndex(indexPath)
	if err != nil {
		return err
	}

	loader, err := ingest.NewLoader(nil)
	if err != nil {
		return fmt.Errorf("failed to create loader: %w", err)
	}

	pipeline, err := rag.NewPipeline(rag.PipelineConfig{
		Loader: loader,
		Chunker: rag.WindowChunker{
			Size:    viper.GetInt("rag.chunk_size"),
			Overlap: viper.GetInt("rag.chunk_overlap"),
		},
		Embedder: oc,
		Index:    memory,
	})
	if err != nil {
		return fmt.Errorf("failed to create pipeline: %w", err)
	}

	bar := progressbar.Default(int64(len(args)), "ingesting")
	totalChunks := 0
	for _, url := range args {
		_, chunks, err := pipeline.IngestOne(ctx, url)
		if err != nil {
			return fmt.Errorf("failed to ingest %s: %w", url, err)
		}
		totalChunks += len(chunks)
		bar.Add(1)
	}

	if err := memory.Persist(indexPath); err != nil {
		return fmt.Errorf("failed to persist index: %w", err)
	}

	count, err := memory.Count(ctx)
	if err != nil {
		return err
	}
	log.Info("ingestion complete", "documents", len(args), "new_chunks", totalChunks, "index_size", count, "path", indexPath)
	return nil
}

// openOrCreateIndex loads an existing index file or starts a fresh
// in-memory index when none exists yet.
func openOrCreateIndex(path string) (*index.Memory, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return index.NewMemory(index.Metric(viper.GetString("rag.metric")))
		}
		return nil, fmt.Errorf("failed to stat index file: %w", err)
	}
	memory, err := index.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load index file: %w", err)
	}
	return memory, nil
}
