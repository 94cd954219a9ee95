package cmd

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"ragline/src/core/rag"
	"ragline/src/index"
	"ragline/src/infrastructure/integrations/ollama"
	"ragline/src/ingest"
)

var (
	askShowSources bool
	askIndexPath   string
)

// askCmd represents the ask command
var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer a question using the local index file",
	Long: `The ask command embeds the question, retrieves the most similar chunks
from the local index file and asks the generation model for an answer
grounded on them.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().BoolVar(&askShowSources, "sources", false, "print the retrieved chunks after the answer")
	askCmd.Flags().StringVarP(&askIndexPath, "index", "i", "", "index file path (defaults to RAG_INDEX_PATH)")
	rootCmd.AddCommand(askCmd)
	settingDefaultConfig()
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	question := strings.Join(args, " ")

	oc, err := ollama.NewClient(
		viper.GetString("ollama.url"),
		viper.GetString("ollama.embed_model"),
		viper.GetString("ollama.generate_model"),
		&http.Client{Timeout: 120 * time.Second},
	)
	if err != nil {
		return fmt.Errorf("failed to create ollama client: %w", err)
	}

	indexPath := askIndexPath
	if indexPath == "" {
		indexPath = viper.GetString("rag.index_path")
	}
	memory, err := index.Load(indexPath)
	if err != nil {
		return fmt.Errorf("failed to load index file: %w", err)
	}

	assembler, err := rag.NewAssembler(rag.DefaultTemplate,
		rag.WithMaxContextRunes(viper.GetInt("rag.max_context_runes")))
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
		Embedder:  oc,
		Index:     memory,
		Assembler: assembler,
		Generator: oc,
	})
	if err != nil {
		return fmt.Errorf("failed to create pipeline: %w", err)
	}

	answer, err := pipeline.Answer(ctx, question, viper.GetInt("rag.top_k"))
	if err != nil {
		return err
	}

	fmt.Println(answer.Text)

	if askShowSources {
		fmt.Println("\nSources:")
		for _, src := range answer.Sources {
			fmt.Printf("  [%.4f] %s\n", src.Score, src.Chunk.ID)
		}
	}

	return nil
}
