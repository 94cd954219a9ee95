package cmd

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"ragline/src/log"
)

var rootCmd = &cobra.Command{
	Use:   "ragline",
	Short: "Retrieval augmented generation over your own documents",
	Long: `ragline ingests documents into a vector index and answers questions
grounded on the retrieved content.

Local mode (ingest/ask) keeps the index in a bbolt file and needs only a
running Ollama. Server mode (serve/worker) backs the pipeline with Weaviate,
Elasticsearch, PostgreSQL, MinIO and RabbitMQ.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return log.Setup(viper.GetBool("log.production"))
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
