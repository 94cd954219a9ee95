package cmd

import (
	"context"
	"fmt"
	stdlog "log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-amqp/pkg/amqp"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	weaviateClient "github.com/weaviate/weaviate-go-client/v4/weaviate"

	"ragline/src/core/corpus"
	"ragline/src/core/rag"
	"ragline/src/infrastructure/integrations/ollama"
	jobctrl "ragline/src/infrastructure/job"
	"ragline/src/ingest"
	"ragline/src/storage/elastic"
	"ragline/src/storage/minioctrl"
	"ragline/src/storage/postgres/chunkctrl"
	"ragline/src/storage/postgres/documentctrl"
	"ragline/src/storage/weaviate"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Start the background ingestion worker",
	RunE:  runWorker,
}

func init() {
	rootCmd.AddCommand(workerCmd)
	settingDefaultConfig()
}

func runWorker(cmd *cobra.Command, args []string) error {
	// Initialize logger
	logger := watermill.NewStdLogger(false, false)

	// Initialize PostgreSQL connection
	host := viper.GetString("postgres.host")
	user := viper.GetString("postgres.user")
	password := viper.GetString("postgres.password")
	dbname := viper.GetString("postgres.db")
	port := viper.GetString("postgres.port")

	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		host, user, password, dbname, port)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %v", err)
	}

	// Get underlying *sql.DB for cleanup
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying *sql.DB: %v", err)
	}
	defer sqlDB.Close()

	// Initialize AMQP publisher
	amqpPublisher, err := amqp.NewPublisher(
		amqp.NewDurableQueueConfig(viper.GetString("amqp.url")),
		watermill.NewStdLogger(false, false),
	)
	if err != nil {
		return err
	}
	defer amqpPublisher.Close()

	// Initialize AMQP subscriber
	subscriberConfig := amqp.NewDurableQueueConfig(viper.GetString("amqp.url"))
	subscriberConfig.Consume.NoRequeueOnNack = true
	amqpSubscriber, err := amqp.NewSubscriber(
		subscriberConfig,
		watermill.NewStdLogger(false, false),
	)
	if err != nil {
		return err
	}
	defer amqpSubscriber.Close()

	// Initialize router
	router, err := message.NewRouter(message.RouterConfig{}, logger)
	if err != nil {
		return err
	}

	// Add middleware
	router.AddMiddleware(
		middleware.Recoverer,
		middleware.CorrelationID,
		middleware.Retry{
			MaxRetries:      3,
			InitialInterval: time.Second,
			Logger:          logger,
		}.Middleware,
	)

	// Initialize MinioService
	minioService, err := minioctrl.NewMinioService(
		viper.GetString("minio.endpoint"),
		viper.GetString("minio.access_key"),
		viper.GetString("minio.secret_key"),
		viper.GetBool("minio.use_ssl"),
	)
	if err != nil {
		return fmt.Errorf("failed to initialize minio service: %v", err)
	}

	// Initialize Ollama client
	ollamaClient, err := ollama.NewClient(
		viper.GetString("ollama.url"),
		viper.GetString("ollama.embed_model"),
		viper.GetString("ollama.generate_model"),
		&http.Client{Timeout: 120 * time.Second},
	)
	if err != nil {
		return fmt.Errorf("failed to initialize ollama client: %v", err)
	}

	// Initialize Weaviate backed vector index
	wc := weaviateClient.New(weaviateClient.Config{
		Host:   viper.GetString("weaviate.url"),
		Scheme: "http",
	})
	vectorIndex, err := weaviate.NewIndex(cmd.Context(), weaviate.NewSDK(wc), viper.GetString("weaviate.class"))
	if err != nil {
		return fmt.Errorf("failed to initialize weaviate index: %v", err)
	}

	// Initialize Elasticsearch keyword index
	keywordIndex, err := elastic.NewKeywordIndex(
		[]string{viper.GetString("elastic.url")},
		viper.GetString("elastic.index"),
	)
	if err != nil {
		return fmt.Errorf("failed to initialize keyword index: %v", err)
	}

	// Initialize registry services
	documentService, err := documentctrl.NewDocumentService(db)
	if err != nil {
		return fmt.Errorf("failed to initialize document service: %v", err)
	}
	chunkService, err := chunkctrl.NewChunkService(db)
	if err != nil {
		return fmt.Errorf("failed to initialize chunk service: %v", err)
	}

	// Initialize pipeline and corpus service
	loader, err := ingest.NewLoader(nil)
	if err != nil {
		return fmt.Errorf("failed to initialize loader: %v", err)
	}
	pipeline, err := rag.NewPipeline(rag.PipelineConfig{
		Loader: loader,
		Chunker: rag.WindowChunker{
			Size:    viper.GetInt("rag.chunk_size"),
			Overlap: viper.GetInt("rag.chunk_overlap"),
		},
		Embedder:    ollamaClient,
		Index:       vectorIndex,
		Keyword:     keywordIndex,
		HybridAlpha: viper.GetFloat64("rag.hybrid_alpha"),
	})
	if err != nil {
		return fmt.Errorf("failed to initialize pipeline: %v", err)
	}
	corpusService, err := corpus.NewService(pipeline, documentService, chunkService, minioService, nil)
	if err != nil {
		return fmt.Errorf("failed to initialize corpus service: %v", err)
	}

	// Initialize IngestTask
	ingestTask := jobctrl.NewIngestTask(corpusService, logger)

	// Initialize job repository and service
	jobRepo := jobctrl.NewPostgresJobRepository(db)
	jobService := jobctrl.NewJobService(amqpPublisher, jobRepo, logger, ingestTask)

	// Add handler for processing jobs
	router.AddNoPublisherHandler(
		"job_processor",
		"jobs",
		amqpSubscriber,
		func(msg *message.Message) error {
			return jobService.ProcessJobMessage(msg)
		},
	)

	// Run the router
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		err := router.Run(ctx)
		if err != nil {
			stdlog.Fatal(err)
		}
	}()

	// Graceful shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
	<-c

	stdlog.Println("Shutting down...")
	cancel()
	<-router.Running()
	stdlog.Println("Router stopped")

	return nil
}
