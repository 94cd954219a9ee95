package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-amqp/pkg/amqp"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	weaviateClient "github.com/weaviate/weaviate-go-client/v4/weaviate"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	handler "ragline/handler/http"
	"ragline/src/core/corpus"
	"ragline/src/core/rag"
	"ragline/src/infrastructure/integrations/ollama"
	jobctrl "ragline/src/infrastructure/job"
	"ragline/src/ingest"
	"ragline/src/log"
	"ragline/src/storage/elastic"
	"ragline/src/storage/minioctrl"
	"ragline/src/storage/postgres/chunkctrl"
	"ragline/src/storage/postgres/documentctrl"
	"ragline/src/storage/weaviate"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the retrieval service HTTP server",
	Long:  `The serve command starts an HTTP server exposing document ingestion, search and question answering APIs`,
	Run:   RunServer,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	settingDefaultConfig()
}

func RunServer(cmd *cobra.Command, args []string) {
	ctx := context.Background()

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
		log.Error(err, "Failed to connect to database")
		return
	}

	// Initialize Ollama client
	oc, err := ollama.NewClient(
		viper.GetString("ollama.url"),
		viper.GetString("ollama.embed_model"),
		viper.GetString("ollama.generate_model"),
		&http.Client{Timeout: 120 * time.Second},
	)
	if err != nil {
		log.Error(err, "Failed to create ollama client")
		return
	}

	// Initialize Weaviate backed vector index
	wc := weaviateClient.New(weaviateClient.Config{
		Host:   viper.GetString("weaviate.url"),
		Scheme: "http",
	})
	wsdk := weaviate.NewSDK(wc)
	vectorIndex, err := weaviate.NewIndex(ctx, wsdk, viper.GetString("weaviate.class"))
	if err != nil {
		log.Error(err, "Failed to create weaviate index")
		return
	}

	// Initialize Elasticsearch keyword index
	keywordIndex, err := elastic.NewKeywordIndex(
		[]string{viper.GetString("elastic.url")},
		viper.GetString("elastic.index"),
	)
	if err != nil {
		log.Error(err, "Failed to create keyword index")
		return
	}

	// Initialize MinioService
	minioService, err := minioctrl.NewMinioService(
		viper.GetString("minio.endpoint"),
		viper.GetString("minio.access_key"),
		viper.GetString("minio.secret_key"),
		viper.GetBool("minio.use_ssl"),
	)
	if err != nil {
		log.Error(err, "Failed to create minio service")
		return
	}
	if err := minioService.EnsureBucketExists(ctx, minioctrl.DocumentsBucket); err != nil {
		log.Error(err, "Failed to ensure documents bucket")
		return
	}

	// Initialize registry services
	documentService, err := documentctrl.NewDocumentService(db)
	if err != nil {
		log.Error(err, "Failed to create document service")
		return
	}
	chunkService, err := chunkctrl.NewChunkService(db)
	if err != nil {
		log.Error(err, "Failed to create chunk service")
		return
	}

	// Initialize document loader and pipeline
	loader, err := ingest.NewLoader(nil)
	if err != nil {
		log.Error(err, "Failed to create loader")
		return
	}

	assembler, err := rag.NewAssembler(rag.DefaultTemplate,
		rag.WithMaxContextRunes(viper.GetInt("rag.max_context_runes")))
	if err != nil {
		log.Error(err, "Failed to create prompt assembler")
		return
	}

	pipeline, err := rag.NewPipeline(rag.PipelineConfig{
		Loader: loader,
		Chunker: rag.WindowChunker{
			Size:    viper.GetInt("rag.chunk_size"),
			Overlap: viper.GetInt("rag.chunk_overlap"),
		},
		Embedder:    oc,
		Index:       vectorIndex,
		Assembler:   assembler,
		Generator:   oc,
		Keyword:     keywordIndex,
		HybridAlpha: viper.GetFloat64("rag.hybrid_alpha"),
	})
	if err != nil {
		log.Error(err, "Failed to create pipeline")
		return
	}

	// Health checks for every external collaborator
	health := map[string]corpus.HealthChecker{
		"ollama": corpus.PingFunc(func(ctx context.Context) error {
			_, err := oc.Models(ctx)
			return err
		}),
		"weaviate": corpus.PingFunc(func(ctx context.Context) error {
			_, err := wsdk.CountObjects(ctx, viper.GetString("weaviate.class"))
			return err
		}),
		"elasticsearch": keywordIndex,
		"postgres": corpus.PingFunc(func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		}),
	}

	corpusService, err := corpus.NewService(pipeline, documentService, chunkService, minioService, health)
	if err != nil {
		log.Error(err, "Failed to create corpus service")
		return
	}

	// Initialize the job service so ingestion can run asynchronously
	var jobService *jobctrl.JobService
	amqpPublisher, err := amqp.NewPublisher(
		amqp.NewDurableQueueConfig(viper.GetString("amqp.url")),
		watermill.NewStdLogger(false, false),
	)
	if err != nil {
		log.Error(err, "AMQP unavailable, async ingestion disabled")
	} else {
		defer amqpPublisher.Close()
		jobRepo := jobctrl.NewPostgresJobRepository(db)
		jobService = jobctrl.NewJobService(amqpPublisher, jobRepo, watermill.NewStdLogger(false, false), nil)
	}

	// Setup gin router
	r := gin.Default()

	// Register routes
	h := handler.NewHandler(corpusService, jobService)
	h.RegisterRoutes(r)

	// Create HTTP server
	srv := &http.Server{
		Addr:    ":" + viper.GetString("server.port"),
		Handler: r,
	}

	// Start server in a goroutine
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error(err, "Failed to start server")
			return
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	// Parse shutdown timeout
	timeout, err := time.ParseDuration(viper.GetString("server.shutdown_timeout"))
	if err != nil {
		log.Error(err, "Invalid shutdown timeout, using default 5s")
		timeout = 5 * time.Second
	}

	// Create context with timeout for shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// Get underlying *sql.DB
	sqlDB, err := db.DB()
	if err != nil {
		log.Error(err, "Failed to get underlying *sql.DB")
	} else {
		// Close database connection
		if err := sqlDB.Close(); err != nil {
			log.Error(err, "Error closing database connection")
		}
	}

	// Attempt graceful shutdown
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(err, "Server forced to shutdown")
	}

	log.Info("Server exited")
}
