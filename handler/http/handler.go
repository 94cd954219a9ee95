package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"ragline/src/core/corpus"
	"ragline/src/core/rag"
	"ragline/src/infrastructure/job"
)

type Handler struct {
	corpusService *corpus.Service
	jobService    *job.JobService
}

// NewHandler builds the API handler. jobService may be nil when the
// message queue is not configured; async ingestion is then unavailable.
func NewHandler(corpusService *corpus.Service, jobService *job.JobService) *Handler {
	return &Handler{
		corpusService: corpusService,
		jobService:    jobService,
	}
}

// RegisterRoutes registers all API routes
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	v1 := r.Group("/api/v1")

	// Document routes
	v1.GET("/documents", h.ListDocuments)
	v1.POST("/documents", h.IngestDocument)

	// Search routes
	v1.POST("/search", h.Search)

	// Question answering routes
	v1.POST("/ask", h.Ask)

	// System routes
	v1.GET("/health", h.CheckHealth)
}

var errAsyncUnavailable = errors.New("async ingestion is not configured")

// Common error response structure
type ErrorResponse struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

func sendError(c *gin.Context, status int, err error) {
	var code string
	switch {
	case errors.Is(err, rag.ErrInvalidConfig):
		code = "INVALID_REQUEST"
		status = http.StatusBadRequest
	case errors.Is(err, rag.ErrMissingPlaceholder):
		code = "INVALID_TEMPLATE"
		status = http.StatusBadRequest
	case errors.Is(err, rag.ErrEmptyIndex):
		code = "EMPTY_INDEX"
		status = http.StatusConflict
	case errors.Is(err, rag.ErrIngestionFailure):
		code = "INGESTION_FAILED"
		status = http.StatusBadGateway
	case errors.Is(err, rag.ErrEmbeddingFailure):
		code = "EMBEDDING_FAILED"
		status = http.StatusBadGateway
	case errors.Is(err, rag.ErrTimeout):
		code = "UPSTREAM_TIMEOUT"
		status = http.StatusGatewayTimeout
	case errors.Is(err, rag.ErrCancelled):
		// 499 is the nginx convention for a client that went away.
		code = "REQUEST_CANCELLED"
		status = 499
	default:
		if status == 0 || status == http.StatusInternalServerError {
			code = "INTERNAL_ERROR"
			status = http.StatusInternalServerError
		} else {
			code = "BAD_REQUEST"
		}
	}

	c.JSON(status, ErrorResponse{
		Code:    code,
		Message: err.Error(),
	})
}

func sendJSON(c *gin.Context, status int, data interface{}) {
	c.JSON(status, data)
}
