package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"ragline/src/infrastructure/job"
)

type ingestRequest struct {
	URL   string `json:"url" binding:"required"`
	Async bool   `json:"async"`
}

// IngestDocument godoc
// @Summary Ingest a document from a URL
// @Tags documents
// @Accept json
// @Produce json
// @Param body body ingestRequest true "Ingestion parameters"
// @Success 201 {object} documentctrl.Document
// @Success 202 {object} job.Job
// @Failure 400 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Router /documents [post]
func (h *Handler) IngestDocument(c *gin.Context) {
	var req ingestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sendError(c, http.StatusBadRequest, err)
		return
	}

	if req.Async {
		if h.jobService == nil {
			sendError(c, http.StatusBadRequest, errAsyncUnavailable)
			return
		}
		payload, err := json.Marshal(job.IngestPayload{URLs: []string{req.URL}})
		if err != nil {
			sendError(c, http.StatusInternalServerError, err)
			return
		}
		j, err := h.jobService.EnqueueJob(c.Request.Context(), job.TaskTypeIngest, payload)
		if err != nil {
			sendError(c, http.StatusInternalServerError, err)
			return
		}
		sendJSON(c, http.StatusAccepted, j)
		return
	}

	doc, err := h.corpusService.IngestURL(c.Request.Context(), req.URL)
	if err != nil {
		sendError(c, http.StatusInternalServerError, err)
		return
	}

	sendJSON(c, http.StatusCreated, doc)
}

// ListDocuments godoc
// @Summary List ingested documents
// @Tags documents
// @Produce json
// @Param offset query int false "Pagination offset"
// @Param limit query int false "Page size"
// @Success 200 {array} documentctrl.Document
// @Failure 500 {object} ErrorResponse
// @Router /documents [get]
func (h *Handler) ListDocuments(c *gin.Context) {
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	docs, err := h.corpusService.ListDocuments(c.Request.Context(), offset, limit)
	if err != nil {
		sendError(c, http.StatusInternalServerError, err)
		return
	}

	sendJSON(c, http.StatusOK, docs)
}
