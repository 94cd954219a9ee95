package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type searchRequest struct {
	Query     string `json:"query" binding:"required"`
	K         int    `json:"k"`
	UseHybrid bool   `json:"useHybrid"` // Whether to blend keyword scores into the ranking
}

const defaultSearchK = 5

// Search godoc
// @Summary Retrieve the top-k chunks for a query
// @Tags search
// @Accept json
// @Produce json
// @Param body body searchRequest true "Search parameters"
// @Success 200 {array} rag.ScoredChunk
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /search [post]
func (h *Handler) Search(c *gin.Context) {
	var req searchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sendError(c, http.StatusBadRequest, err)
		return
	}

	if req.K <= 0 {
		req.K = defaultSearchK
	}

	results, err := h.corpusService.Search(c.Request.Context(), req.Query, req.K, req.UseHybrid)
	if err != nil {
		sendError(c, http.StatusInternalServerError, err)
		return
	}

	sendJSON(c, http.StatusOK, results)
}
