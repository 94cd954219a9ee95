package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type askRequest struct {
	Question string `json:"question" binding:"required"`
	K        int    `json:"k"`
}

// Ask godoc
// @Summary Answer a question grounded on the indexed corpus
// @Tags ask
// @Accept json
// @Produce json
// @Param body body askRequest true "Question parameters"
// @Success 200 {object} rag.Answer
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 504 {object} ErrorResponse
// @Router /ask [post]
func (h *Handler) Ask(c *gin.Context) {
	var req askRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sendError(c, http.StatusBadRequest, err)
		return
	}

	if req.K <= 0 {
		req.K = defaultSearchK
	}

	answer, err := h.corpusService.Answer(c.Request.Context(), req.Question, req.K)
	if err != nil {
		sendError(c, http.StatusInternalServerError, err)
		return
	}

	sendJSON(c, http.StatusOK, answer)
}
