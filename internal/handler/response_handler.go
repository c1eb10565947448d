package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/talent-assessment-api/internal/service"
	"github.com/noah-isme/talent-assessment-api/pkg/response"
)

// ResponseHandler exposes response records of an evaluation.
type ResponseHandler struct {
	service *service.ResponseService
}

// NewResponseHandler constructs a response handler.
func NewResponseHandler(svc *service.ResponseService) *ResponseHandler {
	return &ResponseHandler{service: svc}
}

// ListByEvaluation godoc
// @Summary List responses of an evaluation
// @Tags Responses
// @Produce json
// @Param id path string true "Evaluation ID"
// @Success 200 {object} response.Envelope
// @Router /evaluations/{id}/responses [get]
func (h *ResponseHandler) ListByEvaluation(c *gin.Context) {
	items, err := h.service.ListByEvaluation(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// Get godoc
// @Summary Get response with answers and result
// @Tags Responses
// @Produce json
// @Param id path string true "Response ID"
// @Success 200 {object} response.Envelope
// @Router /responses/{id} [get]
func (h *ResponseHandler) Get(c *gin.Context) {
	item, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}
