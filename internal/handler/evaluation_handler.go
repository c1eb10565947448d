package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/talent-assessment-api/internal/models"
	"github.com/noah-isme/talent-assessment-api/internal/service"
	appErrors "github.com/noah-isme/talent-assessment-api/pkg/errors"
	"github.com/noah-isme/talent-assessment-api/pkg/response"
)

type evaluationService interface {
	Create(ctx context.Context, req models.CreateEvaluationRequest, meta service.AuditMeta) (*models.EvaluationDetail, error)
	List(ctx context.Context, filter models.EvaluationFilter) ([]models.EvaluationSummary, *models.Pagination, error)
	Get(ctx context.Context, id string) (*models.EvaluationDetail, error)
	Links(ctx context.Context, id string) ([]models.AssessmentLink, error)
	Send(ctx context.Context, id string, meta service.AuditMeta) (*models.Evaluation, int, error)
	Update(ctx context.Context, id string, req models.UpdateEvaluationRequest, meta service.AuditMeta) (*models.Evaluation, error)
	Delete(ctx context.Context, id string, meta service.AuditMeta) error
}

// EvaluationHandler manages evaluation campaigns and their links.
type EvaluationHandler struct {
	service evaluationService
}

// NewEvaluationHandler constructs an evaluation handler.
func NewEvaluationHandler(svc evaluationService) *EvaluationHandler {
	return &EvaluationHandler{service: svc}
}

// List godoc
// @Summary List evaluations with progress counters
// @Tags Evaluations
// @Produce json
// @Param status query string false "draft, sent or completed"
// @Param search query string false "Search by name"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /evaluations [get]
func (h *EvaluationHandler) List(c *gin.Context) {
	var filter models.EvaluationFilter
	filter.Page, filter.PageSize = pageParams(c)
	filter.Search = strings.TrimSpace(c.Query("search"))
	if status := strings.ToLower(strings.TrimSpace(c.Query("status"))); status != "" {
		s := models.EvaluationStatus(status)
		filter.Status = &s
	}

	items, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}

// Get godoc
// @Summary Get evaluation with its responses
// @Tags Evaluations
// @Produce json
// @Param id path string true "Evaluation ID"
// @Success 200 {object} response.Envelope
// @Router /evaluations/{id} [get]
func (h *EvaluationHandler) Get(c *gin.Context) {
	detail, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// Create godoc
// @Summary Create evaluation
// @Description Creates one pending response with its own access link per test and collaborator pair.
// @Tags Evaluations
// @Accept json
// @Produce json
// @Param payload body models.CreateEvaluationRequest true "Evaluation"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /evaluations [post]
func (h *EvaluationHandler) Create(c *gin.Context) {
	var req models.CreateEvaluationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	meta := auditMeta(c)
	req.CreatedBy = meta.ActorID

	detail, err := h.service.Create(c.Request.Context(), req, meta)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, detail)
}

// Links godoc
// @Summary List public assessment links
// @Tags Evaluations
// @Produce json
// @Param id path string true "Evaluation ID"
// @Success 200 {object} response.Envelope
// @Router /evaluations/{id}/links [get]
func (h *EvaluationHandler) Links(c *gin.Context) {
	links, err := h.service.Links(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, links, nil)
}

// Send godoc
// @Summary Send evaluation
// @Description Marks a draft evaluation as sent and queues email invitations when enabled.
// @Tags Evaluations
// @Produce json
// @Param id path string true "Evaluation ID"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /evaluations/{id}/send [post]
func (h *EvaluationHandler) Send(c *gin.Context) {
	eval, queued, err := h.service.Send(c.Request.Context(), c.Param("id"), auditMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, eval, nil, map[string]interface{}{"invitations_queued": queued})
}

// Update godoc
// @Summary Rename a draft evaluation
// @Tags Evaluations
// @Accept json
// @Produce json
// @Param id path string true "Evaluation ID"
// @Param payload body models.UpdateEvaluationRequest true "Evaluation fields"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /evaluations/{id} [put]
func (h *EvaluationHandler) Update(c *gin.Context) {
	var req models.UpdateEvaluationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	eval, err := h.service.Update(c.Request.Context(), c.Param("id"), req, auditMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, eval, nil)
}

// Delete godoc
// @Summary Delete draft evaluation
// @Tags Evaluations
// @Param id path string true "Evaluation ID"
// @Success 204
// @Failure 409 {object} response.Envelope
// @Router /evaluations/{id} [delete]
func (h *EvaluationHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id"), auditMeta(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
