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

type testService interface {
	List(ctx context.Context, filter models.TestFilter) ([]models.Test, *models.Pagination, error)
	Get(ctx context.Context, id string) (*models.Test, error)
	Create(ctx context.Context, req models.CreateTestRequest, meta service.AuditMeta) (*models.Test, error)
	Update(ctx context.Context, id string, req models.UpdateTestRequest, meta service.AuditMeta) (*models.Test, error)
	Deactivate(ctx context.Context, id string, meta service.AuditMeta) error
	Versions(ctx context.Context, id string) ([]models.TestVersion, error)
	BandIssues(ctx context.Context) ([]models.BandIssue, error)
}

// TestHandler exposes questionnaire definitions.
type TestHandler struct {
	service testService
}

// NewTestHandler constructs a test handler.
func NewTestHandler(svc testService) *TestHandler {
	return &TestHandler{service: svc}
}

// List godoc
// @Summary List tests
// @Tags Tests
// @Produce json
// @Param search query string false "Search by code or name"
// @Param category query string false "Category"
// @Param active query bool false "Active filter"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /tests [get]
func (h *TestHandler) List(c *gin.Context) {
	var filter models.TestFilter
	filter.Page, filter.PageSize = pageParams(c)
	filter.Search = strings.TrimSpace(c.Query("search"))
	filter.Category = strings.TrimSpace(c.Query("category"))
	filter.Active = boolQuery(c, "active")

	tests, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, tests, pagination)
}

// Get godoc
// @Summary Get test with questions and bands
// @Tags Tests
// @Produce json
// @Param id path string true "Test ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /tests/{id} [get]
func (h *TestHandler) Get(c *gin.Context) {
	test, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, test, nil)
}

// Create godoc
// @Summary Create test
// @Description Questions need unique ids and a valid reverse flag. Bands must stay inside 1..5.
// @Tags Tests
// @Accept json
// @Produce json
// @Param payload body models.CreateTestRequest true "Test definition"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /tests [post]
func (h *TestHandler) Create(c *gin.Context) {
	var req models.CreateTestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	test, err := h.service.Create(c.Request.Context(), req, auditMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, test)
}

// Update godoc
// @Summary Update test
// @Description Stores a new version. Issued links keep the version they were created with.
// @Tags Tests
// @Accept json
// @Produce json
// @Param id path string true "Test ID"
// @Param payload body models.UpdateTestRequest true "Changes"
// @Success 200 {object} response.Envelope
// @Router /tests/{id} [put]
func (h *TestHandler) Update(c *gin.Context) {
	var req models.UpdateTestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	test, err := h.service.Update(c.Request.Context(), c.Param("id"), req, auditMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, test, nil)
}

// Delete godoc
// @Summary Deactivate test
// @Tags Tests
// @Param id path string true "Test ID"
// @Success 204
// @Router /tests/{id} [delete]
func (h *TestHandler) Delete(c *gin.Context) {
	if err := h.service.Deactivate(c.Request.Context(), c.Param("id"), auditMeta(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Versions godoc
// @Summary List stored versions of a test
// @Tags Tests
// @Produce json
// @Param id path string true "Test ID"
// @Success 200 {object} response.Envelope
// @Router /tests/{id}/versions [get]
func (h *TestHandler) Versions(c *gin.Context) {
	versions, err := h.service.Versions(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, versions, nil)
}

// BandIssues godoc
// @Summary Active tests with uncovered score ranges
// @Tags Tests
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /tests/band-issues [get]
func (h *TestHandler) BandIssues(c *gin.Context) {
	issues, err := h.service.BandIssues(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, issues, nil)
}
