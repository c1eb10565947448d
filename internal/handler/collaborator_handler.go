package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/talent-assessment-api/internal/models"
	"github.com/noah-isme/talent-assessment-api/internal/service"
	appErrors "github.com/noah-isme/talent-assessment-api/pkg/errors"
	"github.com/noah-isme/talent-assessment-api/pkg/response"
)

// CollaboratorHandler handles collaborator endpoints.
type CollaboratorHandler struct {
	service *service.CollaboratorService
}

// NewCollaboratorHandler constructs a collaborator handler.
func NewCollaboratorHandler(svc *service.CollaboratorService) *CollaboratorHandler {
	return &CollaboratorHandler{service: svc}
}

// List godoc
// @Summary List collaborators
// @Tags Collaborators
// @Produce json
// @Param search query string false "Search by name or email"
// @Param department query string false "Department"
// @Param active query bool false "Active filter"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /collaborators [get]
func (h *CollaboratorHandler) List(c *gin.Context) {
	var filter models.CollaboratorFilter
	filter.Page, filter.PageSize = pageParams(c)
	filter.Search = strings.TrimSpace(c.Query("search"))
	filter.Department = strings.TrimSpace(c.Query("department"))
	filter.Active = boolQuery(c, "active")

	items, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}

// Get godoc
// @Summary Get collaborator
// @Tags Collaborators
// @Produce json
// @Param id path string true "Collaborator ID"
// @Success 200 {object} response.Envelope
// @Router /collaborators/{id} [get]
func (h *CollaboratorHandler) Get(c *gin.Context) {
	item, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// Create godoc
// @Summary Register collaborator
// @Tags Collaborators
// @Accept json
// @Produce json
// @Param payload body models.CreateCollaboratorRequest true "Collaborator"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /collaborators [post]
func (h *CollaboratorHandler) Create(c *gin.Context) {
	var req models.CreateCollaboratorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	item, err := h.service.Create(c.Request.Context(), req, auditMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, item)
}

// Update godoc
// @Summary Update collaborator
// @Tags Collaborators
// @Accept json
// @Produce json
// @Param id path string true "Collaborator ID"
// @Param payload body models.UpdateCollaboratorRequest true "Changes"
// @Success 200 {object} response.Envelope
// @Router /collaborators/{id} [put]
func (h *CollaboratorHandler) Update(c *gin.Context) {
	var req models.UpdateCollaboratorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	item, err := h.service.Update(c.Request.Context(), c.Param("id"), req, auditMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// Delete godoc
// @Summary Deactivate collaborator
// @Tags Collaborators
// @Param id path string true "Collaborator ID"
// @Success 204
// @Router /collaborators/{id} [delete]
func (h *CollaboratorHandler) Delete(c *gin.Context) {
	if err := h.service.Deactivate(c.Request.Context(), c.Param("id"), auditMeta(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
