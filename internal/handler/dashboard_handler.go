package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/talent-assessment-api/internal/middleware"
	"github.com/noah-isme/talent-assessment-api/internal/models"
	appErrors "github.com/noah-isme/talent-assessment-api/pkg/errors"
	"github.com/noah-isme/talent-assessment-api/pkg/response"
)

type dashboardService interface {
	Overview(ctx context.Context, evaluationID string) (*models.Dashboard, bool, error)
}

// DashboardHandler wires dashboard service to HTTP endpoints.
type DashboardHandler struct {
	service dashboardService
}

// NewDashboardHandler constructs the handler.
func NewDashboardHandler(service dashboardService) *DashboardHandler {
	return &DashboardHandler{service: service}
}

// Overview godoc
// @Summary Assessment dashboard
// @Description Totals, status breakdown, per-test scores and band coverage issues
// @Tags Dashboard
// @Produce json
// @Param evaluationId query string false "Restrict to one evaluation"
// @Success 200 {object} response.Envelope
// @Router /dashboard [get]
func (h *DashboardHandler) Overview(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	evaluationID := strings.TrimSpace(c.Query("evaluationId"))
	start := time.Now()
	summary, cacheHit, err := h.service.Overview(c.Request.Context(), evaluationID)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cacheHit)
	meta := middleware.ExtractMeta(c)
	if meta == nil {
		meta = map[string]interface{}{}
	}
	meta["processing_time_ms"] = time.Since(start).Milliseconds()
	response.JSON(c, http.StatusOK, summary, nil, meta)
}
