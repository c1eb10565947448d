package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/talent-assessment-api/internal/models"
	appErrors "github.com/noah-isme/talent-assessment-api/pkg/errors"
)

type fakeDashboardSrv struct {
	resp           *models.Dashboard
	hit            bool
	err            error
	lastEvaluation string
}

func (f *fakeDashboardSrv) Overview(_ context.Context, evaluationID string) (*models.Dashboard, bool, error) {
	f.lastEvaluation = evaluationID
	return f.resp, f.hit, f.err
}

func TestDashboardHandlerOverviewReportsCacheHit(t *testing.T) {
	srv := &fakeDashboardSrv{
		resp: &models.Dashboard{Totals: models.DashboardTotals{Evaluations: 3}, CompletionRate: 50},
		hit:  true,
	}
	handler := NewDashboardHandler(srv)

	c, rec := newTestContext(http.MethodGet, "/dashboard?evaluationId=eval-1", nil)
	handler.Overview(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "eval-1", srv.lastEvaluation)
	envelope := decodeEnvelope(t, rec)
	assert.Equal(t, true, envelope.Meta["cache_hit"])
	assert.Contains(t, envelope.Meta, "processing_time_ms")
	assert.Equal(t, float64(50), envelope.Data["completion_rate"])
}

func TestDashboardHandlerOverviewUnknownEvaluation(t *testing.T) {
	handler := NewDashboardHandler(&fakeDashboardSrv{err: appErrors.Clone(appErrors.ErrNotFound, "evaluation not found")})

	c, rec := newTestContext(http.MethodGet, "/dashboard?evaluationId=missing", nil)
	handler.Overview(c)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDashboardHandlerWithoutService(t *testing.T) {
	handler := NewDashboardHandler(nil)

	c, rec := newTestContext(http.MethodGet, "/dashboard", nil)
	handler.Overview(c)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
