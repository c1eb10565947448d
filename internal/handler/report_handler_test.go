package handler

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/talent-assessment-api/internal/middleware"
	"github.com/noah-isme/talent-assessment-api/internal/models"
	"github.com/noah-isme/talent-assessment-api/internal/service"
	appErrors "github.com/noah-isme/talent-assessment-api/pkg/errors"
)

type fakeReportSrv struct {
	created     models.CreateReportRequest
	job         *models.ReportJob
	err         error
	downloadErr error
	path        string
	format      models.ReportFormat
}

func (f *fakeReportSrv) CreateJob(_ context.Context, req models.CreateReportRequest) (*models.ReportJob, error) {
	f.created = req
	return f.job, f.err
}

func (f *fakeReportSrv) GetStatus(_ context.Context, id string) (*models.ReportJob, error) {
	if f.job == nil || f.job.ID != id {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "report job not found")
	}
	return f.job, nil
}

func (f *fakeReportSrv) ResolveDownload(_ context.Context, token string) (*service.ReportDownload, error) {
	if f.downloadErr != nil {
		return nil, f.downloadErr
	}
	file, err := os.Open(f.path)
	if err != nil {
		return nil, err
	}
	return &service.ReportDownload{File: file, Filename: filepath.Base(f.path), Format: f.format}, nil
}

func TestReportHandlerCreateQueuesJob(t *testing.T) {
	srv := &fakeReportSrv{job: &models.ReportJob{ID: "job-1", Status: models.ReportStatusQueued}}
	handler := NewReportHandler(srv)

	c, rec := newTestContext(http.MethodPost, "/reports", `{"type":"evaluation","evaluationId":"eval-1","format":"csv"}`)
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "admin-1"})
	handler.Create(c)

	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, "admin-1", srv.created.CreatedBy)
	assert.Equal(t, "eval-1", srv.created.EvaluationID)
	assert.Equal(t, "job-1", decodeEnvelope(t, rec).Data["id"])
}

func TestReportHandlerStatusNotFound(t *testing.T) {
	handler := NewReportHandler(&fakeReportSrv{})

	c, rec := newTestContext(http.MethodGet, "/reports/missing", nil)
	c.Params = gin.Params{{Key: "id", Value: "missing"}}
	handler.Status(c)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestReportHandlerDownloadStreamsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "evaluation-q3.csv")
	require.NoError(t, os.WriteFile(path, []byte("collaborator,score\nAna,4.00\n"), 0o600))
	handler := NewReportHandler(&fakeReportSrv{path: path, format: models.ReportFormatCSV})

	c, rec := newTestContext(http.MethodGet, "/export/tok", nil)
	c.Params = gin.Params{{Key: "token", Value: "tok"}}
	handler.Download(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "evaluation-q3.csv")
	assert.Contains(t, rec.Body.String(), "Ana,4.00")
}

func TestReportHandlerDownloadRejectsBadToken(t *testing.T) {
	handler := NewReportHandler(&fakeReportSrv{downloadErr: appErrors.Clone(appErrors.ErrForbidden, "invalid or expired download token")})

	c, rec := newTestContext(http.MethodGet, "/export/bad", nil)
	c.Params = gin.Params{{Key: "token", Value: "bad"}}
	handler.Download(c)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}
