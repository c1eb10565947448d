package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/talent-assessment-api/internal/models"
)

type recordingAudit struct {
	entries []*models.AuditLog
	err     error
}

func (r *recordingAudit) Create(_ context.Context, log *models.AuditLog) error {
	r.entries = append(r.entries, log)
	return r.err
}

func auditRouter(repo AuditLogWriter, status int) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set(ContextUserKey, &models.JWTClaims{UserID: "admin-1", Role: models.RoleAdmin})
		c.Next()
	})
	router.POST("/reports", Audit(repo, nil, models.AuditActionCreate, "reports"), func(c *gin.Context) {
		if status < 400 {
			SetAuditTarget(c, "job-9", map[string]interface{}{"evaluation_id": "eval-1", "format": "pdf"})
		}
		c.Status(status)
	})
	return router
}

func TestAuditRecordsTargetSetByHandler(t *testing.T) {
	repo := &recordingAudit{}
	rec := httptest.NewRecorder()

	auditRouter(repo, http.StatusAccepted).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/reports", nil))

	require.Len(t, repo.entries, 1)
	entry := repo.entries[0]
	assert.Equal(t, "job-9", *entry.ResourceID)
	assert.Equal(t, "admin-1", *entry.UserID)
	assert.Equal(t, models.AuditActionCreate, entry.Action)

	var values map[string]interface{}
	require.NoError(t, json.Unmarshal(entry.NewValues, &values))
	assert.Equal(t, "eval-1", values["evaluation_id"])
	assert.Equal(t, "pdf", values["format"])
}

func TestAuditSkipsFailedRequests(t *testing.T) {
	repo := &recordingAudit{}
	rec := httptest.NewRecorder()

	auditRouter(repo, http.StatusBadRequest).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/reports", nil))

	assert.Empty(t, repo.entries)
}

func TestAuditWriteFailureKeepsResponse(t *testing.T) {
	repo := &recordingAudit{err: errors.New("db down")}
	rec := httptest.NewRecorder()

	auditRouter(repo, http.StatusAccepted).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/reports", nil))

	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Len(t, repo.entries, 1)
}
