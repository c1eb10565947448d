package middleware

import (
	"context"
	"encoding/json"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/talent-assessment-api/internal/models"
)

const auditTargetKey = "audit_target"

// AuditLogWriter persists audit records.
type AuditLogWriter interface {
	Create(ctx context.Context, log *models.AuditLog) error
}

type auditTarget struct {
	id      string
	details map[string]interface{}
}

// SetAuditTarget names the resource a handler acted on, typically an id that
// only exists after the handler ran.
func SetAuditTarget(c *gin.Context, id string, details map[string]interface{}) {
	c.Set(auditTargetKey, auditTarget{id: id, details: details})
}

// Audit records one audit entry per successful request. Failed requests and
// write errors never affect the response.
func Audit(repo AuditLogWriter, logger *zap.Logger, action, resource string) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		c.Next()

		if repo == nil || c.Writer.Status() >= 400 {
			return
		}

		entry := &models.AuditLog{
			Action:    action,
			Resource:  resource,
			IPAddress: c.ClientIP(),
			UserAgent: c.GetHeader("User-Agent"),
		}
		if claims := CurrentClaims(c); claims != nil {
			actor := claims.UserID
			entry.UserID = &actor
		}

		values := map[string]interface{}{"path": c.FullPath(), "status": c.Writer.Status()}
		if raw, ok := c.Get(auditTargetKey); ok {
			if target, ok := raw.(auditTarget); ok {
				if target.id != "" {
					id := target.id
					entry.ResourceID = &id
				}
				for k, v := range target.details {
					values[k] = v
				}
			}
		} else if id := c.Param("id"); id != "" {
			entry.ResourceID = &id
		}
		entry.NewValues, _ = json.Marshal(values)

		if err := repo.Create(c.Request.Context(), entry); err != nil {
			logger.Warn("failed to record audit log", zap.String("action", action), zap.String("resource", resource), zap.Error(err))
		}
	}
}
