package logger

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/noah-isme/talent-assessment-api/pkg/config"
	"github.com/noah-isme/talent-assessment-api/pkg/middleware/requestid"
)

// publicSegment precedes the access token in public assessment routes.
const publicSegment = "/public/assessments/"

func New(cfg *config.Config) (*zap.Logger, error) {
	var zapCfg zap.Config
	if cfg.Env == config.EnvProduction {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}

	switch cfg.Log.Format {
	case "console":
		zapCfg.Encoding = "console"
	default:
		zapCfg.Encoding = "json"
	}

	if cfg.Log.Level != "" {
		if err := zapCfg.Level.UnmarshalText([]byte(cfg.Log.Level)); err != nil {
			zapCfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
		}
	}

	zapCfg.EncoderConfig.TimeKey = "timestamp"
	zapCfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return zapCfg.Build()
}

func GinMiddleware(l *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		latency := time.Since(start)
		reqID := requestid.Value(c)

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", MaskPath(c.Request.URL.Path)),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", latency),
			zap.String("ip", c.ClientIP()),
		}
		if reqID != "" {
			fields = append(fields, zap.String("request_id", reqID))
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}

		l.Info("http_request", fields...)
	}
}

// MaskPath hides access tokens carried in public assessment paths.
func MaskPath(path string) string {
	idx := strings.Index(path, publicSegment)
	if idx < 0 {
		return path
	}
	rest := path[idx+len(publicSegment):]
	if rest == "" {
		return path
	}
	suffix := ""
	if slash := strings.IndexByte(rest, '/'); slash >= 0 {
		suffix = rest[slash:]
		rest = rest[:slash]
	}
	return path[:idx+len(publicSegment)] + MaskToken(rest) + suffix
}

// MaskToken keeps a short prefix of a token so log lines stay correlatable.
func MaskToken(token string) string {
	if len(token) <= 4 {
		return "****"
	}
	return token[:4] + "****"
}
