package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/talent-assessment-api/internal/service"
)

type memoryCounter struct {
	counts map[string]int64
	err    error
}

func (m *memoryCounter) Incr(_ context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	if m.err != nil {
		return 0, 0, m.err
	}
	if m.counts == nil {
		m.counts = map[string]int64{}
	}
	m.counts[key]++
	return m.counts[key], window, nil
}

func rateLimitedRouter(counter WindowCounter) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RateLimit(counter, RateLimitConfig{Prefix: "rl:test", Requests: 2, Window: 30 * time.Second}, service.NewMetricsService(), nil))
	router.GET("/public", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	return router
}

func TestRateLimitBlocksAfterLimit(t *testing.T) {
	counter := &memoryCounter{}
	router := rateLimitedRouter(counter)

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/public", nil))
		assert.Equal(t, http.StatusNoContent, rec.Code)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/public", nil))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "30", rec.Header().Get("Retry-After"))
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))
	assert.Contains(t, rec.Body.String(), "TOO_MANY_REQUESTS")
}

func TestRateLimitFailsOpen(t *testing.T) {
	router := rateLimitedRouter(&memoryCounter{err: errors.New("redis down")})

	for i := 0; i < 5; i++ {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/public", nil))
		assert.Equal(t, http.StatusNoContent, rec.Code)
	}
}
