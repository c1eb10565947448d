package cors

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func corsRouter(opts Options) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(New(opts))
	ok := func(c *gin.Context) { c.Status(http.StatusOK) }
	router.GET("/api/v1/public/assessments/:token", ok)
	router.GET("/api/v1/tests", ok)
	return router
}

func request(router *gin.Engine, method, path, origin string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestCORSSeparatesPublicAndAdminSurfaces(t *testing.T) {
	router := corsRouter(Options{
		AllowedOrigins: []string{"https://admin.example.com/"},
		PublicPrefix:   "/api/v1/public/",
		PublicBaseURL:  "https://assess.example.com/avaliacao",
	})

	rec := request(router, http.MethodGet, "/api/v1/public/assessments/tok", "https://assess.example.com")
	assert.Equal(t, "https://assess.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Credentials"))

	rec = request(router, http.MethodGet, "/api/v1/tests", "https://assess.example.com")
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))

	rec = request(router, http.MethodGet, "/api/v1/tests", "https://admin.example.com")
	assert.Equal(t, "https://admin.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
}

func TestCORSPreflight(t *testing.T) {
	router := corsRouter(Options{})

	rec := request(router, http.MethodOptions, "/api/v1/tests", "http://localhost:5173")

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
}
