package cors

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
)

// Options configures the two browser surfaces of the API: the admin console
// (credentialed, listed origins) and the public questionnaire pages.
type Options struct {
	AllowedOrigins []string
	// PublicPrefix marks paths reachable by anonymous respondents.
	PublicPrefix string
	// PublicBaseURL is where the questionnaire front end is hosted; its
	// origin is admitted on public paths even when not listed.
	PublicBaseURL string
}

// New returns the CORS middleware. An empty AllowedOrigins list admits any
// origin, which is only sensible in development.
func New(opts Options) gin.HandlerFunc {
	allowAll := len(opts.AllowedOrigins) == 0
	admin := make(map[string]struct{}, len(opts.AllowedOrigins))
	for _, origin := range opts.AllowedOrigins {
		admin[normalize(origin)] = struct{}{}
	}
	public := originOf(opts.PublicBaseURL)

	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Add("Vary", "Origin")
		origin := normalize(c.GetHeader("Origin"))
		isPublic := opts.PublicPrefix != "" && strings.HasPrefix(c.Request.URL.Path, opts.PublicPrefix)

		_, listed := admin[origin]
		switch {
		case origin == "":
		case isPublic && (allowAll || listed || origin == public):
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			h.Set("Access-Control-Allow-Headers", "Content-Type, X-Request-ID")
		case !isPublic && (allowAll || listed):
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Credentials", "true")
			h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
			h.Set("Access-Control-Allow-Headers", "Authorization, Content-Type, X-Requested-With, X-Request-ID")
		}
		h.Set("Access-Control-Expose-Headers", "X-Request-ID, Retry-After")
		h.Set("Access-Control-Max-Age", "600")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func normalize(origin string) string {
	return strings.TrimRight(strings.TrimSpace(origin), "/")
}

func originOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ""
	}
	return u.Scheme + "://" + u.Host
}
