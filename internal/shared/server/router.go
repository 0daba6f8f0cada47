package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"resume-tailor/internal/analyses"
	"resume-tailor/internal/generatedresumes"
	"resume-tailor/internal/services/health"
	"resume-tailor/internal/shared/config"
	"resume-tailor/internal/shared/metrics"
	"resume-tailor/internal/shared/server/middleware"
	"resume-tailor/internal/shared/server/respond"
)

const (
	rateGroupDefault  = "DEFAULT"
	rateGroupAnalysis = "ANALYZE"
	rateGroupStatus   = "STATUS"
)

// RouterDeps carries the handlers wired by bootstrap.
type RouterDeps struct {
	Config                 config.Config
	Health                 *health.Service
	AnalysisHandler        *analyses.Handler
	GeneratedResumeHandler *generatedresumes.Handler
	RateLimiter            *middleware.RateLimiter
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	if deps.Config.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
	)

	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		if deps.Health == nil {
			respond.OK(c, gin.H{"ok": true})
			return
		}
		report := deps.Health.Status(c.Request.Context())
		status := http.StatusOK
		if !report.OK {
			status = http.StatusServiceUnavailable
		}
		respond.JSON(c, status, report)
	})

	scoped := api.Group("")
	scoped.Use(
		middleware.Session(),
		middleware.RateLimit(middleware.RateLimitConfig{
			DefaultGroup: rateGroupDefault,
			GroupFor:     rateGroupFor,
			Limiter:      deps.RateLimiter,
			Rules: map[string]middleware.RateLimitRule{
				rateGroupDefault:  {Rate: 2, Burst: 20},
				rateGroupAnalysis: {Rate: 0.2, Burst: 3},
				rateGroupStatus:   {Rate: 5, Burst: 30},
			},
		}),
	)
	if deps.AnalysisHandler != nil {
		deps.AnalysisHandler.RegisterRoutes(scoped)
	}
	if deps.GeneratedResumeHandler != nil {
		deps.GeneratedResumeHandler.RegisterRoutes(scoped)
	}

	return r
}

// rateGroupFor gives analysis submissions a tight bucket and state polling a
// loose one.
func rateGroupFor(c *gin.Context) string {
	switch {
	case c.Request.Method == http.MethodPost && c.FullPath() == "/api/v1/analyses":
		return rateGroupAnalysis
	case c.Request.Method == http.MethodGet && c.FullPath() == "/api/v1/analyses/state":
		return rateGroupStatus
	default:
		return rateGroupDefault
	}
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
