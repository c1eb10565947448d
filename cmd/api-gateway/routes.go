package main

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/talent-assessment-api/internal/handler"
	"github.com/noah-isme/talent-assessment-api/internal/middleware"
	"github.com/noah-isme/talent-assessment-api/internal/models"
	"github.com/noah-isme/talent-assessment-api/internal/service"
	"github.com/noah-isme/talent-assessment-api/pkg/config"
	"github.com/noah-isme/talent-assessment-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/talent-assessment-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/talent-assessment-api/pkg/middleware/requestid"
)

type handlers struct {
	auth          *handler.AuthHandler
	users         *handler.UserHandler
	tests         *handler.TestHandler
	collaborators *handler.CollaboratorHandler
	evaluations   *handler.EvaluationHandler
	responses     *handler.ResponseHandler
	assessments   *handler.AssessmentHandler
	dashboard     *handler.DashboardHandler
	reports       *handler.ReportHandler
}

type routerDeps struct {
	cfg       *config.Config
	logger    *zap.Logger
	metrics   *service.MetricsService
	auth      *service.AuthService
	auditRepo middleware.AuditLogWriter
	limiter   middleware.WindowCounter
	readiness map[string]handler.ReadinessCheck
	handlers  handlers
}

func newRouter(deps routerDeps) *gin.Engine {
	cfg := deps.cfg
	h := deps.handlers

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(deps.logger))
	r.Use(corsmiddleware.New(corsmiddleware.Options{
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		PublicPrefix:   cfg.APIPrefix + "/public/",
		PublicBaseURL:  cfg.Assessment.PublicBaseURL,
	}))
	r.Use(middleware.Metrics(deps.metrics, "/health", "/ready", "/metrics"))
	r.Use(middleware.WithResponseMeta())

	ops := handler.NewMetricsHandler(deps.metrics, deps.readiness)
	r.GET("/health", ops.Health)
	r.GET("/ready", ops.Ready)
	r.GET("/metrics", ops.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	public := api.Group("/public")
	if cfg.RateLimit.Enabled {
		public.Use(middleware.RateLimit(deps.limiter, middleware.RateLimitConfig{
			Prefix:   "ratelimit:public",
			Requests: cfg.RateLimit.Requests,
			Window:   cfg.RateLimit.Window,
		}, deps.metrics, deps.logger))
	}
	public.GET("/assessments/:token", h.assessments.Validate)
	public.POST("/assessments/:token/submit", h.assessments.Submit)

	// Signed download links are shareable, so the token is the only credential.
	api.GET("/export/:token", h.reports.Download)

	authGroup := api.Group("/auth")
	authGroup.POST("/login", h.auth.Login)
	authGroup.POST("/refresh", h.auth.Refresh)

	secured := api.Group("")
	secured.Use(middleware.JWT(deps.auth))
	secured.POST("/auth/logout", h.auth.Logout)
	secured.POST("/auth/change-password", h.auth.ChangePassword)
	secured.GET("/auth/me", h.auth.Me)

	readers := middleware.RequireRoles(models.RoleAdmin, models.RoleEditor, models.RoleViewer)
	editors := middleware.RequireRoles(models.RoleAdmin, models.RoleEditor)
	admins := middleware.RequireRoles(models.RoleAdmin)

	users := secured.Group("/users", admins)
	users.GET("", h.users.List)
	users.GET("/:id", h.users.Get)
	users.POST("", h.users.Create)
	users.PUT("/:id", h.users.Update)

	tests := secured.Group("/tests")
	tests.GET("", readers, h.tests.List)
	tests.GET("/band-issues", readers, h.tests.BandIssues)
	tests.GET("/:id", readers, h.tests.Get)
	tests.GET("/:id/versions", readers, h.tests.Versions)
	tests.POST("", editors, h.tests.Create)
	tests.PUT("/:id", editors, h.tests.Update)
	tests.DELETE("/:id", editors, h.tests.Delete)

	collaborators := secured.Group("/collaborators")
	collaborators.GET("", readers, h.collaborators.List)
	collaborators.GET("/:id", readers, h.collaborators.Get)
	collaborators.POST("", editors, h.collaborators.Create)
	collaborators.PUT("/:id", editors, h.collaborators.Update)
	collaborators.DELETE("/:id", editors, h.collaborators.Delete)

	evaluations := secured.Group("/evaluations")
	evaluations.GET("", readers, h.evaluations.List)
	evaluations.GET("/:id", readers, h.evaluations.Get)
	evaluations.GET("/:id/links", readers, h.evaluations.Links)
	evaluations.GET("/:id/responses", readers, h.responses.ListByEvaluation)
	evaluations.POST("", editors, h.evaluations.Create)
	evaluations.PUT("/:id", editors, h.evaluations.Update)
	evaluations.POST("/:id/send", editors, h.evaluations.Send)
	evaluations.DELETE("/:id", editors, h.evaluations.Delete)

	secured.GET("/responses/:id", readers, h.responses.Get)
	secured.GET("/dashboard", readers, h.dashboard.Overview)
	secured.GET("/metrics/summary", admins, ops.Summary)

	reports := secured.Group("/reports")
	reports.POST("", readers, middleware.Audit(deps.auditRepo, deps.logger, models.AuditActionCreate, models.AuditResourceReports), h.reports.Create)
	reports.GET("/:id", readers, h.reports.Status)

	return r
}
