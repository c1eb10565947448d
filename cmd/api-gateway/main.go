package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	_ "github.com/noah-isme/talent-assessment-api/api/swagger"
	"github.com/noah-isme/talent-assessment-api/internal/handler"
	"github.com/noah-isme/talent-assessment-api/internal/repository"
	"github.com/noah-isme/talent-assessment-api/internal/scoring"
	"github.com/noah-isme/talent-assessment-api/internal/service"
	"github.com/noah-isme/talent-assessment-api/pkg/cache"
	"github.com/noah-isme/talent-assessment-api/pkg/config"
	"github.com/noah-isme/talent-assessment-api/pkg/database"
	"github.com/noah-isme/talent-assessment-api/pkg/export"
	"github.com/noah-isme/talent-assessment-api/pkg/jobs"
	"github.com/noah-isme/talent-assessment-api/pkg/logger"
	"github.com/noah-isme/talent-assessment-api/pkg/mailer"
	"github.com/noah-isme/talent-assessment-api/pkg/storage"
)

// @title Talent Assessment API
// @version 1.0.0
// @description Behavioural assessments for HR teams: tests with interpretation bands, evaluations and public questionnaire links.
// @BasePath /api/v1
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer db.Close() //nolint:errcheck

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(ctx, db, cfg.Database.MigrationsDir, logr); err != nil {
			logr.Fatal("failed to apply migrations", zap.Error(err))
		}
	}

	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, continuing without cache and rate limiting", zap.Error(err))
		redisClient = nil
	}

	validate := validator.New()
	metrics := service.NewMetricsService()

	userRepo := repository.NewUserRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	testRepo := repository.NewTestRepository(db)
	collaboratorRepo := repository.NewCollaboratorRepository(db)
	evaluationRepo := repository.NewEvaluationRepository(db)
	responseRepo := repository.NewResponseRepository(db)
	dashboardRepo := repository.NewDashboardRepository(db)
	reportRepo := repository.NewReportRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	defer cacheRepo.Close() //nolint:errcheck

	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Dashboard.CacheTTL, logr, cfg.Dashboard.CacheEnabled && redisClient != nil)

	authSvc := service.NewAuthService(userRepo, auditRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             cfg.JWT.Issuer,
	})
	userSvc := service.NewUserService(userRepo, auditRepo, validate, logr)
	testSvc := service.NewTestService(testRepo, cacheSvc, auditRepo, validate, logr, service.TestServiceConfig{
		EnforceBandCoverage: cfg.Assessment.EnforceBandCoverage,
	})
	collaboratorSvc := service.NewCollaboratorService(collaboratorRepo, cacheSvc, auditRepo, validate, logr)

	var invitations *service.InvitationService
	invitationQueue := jobs.NewQueue("invitations", func(ctx context.Context, job jobs.Job) error {
		return invitations.Handle(ctx, job)
	}, jobs.QueueConfig{
		Workers:    cfg.Assessment.InvitationWorkers,
		MaxRetries: cfg.Assessment.InvitationMaxAttempts,
		RetryDelay: 5 * time.Second,
		Logger:     logr,
		OnGiveUp: func(job jobs.Job, err error) {
			invitations.GiveUp(job, err)
		},
	})
	invitations = service.NewInvitationService(mailer.New(cfg.Mailer), invitationQueue, metrics, logr, cfg.Assessment.InvitationsEnabled)

	evaluationSvc := service.NewEvaluationService(service.EvaluationServiceParams{
		Evaluations:   evaluationRepo,
		Tests:         testRepo,
		Collaborators: collaboratorRepo,
		Responses:     responseRepo,
		Invitations:   invitations,
		Cache:         cacheSvc,
		Audit:         auditRepo,
		Validator:     validate,
		Logger:        logr,
		Config: service.EvaluationServiceConfig{
			TokenBytes:    cfg.Assessment.TokenBytes,
			TokenTTL:      cfg.Assessment.TokenTTL,
			PublicBaseURL: cfg.Assessment.PublicBaseURL,
		},
	})
	responseSvc := service.NewResponseService(responseRepo, evaluationRepo, logr)
	accessSvc := service.NewAccessService(responseRepo, testRepo, collaboratorRepo, metrics, logr, cfg.Assessment.TokenTTL)
	submissionSvc := service.NewSubmissionService(service.SubmissionServiceParams{
		Responses:   responseRepo,
		Tests:       testRepo,
		Evaluations: evaluationRepo,
		Cache:       cacheSvc,
		Metrics:     metrics,
		Logger:      logr,
		Policy:      scoring.Policy{Mode: cfg.Assessment.AnswerPolicy, NeutralValue: cfg.Assessment.NeutralValue},
		TokenTTL:    cfg.Assessment.TokenTTL,
	})
	dashboardSvc := service.NewDashboardService(service.DashboardServiceParams{
		Repo:        dashboardRepo,
		Tests:       testRepo,
		Evaluations: evaluationRepo,
		Cache:       cacheSvc,
		Logger:      logr,
		Config:      service.DashboardServiceConfig{CacheTTL: cfg.Dashboard.CacheTTL},
	})

	fileStore, err := storage.NewLocalStorage(cfg.Reports.StorageDir)
	if err != nil {
		logr.Fatal("failed to prepare report storage", zap.Error(err))
	}
	exportSvc := service.NewExportService(service.ExportServiceParams{
		Rows:        responseRepo,
		Evaluations: evaluationRepo,
		Tests:       testRepo,
		Storage:     fileStore,
		Signer:      storage.NewSignedURLSigner(cfg.Reports.SignedURLSecret, cfg.Reports.SignedURLTTL),
		CSV:         export.NewCSVExporter(true),
		PDF:         export.NewPDFExporter(),
		Logger:      logr,
		Config:      service.ExportConfig{APIPrefix: cfg.APIPrefix, ResultTTL: cfg.Reports.SignedURLTTL},
	})
	reportWorker := service.NewReportWorker(reportRepo, exportSvc, metrics, cfg.Reports.WorkerRetries, logr)
	reportQueue := jobs.NewQueue("reports", reportWorker.Handle, jobs.QueueConfig{
		Workers:    cfg.Reports.WorkerConcurrency,
		MaxRetries: cfg.Reports.WorkerRetries,
		RetryDelay: 2 * time.Second,
		Logger:     logr,
	})
	reportSvc := service.NewReportService(service.ReportServiceParams{
		Repo:        reportRepo,
		Queue:       reportQueue,
		Files:       exportSvc,
		Evaluations: evaluationRepo,
		Tests:       testRepo,
		Metrics:     metrics,
		Validator:   validate,
		Logger:      logr,
		Config: service.ReportServiceConfig{
			ResultTTL:       cfg.Reports.SignedURLTTL,
			CleanupInterval: cfg.Reports.CleanupInterval,
		},
	})

	invitationQueue.Start(ctx)
	defer invitationQueue.Stop()
	reportQueue.Start(ctx)
	defer reportQueue.Stop()
	reportSvc.RecoverPendingJobs(ctx)
	reportSvc.StartCleanup(ctx)

	if issues, err := testSvc.BandIssues(ctx); err == nil && len(issues) > 0 {
		for _, issue := range issues {
			logr.Warn("active test leaves scores unclassified", zap.String("test_id", issue.TestID), zap.String("test", issue.TestName), zap.Any("gaps", issue.Gaps))
		}
	}

	router := newRouter(routerDeps{
		cfg:       cfg,
		logger:    logr,
		metrics:   metrics,
		auth:      authSvc,
		auditRepo: auditRepo,
		limiter:   cacheRepo,
		readiness: map[string]handler.ReadinessCheck{
			"postgres": db.PingContext,
			"redis":    cacheRepo.Ping,
		},
		handlers: handlers{
			auth:          handler.NewAuthHandler(authSvc),
			users:         handler.NewUserHandler(userSvc),
			tests:         handler.NewTestHandler(testSvc),
			collaborators: handler.NewCollaboratorHandler(collaboratorSvc),
			evaluations:   handler.NewEvaluationHandler(evaluationSvc),
			responses:     handler.NewResponseHandler(responseSvc),
			assessments:   handler.NewAssessmentHandler(accessSvc, submissionSvc),
			dashboard:     handler.NewDashboardHandler(dashboardSvc),
			reports:       handler.NewReportHandler(reportSvc),
		},
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "answer_policy", cfg.Assessment.AnswerPolicy)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("server forced to shutdown", zap.Error(err))
	}
}
