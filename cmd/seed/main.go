package main

import (
	"context"
	"log"
	"os"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/talent-assessment-api/internal/repository"
	"github.com/noah-isme/talent-assessment-api/internal/seed"
	"github.com/noah-isme/talent-assessment-api/internal/service"
	"github.com/noah-isme/talent-assessment-api/pkg/config"
	"github.com/noah-isme/talent-assessment-api/pkg/database"
	"github.com/noah-isme/talent-assessment-api/pkg/logger"
)

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

	ctx := context.Background()
	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer db.Close() //nolint:errcheck

	if err := database.Migrate(ctx, db, cfg.Database.MigrationsDir, logr); err != nil {
		logr.Fatal("failed to apply migrations", zap.Error(err))
	}

	validate := validator.New()
	testRepo := repository.NewTestRepository(db)
	userRepo := repository.NewUserRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	testSvc := service.NewTestService(testRepo, nil, auditRepo, validate, logr, service.TestServiceConfig{EnforceBandCoverage: true})
	userSvc := service.NewUserService(userRepo, auditRepo, validate, logr)

	result, err := seed.New(testRepo, testSvc, userRepo, userSvc, logr).Run(ctx, seed.Admin{
		Email:    os.Getenv("SEED_ADMIN_EMAIL"),
		FullName: envOr("SEED_ADMIN_NAME", "Administrator"),
		Password: os.Getenv("SEED_ADMIN_PASSWORD"),
	})
	if err != nil {
		logr.Fatal("seed failed", zap.Error(err))
	}
	logr.Info("seed finished",
		zap.Int("tests_created", result.TestsCreated),
		zap.Int("tests_skipped", result.TestsSkipped),
		zap.Bool("admin_created", result.AdminCreated))
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
