// Package seed loads the official test catalog and the first administrator.
package seed

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/noah-isme/talent-assessment-api/internal/models"
	"github.com/noah-isme/talent-assessment-api/internal/service"
)

type testCodeFinder interface {
	FindByCode(ctx context.Context, code string) (*models.Test, error)
}

type testCreator interface {
	Create(ctx context.Context, req models.CreateTestRequest, meta service.AuditMeta) (*models.Test, error)
}

type userCounter interface {
	Count(ctx context.Context) (int, error)
}

type userCreator interface {
	Create(ctx context.Context, req models.CreateUserRequest, meta service.AuditMeta) (*models.User, error)
}

// Admin describes the first administrator account.
type Admin struct {
	Email    string
	FullName string
	Password string
}

// Seeder inserts reference data without touching existing rows.
type Seeder struct {
	testCodes testCodeFinder
	tests     testCreator
	userCount userCounter
	users     userCreator
	logger    *zap.Logger
}

// New constructs a Seeder.
func New(testCodes testCodeFinder, tests testCreator, userCount userCounter, users userCreator, logger *zap.Logger) *Seeder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Seeder{testCodes: testCodes, tests: tests, userCount: userCount, users: users, logger: logger}
}

// Result summarises a seeding run.
type Result struct {
	TestsCreated int
	TestsSkipped int
	AdminCreated bool
}

// Run creates missing official tests and, when no user exists, the first admin.
func (s *Seeder) Run(ctx context.Context, admin Admin) (Result, error) {
	var result Result
	meta := service.AuditMeta{UserAgent: "seed"}

	for _, req := range OfficialTests() {
		if _, err := s.testCodes.FindByCode(ctx, req.Code); err == nil {
			result.TestsSkipped++
			continue
		} else if !errors.Is(err, sql.ErrNoRows) {
			return result, fmt.Errorf("lookup test %s: %w", req.Code, err)
		}
		test, err := s.tests.Create(ctx, req, meta)
		if err != nil {
			return result, fmt.Errorf("create test %s: %w", req.Code, err)
		}
		result.TestsCreated++
		s.logger.Info("official test created", zap.String("code", test.Code), zap.String("id", test.ID))
	}

	count, err := s.userCount.Count(ctx)
	if err != nil {
		return result, fmt.Errorf("count users: %w", err)
	}
	if count > 0 {
		return result, nil
	}
	if admin.Email == "" || admin.Password == "" {
		s.logger.Warn("no users exist and no admin credentials were provided")
		return result, nil
	}
	user, err := s.users.Create(ctx, models.CreateUserRequest{
		Email:    admin.Email,
		FullName: admin.FullName,
		Password: admin.Password,
		Role:     models.RoleAdmin,
	}, meta)
	if err != nil {
		return result, fmt.Errorf("create admin: %w", err)
	}
	result.AdminCreated = true
	s.logger.Info("first administrator created", zap.String("email", user.Email))
	return result, nil
}
