package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/talent-assessment-api/internal/models"
	"github.com/noah-isme/talent-assessment-api/internal/repository"
	"github.com/noah-isme/talent-assessment-api/internal/scoring"
	appErrors "github.com/noah-isme/talent-assessment-api/pkg/errors"
)

type testRepository interface {
	List(ctx context.Context, filter models.TestFilter) ([]models.Test, int, error)
	ListActive(ctx context.Context) ([]models.Test, error)
	FindByID(ctx context.Context, id string) (*models.Test, error)
	Create(ctx context.Context, test *models.Test) error
	Update(ctx context.Context, test *models.Test) error
	SetActive(ctx context.Context, id string, active bool) error
	ListVersions(ctx context.Context, testID string) ([]models.TestVersion, error)
}

// TestServiceConfig toggles band validation strictness.
type TestServiceConfig struct {
	EnforceBandCoverage bool
}

// TestService manages test definitions and their versions.
type TestService struct {
	repo      testRepository
	cache     *CacheService
	audit     auditWriter
	validator *validator.Validate
	logger    *zap.Logger
	cfg       TestServiceConfig
}

// NewTestService constructs a TestService.
func NewTestService(repo testRepository, cache *CacheService, audit auditWriter, validate *validator.Validate, logger *zap.Logger, cfg TestServiceConfig) *TestService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &TestService{repo: repo, cache: cache, audit: audit, validator: validate, logger: logger, cfg: cfg}
}

// List returns paginated tests.
func (s *TestService) List(ctx context.Context, filter models.TestFilter) ([]models.Test, *models.Pagination, error) {
	tests, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list tests")
	}
	return tests, paginate(filter.Page, filter.PageSize, total), nil
}

// Get returns a test by id.
func (s *TestService) Get(ctx context.Context, id string) (*models.Test, error) {
	test, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOrInternal(err, "test not found", "failed to load test")
	}
	return test, nil
}

// Create validates and stores a new test at version 1.
func (s *TestService) Create(ctx context.Context, req models.CreateTestRequest, meta AuditMeta) (*models.Test, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid test payload")
	}
	if err := s.validateDefinition(req.Questions, req.Bands); err != nil {
		return nil, err
	}

	test := &models.Test{
		Code:        strings.ToUpper(strings.TrimSpace(req.Code)),
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Category:    req.Category,
		Questions:   models.Questions(req.Questions),
		Bands:       models.Bands(req.Bands),
		Active:      true,
	}
	if err := s.repo.Create(ctx, test); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "test code already exists")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create test")
	}

	s.cache.InvalidateDashboards(ctx)
	writeAudit(ctx, s.audit, s.logger, meta, models.AuditActionCreate, models.AuditResourceTests, test.ID, nil,
		map[string]interface{}{"code": test.Code, "version": test.Version})
	return test, nil
}

// Update applies changes and stores them as a new version. Responses already
// issued keep the version they were created with.
func (s *TestService) Update(ctx context.Context, id string, req models.UpdateTestRequest, meta AuditMeta) (*models.Test, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid test payload")
	}

	test, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOrInternal(err, "test not found", "failed to load test")
	}
	previous := test.Version

	if req.Name != nil {
		test.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		test.Description = req.Description
	}
	if req.Category != nil {
		test.Category = req.Category
	}
	if req.Questions != nil {
		test.Questions = models.Questions(req.Questions)
	}
	if req.Bands != nil {
		test.Bands = models.Bands(req.Bands)
	}
	if req.Active != nil {
		test.Active = *req.Active
	}
	if test.Name == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "name is required")
	}
	if err := s.validateDefinition(test.Questions, test.Bands); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, test); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "test not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update test")
	}

	s.cache.InvalidateDashboards(ctx)
	writeAudit(ctx, s.audit, s.logger, meta, models.AuditActionUpdate, models.AuditResourceTests, test.ID,
		map[string]interface{}{"version": previous}, map[string]interface{}{"version": test.Version})
	return test, nil
}

// Deactivate hides a test from new evaluations. Tests are never deleted
// because responses reference their versions.
func (s *TestService) Deactivate(ctx context.Context, id string, meta AuditMeta) error {
	if err := s.repo.SetActive(ctx, id, false); err != nil {
		return notFoundOrInternal(err, "test not found", "failed to deactivate test")
	}
	s.cache.InvalidateDashboards(ctx)
	writeAudit(ctx, s.audit, s.logger, meta, models.AuditActionDelete, models.AuditResourceTests, id,
		map[string]interface{}{"active": true}, map[string]interface{}{"active": false})
	return nil
}

// Versions lists every stored snapshot of a test.
func (s *TestService) Versions(ctx context.Context, id string) ([]models.TestVersion, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	versions, err := s.repo.ListVersions(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list test versions")
	}
	return versions, nil
}

// BandIssues reports active tests whose bands leave part of the scale uncovered.
func (s *TestService) BandIssues(ctx context.Context) ([]models.BandIssue, error) {
	tests, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list active tests")
	}
	return bandIssues(tests), nil
}

func bandIssues(tests []models.Test) []models.BandIssue {
	issues := make([]models.BandIssue, 0)
	for _, test := range tests {
		if gaps := scoring.Gaps(scoring.BandTable(test.Bands)); len(gaps) > 0 {
			issues = append(issues, models.BandIssue{TestID: test.ID, TestName: test.Name, Gaps: gaps})
		}
	}
	return issues
}

func (s *TestService) validateDefinition(questions []scoring.Question, bands []scoring.Band) error {
	if err := scoring.ValidateQuestions(questions); err != nil {
		return err
	}
	table := scoring.BandTable(bands)
	if err := scoring.ValidateBands(table); err != nil {
		return err
	}
	if s.cfg.EnforceBandCoverage {
		return scoring.ValidateCoverage(table)
	}
	return nil
}
