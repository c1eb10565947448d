package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/talent-assessment-api/internal/models"
	"github.com/noah-isme/talent-assessment-api/internal/repository"
	appErrors "github.com/noah-isme/talent-assessment-api/pkg/errors"
)

type collaboratorRepository interface {
	List(ctx context.Context, filter models.CollaboratorFilter) ([]models.Collaborator, int, error)
	FindByID(ctx context.Context, id string) (*models.Collaborator, error)
	Create(ctx context.Context, item *models.Collaborator) error
	Update(ctx context.Context, item *models.Collaborator) error
}

// CollaboratorService manages assessment recipients.
type CollaboratorService struct {
	repo      collaboratorRepository
	cache     *CacheService
	audit     auditWriter
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCollaboratorService constructs a CollaboratorService.
func NewCollaboratorService(repo collaboratorRepository, cache *CacheService, audit auditWriter, validate *validator.Validate, logger *zap.Logger) *CollaboratorService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &CollaboratorService{repo: repo, cache: cache, audit: audit, validator: validate, logger: logger}
}

// List returns paginated collaborators.
func (s *CollaboratorService) List(ctx context.Context, filter models.CollaboratorFilter) ([]models.Collaborator, *models.Pagination, error) {
	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list collaborators")
	}
	return items, paginate(filter.Page, filter.PageSize, total), nil
}

// Get returns a collaborator by id.
func (s *CollaboratorService) Get(ctx context.Context, id string) (*models.Collaborator, error) {
	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOrInternal(err, "collaborator not found", "failed to load collaborator")
	}
	return item, nil
}

// Create registers a collaborator. Emails are unique case-insensitively.
func (s *CollaboratorService) Create(ctx context.Context, req models.CreateCollaboratorRequest, meta AuditMeta) (*models.Collaborator, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid collaborator payload")
	}

	item := &models.Collaborator{
		Name:       strings.TrimSpace(req.Name),
		Email:      strings.ToLower(strings.TrimSpace(req.Email)),
		Department: req.Department,
		Position:   req.Position,
		Active:     true,
	}
	if err := s.repo.Create(ctx, item); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "a collaborator with this email already exists")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create collaborator")
	}

	s.cache.InvalidateDashboards(ctx)
	writeAudit(ctx, s.audit, s.logger, meta, models.AuditActionCreate, models.AuditResourceCollaborators, item.ID, nil,
		map[string]interface{}{"email": item.Email})
	return item, nil
}

// Update changes collaborator fields. Setting active to false deactivates it.
func (s *CollaboratorService) Update(ctx context.Context, id string, req models.UpdateCollaboratorRequest, meta AuditMeta) (*models.Collaborator, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid collaborator payload")
	}

	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOrInternal(err, "collaborator not found", "failed to load collaborator")
	}
	before := map[string]interface{}{"email": item.Email, "active": item.Active}

	if req.Name != nil {
		item.Name = strings.TrimSpace(*req.Name)
	}
	if req.Email != nil {
		item.Email = strings.ToLower(strings.TrimSpace(*req.Email))
	}
	if req.Department != nil {
		item.Department = req.Department
	}
	if req.Position != nil {
		item.Position = req.Position
	}
	if req.Active != nil {
		item.Active = *req.Active
	}

	if err := s.repo.Update(ctx, item); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "a collaborator with this email already exists")
		}
		return nil, notFoundOrInternal(err, "collaborator not found", "failed to update collaborator")
	}

	s.cache.InvalidateDashboards(ctx)
	writeAudit(ctx, s.audit, s.logger, meta, models.AuditActionUpdate, models.AuditResourceCollaborators, item.ID, before,
		map[string]interface{}{"email": item.Email, "active": item.Active})
	return item, nil
}

// Deactivate marks a collaborator inactive. Existing responses are kept.
func (s *CollaboratorService) Deactivate(ctx context.Context, id string, meta AuditMeta) error {
	inactive := false
	_, err := s.Update(ctx, id, models.UpdateCollaboratorRequest{Active: &inactive}, meta)
	return err
}
