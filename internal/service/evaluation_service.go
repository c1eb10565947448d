package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/talent-assessment-api/internal/models"
	appErrors "github.com/noah-isme/talent-assessment-api/pkg/errors"
	"github.com/noah-isme/talent-assessment-api/pkg/token"
)

type evaluationRepository interface {
	CreateWithResponses(ctx context.Context, eval *models.Evaluation, responses []models.Response) error
	FindByID(ctx context.Context, id string) (*models.Evaluation, error)
	List(ctx context.Context, filter models.EvaluationFilter) ([]models.EvaluationSummary, int, error)
	MarkSent(ctx context.Context, id string, sentAt time.Time) (bool, error)
	RefreshStatus(ctx context.Context, id string, now time.Time) (bool, error)
	UpdateDraft(ctx context.Context, id, name string, description *string, now time.Time) (bool, error)
	DeleteDraft(ctx context.Context, id string) (bool, error)
}

type testBatchReader interface {
	FindByIDs(ctx context.Context, ids []string) ([]models.Test, error)
}

type collaboratorBatchReader interface {
	FindByIDs(ctx context.Context, ids []string) ([]models.Collaborator, error)
}

type evaluationResponseLister interface {
	ListByEvaluation(ctx context.Context, evaluationID string) ([]models.ResponseDetail, error)
}

// invitationDispatcher queues one invitation per link and reports how many were queued.
type invitationDispatcher interface {
	Dispatch(ctx context.Context, evaluation models.Evaluation, links []models.AssessmentLink) int
}

// EvaluationServiceConfig carries link generation settings.
type EvaluationServiceConfig struct {
	TokenBytes    int
	TokenTTL      time.Duration
	PublicBaseURL string
}

// EvaluationServiceParams groups constructor dependencies.
type EvaluationServiceParams struct {
	Evaluations   evaluationRepository
	Tests         testBatchReader
	Collaborators collaboratorBatchReader
	Responses     evaluationResponseLister
	Invitations   invitationDispatcher
	Cache         *CacheService
	Audit         auditWriter
	Validator     *validator.Validate
	Logger        *zap.Logger
	Config        EvaluationServiceConfig
}

// EvaluationService creates evaluations and fans them out into response records.
type EvaluationService struct {
	evaluations   evaluationRepository
	tests         testBatchReader
	collaborators collaboratorBatchReader
	responses     evaluationResponseLister
	invitations   invitationDispatcher
	cache         *CacheService
	audit         auditWriter
	validator     *validator.Validate
	logger        *zap.Logger
	cfg           EvaluationServiceConfig
	newToken      func(n int) (string, error)
	now           func() time.Time
}

// NewEvaluationService constructs an EvaluationService with sane defaults.
func NewEvaluationService(params EvaluationServiceParams) *EvaluationService {
	cfg := params.Config
	if cfg.TokenBytes < token.MinBytes {
		cfg.TokenBytes = token.MinBytes
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 7 * 24 * time.Hour
	}
	cfg.PublicBaseURL = strings.TrimRight(cfg.PublicBaseURL, "/")
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	validate := params.Validator
	if validate == nil {
		validate = validator.New()
	}
	return &EvaluationService{
		evaluations:   params.Evaluations,
		tests:         params.Tests,
		collaborators: params.Collaborators,
		responses:     params.Responses,
		invitations:   params.Invitations,
		cache:         params.Cache,
		audit:         params.Audit,
		validator:     validate,
		logger:        logger,
		cfg:           cfg,
		newToken:      token.Generate,
		now:           time.Now,
	}
}

// Create validates the referenced tests and collaborators and persists the
// evaluation together with one pending response per (test, collaborator) pair.
// Either every record is stored or none is.
func (s *EvaluationService) Create(ctx context.Context, req models.CreateEvaluationRequest, meta AuditMeta) (*models.EvaluationDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid evaluation payload")
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "name is required")
	}

	testIDs := uniqueIDs(req.TestIDs)
	collaboratorIDs := uniqueIDs(req.CollaboratorIDs)

	tests, err := s.loadTests(ctx, testIDs)
	if err != nil {
		return nil, err
	}
	collaborators, err := s.loadCollaborators(ctx, collaboratorIDs)
	if err != nil {
		return nil, err
	}

	eval := &models.Evaluation{
		Name:            name,
		Description:     req.Description,
		TestIDs:         models.StringList(testIDs),
		CollaboratorIDs: models.StringList(collaboratorIDs),
		Status:          models.EvaluationStatusDraft,
	}
	if req.CreatedBy != "" {
		createdBy := req.CreatedBy
		eval.CreatedBy = &createdBy
	}

	responses := make([]models.Response, 0, len(testIDs)*len(collaboratorIDs))
	for _, testID := range testIDs {
		for _, collaboratorID := range collaboratorIDs {
			accessToken, err := s.newToken(s.cfg.TokenBytes)
			if err != nil {
				return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to generate access token")
			}
			cid := collaboratorID
			responses = append(responses, models.Response{
				TestID:         testID,
				TestVersion:    tests[testID].Version,
				CollaboratorID: &cid,
				AccessToken:    accessToken,
			})
		}
	}

	if err := s.evaluations.CreateWithResponses(ctx, eval, responses); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create evaluation")
	}

	s.logger.Info("evaluation created",
		zap.String("evaluation_id", eval.ID),
		zap.Int("tests", len(testIDs)),
		zap.Int("collaborators", len(collaboratorIDs)),
		zap.Int("responses", len(responses)))
	s.cache.InvalidateDashboards(ctx)
	writeAudit(ctx, s.audit, s.logger, meta, models.AuditActionCreate, models.AuditResourceEvaluations, eval.ID, nil,
		map[string]interface{}{"name": eval.Name, "responses": len(responses)})

	detail := &models.EvaluationDetail{Evaluation: *eval, Responses: make([]models.ResponseDetail, 0, len(responses))}
	for _, resp := range responses {
		collab := collaborators[*resp.CollaboratorID]
		detail.Responses = append(detail.Responses, models.ResponseDetail{
			Response:          resp,
			TestName:          tests[resp.TestID].Name,
			CollaboratorName:  &collab.Name,
			CollaboratorEmail: &collab.Email,
		})
	}
	return detail, nil
}

// List returns paginated evaluations with progress counters.
func (s *EvaluationService) List(ctx context.Context, filter models.EvaluationFilter) ([]models.EvaluationSummary, *models.Pagination, error) {
	items, total, err := s.evaluations.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list evaluations")
	}
	return items, paginate(filter.Page, filter.PageSize, total), nil
}

// Get returns an evaluation with all of its responses.
func (s *EvaluationService) Get(ctx context.Context, id string) (*models.EvaluationDetail, error) {
	eval, err := s.evaluations.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOrInternal(err, "evaluation not found", "failed to load evaluation")
	}
	responses, err := s.responses.ListByEvaluation(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load responses")
	}
	if responses == nil {
		responses = []models.ResponseDetail{}
	}
	return &models.EvaluationDetail{Evaluation: *eval, Responses: responses}, nil
}

// Links returns the public assessment link of every response.
func (s *EvaluationService) Links(ctx context.Context, id string) ([]models.AssessmentLink, error) {
	detail, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.buildLinks(detail.Responses), nil
}

// Send moves a draft evaluation to sent and queues invitations when enabled.
// It returns the updated evaluation and the number of invitations queued.
func (s *EvaluationService) Send(ctx context.Context, id string, meta AuditMeta) (*models.Evaluation, int, error) {
	detail, err := s.Get(ctx, id)
	if err != nil {
		return nil, 0, err
	}
	if detail.Status != models.EvaluationStatusDraft {
		return nil, 0, appErrors.Clone(appErrors.ErrConflict, "evaluation has already been sent")
	}

	sentAt := s.now().UTC()
	ok, err := s.evaluations.MarkSent(ctx, id, sentAt)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to send evaluation")
	}
	if !ok {
		return nil, 0, appErrors.Clone(appErrors.ErrConflict, "evaluation has already been sent")
	}

	eval := detail.Evaluation
	eval.Status = models.EvaluationStatusSent
	eval.SentAt = &sentAt
	eval.UpdatedAt = sentAt
	// Links shared by hand while in draft may all be answered already.
	if done, err := s.evaluations.RefreshStatus(ctx, id, sentAt); err != nil {
		s.logger.Warn("failed to refresh evaluation status", zap.String("evaluation_id", id), zap.Error(err))
	} else if done {
		eval.Status = models.EvaluationStatusCompleted
	}

	queued := 0
	if s.invitations != nil {
		queued = s.invitations.Dispatch(ctx, eval, s.buildLinks(detail.Responses))
	}

	s.cache.InvalidateDashboards(ctx)
	writeAudit(ctx, s.audit, s.logger, meta, models.AuditActionSend, models.AuditResourceEvaluations, id,
		map[string]interface{}{"status": models.EvaluationStatusDraft},
		map[string]interface{}{"status": models.EvaluationStatusSent, "invitations": queued})
	return &eval, queued, nil
}

// Update renames a draft evaluation. Tests and recipients are fixed at
// creation because links were already issued for them.
func (s *EvaluationService) Update(ctx context.Context, id string, req models.UpdateEvaluationRequest, meta AuditMeta) (*models.Evaluation, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid evaluation payload")
	}
	eval, err := s.evaluations.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOrInternal(err, "evaluation not found", "failed to load evaluation")
	}
	if eval.Status != models.EvaluationStatusDraft {
		return nil, appErrors.Clone(appErrors.ErrConflict, "only draft evaluations can be edited")
	}

	now := s.now().UTC()
	ok, err := s.evaluations.UpdateDraft(ctx, id, req.Name, req.Description, now)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update evaluation")
	}
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrConflict, "only draft evaluations can be edited")
	}

	before := map[string]interface{}{"name": eval.Name, "description": eval.Description}
	eval.Name = req.Name
	eval.Description = req.Description
	eval.UpdatedAt = now
	s.cache.InvalidateDashboards(ctx)
	writeAudit(ctx, s.audit, s.logger, meta, models.AuditActionUpdate, models.AuditResourceEvaluations, id,
		before, map[string]interface{}{"name": eval.Name, "description": eval.Description})
	return eval, nil
}

// Delete removes a draft evaluation and its responses.
func (s *EvaluationService) Delete(ctx context.Context, id string, meta AuditMeta) error {
	eval, err := s.evaluations.FindByID(ctx, id)
	if err != nil {
		return notFoundOrInternal(err, "evaluation not found", "failed to load evaluation")
	}
	if eval.Status != models.EvaluationStatusDraft {
		return appErrors.Clone(appErrors.ErrConflict, "only draft evaluations can be deleted")
	}
	ok, err := s.evaluations.DeleteDraft(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete evaluation")
	}
	if !ok {
		current, err := s.evaluations.FindByID(ctx, id)
		if err == nil && current.Status == models.EvaluationStatusDraft {
			return appErrors.Clone(appErrors.ErrConflict, "evaluation has opened or answered links and cannot be deleted")
		}
		return appErrors.Clone(appErrors.ErrConflict, "only draft evaluations can be deleted")
	}
	s.cache.InvalidateDashboards(ctx)
	writeAudit(ctx, s.audit, s.logger, meta, models.AuditActionDelete, models.AuditResourceEvaluations, id,
		map[string]interface{}{"name": eval.Name}, nil)
	return nil
}

func (s *EvaluationService) buildLinks(responses []models.ResponseDetail) []models.AssessmentLink {
	links := make([]models.AssessmentLink, 0, len(responses))
	for _, resp := range responses {
		link := models.AssessmentLink{
			ResponseID:     resp.ID,
			TestID:         resp.TestID,
			TestName:       resp.TestName,
			CollaboratorID: resp.CollaboratorID,
			Status:         resp.Status,
			URL:            s.cfg.PublicBaseURL + "/" + resp.AccessToken,
			ExpiresAt:      resp.ExpiresAt(s.cfg.TokenTTL),
		}
		if resp.CollaboratorName != nil {
			link.CollaboratorName = *resp.CollaboratorName
		}
		if resp.CollaboratorEmail != nil {
			link.CollaboratorEmail = *resp.CollaboratorEmail
		}
		links = append(links, link)
	}
	return links
}

func (s *EvaluationService) loadTests(ctx context.Context, ids []string) (map[string]models.Test, error) {
	tests, err := s.tests.FindByIDs(ctx, ids)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load tests")
	}
	byID := make(map[string]models.Test, len(tests))
	for _, test := range tests {
		byID[test.ID] = test
	}
	var missing, inactive []string
	for _, id := range ids {
		test, ok := byID[id]
		switch {
		case !ok:
			missing = append(missing, id)
		case !test.Active:
			inactive = append(inactive, test.Name)
		}
	}
	if len(missing) > 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("tests not found: %s", strings.Join(missing, ", ")))
	}
	if len(inactive) > 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("tests are inactive: %s", strings.Join(inactive, ", ")))
	}
	return byID, nil
}

func (s *EvaluationService) loadCollaborators(ctx context.Context, ids []string) (map[string]models.Collaborator, error) {
	items, err := s.collaborators.FindByIDs(ctx, ids)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load collaborators")
	}
	byID := make(map[string]models.Collaborator, len(items))
	for _, item := range items {
		byID[item.ID] = item
	}
	var missing, inactive []string
	for _, id := range ids {
		item, ok := byID[id]
		switch {
		case !ok:
			missing = append(missing, id)
		case !item.Active:
			inactive = append(inactive, item.Name)
		}
	}
	if len(missing) > 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("collaborators not found: %s", strings.Join(missing, ", ")))
	}
	if len(inactive) > 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("collaborators are inactive: %s", strings.Join(inactive, ", ")))
	}
	return byID, nil
}

// uniqueIDs trims ids and drops blanks and duplicates, keeping first occurrence order.
func uniqueIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
