package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/noah-isme/talent-assessment-api/internal/models"
	appErrors "github.com/noah-isme/talent-assessment-api/pkg/errors"
)

type responseDetailReader interface {
	FindByID(ctx context.Context, id string) (*models.ResponseDetail, error)
	ListByEvaluation(ctx context.Context, evaluationID string) ([]models.ResponseDetail, error)
}

// ResponseService exposes response records to administrators.
type ResponseService struct {
	responses   responseDetailReader
	evaluations evaluationFinder
	logger      *zap.Logger
}

// NewResponseService constructs a ResponseService.
func NewResponseService(responses responseDetailReader, evaluations evaluationFinder, logger *zap.Logger) *ResponseService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ResponseService{responses: responses, evaluations: evaluations, logger: logger}
}

// ListByEvaluation returns the responses of one evaluation.
func (s *ResponseService) ListByEvaluation(ctx context.Context, evaluationID string) ([]models.ResponseDetail, error) {
	if _, err := s.evaluations.FindByID(ctx, evaluationID); err != nil {
		return nil, notFoundOrInternal(err, "evaluation not found", "failed to load evaluation")
	}
	items, err := s.responses.ListByEvaluation(ctx, evaluationID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list responses")
	}
	if items == nil {
		items = []models.ResponseDetail{}
	}
	return items, nil
}

// Get returns a single response with its answers and result.
func (s *ResponseService) Get(ctx context.Context, id string) (*models.ResponseDetail, error) {
	item, err := s.responses.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOrInternal(err, "response not found", "failed to load response")
	}
	return item, nil
}
