package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/talent-assessment-api/internal/models"
	"github.com/noah-isme/talent-assessment-api/internal/scoring"
	appErrors "github.com/noah-isme/talent-assessment-api/pkg/errors"
	"github.com/noah-isme/talent-assessment-api/pkg/logger"
)

type responseTokenRepository interface {
	FindByToken(ctx context.Context, token string) (*models.Response, error)
	MarkStarted(ctx context.Context, id string, now time.Time) (bool, error)
}

type testSnapshotReader interface {
	FindByID(ctx context.Context, id string) (*models.Test, error)
	FindVersion(ctx context.Context, testID string, version int) (*models.TestVersion, error)
}

type collaboratorReader interface {
	FindByID(ctx context.Context, id string) (*models.Collaborator, error)
}

type tokenFinder interface {
	FindByToken(ctx context.Context, token string) (*models.Response, error)
}

// tokenGate resolves an access token to its response record. Checks run in
// order: unknown token, expired link, already completed.
type tokenGate struct {
	responses tokenFinder
	ttl       time.Duration
	now       func() time.Time
}

func (g tokenGate) check(ctx context.Context, accessToken string) (*models.Response, error) {
	if accessToken == "" {
		return nil, appErrors.Clone(appErrors.ErrTokenNotFound, "")
	}
	resp, err := g.responses.FindByToken(ctx, accessToken)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrTokenNotFound, "")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve access token")
	}
	if g.now().After(resp.ExpiresAt(g.ttl)) {
		return nil, appErrors.Clone(appErrors.ErrTokenExpired, "")
	}
	if resp.Status == models.ResponseStatusCompleted {
		return nil, appErrors.Clone(appErrors.ErrAlreadyCompleted, "")
	}
	return resp, nil
}

// AccessService validates public assessment links.
type AccessService struct {
	gate          tokenGate
	responses     responseTokenRepository
	tests         testSnapshotReader
	collaborators collaboratorReader
	metrics       *MetricsService
	logger        *zap.Logger
	ttl           time.Duration
}

// NewAccessService constructs an AccessService. A zero ttl defaults to seven days.
func NewAccessService(responses responseTokenRepository, tests testSnapshotReader, collaborators collaboratorReader, metrics *MetricsService, logger *zap.Logger, ttl time.Duration) *AccessService {
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AccessService{
		gate:          tokenGate{responses: responses, ttl: ttl, now: time.Now},
		responses:     responses,
		tests:         tests,
		collaborators: collaborators,
		metrics:       metrics,
		logger:        logger,
		ttl:           ttl,
	}
}

// Validate resolves a token and, on first access, moves the response from
// pending to started. Repeated calls keep the original started_at.
func (s *AccessService) Validate(ctx context.Context, accessToken string) (*models.PublicAssessment, error) {
	resp, err := s.gate.check(ctx, accessToken)
	if err != nil {
		return nil, err
	}

	if resp.Status == models.ResponseStatusPending {
		now := s.gate.now().UTC()
		started, err := s.responses.MarkStarted(ctx, resp.ID, now)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to start assessment")
		}
		if started {
			resp.Status = models.ResponseStatusStarted
			resp.StartedAt = &now
			s.metrics.RecordAssessmentStarted()
			s.logger.Info("assessment started", zap.String("response_id", resp.ID), zap.String("token", logger.MaskToken(accessToken)))
		} else {
			// A concurrent request won the transition; report its state.
			if resp, err = s.gate.check(ctx, accessToken); err != nil {
				return nil, err
			}
		}
	}

	return s.publicView(ctx, resp)
}

func (s *AccessService) publicView(ctx context.Context, resp *models.Response) (*models.PublicAssessment, error) {
	snapshot, err := s.tests.FindVersion(ctx, resp.TestID, resp.TestVersion)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status,
			fmt.Sprintf("failed to load test version %d", resp.TestVersion))
	}

	view := &models.PublicAssessment{
		ResponseID: resp.ID,
		Status:     resp.Status,
		TestName:   snapshot.Name,
		Questions:  orderedQuestions(snapshot.Questions),
		Scale:      models.ScaleInfo{Min: scoring.MinValue, Max: scoring.MaxValue},
		ExpiresAt:  resp.ExpiresAt(s.ttl),
		StartedAt:  resp.StartedAt,
	}

	if test, err := s.tests.FindByID(ctx, resp.TestID); err == nil {
		view.TestDescription = test.Description
	} else {
		s.logger.Warn("failed to load test description", zap.String("test_id", resp.TestID), zap.Error(err))
	}

	if resp.CollaboratorID != nil {
		if collab, err := s.collaborators.FindByID(ctx, *resp.CollaboratorID); err == nil {
			view.CollaboratorName = collab.Name
		} else {
			s.logger.Warn("failed to load collaborator", zap.String("collaborator_id", *resp.CollaboratorID), zap.Error(err))
		}
	}
	return view, nil
}

// orderedQuestions returns a copy of questions sorted by their order field.
func orderedQuestions(questions models.Questions) []scoring.Question {
	out := make([]scoring.Question, len(questions))
	copy(out, questions)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out
}
