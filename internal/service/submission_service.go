package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/talent-assessment-api/internal/models"
	"github.com/noah-isme/talent-assessment-api/internal/scoring"
	appErrors "github.com/noah-isme/talent-assessment-api/pkg/errors"
	"github.com/noah-isme/talent-assessment-api/pkg/logger"
)

type responseSubmitRepository interface {
	FindByToken(ctx context.Context, token string) (*models.Response, error)
	Complete(ctx context.Context, params models.CompleteResponseParams) (bool, error)
}

type testVersionReader interface {
	FindVersion(ctx context.Context, testID string, version int) (*models.TestVersion, error)
	FindByID(ctx context.Context, id string) (*models.Test, error)
}

type evaluationStatusRefresher interface {
	RefreshStatus(ctx context.Context, id string, now time.Time) (bool, error)
}

// SubmissionServiceParams groups constructor dependencies.
type SubmissionServiceParams struct {
	Responses   responseSubmitRepository
	Tests       testVersionReader
	Evaluations evaluationStatusRefresher
	Cache       *CacheService
	Metrics     *MetricsService
	Logger      *zap.Logger
	Policy      scoring.Policy
	TokenTTL    time.Duration
}

// SubmissionService scores public submissions and completes responses.
type SubmissionService struct {
	gate        tokenGate
	responses   responseSubmitRepository
	tests       testVersionReader
	evaluations evaluationStatusRefresher
	cache       *CacheService
	metrics     *MetricsService
	logger      *zap.Logger
	policy      scoring.Policy
}

// NewSubmissionService constructs a SubmissionService.
func NewSubmissionService(params SubmissionServiceParams) *SubmissionService {
	ttl := params.TokenTTL
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	policy := params.Policy
	if policy.Mode == "" {
		policy = scoring.DefaultPolicy()
	}
	log := params.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &SubmissionService{
		gate:        tokenGate{responses: params.Responses, ttl: ttl, now: time.Now},
		responses:   params.Responses,
		tests:       params.Tests,
		evaluations: params.Evaluations,
		cache:       params.Cache,
		metrics:     params.Metrics,
		logger:      log,
		policy:      policy,
	}
}

// Submit scores the full answer set against the pinned test version and
// completes the response in one conditional write. Only the first of
// concurrent submissions succeeds; later ones get ALREADY_COMPLETED.
func (s *SubmissionService) Submit(ctx context.Context, accessToken string, req models.SubmitAnswersRequest) (*models.SubmissionResult, error) {
	resp, err := s.gate.check(ctx, accessToken)
	if err != nil {
		if errors.Is(err, appErrors.ErrAlreadyCompleted) {
			s.metrics.RecordSubmission(SubmissionAlreadyCompleted)
		}
		return nil, err
	}

	snapshot, err := s.tests.FindVersion(ctx, resp.TestID, resp.TestVersion)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load test version")
	}

	version := resp.TestVersion
	result, err := scoring.Evaluate(snapshot.Definition(), req.Answers, s.policy)
	if errors.Is(err, appErrors.ErrNoMatchingBand) {
		if repinned, latest, ok := s.scoreAgainstRepairedBands(ctx, resp, snapshot, req.Answers); ok {
			result, version, err = repinned, latest, nil
		}
	}
	if err != nil {
		if errors.Is(err, appErrors.ErrNoMatchingBand) {
			s.logger.Error("score outside every band",
				zap.String("response_id", resp.ID),
				zap.String("test_id", resp.TestID),
				zap.Int("test_version", resp.TestVersion),
				zap.Error(err))
			s.metrics.RecordNoMatchingBand(resp.TestID)
			s.metrics.RecordSubmission(SubmissionNoMatchingBand)
			return nil, err
		}
		s.metrics.RecordSubmission(SubmissionRejected)
		return nil, err
	}

	completedAt := s.gate.now().UTC()
	ok, err := s.responses.Complete(ctx, models.CompleteResponseParams{
		ID:          resp.ID,
		TestVersion: version,
		Answers:     models.Answers(req.Answers),
		Score:       result.Score,
		BandLabel:   result.BandLabel,
		CompletedAt: completedAt,
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save answers")
	}
	if !ok {
		s.metrics.RecordSubmission(SubmissionAlreadyCompleted)
		return nil, appErrors.Clone(appErrors.ErrAlreadyCompleted, "")
	}

	s.metrics.RecordSubmission(SubmissionCompleted)
	s.logger.Info("assessment completed",
		zap.String("response_id", resp.ID),
		zap.String("token", logger.MaskToken(accessToken)),
		zap.Float64("score", result.Score),
		zap.String("band", result.BandLabel),
		zap.Int("neutral_filled", len(result.Missing)))

	if done, err := s.evaluations.RefreshStatus(ctx, resp.EvaluationID, completedAt); err != nil {
		s.logger.Warn("failed to refresh evaluation status", zap.String("evaluation_id", resp.EvaluationID), zap.Error(err))
	} else if done {
		s.logger.Info("evaluation completed", zap.String("evaluation_id", resp.EvaluationID))
	}
	s.cache.InvalidateDashboards(ctx)

	return &models.SubmissionResult{
		ResponseID:  resp.ID,
		Status:      models.ResponseStatusCompleted,
		CompletedAt: completedAt,
		Missing:     result.Missing,
	}, nil
}

// scoreAgainstRepairedBands retries a score that fell into a band gap of the
// pinned version against the current version of the test. It only applies
// when the questions are unchanged, so the answers mean the same thing; the
// response is then re-pinned to the current version.
func (s *SubmissionService) scoreAgainstRepairedBands(ctx context.Context, resp *models.Response, pinned *models.TestVersion, answers []scoring.Answer) (scoring.Result, int, bool) {
	current, err := s.tests.FindByID(ctx, resp.TestID)
	if err != nil || current.Version <= resp.TestVersion || !sameQuestions(pinned.Questions, current.Questions) {
		return scoring.Result{}, 0, false
	}
	latest, err := s.tests.FindVersion(ctx, resp.TestID, current.Version)
	if err != nil {
		return scoring.Result{}, 0, false
	}
	result, err := scoring.Evaluate(latest.Definition(), answers, s.policy)
	if err != nil {
		return scoring.Result{}, 0, false
	}
	s.logger.Warn("response re-pinned to repaired bands",
		zap.String("response_id", resp.ID),
		zap.String("test_id", resp.TestID),
		zap.Int("from_version", resp.TestVersion),
		zap.Int("to_version", latest.Version))
	return result, latest.Version, true
}

func sameQuestions(a, b models.Questions) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
