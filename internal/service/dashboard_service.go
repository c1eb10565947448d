package service

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/talent-assessment-api/internal/models"
	appErrors "github.com/noah-isme/talent-assessment-api/pkg/errors"
)

type dashboardRepository interface {
	Totals(ctx context.Context) (models.DashboardTotals, error)
	StatusCounts(ctx context.Context, evaluationID string) ([]models.StatusCount, error)
	TestSummaries(ctx context.Context, evaluationID string) ([]models.TestScoreSummary, error)
	BandCounts(ctx context.Context, evaluationID string) ([]models.BandCount, error)
	RecentCompletions(ctx context.Context, evaluationID string, limit int) ([]models.RecentCompletion, error)
}

type activeTestLister interface {
	ListActive(ctx context.Context) ([]models.Test, error)
}

type evaluationFinder interface {
	FindByID(ctx context.Context, id string) (*models.Evaluation, error)
}

// DashboardServiceConfig tunes dashboard behaviour.
type DashboardServiceConfig struct {
	CacheTTL    time.Duration
	RecentLimit int
}

// DashboardServiceParams groups constructor dependencies.
type DashboardServiceParams struct {
	Repo        dashboardRepository
	Tests       activeTestLister
	Evaluations evaluationFinder
	Cache       *CacheService
	Logger      *zap.Logger
	Config      DashboardServiceConfig
}

// DashboardService composes the admin overview and caches it per scope.
type DashboardService struct {
	repo        dashboardRepository
	tests       activeTestLister
	evaluations evaluationFinder
	cache       *CacheService
	logger      *zap.Logger
	now         func() time.Time
	cfg         DashboardServiceConfig
}

// NewDashboardService constructs a DashboardService with sane defaults.
func NewDashboardService(params DashboardServiceParams) *DashboardService {
	cfg := params.Config
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 5 * time.Minute
	}
	if cfg.RecentLimit <= 0 {
		cfg.RecentLimit = 10
	}
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{
		repo:        params.Repo,
		tests:       params.Tests,
		evaluations: params.Evaluations,
		cache:       params.Cache,
		logger:      logger,
		now:         time.Now,
		cfg:         cfg,
	}
}

// Overview returns the dashboard for all evaluations, or for one when
// evaluationID is set, and indicates whether it was served from cache.
func (s *DashboardService) Overview(ctx context.Context, evaluationID string) (*models.Dashboard, bool, error) {
	if evaluationID != "" && s.evaluations != nil {
		if _, err := s.evaluations.FindByID(ctx, evaluationID); err != nil {
			return nil, false, notFoundOrInternal(err, "evaluation not found", "failed to load evaluation")
		}
	}

	key := DashboardCacheKey(evaluationID)
	var cached models.Dashboard
	hit, err := s.cache.Get(ctx, key, &cached)
	if err != nil {
		s.logger.Warn("dashboard cache read failed, recomputing", zap.String("key", key), zap.Error(err))
	} else if hit {
		return &cached, true, nil
	}

	dashboard, err := s.compose(ctx, evaluationID)
	if err != nil {
		return nil, false, err
	}
	if err := s.cache.Set(ctx, key, dashboard, s.cfg.CacheTTL); err != nil {
		s.logger.Warn("dashboard cache write failed", zap.String("key", key), zap.Error(err))
	}
	return dashboard, false, nil
}

func (s *DashboardService) compose(ctx context.Context, evaluationID string) (*models.Dashboard, error) {
	totals, err := s.repo.Totals(ctx)
	if err != nil {
		return nil, internalDashboardError(err)
	}
	statuses, err := s.repo.StatusCounts(ctx, evaluationID)
	if err != nil {
		return nil, internalDashboardError(err)
	}
	summaries, err := s.repo.TestSummaries(ctx, evaluationID)
	if err != nil {
		return nil, internalDashboardError(err)
	}
	bands, err := s.repo.BandCounts(ctx, evaluationID)
	if err != nil {
		return nil, internalDashboardError(err)
	}
	recent, err := s.repo.RecentCompletions(ctx, evaluationID, s.cfg.RecentLimit)
	if err != nil {
		return nil, internalDashboardError(err)
	}

	dashboard := &models.Dashboard{
		Totals:          totals,
		ResponseStatus:  normaliseStatusCounts(statuses),
		CompletionRate:  completionRate(statuses),
		Tests:           buildDistributions(summaries, bands),
		RecentCompleted: recent,
		BandIssues:      []models.BandIssue{},
		GeneratedAt:     s.now().UTC(),
	}
	if dashboard.RecentCompleted == nil {
		dashboard.RecentCompleted = []models.RecentCompletion{}
	}

	if s.tests != nil {
		active, err := s.tests.ListActive(ctx)
		if err != nil {
			s.logger.Warn("band coverage check skipped", zap.Error(err))
		} else {
			dashboard.BandIssues = bandIssues(active)
		}
	}
	return dashboard, nil
}

func internalDashboardError(err error) error {
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load dashboard")
}

// normaliseStatusCounts reports every lifecycle status, including empty ones.
func normaliseStatusCounts(counts []models.StatusCount) []models.StatusCount {
	byStatus := make(map[models.ResponseStatus]int, len(counts))
	for _, c := range counts {
		byStatus[c.Status] += c.Count
	}
	out := make([]models.StatusCount, 0, 3)
	for _, status := range []models.ResponseStatus{models.ResponseStatusPending, models.ResponseStatusStarted, models.ResponseStatusCompleted} {
		out = append(out, models.StatusCount{Status: status, Count: byStatus[status]})
	}
	return out
}

// completionRate is the completed share of all responses as a percentage.
func completionRate(counts []models.StatusCount) float64 {
	var total, completed int
	for _, c := range counts {
		total += c.Count
		if c.Status == models.ResponseStatusCompleted {
			completed += c.Count
		}
	}
	if total == 0 {
		return 0
	}
	return float64(completed) / float64(total) * 100
}

func buildDistributions(summaries []models.TestScoreSummary, bands []models.BandCount) []models.TestDistribution {
	byTest := make(map[string][]models.BandCount)
	for _, band := range bands {
		byTest[band.TestID] = append(byTest[band.TestID], band)
	}
	out := make([]models.TestDistribution, 0, len(summaries))
	for _, summary := range summaries {
		counts := byTest[summary.TestID]
		if counts == nil {
			counts = []models.BandCount{}
		}
		sort.SliceStable(counts, func(i, j int) bool { return counts[i].Count > counts[j].Count })
		out = append(out, models.TestDistribution{TestScoreSummary: summary, Bands: counts})
	}
	return out
}
