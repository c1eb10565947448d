package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/talent-assessment-api/internal/models"
)

// DashboardRepository exposes read-only aggregate queries for the dashboard.
type DashboardRepository struct {
	db *sqlx.DB
}

// NewDashboardRepository instantiates the repository.
func NewDashboardRepository(db *sqlx.DB) *DashboardRepository {
	return &DashboardRepository{db: db}
}

// Totals counts active collaborators, active tests, evaluations and responses.
func (r *DashboardRepository) Totals(ctx context.Context) (models.DashboardTotals, error) {
	const query = `SELECT
(SELECT COUNT(*) FROM collaborators WHERE active = TRUE) AS collaborators,
(SELECT COUNT(*) FROM tests WHERE active = TRUE) AS tests,
(SELECT COUNT(*) FROM evaluations) AS evaluations,
(SELECT COUNT(*) FROM responses) AS responses`
	var totals models.DashboardTotals
	if err := r.db.GetContext(ctx, &totals, query); err != nil {
		return models.DashboardTotals{}, fmt.Errorf("dashboard totals: %w", err)
	}
	return totals, nil
}

// StatusCounts groups responses by lifecycle status, optionally within one evaluation.
func (r *DashboardRepository) StatusCounts(ctx context.Context, evaluationID string) ([]models.StatusCount, error) {
	where := &whereBuilder{}
	if evaluationID != "" {
		where.add("evaluation_id = $%d", evaluationID)
	}
	query := `SELECT status, COUNT(*) AS count FROM responses` + where.clause() + ` GROUP BY status ORDER BY status`
	var counts []models.StatusCount
	if err := r.db.SelectContext(ctx, &counts, query, where.args...); err != nil {
		return nil, fmt.Errorf("dashboard status counts: %w", err)
	}
	return counts, nil
}

// TestSummaries returns completed counts and average score per test.
func (r *DashboardRepository) TestSummaries(ctx context.Context, evaluationID string) ([]models.TestScoreSummary, error) {
	where := &whereBuilder{conditions: []string{"r.status = 'completed'"}}
	if evaluationID != "" {
		where.add("r.evaluation_id = $%d", evaluationID)
	}
	query := `SELECT t.id AS test_id, t.name AS test_name, COUNT(r.id) AS completed, COALESCE(AVG(r.score), 0)::float8 AS average_score
FROM responses r JOIN tests t ON t.id = r.test_id` + where.clause() + `
GROUP BY t.id, t.name ORDER BY t.name`
	var items []models.TestScoreSummary
	if err := r.db.SelectContext(ctx, &items, query, where.args...); err != nil {
		return nil, fmt.Errorf("dashboard test summaries: %w", err)
	}
	return items, nil
}

// BandCounts returns the band distribution of completed responses per test.
func (r *DashboardRepository) BandCounts(ctx context.Context, evaluationID string) ([]models.BandCount, error) {
	where := &whereBuilder{conditions: []string{"status = 'completed'", "band_label IS NOT NULL"}}
	if evaluationID != "" {
		where.add("evaluation_id = $%d", evaluationID)
	}
	query := `SELECT test_id, band_label, COUNT(*) AS count FROM responses` + where.clause() + ` GROUP BY test_id, band_label ORDER BY test_id, band_label`
	var items []models.BandCount
	if err := r.db.SelectContext(ctx, &items, query, where.args...); err != nil {
		return nil, fmt.Errorf("dashboard band counts: %w", err)
	}
	return items, nil
}

// RecentCompletions returns the latest completed responses.
func (r *DashboardRepository) RecentCompletions(ctx context.Context, evaluationID string, limit int) ([]models.RecentCompletion, error) {
	if limit <= 0 || limit > 50 {
		limit = 10
	}
	where := &whereBuilder{conditions: []string{"r.status = 'completed'"}}
	if evaluationID != "" {
		where.add("r.evaluation_id = $%d", evaluationID)
	}
	query := fmt.Sprintf(`SELECT r.id AS response_id, c.name AS collaborator_name, t.name AS test_name, r.score::float8 AS score, r.band_label, r.completed_at
FROM responses r JOIN tests t ON t.id = r.test_id LEFT JOIN collaborators c ON c.id = r.collaborator_id%s
ORDER BY r.completed_at DESC LIMIT %d`, where.clause(), limit)
	var items []models.RecentCompletion
	if err := r.db.SelectContext(ctx, &items, query, where.args...); err != nil {
		return nil, fmt.Errorf("dashboard recent completions: %w", err)
	}
	return items, nil
}
