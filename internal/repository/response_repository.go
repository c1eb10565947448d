package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/talent-assessment-api/internal/models"
)

const responseColumns = `id, evaluation_id, test_id, test_version, collaborator_id, access_token, answers, score, band_label, status, started_at, completed_at, created_at`

const responseDetailSelect = `SELECT r.id, r.evaluation_id, r.test_id, r.test_version, r.collaborator_id, r.access_token, r.answers, r.score, r.band_label, r.status, r.started_at, r.completed_at, r.created_at,
t.name AS test_name, c.name AS collaborator_name, c.email AS collaborator_email
FROM responses r
JOIN tests t ON t.id = r.test_id
LEFT JOIN collaborators c ON c.id = r.collaborator_id`

// ResponseRepository persists response records and their lifecycle transitions.
type ResponseRepository struct {
	db *sqlx.DB
}

// NewResponseRepository constructs the repository.
func NewResponseRepository(db *sqlx.DB) *ResponseRepository {
	return &ResponseRepository{db: db}
}

// FindByToken returns the response addressed by a public access token.
func (r *ResponseRepository) FindByToken(ctx context.Context, token string) (*models.Response, error) {
	query := `SELECT ` + responseColumns + ` FROM responses WHERE access_token = $1`
	var resp models.Response
	if err := r.db.GetContext(ctx, &resp, query, token); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find response by token: %w", err)
	}
	return &resp, nil
}

// FindByID returns a response with test and collaborator names.
func (r *ResponseRepository) FindByID(ctx context.Context, id string) (*models.ResponseDetail, error) {
	query := responseDetailSelect + ` WHERE r.id = $1`
	var resp models.ResponseDetail
	if err := r.db.GetContext(ctx, &resp, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find response: %w", err)
	}
	return &resp, nil
}

// ListByEvaluation returns every response of an evaluation.
func (r *ResponseRepository) ListByEvaluation(ctx context.Context, evaluationID string) ([]models.ResponseDetail, error) {
	query := responseDetailSelect + ` WHERE r.evaluation_id = $1 ORDER BY c.name ASC NULLS LAST, t.name ASC`
	var items []models.ResponseDetail
	if err := r.db.SelectContext(ctx, &items, query, evaluationID); err != nil {
		return nil, fmt.Errorf("list responses: %w", err)
	}
	return items, nil
}

// MarkStarted moves a pending response to started. It reports false when the
// response was no longer pending, leaving started_at untouched.
func (r *ResponseRepository) MarkStarted(ctx context.Context, id string, now time.Time) (bool, error) {
	const query = `UPDATE responses SET status = 'started', started_at = $2 WHERE id = $1 AND status = 'pending'`
	res, err := r.db.ExecContext(ctx, query, id, now)
	if err != nil {
		return false, fmt.Errorf("mark response started: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("mark response started rows: %w", err)
	}
	return affected > 0, nil
}

// Complete writes answers and result and moves the response to completed in
// one conditional statement. It reports false when the response was already
// completed, in which case nothing is written.
func (r *ResponseRepository) Complete(ctx context.Context, params models.CompleteResponseParams) (bool, error) {
	const query = `UPDATE responses SET answers = $2, score = $3, band_label = $4, status = 'completed', completed_at = $5, started_at = COALESCE(started_at, $5), test_version = $6
WHERE id = $1 AND status <> 'completed'`
	res, err := r.db.ExecContext(ctx, query, params.ID, params.Answers, params.Score, params.BandLabel, params.CompletedAt, params.TestVersion)
	if err != nil {
		return false, fmt.Errorf("complete response: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("complete response rows: %w", err)
	}
	return affected > 0, nil
}

// ReportFilter selects the responses included in an export.
type ReportFilter struct {
	EvaluationID string
	TestID       string
	// CompletedOnly restricts the export to scored responses.
	CompletedOnly bool
}

// ListReportRows returns export rows ordered by score, highest first.
func (r *ResponseRepository) ListReportRows(ctx context.Context, filter ReportFilter) ([]models.ReportRow, error) {
	where := &whereBuilder{}
	if filter.EvaluationID != "" {
		where.add("r.evaluation_id = $%d", filter.EvaluationID)
	}
	if filter.TestID != "" {
		where.add("r.test_id = $%d", filter.TestID)
	}
	if filter.CompletedOnly {
		where.conditions = append(where.conditions, "r.status = 'completed'")
	}

	query := `SELECT r.id AS response_id, e.name AS evaluation_name, c.name AS collaborator_name, c.email AS collaborator_email, c.department,
t.name AS test_name, r.status, r.score, r.band_label, r.completed_at
FROM responses r
JOIN evaluations e ON e.id = r.evaluation_id
JOIN tests t ON t.id = r.test_id
LEFT JOIN collaborators c ON c.id = r.collaborator_id` + where.clause() + `
ORDER BY r.score DESC NULLS LAST, c.name ASC NULLS LAST, t.name ASC`

	var rows []models.ReportRow
	if err := r.db.SelectContext(ctx, &rows, query, where.args...); err != nil {
		return nil, fmt.Errorf("list report rows: %w", err)
	}
	return rows, nil
}
