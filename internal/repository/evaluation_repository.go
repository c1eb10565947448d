package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/talent-assessment-api/internal/models"
)

const evaluationColumns = `id, name, description, test_ids, collaborator_ids, status, created_by, sent_at, created_at, updated_at`

// EvaluationRepository persists evaluations and fans them out into responses.
type EvaluationRepository struct {
	db *sqlx.DB
}

// NewEvaluationRepository constructs the repository.
func NewEvaluationRepository(db *sqlx.DB) *EvaluationRepository {
	return &EvaluationRepository{db: db}
}

// CreateWithResponses inserts the evaluation and all of its response records
// in one transaction. Nothing is persisted if any insert fails.
func (r *EvaluationRepository) CreateWithResponses(ctx context.Context, eval *models.Evaluation, responses []models.Response) error {
	if eval.ID == "" {
		eval.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	eval.CreatedAt = now
	eval.UpdatedAt = now
	if eval.Status == "" {
		eval.Status = models.EvaluationStatusDraft
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create evaluation: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const insertEval = `INSERT INTO evaluations (id, name, description, test_ids, collaborator_ids, status, created_by, sent_at, created_at, updated_at) VALUES (:id, :name, :description, :test_ids, :collaborator_ids, :status, :created_by, :sent_at, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, insertEval, eval); err != nil {
		return fmt.Errorf("create evaluation: %w", err)
	}

	const insertResponse = `INSERT INTO responses (id, evaluation_id, test_id, test_version, collaborator_id, access_token, status, created_at) VALUES (:id, :evaluation_id, :test_id, :test_version, :collaborator_id, :access_token, :status, :created_at)`
	for i := range responses {
		resp := &responses[i]
		if resp.ID == "" {
			resp.ID = uuid.NewString()
		}
		resp.EvaluationID = eval.ID
		resp.Status = models.ResponseStatusPending
		resp.CreatedAt = now
		if _, err := tx.NamedExecContext(ctx, insertResponse, resp); err != nil {
			return fmt.Errorf("create response %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create evaluation: %w", err)
	}
	return nil
}

// FindByID returns an evaluation by id.
func (r *EvaluationRepository) FindByID(ctx context.Context, id string) (*models.Evaluation, error) {
	query := `SELECT ` + evaluationColumns + ` FROM evaluations WHERE id = $1`
	var eval models.Evaluation
	if err := r.db.GetContext(ctx, &eval, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find evaluation: %w", err)
	}
	return &eval, nil
}

// List returns evaluations with response progress counters.
func (r *EvaluationRepository) List(ctx context.Context, filter models.EvaluationFilter) ([]models.EvaluationSummary, int, error) {
	where := &whereBuilder{}
	if filter.Status != nil {
		where.add("e.status = $%d", *filter.Status)
	}
	if filter.Search != "" {
		where.addLike([]string{"e.name"}, filter.Search)
	}

	page, size := models.NormalizePage(filter.Page, filter.PageSize)
	query := fmt.Sprintf(`SELECT e.id, e.name, e.description, e.test_ids, e.collaborator_ids, e.status, e.created_by, e.sent_at, e.created_at, e.updated_at,
COUNT(r.id) AS total_responses,
COUNT(r.id) FILTER (WHERE r.status = 'completed') AS completed_responses
FROM evaluations e LEFT JOIN responses r ON r.evaluation_id = e.id%s
GROUP BY e.id ORDER BY e.created_at DESC LIMIT %d OFFSET %d`, where.clause(), size, (page-1)*size)

	var items []models.EvaluationSummary
	if err := r.db.SelectContext(ctx, &items, query, where.args...); err != nil {
		return nil, 0, fmt.Errorf("list evaluations: %w", err)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM evaluations e"+where.clause(), where.args...); err != nil {
		return nil, 0, fmt.Errorf("count evaluations: %w", err)
	}
	return items, total, nil
}

// MarkSent moves a draft evaluation to sent. It reports false when the
// evaluation was not in draft.
func (r *EvaluationRepository) MarkSent(ctx context.Context, id string, sentAt time.Time) (bool, error) {
	const query = `UPDATE evaluations SET status = 'sent', sent_at = $2, updated_at = $2 WHERE id = $1 AND status = 'draft'`
	return r.execAffected(ctx, "mark evaluation sent", query, id, sentAt)
}

// RefreshStatus marks a sent evaluation completed once every response is
// completed. The check and the write are one statement, so concurrent
// submissions cannot leave the evaluation stuck. Drafts stay drafts until
// they are sent, even when every link was already answered.
func (r *EvaluationRepository) RefreshStatus(ctx context.Context, id string, now time.Time) (bool, error) {
	const query = `UPDATE evaluations SET status = 'completed', updated_at = $2
WHERE id = $1 AND status = 'sent'
AND EXISTS (SELECT 1 FROM responses WHERE evaluation_id = $1)
AND NOT EXISTS (SELECT 1 FROM responses WHERE evaluation_id = $1 AND status <> 'completed')`
	return r.execAffected(ctx, "refresh evaluation status", query, id, now)
}

// DeleteDraft removes a draft evaluation along with its responses. It
// reports false, deleting nothing, when the evaluation is no longer a draft
// or any of its links has been opened or answered.
func (r *EvaluationRepository) DeleteDraft(ctx context.Context, id string) (bool, error) {
	const query = `DELETE FROM evaluations WHERE id = $1 AND status = 'draft'
AND NOT EXISTS (SELECT 1 FROM responses WHERE evaluation_id = $1 AND status <> 'pending')`
	return r.execAffected(ctx, "delete evaluation", query, id)
}

// UpdateDraft renames a draft evaluation. It reports false when the
// evaluation is no longer a draft.
func (r *EvaluationRepository) UpdateDraft(ctx context.Context, id, name string, description *string, now time.Time) (bool, error) {
	const query = `UPDATE evaluations SET name = $2, description = $3, updated_at = $4 WHERE id = $1 AND status = 'draft'`
	return r.execAffected(ctx, "update evaluation", query, id, name, description, now)
}

func (r *EvaluationRepository) execAffected(ctx context.Context, op, query string, args ...interface{}) (bool, error) {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%s rows: %w", op, err)
	}
	return affected > 0, nil
}
