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

const collaboratorColumns = `id, name, email, department, position, active, created_at, updated_at`

// CollaboratorRepository persists assessment recipients.
type CollaboratorRepository struct {
	db *sqlx.DB
}

// NewCollaboratorRepository constructs the repository.
func NewCollaboratorRepository(db *sqlx.DB) *CollaboratorRepository {
	return &CollaboratorRepository{db: db}
}

// List returns collaborators matching the filter plus the total count.
func (r *CollaboratorRepository) List(ctx context.Context, filter models.CollaboratorFilter) ([]models.Collaborator, int, error) {
	where := &whereBuilder{}
	if filter.Active != nil {
		where.add("active = $%d", *filter.Active)
	}
	if filter.Department != "" {
		where.add("department = $%d", filter.Department)
	}
	if filter.Search != "" {
		where.addLike([]string{"name", "email"}, filter.Search)
	}

	page, size := models.NormalizePage(filter.Page, filter.PageSize)
	query := fmt.Sprintf("SELECT %s FROM collaborators%s ORDER BY name ASC LIMIT %d OFFSET %d", collaboratorColumns, where.clause(), size, (page-1)*size)

	var items []models.Collaborator
	if err := r.db.SelectContext(ctx, &items, query, where.args...); err != nil {
		return nil, 0, fmt.Errorf("list collaborators: %w", err)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM collaborators"+where.clause(), where.args...); err != nil {
		return nil, 0, fmt.Errorf("count collaborators: %w", err)
	}
	return items, total, nil
}

// FindByID returns a collaborator by id.
func (r *CollaboratorRepository) FindByID(ctx context.Context, id string) (*models.Collaborator, error) {
	query := `SELECT ` + collaboratorColumns + ` FROM collaborators WHERE id = $1`
	var item models.Collaborator
	if err := r.db.GetContext(ctx, &item, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find collaborator: %w", err)
	}
	return &item, nil
}

// FindByIDs returns the collaborators with the given ids.
func (r *CollaboratorRepository) FindByIDs(ctx context.Context, ids []string) ([]models.Collaborator, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(`SELECT `+collaboratorColumns+` FROM collaborators WHERE id IN (?)`, ids)
	if err != nil {
		return nil, fmt.Errorf("build collaborators query: %w", err)
	}
	var items []models.Collaborator
	if err := r.db.SelectContext(ctx, &items, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("find collaborators by ids: %w", err)
	}
	return items, nil
}

// Create inserts a collaborator.
func (r *CollaboratorRepository) Create(ctx context.Context, item *models.Collaborator) error {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	item.CreatedAt = now
	item.UpdatedAt = now

	const query = `INSERT INTO collaborators (id, name, email, department, position, active, created_at, updated_at) VALUES (:id, :name, :email, :department, :position, :active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, item); err != nil {
		return fmt.Errorf("create collaborator: %w", err)
	}
	return nil
}

// Update writes mutable collaborator fields.
func (r *CollaboratorRepository) Update(ctx context.Context, item *models.Collaborator) error {
	item.UpdatedAt = time.Now().UTC()
	const query = `UPDATE collaborators SET name = :name, email = :email, department = :department, position = :position, active = :active, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, item); err != nil {
		return fmt.Errorf("update collaborator: %w", err)
	}
	return nil
}
