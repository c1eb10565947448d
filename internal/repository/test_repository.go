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

const testColumns = `id, code, name, description, category, questions, bands, version, active, created_at, updated_at`

// TestRepository persists test definitions and their version snapshots.
type TestRepository struct {
	db *sqlx.DB
}

// NewTestRepository constructs the repository.
func NewTestRepository(db *sqlx.DB) *TestRepository {
	return &TestRepository{db: db}
}

// List returns tests matching the filter plus the total count.
func (r *TestRepository) List(ctx context.Context, filter models.TestFilter) ([]models.Test, int, error) {
	where := &whereBuilder{}
	if filter.Active != nil {
		where.add("active = $%d", *filter.Active)
	}
	if filter.Category != "" {
		where.add("category = $%d", filter.Category)
	}
	if filter.Search != "" {
		where.addLike([]string{"name", "code"}, filter.Search)
	}

	page, size := models.NormalizePage(filter.Page, filter.PageSize)
	query := fmt.Sprintf("SELECT %s FROM tests%s ORDER BY name ASC LIMIT %d OFFSET %d", testColumns, where.clause(), size, (page-1)*size)

	var tests []models.Test
	if err := r.db.SelectContext(ctx, &tests, query, where.args...); err != nil {
		return nil, 0, fmt.Errorf("list tests: %w", err)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM tests"+where.clause(), where.args...); err != nil {
		return nil, 0, fmt.Errorf("count tests: %w", err)
	}
	return tests, total, nil
}

// ListActive returns every active test.
func (r *TestRepository) ListActive(ctx context.Context) ([]models.Test, error) {
	query := `SELECT ` + testColumns + ` FROM tests WHERE active = TRUE ORDER BY name ASC`
	var tests []models.Test
	if err := r.db.SelectContext(ctx, &tests, query); err != nil {
		return nil, fmt.Errorf("list active tests: %w", err)
	}
	return tests, nil
}

// FindByID returns a test by id.
func (r *TestRepository) FindByID(ctx context.Context, id string) (*models.Test, error) {
	query := `SELECT ` + testColumns + ` FROM tests WHERE id = $1`
	var test models.Test
	if err := r.db.GetContext(ctx, &test, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find test: %w", err)
	}
	return &test, nil
}

// FindByCode returns a test by its unique code.
func (r *TestRepository) FindByCode(ctx context.Context, code string) (*models.Test, error) {
	query := `SELECT ` + testColumns + ` FROM tests WHERE code = $1`
	var test models.Test
	if err := r.db.GetContext(ctx, &test, query, code); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find test by code: %w", err)
	}
	return &test, nil
}

// FindByIDs returns the tests with the given ids, in no particular order.
func (r *TestRepository) FindByIDs(ctx context.Context, ids []string) ([]models.Test, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(`SELECT `+testColumns+` FROM tests WHERE id IN (?)`, ids)
	if err != nil {
		return nil, fmt.Errorf("build tests query: %w", err)
	}
	var tests []models.Test
	if err := r.db.SelectContext(ctx, &tests, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("find tests by ids: %w", err)
	}
	return tests, nil
}

// Create inserts a test at version 1 together with its first snapshot.
func (r *TestRepository) Create(ctx context.Context, test *models.Test) error {
	if test.ID == "" {
		test.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	test.CreatedAt = now
	test.UpdatedAt = now
	test.Version = 1

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create test: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const insert = `INSERT INTO tests (id, code, name, description, category, questions, bands, version, active, created_at, updated_at) VALUES (:id, :code, :name, :description, :category, :questions, :bands, :version, :active, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, insert, test); err != nil {
		return fmt.Errorf("create test: %w", err)
	}
	if err := insertSnapshot(ctx, tx, test); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create test: %w", err)
	}
	return nil
}

// Update stores the new definition, increments the version and snapshots it.
// Responses pinned to earlier versions keep scoring against their snapshot.
func (r *TestRepository) Update(ctx context.Context, test *models.Test) error {
	test.UpdatedAt = time.Now().UTC()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin update test: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const update = `UPDATE tests SET name = $2, description = $3, category = $4, questions = $5, bands = $6, active = $7, version = version + 1, updated_at = $8 WHERE id = $1 RETURNING version`
	if err := tx.GetContext(ctx, &test.Version, update,
		test.ID, test.Name, test.Description, test.Category, test.Questions, test.Bands, test.Active, test.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return err
		}
		return fmt.Errorf("update test: %w", err)
	}
	if err := insertSnapshot(ctx, tx, test); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit update test: %w", err)
	}
	return nil
}

// SetActive toggles availability without creating a new version.
func (r *TestRepository) SetActive(ctx context.Context, id string, active bool) error {
	res, err := r.db.ExecContext(ctx, `UPDATE tests SET active = $2, updated_at = $3 WHERE id = $1`, id, active, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("set test active: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// FindVersion returns the snapshot of a test at a given version.
func (r *TestRepository) FindVersion(ctx context.Context, testID string, version int) (*models.TestVersion, error) {
	const query = `SELECT test_id, version, name, questions, bands, created_at FROM test_versions WHERE test_id = $1 AND version = $2`
	var snapshot models.TestVersion
	if err := r.db.GetContext(ctx, &snapshot, query, testID, version); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find test version: %w", err)
	}
	return &snapshot, nil
}

// ListVersions returns all snapshots of a test, newest first.
func (r *TestRepository) ListVersions(ctx context.Context, testID string) ([]models.TestVersion, error) {
	const query = `SELECT test_id, version, name, questions, bands, created_at FROM test_versions WHERE test_id = $1 ORDER BY version DESC`
	var versions []models.TestVersion
	if err := r.db.SelectContext(ctx, &versions, query, testID); err != nil {
		return nil, fmt.Errorf("list test versions: %w", err)
	}
	return versions, nil
}

func insertSnapshot(ctx context.Context, tx *sqlx.Tx, test *models.Test) error {
	const query = `INSERT INTO test_versions (test_id, version, name, questions, bands, created_at) VALUES ($1, $2, $3, $4, $5, $6)`
	if _, err := tx.ExecContext(ctx, query, test.ID, test.Version, test.Name, test.Questions, test.Bands, test.UpdatedAt); err != nil {
		return fmt.Errorf("snapshot test version: %w", err)
	}
	return nil
}
