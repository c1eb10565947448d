package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/talent-assessment-api/internal/models"
	"github.com/noah-isme/talent-assessment-api/internal/scoring"
	appErrors "github.com/noah-isme/talent-assessment-api/pkg/errors"
)

type mockTestRepo struct {
	tests     map[string]*models.Test
	versions  map[string][]models.TestVersion
	createErr error
}

func newMockTestRepo() *mockTestRepo {
	return &mockTestRepo{tests: map[string]*models.Test{}, versions: map[string][]models.TestVersion{}}
}

func (m *mockTestRepo) snapshot(test *models.Test) {
	m.versions[test.ID] = append(m.versions[test.ID], models.TestVersion{
		TestID: test.ID, Version: test.Version, Name: test.Name, Questions: test.Questions, Bands: test.Bands,
	})
}

func (m *mockTestRepo) List(ctx context.Context, filter models.TestFilter) ([]models.Test, int, error) {
	var out []models.Test
	for _, test := range m.tests {
		out = append(out, *test)
	}
	return out, len(out), nil
}

func (m *mockTestRepo) ListActive(ctx context.Context) ([]models.Test, error) {
	var out []models.Test
	for _, test := range m.tests {
		if test.Active {
			out = append(out, *test)
		}
	}
	return out, nil
}

func (m *mockTestRepo) FindByID(ctx context.Context, id string) (*models.Test, error) {
	test, ok := m.tests[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *test
	return &clone, nil
}

func (m *mockTestRepo) Create(ctx context.Context, test *models.Test) error {
	if m.createErr != nil {
		return m.createErr
	}
	test.ID = "test-" + test.Code
	test.Version = 1
	clone := *test
	m.tests[test.ID] = &clone
	m.snapshot(&clone)
	return nil
}

func (m *mockTestRepo) Update(ctx context.Context, test *models.Test) error {
	stored, ok := m.tests[test.ID]
	if !ok {
		return sql.ErrNoRows
	}
	test.Version = stored.Version + 1
	clone := *test
	m.tests[test.ID] = &clone
	m.snapshot(&clone)
	return nil
}

func (m *mockTestRepo) SetActive(ctx context.Context, id string, active bool) error {
	test, ok := m.tests[id]
	if !ok {
		return sql.ErrNoRows
	}
	test.Active = active
	return nil
}

func (m *mockTestRepo) ListVersions(ctx context.Context, testID string) ([]models.TestVersion, error) {
	return m.versions[testID], nil
}

func newTestService(repo *mockTestRepo, enforceCoverage bool) *TestService {
	return NewTestService(repo, nil, &mockAuditWriter{}, nil, nil, TestServiceConfig{EnforceBandCoverage: enforceCoverage})
}

func createTestRequest(bands []scoring.Band) models.CreateTestRequest {
	return models.CreateTestRequest{
		Code: " lead ",
		Name: "Leadership",
		Questions: []scoring.Question{
			{ID: "q1", Text: "Delegates tasks", Order: 1},
			{ID: "q2", Text: "Sets goals", Order: 2},
		},
		Bands: bands,
	}
}

func TestTestServiceCreate(t *testing.T) {
	repo := newMockTestRepo()
	svc := newTestService(repo, true)

	test, err := svc.Create(context.Background(), createTestRequest(officialBands()), AuditMeta{ActorID: "admin"})
	require.NoError(t, err)
	assert.Equal(t, "LEAD", test.Code)
	assert.Equal(t, 1, test.Version)
	assert.True(t, test.Active)
	assert.Len(t, repo.versions[test.ID], 1)
}

func TestTestServiceCreateRejectsDefinitionErrors(t *testing.T) {
	svc := newTestService(newMockTestRepo(), true)

	_, err := svc.Create(context.Background(), createTestRequest([]scoring.Band{{Label: "Low", Min: 3, Max: 1}}), AuditMeta{})
	assert.ErrorIs(t, err, appErrors.ErrInvalidBands)

	_, err = svc.Create(context.Background(), createTestRequest([]scoring.Band{{Label: "Low", Min: 1, Max: 2}, {Label: "High", Min: 3, Max: 5}}), AuditMeta{})
	assert.ErrorIs(t, err, appErrors.ErrInvalidBands)
	assert.Contains(t, err.Error(), "(2, 3)")

	req := createTestRequest(officialBands())
	req.Questions = append(req.Questions, scoring.Question{ID: "q1", Text: "Duplicate"})
	_, err = svc.Create(context.Background(), req, AuditMeta{})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestTestServiceCreateAllowsGapsWhenCoverageNotEnforced(t *testing.T) {
	svc := newTestService(newMockTestRepo(), false)

	test, err := svc.Create(context.Background(), createTestRequest([]scoring.Band{{Label: "Low", Min: 1, Max: 2}, {Label: "High", Min: 3, Max: 5}}), AuditMeta{})
	require.NoError(t, err)

	issues, err := svc.BandIssues(context.Background())
	require.NoError(t, err)
	require.Len(t, issues, 1)
	assert.Equal(t, test.ID, issues[0].TestID)
	assert.Equal(t, []scoring.Gap{{From: 2, To: 3}}, issues[0].Gaps)
}

func TestTestServiceCreateDuplicateCode(t *testing.T) {
	repo := newMockTestRepo()
	repo.createErr = &pq.Error{Code: "23505"}
	svc := newTestService(repo, true)

	_, err := svc.Create(context.Background(), createTestRequest(officialBands()), AuditMeta{})
	assert.ErrorIs(t, err, appErrors.ErrConflict)
}

func TestTestServiceUpdateCreatesVersion(t *testing.T) {
	repo := newMockTestRepo()
	svc := newTestService(repo, true)
	test, err := svc.Create(context.Background(), createTestRequest(officialBands()), AuditMeta{})
	require.NoError(t, err)

	name := "Leadership II"
	updated, err := svc.Update(context.Background(), test.ID, models.UpdateTestRequest{
		Name:  &name,
		Bands: []scoring.Band{{Label: "Low", Min: 1, Max: 3}, {Label: "High", Min: 3, Max: 5}},
	}, AuditMeta{})
	require.NoError(t, err)
	assert.Equal(t, 2, updated.Version)
	assert.Equal(t, "Leadership II", updated.Name)

	versions, err := svc.Versions(context.Background(), test.ID)
	require.NoError(t, err)
	require.Len(t, versions, 2)
	assert.Equal(t, "Medium", versions[0].Bands[1].Label, "earlier snapshot is untouched")
}

func TestTestServiceUpdateMissing(t *testing.T) {
	svc := newTestService(newMockTestRepo(), true)
	name := "x"
	_, err := svc.Update(context.Background(), "nope", models.UpdateTestRequest{Name: &name}, AuditMeta{})
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestTestServiceDeactivate(t *testing.T) {
	repo := newMockTestRepo()
	svc := newTestService(repo, true)
	test, err := svc.Create(context.Background(), createTestRequest(officialBands()), AuditMeta{})
	require.NoError(t, err)

	require.NoError(t, svc.Deactivate(context.Background(), test.ID, AuditMeta{}))
	assert.False(t, repo.tests[test.ID].Active)
	assert.ErrorIs(t, svc.Deactivate(context.Background(), "nope", AuditMeta{}), appErrors.ErrNotFound)
}
