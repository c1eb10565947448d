package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/talent-assessment-api/internal/models"
	appErrors "github.com/noah-isme/talent-assessment-api/pkg/errors"
)

type mockCollaboratorRepo struct {
	items map[string]*models.Collaborator
	seq   int
}

func (m *mockCollaboratorRepo) List(ctx context.Context, filter models.CollaboratorFilter) ([]models.Collaborator, int, error) {
	var out []models.Collaborator
	for _, item := range m.items {
		out = append(out, *item)
	}
	return out, len(out), nil
}

func (m *mockCollaboratorRepo) FindByID(ctx context.Context, id string) (*models.Collaborator, error) {
	item, ok := m.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *item
	return &clone, nil
}

func (m *mockCollaboratorRepo) emailTaken(email, exceptID string) bool {
	for id, item := range m.items {
		if id != exceptID && item.Email == email {
			return true
		}
	}
	return false
}

func (m *mockCollaboratorRepo) Create(ctx context.Context, item *models.Collaborator) error {
	if m.emailTaken(item.Email, "") {
		return &pq.Error{Code: "23505"}
	}
	m.seq++
	item.ID = "collab-" + string(rune('0'+m.seq))
	clone := *item
	m.items[item.ID] = &clone
	return nil
}

func (m *mockCollaboratorRepo) Update(ctx context.Context, item *models.Collaborator) error {
	if _, ok := m.items[item.ID]; !ok {
		return sql.ErrNoRows
	}
	if m.emailTaken(item.Email, item.ID) {
		return &pq.Error{Code: "23505"}
	}
	clone := *item
	m.items[item.ID] = &clone
	return nil
}

func newCollaboratorFixture() (*CollaboratorService, *mockCollaboratorRepo, *mockAuditWriter) {
	repo := &mockCollaboratorRepo{items: map[string]*models.Collaborator{}}
	audit := &mockAuditWriter{}
	return NewCollaboratorService(repo, nil, audit, nil, nil), repo, audit
}

func TestCollaboratorCreateNormalisesEmail(t *testing.T) {
	svc, _, audit := newCollaboratorFixture()

	item, err := svc.Create(context.Background(), models.CreateCollaboratorRequest{Name: "Ana Souza", Email: "Ana@Example.com"}, AuditMeta{ActorID: "admin"})
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", item.Email)
	assert.True(t, item.Active)
	require.Len(t, audit.logs, 1)
	assert.Equal(t, "collaborators", audit.logs[0].Resource)

	_, err = svc.Create(context.Background(), models.CreateCollaboratorRequest{Name: "Ana Two", Email: "ANA@example.com"}, AuditMeta{})
	assert.ErrorIs(t, err, appErrors.ErrConflict)
}

func TestCollaboratorCreateValidation(t *testing.T) {
	svc, _, _ := newCollaboratorFixture()

	_, err := svc.Create(context.Background(), models.CreateCollaboratorRequest{Name: "A", Email: "not-an-email"}, AuditMeta{})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestCollaboratorUpdateAndDeactivate(t *testing.T) {
	svc, repo, _ := newCollaboratorFixture()
	item, err := svc.Create(context.Background(), models.CreateCollaboratorRequest{Name: "Bruno", Email: "bruno@example.com"}, AuditMeta{})
	require.NoError(t, err)

	dept := "Sales"
	updated, err := svc.Update(context.Background(), item.ID, models.UpdateCollaboratorRequest{Department: &dept}, AuditMeta{})
	require.NoError(t, err)
	require.NotNil(t, updated.Department)
	assert.Equal(t, "Sales", *updated.Department)

	require.NoError(t, svc.Deactivate(context.Background(), item.ID, AuditMeta{}))
	assert.False(t, repo.items[item.ID].Active)

	_, err = svc.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}
