package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/talent-assessment-api/internal/models"
	appErrors "github.com/noah-isme/talent-assessment-api/pkg/errors"
)

type mockUserRepo struct {
	users map[string]*models.User
}

func (m *mockUserRepo) List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error) {
	var users []models.User
	for _, u := range m.users {
		users = append(users, *u)
	}
	return users, len(users), nil
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	if user, ok := m.users[id]; ok {
		copy := *user
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			copy := *u
			return &copy, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockUserRepo) Create(ctx context.Context, user *models.User) error {
	if m.users == nil {
		m.users = make(map[string]*models.User)
	}
	copy := *user
	m.users[user.ID] = &copy
	return nil
}

func (m *mockUserRepo) Update(ctx context.Context, user *models.User) error {
	copy := *user
	m.users[user.ID] = &copy
	return nil
}

func TestUserServiceCreate(t *testing.T) {
	repo := &mockUserRepo{}
	audit := &mockAuditWriter{}
	svc := NewUserService(repo, audit, validator.New(), zap.NewNop())

	user, err := svc.Create(context.Background(), models.CreateUserRequest{
		Email:    "Editor@Example.com",
		FullName: "Editor",
		Password: "password123",
		Role:     models.RoleEditor,
	}, AuditMeta{ActorID: "admin"})
	require.NoError(t, err)
	assert.Equal(t, "editor@example.com", user.Email)
	assert.True(t, user.Active)
	assert.NotEqual(t, "password123", user.PasswordHash)
	require.Len(t, audit.logs, 1)
	assert.Equal(t, "admin", *audit.logs[0].UserID)
}

func TestUserServiceCreateDuplicateEmail(t *testing.T) {
	repo := &mockUserRepo{users: map[string]*models.User{"u1": {ID: "u1", Email: "taken@example.com"}}}
	svc := NewUserService(repo, nil, validator.New(), zap.NewNop())

	_, err := svc.Create(context.Background(), models.CreateUserRequest{
		Email: "taken@example.com", FullName: "Someone", Password: "password123", Role: models.RoleViewer,
	}, AuditMeta{})
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestUserServiceCreateRejectsUnknownRole(t *testing.T) {
	svc := NewUserService(&mockUserRepo{}, nil, validator.New(), zap.NewNop())

	_, err := svc.Create(context.Background(), models.CreateUserRequest{
		Email: "x@example.com", FullName: "Someone", Password: "password123", Role: "ROOT",
	}, AuditMeta{})
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestUserServiceUpdateDeactivates(t *testing.T) {
	repo := &mockUserRepo{users: map[string]*models.User{"u1": {ID: "u1", Email: "a@example.com", Role: models.RoleViewer, Active: true}}}
	svc := NewUserService(repo, nil, validator.New(), zap.NewNop())

	inactive := false
	role := models.RoleEditor
	user, err := svc.Update(context.Background(), "u1", models.UpdateUserRequest{Active: &inactive, Role: &role}, AuditMeta{})
	require.NoError(t, err)
	assert.False(t, user.Active)
	assert.Equal(t, models.RoleEditor, repo.users["u1"].Role)
}

func TestUserServiceGetMissing(t *testing.T) {
	svc := NewUserService(&mockUserRepo{}, nil, validator.New(), zap.NewNop())

	_, err := svc.Get(context.Background(), "ghost")
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
