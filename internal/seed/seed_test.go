package seed

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/talent-assessment-api/internal/models"
	"github.com/noah-isme/talent-assessment-api/internal/scoring"
	"github.com/noah-isme/talent-assessment-api/internal/service"
)

type memoryTests struct {
	byCode map[string]models.Test
}

func (m *memoryTests) FindByCode(_ context.Context, code string) (*models.Test, error) {
	test, ok := m.byCode[code]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &test, nil
}

func (m *memoryTests) Create(_ context.Context, req models.CreateTestRequest, _ service.AuditMeta) (*models.Test, error) {
	test := models.Test{ID: "id-" + req.Code, Code: req.Code, Name: req.Name}
	m.byCode[req.Code] = test
	return &test, nil
}

type memoryUsers struct {
	users []models.User
}

func (m *memoryUsers) Count(context.Context) (int, error) { return len(m.users), nil }

func (m *memoryUsers) Create(_ context.Context, req models.CreateUserRequest, _ service.AuditMeta) (*models.User, error) {
	user := models.User{ID: "u-1", Email: req.Email, Role: req.Role}
	m.users = append(m.users, user)
	return &user, nil
}

func TestOfficialTestsHaveGapFreeBands(t *testing.T) {
	tests := OfficialTests()
	require.GreaterOrEqual(t, len(tests), 4)
	for _, req := range tests {
		assert.Empty(t, scoring.Gaps(scoring.BandTable(req.Bands)), req.Code)
		assert.NoError(t, scoring.ValidateQuestions(req.Questions), req.Code)
		label, err := scoring.Classify(2.5, scoring.BandTable(req.Bands))
		require.NoError(t, err)
		assert.Equal(t, "Low", label, "shared boundary resolves to the first band")
	}
}

func TestSeederIsIdempotent(t *testing.T) {
	tests := &memoryTests{byCode: map[string]models.Test{}}
	users := &memoryUsers{}
	seeder := New(tests, tests, users, users, nil)
	admin := Admin{Email: "admin@example.com", FullName: "Admin", Password: "changeme123"}

	first, err := seeder.Run(context.Background(), admin)
	require.NoError(t, err)
	assert.Equal(t, len(OfficialTests()), first.TestsCreated)
	assert.True(t, first.AdminCreated)
	assert.Equal(t, models.RoleAdmin, users.users[0].Role)

	second, err := seeder.Run(context.Background(), admin)
	require.NoError(t, err)
	assert.Zero(t, second.TestsCreated)
	assert.Equal(t, len(OfficialTests()), second.TestsSkipped)
	assert.False(t, second.AdminCreated)
	assert.Len(t, users.users, 1)
}

func TestSeederSkipsAdminWithoutCredentials(t *testing.T) {
	tests := &memoryTests{byCode: map[string]models.Test{}}
	users := &memoryUsers{}

	result, err := New(tests, tests, users, users, nil).Run(context.Background(), Admin{})
	require.NoError(t, err)
	assert.False(t, result.AdminCreated)
	assert.Empty(t, users.users)
}
