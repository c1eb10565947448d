package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/talent-assessment-api/internal/models"
	appErrors "github.com/noah-isme/talent-assessment-api/pkg/errors"
)

type fakeEvaluationRepo struct {
	evaluations map[string]*models.Evaluation
	responses   map[string][]models.Response
	createErr   error
	createCalls int
}

func newFakeEvaluationRepo() *fakeEvaluationRepo {
	return &fakeEvaluationRepo{evaluations: map[string]*models.Evaluation{}, responses: map[string][]models.Response{}}
}

func (f *fakeEvaluationRepo) CreateWithResponses(ctx context.Context, eval *models.Evaluation, responses []models.Response) error {
	f.createCalls++
	if f.createErr != nil {
		return f.createErr
	}
	eval.ID = "eval-1"
	eval.CreatedAt = time.Now().UTC()
	for i := range responses {
		responses[i].ID = eval.ID + "-resp-" + string(rune('a'+i))
		responses[i].EvaluationID = eval.ID
		responses[i].Status = models.ResponseStatusPending
		responses[i].CreatedAt = eval.CreatedAt
	}
	copy := *eval
	f.evaluations[eval.ID] = &copy
	f.responses[eval.ID] = append([]models.Response(nil), responses...)
	return nil
}

func (f *fakeEvaluationRepo) FindByID(ctx context.Context, id string) (*models.Evaluation, error) {
	eval, ok := f.evaluations[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copy := *eval
	return &copy, nil
}

func (f *fakeEvaluationRepo) List(ctx context.Context, filter models.EvaluationFilter) ([]models.EvaluationSummary, int, error) {
	var out []models.EvaluationSummary
	for _, eval := range f.evaluations {
		out = append(out, models.EvaluationSummary{Evaluation: *eval, TotalResponses: len(f.responses[eval.ID])})
	}
	return out, len(out), nil
}

func (f *fakeEvaluationRepo) MarkSent(ctx context.Context, id string, sentAt time.Time) (bool, error) {
	eval, ok := f.evaluations[id]
	if !ok || eval.Status != models.EvaluationStatusDraft {
		return false, nil
	}
	eval.Status = models.EvaluationStatusSent
	eval.SentAt = &sentAt
	return true, nil
}

func (f *fakeEvaluationRepo) RefreshStatus(ctx context.Context, id string, now time.Time) (bool, error) {
	eval, ok := f.evaluations[id]
	if !ok || eval.Status != models.EvaluationStatusSent || len(f.responses[id]) == 0 {
		return false, nil
	}
	for _, resp := range f.responses[id] {
		if resp.Status != models.ResponseStatusCompleted {
			return false, nil
		}
	}
	eval.Status = models.EvaluationStatusCompleted
	return true, nil
}

func (f *fakeEvaluationRepo) UpdateDraft(ctx context.Context, id, name string, description *string, now time.Time) (bool, error) {
	eval, ok := f.evaluations[id]
	if !ok || eval.Status != models.EvaluationStatusDraft {
		return false, nil
	}
	eval.Name = name
	eval.Description = description
	eval.UpdatedAt = now
	return true, nil
}

func (f *fakeEvaluationRepo) DeleteDraft(ctx context.Context, id string) (bool, error) {
	eval, ok := f.evaluations[id]
	if !ok || eval.Status != models.EvaluationStatusDraft {
		return false, nil
	}
	for _, resp := range f.responses[id] {
		if resp.Status != models.ResponseStatusPending {
			return false, nil
		}
	}
	delete(f.evaluations, id)
	delete(f.responses, id)
	return true, nil
}

func (f *fakeEvaluationRepo) setResponseStatus(evaluationID string, index int, status models.ResponseStatus) {
	f.responses[evaluationID][index].Status = status
}

func (f *fakeEvaluationRepo) ListByEvaluation(ctx context.Context, evaluationID string) ([]models.ResponseDetail, error) {
	var out []models.ResponseDetail
	for _, resp := range f.responses[evaluationID] {
		name := "Collaborator " + *resp.CollaboratorID
		email := *resp.CollaboratorID + "@example.com"
		out = append(out, models.ResponseDetail{Response: resp, TestName: "Test " + resp.TestID, CollaboratorName: &name, CollaboratorEmail: &email})
	}
	return out, nil
}

type fakeDispatcher struct {
	links []models.AssessmentLink
}

func (f *fakeDispatcher) Dispatch(ctx context.Context, evaluation models.Evaluation, links []models.AssessmentLink) int {
	f.links = append(f.links, links...)
	return len(links)
}

type evaluationFixture struct {
	svc        *EvaluationService
	repo       *fakeEvaluationRepo
	catalog    *fakeTestCatalog
	dispatcher *fakeDispatcher
	audit      *mockAuditWriter
}

func newEvaluationFixture(t *testing.T) evaluationFixture {
	t.Helper()
	repo := newFakeEvaluationRepo()
	catalog := newFakeTestCatalog()
	for _, id := range []string{"A", "B"} {
		test := leadershipTest(1, officialBands())
		test.ID = id
		test.Name = "Test " + id
		catalog.add(test)
	}
	inactive := leadershipTest(4, officialBands())
	inactive.ID = "OLD"
	inactive.Active = false
	catalog.add(inactive)

	directory := &fakeCollaboratorDirectory{items: map[string]models.Collaborator{
		"r1": {ID: "r1", Name: "Ana", Email: "ana@example.com", Active: true},
		"r2": {ID: "r2", Name: "Bruno", Email: "bruno@example.com", Active: true},
	}}
	dispatcher := &fakeDispatcher{}
	audit := &mockAuditWriter{}
	svc := NewEvaluationService(EvaluationServiceParams{
		Evaluations:   repo,
		Tests:         catalog,
		Collaborators: directory,
		Responses:     repo,
		Invitations:   dispatcher,
		Audit:         audit,
		Validator:     validator.New(),
		Logger:        zap.NewNop(),
		Config: EvaluationServiceConfig{
			TokenBytes:    16,
			TokenTTL:      7 * 24 * time.Hour,
			PublicBaseURL: "https://assess.example.com/avaliacao/",
		},
	})
	return evaluationFixture{svc: svc, repo: repo, catalog: catalog, dispatcher: dispatcher, audit: audit}
}

func TestEvaluationCreateFansOut(t *testing.T) {
	f := newEvaluationFixture(t)

	detail, err := f.svc.Create(context.Background(), models.CreateEvaluationRequest{
		Name:            "E1",
		TestIDs:         []string{"A", "B"},
		CollaboratorIDs: []string{"r1", "r2"},
		CreatedBy:       "admin-1",
	}, AuditMeta{ActorID: "admin-1"})
	require.NoError(t, err)

	assert.Equal(t, 1, f.repo.createCalls, "all records are written in one call")
	assert.Equal(t, models.EvaluationStatusDraft, detail.Status)
	require.Len(t, detail.Responses, 4)

	tokens := map[string]struct{}{}
	pairs := map[string]struct{}{}
	for _, resp := range detail.Responses {
		assert.Equal(t, models.ResponseStatusPending, resp.Status)
		assert.Equal(t, 1, resp.TestVersion)
		assert.GreaterOrEqual(t, len(resp.AccessToken), 22)
		tokens[resp.AccessToken] = struct{}{}
		pairs[resp.TestID+"/"+*resp.CollaboratorID] = struct{}{}
	}
	assert.Len(t, tokens, 4, "tokens must be distinct")
	assert.Len(t, pairs, 4)
	require.Len(t, f.audit.logs, 1)
}

func TestEvaluationCreateDeduplicatesIDs(t *testing.T) {
	f := newEvaluationFixture(t)

	detail, err := f.svc.Create(context.Background(), models.CreateEvaluationRequest{
		Name:            "E1",
		TestIDs:         []string{"A", "A"},
		CollaboratorIDs: []string{"r1", " r1 "},
	}, AuditMeta{})
	require.NoError(t, err)
	assert.Len(t, detail.Responses, 1)
	assert.Equal(t, models.StringList{"A"}, detail.TestIDs)
}

func TestEvaluationCreateRejectsUnknownAndInactive(t *testing.T) {
	f := newEvaluationFixture(t)

	_, err := f.svc.Create(context.Background(), models.CreateEvaluationRequest{
		Name: "E1", TestIDs: []string{"A", "ZZ"}, CollaboratorIDs: []string{"r1"},
	}, AuditMeta{})
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
	assert.Contains(t, err.Error(), "ZZ")

	_, err = f.svc.Create(context.Background(), models.CreateEvaluationRequest{
		Name: "E1", TestIDs: []string{"OLD"}, CollaboratorIDs: []string{"r1"},
	}, AuditMeta{})
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	_, err = f.svc.Create(context.Background(), models.CreateEvaluationRequest{
		Name: "E1", TestIDs: []string{"A"}, CollaboratorIDs: []string{"ghost"},
	}, AuditMeta{})
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
	assert.Equal(t, 0, f.repo.createCalls)
}

func TestEvaluationCreateStorageFailure(t *testing.T) {
	f := newEvaluationFixture(t)
	f.repo.createErr = errors.New("insert failed")

	_, err := f.svc.Create(context.Background(), models.CreateEvaluationRequest{
		Name: "E1", TestIDs: []string{"A"}, CollaboratorIDs: []string{"r1"},
	}, AuditMeta{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInternal.Code, appErrors.FromError(err).Code)
	assert.Empty(t, f.repo.evaluations)
}

func TestEvaluationLinksAndSend(t *testing.T) {
	f := newEvaluationFixture(t)
	detail, err := f.svc.Create(context.Background(), models.CreateEvaluationRequest{
		Name: "E1", TestIDs: []string{"A"}, CollaboratorIDs: []string{"r1", "r2"},
	}, AuditMeta{})
	require.NoError(t, err)

	links, err := f.svc.Links(context.Background(), detail.ID)
	require.NoError(t, err)
	require.Len(t, links, 2)
	for _, link := range links {
		assert.True(t, strings.HasPrefix(link.URL, "https://assess.example.com/avaliacao/"))
		assert.NotContains(t, strings.TrimPrefix(link.URL, "https://"), "//")
	}

	eval, queued, err := f.svc.Send(context.Background(), detail.ID, AuditMeta{})
	require.NoError(t, err)
	assert.Equal(t, models.EvaluationStatusSent, eval.Status)
	assert.NotNil(t, eval.SentAt)
	assert.Equal(t, 2, queued)
	assert.Len(t, f.dispatcher.links, 2)

	_, _, err = f.svc.Send(context.Background(), detail.ID, AuditMeta{})
	assert.ErrorIs(t, err, appErrors.ErrConflict)
}

func TestEvaluationDeleteOnlyDraft(t *testing.T) {
	f := newEvaluationFixture(t)
	detail, err := f.svc.Create(context.Background(), models.CreateEvaluationRequest{
		Name: "E1", TestIDs: []string{"A"}, CollaboratorIDs: []string{"r1"},
	}, AuditMeta{})
	require.NoError(t, err)

	_, _, err = f.svc.Send(context.Background(), detail.ID, AuditMeta{})
	require.NoError(t, err)
	assert.ErrorIs(t, f.svc.Delete(context.Background(), detail.ID, AuditMeta{}), appErrors.ErrConflict)

	assert.ErrorIs(t, f.svc.Delete(context.Background(), "missing", AuditMeta{}), appErrors.ErrNotFound)
}

func TestEvaluationDeleteKeepsAnsweredDraft(t *testing.T) {
	f := newEvaluationFixture(t)
	detail, err := f.svc.Create(context.Background(), models.CreateEvaluationRequest{
		Name: "E1", TestIDs: []string{"A"}, CollaboratorIDs: []string{"r1", "r2"},
	}, AuditMeta{})
	require.NoError(t, err)

	links, err := f.svc.Links(context.Background(), detail.ID)
	require.NoError(t, err)
	require.Len(t, links, 2)
	f.repo.setResponseStatus(detail.ID, 0, models.ResponseStatusCompleted)

	err = f.svc.Delete(context.Background(), detail.ID, AuditMeta{})
	require.ErrorIs(t, err, appErrors.ErrConflict)
	assert.Contains(t, err.Error(), "answered")
	assert.Contains(t, f.repo.evaluations, detail.ID)
	assert.Len(t, f.repo.responses[detail.ID], 2)
}

func TestEvaluationDeleteUntouchedDraft(t *testing.T) {
	f := newEvaluationFixture(t)
	detail, err := f.svc.Create(context.Background(), models.CreateEvaluationRequest{
		Name: "E1", TestIDs: []string{"A"}, CollaboratorIDs: []string{"r1"},
	}, AuditMeta{})
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(context.Background(), detail.ID, AuditMeta{}))
	assert.Empty(t, f.repo.evaluations)
}

func TestEvaluationSendCompletesAlreadyAnsweredDraft(t *testing.T) {
	f := newEvaluationFixture(t)
	detail, err := f.svc.Create(context.Background(), models.CreateEvaluationRequest{
		Name: "E1", TestIDs: []string{"A"}, CollaboratorIDs: []string{"r1"},
	}, AuditMeta{})
	require.NoError(t, err)
	f.repo.setResponseStatus(detail.ID, 0, models.ResponseStatusCompleted)

	done, err := f.repo.RefreshStatus(context.Background(), detail.ID, time.Now())
	require.NoError(t, err)
	assert.False(t, done, "a draft is never completed before it is sent")

	eval, _, err := f.svc.Send(context.Background(), detail.ID, AuditMeta{})
	require.NoError(t, err)
	assert.Equal(t, models.EvaluationStatusCompleted, eval.Status)
	assert.NotNil(t, eval.SentAt)
}

func TestEvaluationUpdateOnlyDraft(t *testing.T) {
	f := newEvaluationFixture(t)
	detail, err := f.svc.Create(context.Background(), models.CreateEvaluationRequest{
		Name: "E1", TestIDs: []string{"A"}, CollaboratorIDs: []string{"r1"},
	}, AuditMeta{})
	require.NoError(t, err)
	description := "Leadership round for Q3"

	eval, err := f.svc.Update(context.Background(), detail.ID, models.UpdateEvaluationRequest{Name: "  Q3 review ", Description: &description}, AuditMeta{ActorID: "admin-1"})
	require.NoError(t, err)
	assert.Equal(t, "Q3 review", eval.Name)
	assert.Equal(t, "Q3 review", f.repo.evaluations[detail.ID].Name)
	assert.Equal(t, &description, f.repo.evaluations[detail.ID].Description)
	last := f.audit.logs[len(f.audit.logs)-1]
	assert.Equal(t, models.AuditActionUpdate, last.Action)
	assert.Equal(t, models.AuditResourceEvaluations, last.Resource)

	_, err = f.svc.Update(context.Background(), detail.ID, models.UpdateEvaluationRequest{Name: " "}, AuditMeta{})
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	_, _, err = f.svc.Send(context.Background(), detail.ID, AuditMeta{})
	require.NoError(t, err)
	_, err = f.svc.Update(context.Background(), detail.ID, models.UpdateEvaluationRequest{Name: "Late rename"}, AuditMeta{})
	assert.ErrorIs(t, err, appErrors.ErrConflict)

	_, err = f.svc.Update(context.Background(), "missing", models.UpdateEvaluationRequest{Name: "X"}, AuditMeta{})
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}
